package handler

import (
	"errors"
	"net/http"
	"time"

	"smssignup/internal/dto"
	"smssignup/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Identity        *service.IdentityService
	States          service.OAuthStateIssuer
	Logger          logrus.FieldLogger
	StateCookieName string
	CookieDomain    string
	SecureCookies   bool
	SameSite        http.SameSite
}

func NewAuthHandler(identity *service.IdentityService, states service.OAuthStateIssuer, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Identity:        identity,
		States:          states,
		Logger:          logger,
		StateCookieName: "oauth_state",
		SecureCookies:   true,
		SameSite:        http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	state, ttl, err := h.States.IssueState()
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	h.setStateCookie(c, state, ttl)
	return c.JSON(http.StatusOK, dto.AuthURLResponse{AuthURL: h.Identity.AuthURL(state)})
}

func (h *AuthHandler) Callback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		return writeError(c, http.StatusBadRequest, errors.New("authorization denied: "+providerErr))
	}
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return writeError(c, http.StatusBadRequest, errors.New("code and state are required"))
	}

	if err := h.States.ValidateState(state); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	if cookie, err := c.Cookie(h.StateCookieName); err == nil && cookie.Value != state {
		return writeServiceError(c, h.Logger, service.ErrInvalidState)
	}
	h.clearStateCookie(c)

	result, err := h.Identity.SignIn(c.Request().Context(), code)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.SignInResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
		NextStep:    result.NextStep,
		User:        dto.UserResponseFromEntity(result.User),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearStateCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) setStateCookie(c echo.Context, state string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     h.StateCookieName,
		Value:    state,
		Path:     "/auth",
		Domain:   h.CookieDomain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.StateCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}
