package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubUsers map[uuid.UUID]*entity.User

func (s stubUsers) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s[id], nil
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("secret"), AccessTokenTTL: time.Minute}
	e := echo.New()
	var seen uuid.UUID
	e.GET("/private", func(c echo.Context) error {
		seen, _ = UserIDFromContext(c)
		return c.NoContent(http.StatusNoContent)
	}, AuthMiddleware{JWT: manager}.RequireAuth)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	id := uuid.New()
	token, _, err := manager.IssueAccessToken(id.String())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer "+token)
	assert.Equal(t, http.StatusNoContent, serve(e, req).Code)
	assert.Equal(t, id, seen)
}

func TestLoadUserAndRequireVerifiedPhone(t *testing.T) {
	phone := "+15551234567"
	unverified := &entity.User{ID: uuid.New(), Email: "u@example.com", IsActive: true}
	verified := &entity.User{ID: uuid.New(), Email: "v@example.com", IsActive: true, PhoneNumber: &phone, IsPhoneVerified: true}
	inactive := &entity.User{ID: uuid.New(), Email: "i@example.com"}
	users := stubUsers{unverified.ID: unverified, verified.ID: verified, inactive.ID: inactive}

	e := echo.New()
	withUser := func(id uuid.UUID) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				SetAuthContext(c, id)
				return next(c)
			}
		}
	}
	for _, u := range []*entity.User{unverified, verified, inactive} {
		e.GET("/dashboard/"+u.ID.String(), okHandler, withUser(u.ID), UserLoader{Users: users}.LoadUser, RequireVerifiedPhone)
	}
	missing := uuid.New()
	e.GET("/dashboard/"+missing.String(), okHandler, withUser(missing), UserLoader{Users: users}.LoadUser, RequireVerifiedPhone)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/dashboard/"+unverified.ID.String(), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_step":"phone_verification"`)

	assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/dashboard/"+verified.ID.String(), nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/dashboard/"+inactive.ID.String(), nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/dashboard/"+missing.String(), nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	e := echo.New()
	e.GET("/limited", okHandler, limiter.Middleware())

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(e, req).Code
	}
	assert.Equal(t, http.StatusNoContent, request("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, request("10.0.0.2"))
}

func TestPerUserOrIP(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "ip:10.0.0.9", PerUserOrIP(c))

	id := uuid.New()
	SetAuthContext(c, id)
	assert.Equal(t, "user:"+id.String(), PerUserOrIP(c))
}
