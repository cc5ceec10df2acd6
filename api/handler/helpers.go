package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"smssignup/api/middleware"
	"smssignup/internal/entity"
	"smssignup/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	errUnauthorized   = errors.New("unauthorized")
	errNoVerification = errors.New(service.MessageNoVerification)
)

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func validate(v *validator.Validate, payload any) error {
	if v == nil {
		return nil
	}
	return v.Struct(payload)
}

func currentUser(c echo.Context) (*entity.User, error) {
	user, ok := middleware.CurrentUserFromContext(c)
	if !ok {
		return nil, writeError(c, http.StatusUnauthorized, errUnauthorized)
	}
	return user, nil
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeServiceError(c echo.Context, logger logrus.FieldLogger, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrPhoneNotVerified):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrIdentityExchange):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
		}
		return writeError(c, status, errors.New("internal server error"))
	}
	return writeError(c, status, err)
}
