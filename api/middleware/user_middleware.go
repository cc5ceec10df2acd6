package middleware

import (
	"context"
	"net/http"

	"smssignup/internal/entity"
	"smssignup/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// UserLoader resolves the authenticated user id into the stored user. It must
// run after RequireAuth.
type UserLoader struct {
	Users UserFinder
}

func (l UserLoader) LoadUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := UserIDFromContext(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		user, err := l.Users.GetByID(c.Request().Context(), userID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetCurrentUser(c, user)
		return next(c)
	}
}

func RequireVerifiedPhone(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUserFromContext(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if step := service.NextStep(user); step != service.StepDashboard {
			return c.JSON(http.StatusForbidden, map[string]string{
				"message":   service.ErrPhoneNotVerified.Error(),
				"next_step": step,
			})
		}
		return next(c)
	}
}
