package middleware

import (
	"smssignup/internal/entity"
	"smssignup/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey = "auth_user_id"
	contextUserKey   = "auth_user"
)

func SetAuthContext(c echo.Context, userID uuid.UUID) {
	c.Set(contextUserIDKey, userID)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func SetCurrentUser(c echo.Context, user *entity.User) {
	c.Set(contextUserKey, user)
}

func CurrentUserFromContext(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(contextUserKey).(*entity.User)
	return user, ok && user != nil
}

// ClientIP copies the caller's address into the request context for the
// audit log.
func ClientIP(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		request := c.Request()
		c.SetRequest(request.WithContext(service.WithClientIP(request.Context(), c.RealIP())))
		return next(c)
	}
}
