package routes

import (
	"time"

	"smssignup/api/handler"
	"smssignup/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Phone          *handler.PhoneHandler
	Profile        *handler.ProfileHandler
	Health         *handler.HealthHandler
	AuthMiddleware middleware.AuthMiddleware
	UserLoader     middleware.UserLoader
	AuthRate       *middleware.RateLimiter
	SMSRate        *middleware.RateLimiter
}

// NewRouter wires the handlers with the default limiters. smsPerMinute caps
// phone endpoint calls per user.
func NewRouter(
	e *echo.Echo,
	auth *handler.AuthHandler,
	phone *handler.PhoneHandler,
	profile *handler.ProfileHandler,
	health *handler.HealthHandler,
	authMiddleware middleware.AuthMiddleware,
	loader middleware.UserLoader,
	smsPerMinute int,
) *Router {
	if smsPerMinute <= 0 {
		smsPerMinute = 30
	}
	smsRate := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(smsPerMinute)), smsPerMinute, 10*time.Minute)
	smsRate.KeyFunc = middleware.PerUserOrIP
	return &Router{
		Echo:           e,
		Auth:           auth,
		Phone:          phone,
		Profile:        profile,
		Health:         health,
		AuthMiddleware: authMiddleware,
		UserLoader:     loader,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		SMSRate:        smsRate,
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	e.Use(middleware.ClientIP)

	e.GET("/healthz", r.Health.Health)

	e.GET("/auth/login", r.Auth.Login, r.AuthRate.Middleware())
	e.GET("/auth/callback", r.Auth.Callback, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout)

	signedIn := []echo.MiddlewareFunc{r.AuthMiddleware.RequireAuth, r.UserLoader.LoadUser}
	phone := append(append([]echo.MiddlewareFunc{}, signedIn...), r.SMSRate.Middleware())
	verified := append(append([]echo.MiddlewareFunc{}, signedIn...), middleware.RequireVerifiedPhone)

	e.GET("/me", r.Profile.Me, signedIn...)
	e.GET("/dashboard", r.Profile.Dashboard, verified...)

	e.POST("/phone/send-code", r.Phone.SendCode, phone...)
	e.POST("/phone/verify", r.Phone.VerifyCode, phone...)
	e.GET("/phone/status", r.Phone.Status, phone...)
}
