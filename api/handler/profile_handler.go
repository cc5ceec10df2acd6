package handler

import (
	"net/http"

	"smssignup/internal/dto"
	"smssignup/internal/service"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	Users *service.UserService
}

func (h *ProfileHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if user == nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ProfileResponse{
		Profile:        h.Users.ComputeProfile(user),
		SignupComplete: h.Users.IsSignupComplete(user),
		NextStep:       service.NextStep(user),
	})
}

// Dashboard is only reachable once the phone is verified.
func (h *ProfileHandler) Dashboard(c echo.Context) error {
	user, err := currentUser(c)
	if user == nil {
		return err
	}
	name := user.FirstName
	if name == "" {
		name = user.Email
	}
	return c.JSON(http.StatusOK, dto.DashboardResponse{
		Message: "Welcome, " + name + "! Your sign-up is complete.",
		Profile: h.Users.ComputeProfile(user),
	})
}
