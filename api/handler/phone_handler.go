package handler

import (
	"context"
	"net/http"
	"time"

	"smssignup/internal/dto"
	"smssignup/internal/entity"
	"smssignup/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const welcomeTimeout = 10 * time.Second

type PhoneHandler struct {
	Verifications *service.PhoneVerificationService
	Notifier      service.Notifier
	Validate      *validator.Validate
	Clock         service.Clock
	Logger        logrus.FieldLogger
}

func (h *PhoneHandler) SendCode(c echo.Context) error {
	user, err := currentUser(c)
	if user == nil {
		return err
	}
	var req dto.SendCodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	verification, err := h.Verifications.SendCode(c.Request().Context(), user, req.PhoneNumber)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	if verification == nil {
		return writeError(c, http.StatusUnauthorized, errUnauthorized)
	}
	return c.JSON(http.StatusOK, dto.SendCodeResponse{
		MobileVerificationStatus: service.DescribeVerification(verification, h.now()),
		SMSStatus:                verification.SMSServiceStatus,
		ExpiresAt:                verification.ExpiresAt,
	})
}

func (h *PhoneHandler) VerifyCode(c echo.Context) error {
	user, err := currentUser(c)
	if user == nil {
		return err
	}
	var req dto.VerifyCodeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	result, err := h.Verifications.VerifyCode(c.Request().Context(), user, req.PhoneNumber, req.VerificationCode)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	response := dto.VerifyCodeResponse{
		Success:  result.Success,
		Message:  result.Message,
		NextStep: service.NextStep(user),
	}
	if result.Verification != nil {
		status := service.DescribeVerification(result.Verification, h.now())
		response.Status = &status
	}
	if !result.Success {
		return c.JSON(http.StatusUnprocessableEntity, response)
	}

	h.sendWelcome(c.Request().Context(), *user)
	return c.JSON(http.StatusOK, response)
}

func (h *PhoneHandler) Status(c echo.Context) error {
	user, err := currentUser(c)
	if user == nil {
		return err
	}
	query := dto.StatusQuery{PhoneNumber: c.QueryParam("phone_number")}
	if err := validate(h.Validate, query); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	verification, err := h.Verifications.GetStatus(c.Request().Context(), user, query.PhoneNumber)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	if verification == nil {
		return writeError(c, http.StatusNotFound, errNoVerification)
	}
	return c.JSON(http.StatusOK, dto.StatusResponse{
		MobileVerificationStatus: service.DescribeVerification(verification, h.now()),
		Verification:             dto.PhoneVerificationResponseFromEntity(verification),
	})
}

func (h *PhoneHandler) sendWelcome(ctx context.Context, user entity.User) {
	if h.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)
	go func() {
		defer cancel()
		if err := h.Notifier.SendWelcome(ctx, &user); err != nil && h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", user.ID).Warn("welcome email not sent")
		}
	}()
}

func (h *PhoneHandler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}
