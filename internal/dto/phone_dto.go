package dto

import (
	"time"

	"smssignup/internal/entity"
)

type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=20,phone"`
}

type VerifyCodeRequest struct {
	PhoneNumber      string `json:"phone_number" validate:"required,max=20,phone"`
	VerificationCode string `json:"verification_code" validate:"required,otp"`
}

type StatusQuery struct {
	PhoneNumber string `query:"phone_number" validate:"required,max=20,phone"`
}

type MobileVerificationStatus struct {
	IsVerified        bool   `json:"is_verified"`
	PhoneNumber       string `json:"phone_number"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	ExpiresInMinutes  int    `json:"expires_in_minutes"`
	NextStep          string `json:"next_step"`
}

type SendCodeResponse struct {
	MobileVerificationStatus
	SMSStatus *string   `json:"sms_status,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyCodeResponse struct {
	Success  bool                      `json:"success"`
	Message  string                    `json:"message"`
	Status   *MobileVerificationStatus `json:"status,omitempty"`
	NextStep string                    `json:"next_step"`
}

type PhoneVerificationResponse struct {
	ID               string                    `json:"id"`
	PhoneNumber      string                    `json:"phone_number"`
	Status           entity.VerificationStatus `json:"status"`
	Attempts         int                       `json:"attempts"`
	MaxAttempts      int                       `json:"max_attempts"`
	ExpiresAt        time.Time                 `json:"expires_at"`
	VerifiedAt       *time.Time                `json:"verified_at,omitempty"`
	SMSServiceStatus *string                   `json:"sms_status,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

func PhoneVerificationResponseFromEntity(v *entity.PhoneVerification) PhoneVerificationResponse {
	return PhoneVerificationResponse{
		ID:               v.ID.String(),
		PhoneNumber:      v.PhoneNumber,
		Status:           v.Status,
		Attempts:         v.Attempts,
		MaxAttempts:      v.MaxAttempts,
		ExpiresAt:        v.ExpiresAt,
		VerifiedAt:       v.VerifiedAt,
		SMSServiceStatus: v.SMSServiceStatus,
		CreatedAt:        v.CreatedAt,
	}
}

type StatusResponse struct {
	MobileVerificationStatus
	Verification PhoneVerificationResponse `json:"verification"`
}
