package dto

import (
	"time"

	"smssignup/internal/entity"
)

type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type OAuthCallbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
}

type SignInResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	NextStep    string       `json:"next_step"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	PhoneNumber     *string   `json:"phone_number,omitempty"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:              user.ID.String(),
		Email:           user.Email,
		FirstName:       user.FirstName,
		PhoneNumber:     user.PhoneNumber,
		IsPhoneVerified: user.IsPhoneVerified,
		IsActive:        user.IsActive,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// MobileUserProfile is the profile view rendered on the dashboard.
type MobileUserProfile struct {
	FirstName          string                    `json:"first_name"`
	Email              string                    `json:"email"`
	PhoneNumber        *string                   `json:"phone_number"`
	VerificationStatus entity.VerificationStatus `json:"verification_status"`
	SignupCompleted    bool                      `json:"signup_completed"`
	CreatedDate        string                    `json:"created_date"`
}

type ProfileResponse struct {
	Profile        MobileUserProfile `json:"profile"`
	SignupComplete bool              `json:"signup_complete"`
	NextStep       string            `json:"next_step"`
}

type DashboardResponse struct {
	Message string            `json:"message"`
	Profile MobileUserProfile `json:"profile"`
}
