package service

import (
	"math"
	"time"

	"smssignup/internal/dto"
	"smssignup/internal/entity"
)

const (
	StepAuth              = "auth"
	StepPhoneVerification = "phone_verification"
	StepDashboard         = "dashboard"

	StepEnterCode            = "enter_code"
	StepResendCode           = "resend_code"
	StepVerificationComplete = "verification_complete"
)

// NextStep names the page a signed-in user belongs on.
func NextStep(user *entity.User) string {
	switch {
	case !user.Persisted():
		return StepAuth
	case !user.HasVerifiedPhone():
		return StepPhoneVerification
	default:
		return StepDashboard
	}
}

func DescribeVerification(v *entity.PhoneVerification, now time.Time) dto.MobileVerificationStatus {
	status := dto.MobileVerificationStatus{
		IsVerified:        v.Status == entity.VerificationVerified,
		PhoneNumber:       v.PhoneNumber,
		AttemptsRemaining: v.AttemptsRemaining(),
	}
	if remaining := v.ExpiresAt.Sub(now); remaining > 0 {
		status.ExpiresInMinutes = int(math.Ceil(remaining.Minutes()))
	}

	switch {
	case status.IsVerified:
		status.NextStep = StepVerificationComplete
	case v.Status == entity.VerificationPending && !v.Expired(now):
		status.NextStep = StepEnterCode
	default:
		status.NextStep = StepResendCode
	}
	return status
}
