package service

import (
	"time"

	"smssignup/internal/entity"
)

const (
	DefaultCodeLength     = 6
	DefaultMaxAttempts    = 3
	DefaultCodeTTL        = 15 * time.Minute
	DefaultResendInterval = 60 * time.Second
	DefaultSMSTemplate    = "Your verification code is: %s. This code expires in 15 minutes."
)

const (
	MessageInvalidUser    = "Invalid user"
	MessageNoVerification = "No verification request found"
	MessageCodeExpired    = "Verification code has expired"
	MessageMaxAttempts    = "Maximum attempts exceeded"
	MessageVerified       = "Phone number verified successfully"
	messageInvalidCode    = "Invalid code. %d attempts remaining"
)

type VerificationConfig struct {
	CodeLength     int
	MaxAttempts    int
	CodeTTL        time.Duration
	ResendInterval time.Duration
	SMSTemplate    string
}

// VerificationResult is the outcome of a code submission. Rejections are
// reported here with Success false; Verification is nil only when no pending
// record was found.
type VerificationResult struct {
	Success      bool
	Verification *entity.PhoneVerification
	Message      string
}

type SignInResult struct {
	User        *entity.User
	AccessToken string
	ExpiresIn   time.Duration
	NextStep    string
	Created     bool
}
