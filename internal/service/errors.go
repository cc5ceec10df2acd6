package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidState       = errors.New("invalid oauth state")
	ErrIdentityExchange   = errors.New("identity exchange failed")
	ErrPhoneNotVerified   = errors.New("phone not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSMSNotConfigured   = errors.New("sms gateway not configured")
	ErrEmailNotConfigured = errors.New("email notifier not configured")
)
