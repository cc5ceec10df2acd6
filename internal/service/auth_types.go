package service

import (
	"context"
	"time"

	"smssignup/internal/entity"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type SMSReceipt struct {
	ID     string
	Status string
}

type SMSGateway interface {
	Send(ctx context.Context, phoneNumber string, message string) (SMSReceipt, error)
}

type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

// OAuthProfile is the identity provider's view of a user. Raw keeps the
// provider payload as received.
type OAuthProfile struct {
	ExternalID    string
	Email         string
	EmailVerified bool
	GivenName     string
	// GivenNameSet reports whether the provider sent a given name at all,
	// so an explicit empty value can be told apart from a missing one.
	GivenNameSet  bool
	FamilyName    string
	Name          string
	Picture       string
	Raw           map[string]any
}

type IdentityExchanger interface {
	Provider() entity.OAuthProvider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthTokens, error)
	FetchProfile(ctx context.Context, accessToken string) (*OAuthProfile, error)
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User) (string, time.Duration, error)
}

type Notifier interface {
	SendWelcome(ctx context.Context, user *entity.User) error
}
