package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/utils"
)

// DemoIdentityExchanger stands in for a real provider during local runs. It
// accepts any code and always returns the same person.
type DemoIdentityExchanger struct {
	RedirectURL string
	Email       string
	GivenName   string
	FamilyName  string
}

func (d DemoIdentityExchanger) Provider() entity.OAuthProvider {
	return entity.OAuthProviderGoogle
}

func (d DemoIdentityExchanger) AuthCodeURL(state string) string {
	redirect := d.RedirectURL
	if redirect == "" {
		redirect = "/auth/callback"
	}
	query := url.Values{}
	query.Set("code", "demo_auth_code")
	query.Set("state", state)
	separator := "?"
	if strings.Contains(redirect, "?") {
		separator = "&"
	}
	return redirect + separator + query.Encode()
}

func (d DemoIdentityExchanger) Exchange(ctx context.Context, code string) (*OAuthTokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	suffix, err := utils.GenerateRandomToken(8)
	if err != nil {
		return nil, err
	}
	return &OAuthTokens{
		AccessToken:  "demo_access_token_" + suffix,
		RefreshToken: "demo_refresh_token_" + suffix,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (d DemoIdentityExchanger) FetchProfile(ctx context.Context, accessToken string) (*OAuthProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email := d.Email
	if email == "" {
		email = "demo.user@example.com"
	}
	given, family := d.GivenName, d.FamilyName
	if given == "" {
		given, family = "Demo", "User"
	}
	return &OAuthProfile{
		ExternalID:    "demo_" + utils.NormalizeEmail(email),
		Email:         email,
		EmailVerified: true,
		GivenName:     given,
		GivenNameSet:  true,
		FamilyName:    family,
		Name:          strings.TrimSpace(given + " " + family),
	}, nil
}
