package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"smssignup/internal/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var googleScopes = []string{"openid", "email", "profile"}

type GoogleIdentityExchanger struct {
	Config      *oauth2.Config
	UserInfoURL string
	HTTPClient  *http.Client
}

func NewGoogleIdentityExchanger(clientID string, clientSecret string, redirectURL string) *GoogleIdentityExchanger {
	return &GoogleIdentityExchanger{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       googleScopes,
			Endpoint:     endpoints.Google,
		},
		UserInfoURL: googleUserInfoURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleIdentityExchanger) Provider() entity.OAuthProvider {
	return entity.OAuthProviderGoogle
}

func (g *GoogleIdentityExchanger) AuthCodeURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (g *GoogleIdentityExchanger) Exchange(ctx context.Context, code string) (*OAuthTokens, error) {
	token, err := g.Config.Exchange(g.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	return &OAuthTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
		Expiry:       token.Expiry,
	}, nil
}

func (g *GoogleIdentityExchanger) FetchProfile(ctx context.Context, accessToken string) (*OAuthProfile, error) {
	ctx = g.clientContext(ctx)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo failed with status %d", response.StatusCode)
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}

	_, hasGivenName := raw["given_name"]

	return &OAuthProfile{
		ExternalID:    info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		GivenName:     info.GivenName,
		GivenNameSet:  hasGivenName,
		FamilyName:    info.FamilyName,
		Name:          info.Name,
		Picture:       info.Picture,
		Raw:           raw,
	}, nil
}

func (g *GoogleIdentityExchanger) clientContext(ctx context.Context) context.Context {
	if g.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, g.HTTPClient)
}
