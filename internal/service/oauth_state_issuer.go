package service

import (
	"errors"
	"time"

	"smssignup/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidStateToken = errors.New("invalid state token")

// OAuthStateIssuer signs the state parameter sent to the identity provider so
// the callback can reject states it never issued.
type OAuthStateIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

type stateClaims struct {
	Nonce string `json:"nonce"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

func (o OAuthStateIssuer) IssueState() (string, time.Duration, error) {
	ttl := o.TTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	nonce, err := utils.GenerateRandomToken(16)
	if err != nil {
		return "", 0, err
	}
	now := o.now()
	claims := stateClaims{
		Nonce: nonce,
		Type:  "oauth_state",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    o.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(o.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (o OAuthStateIssuer) ValidateState(state string) error {
	parsed, err := jwt.ParseWithClaims(state, &stateClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidStateToken
		}
		return o.Secret, nil
	}, jwt.WithTimeFunc(o.now))
	if err != nil {
		return ErrInvalidState
	}
	claims, ok := parsed.Claims.(*stateClaims)
	if !ok || !parsed.Valid || claims.Type != "oauth_state" || claims.Nonce == "" {
		return ErrInvalidState
	}
	return nil
}

func (o OAuthStateIssuer) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
