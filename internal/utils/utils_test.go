package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := JWTManager{Secret: []byte("secret"), Issuer: "smssignup", AccessTokenTTL: time.Hour}

	token, ttl, err := manager.IssueAccessToken("0b7c8c0e-6f7f-4f55-9c1e-2d1f3c4b5a69")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	claims, err := manager.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0b7c8c0e-6f7f-4f55-9c1e-2d1f3c4b5a69", claims.UserID)
}

func TestJWTManagerRejectsForeignAndExpiredTokens(t *testing.T) {
	manager := JWTManager{Secret: []byte("secret"), Issuer: "smssignup", AccessTokenTTL: time.Minute}
	token, _, err := manager.IssueAccessToken("user")
	require.NoError(t, err)

	other := JWTManager{Secret: []byte("other"), Issuer: "smssignup"}
	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := manager
	later.Now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = later.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStripAndMaskPhone(t *testing.T) {
	assert.Equal(t, "+15551234567", StripPhone("+1 (555) 123-4567"))
	assert.Equal(t, "", StripPhone("abc"))
	assert.Equal(t, "5551234567", StripPhone("555-123+4567"))
	assert.Equal(t, "15551234567", StripPhone("1 555 123 4567+"))
	assert.Equal(t, "+1555", StripPhone("++1555"))
	assert.Equal(t, "********4567", MaskPhone("+15551234567"))
	assert.Equal(t, "**", MaskPhone("12"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}
