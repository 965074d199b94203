package services_test

import (
	"testing"
	"time"

	"contacts/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := services.NewTokenService(testJWTSecret, time.Hour)

	token, err := tokens.Issue("ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", subject)
}

func TestTokenService_Verify_Rejects(t *testing.T) {
	tokens := services.NewTokenService(testJWTSecret, time.Hour)

	forged, err := services.NewTokenService("another_secret", time.Hour).Issue("ada@example.com")
	require.NoError(t, err)

	expired, err := services.NewTokenService(testJWTSecret, -time.Hour).Issue("ada@example.com")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: jwt.TimeFunc().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject: "ada@example.com",
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
		Subject:   "ada@example.com",
		ExpiresAt: jwt.TimeFunc().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":    "invalid.token.string",
		"empty":      "",
		"forged":     forged,
		"expired":    expired,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"alg none":   unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, services.ErrInvalidToken)
		})
	}
}
