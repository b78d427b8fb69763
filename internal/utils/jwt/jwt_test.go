package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestCreateAndExtract(t *testing.T) {
	tok, err := CreateToken("user-1", secret)
	require.NoError(t, err)

	userID, err := ExtractUserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestExtractRejectsWrongSecret(t *testing.T) {
	tok, err := CreateToken("user-1", secret)
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(tok, "other")
	assert.Error(t, err)
}

func TestExtractRejectsExpired(t *testing.T) {
	tok, err := CreateTokenWithTTL("user-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(tok, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestExtractRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ExtractUserIDFromToken(tok, secret)
	assert.Error(t, err)
}

func TestCreateRequiresSecret(t *testing.T) {
	_, err := CreateToken("user-1", "")
	assert.Error(t, err)
}
