package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)

	token, expiresAt, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 30).GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("two", 30).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("user-1")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 30).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	generated := GeneratePassword()
	assert.Len(t, generated, 16)
	assert.NotEqual(t, generated, GeneratePassword())
}
