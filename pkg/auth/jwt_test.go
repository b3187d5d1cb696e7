package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewSigner("s3cret", time.Hour)
	require.NoError(t, err)

	tok, err := s.GenerateToken("64b000000000000000000001", "admin")
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b000000000000000000001", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	a, _ := NewSigner("one", time.Hour)
	b, _ := NewSigner("two", time.Hour)

	tok, err := a.GenerateToken("u1", "employee")
	require.NoError(t, err)

	_, err = b.ValidateToken(tok)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	s, _ := NewSigner("s3cret", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := s.GenerateToken("u1", "employee")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	s, _ := NewSigner("s3cret", time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.ValidateToken(tok)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
