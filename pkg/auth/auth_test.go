package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newValidator(t *testing.T, issuer string) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{SecretKey: testSecret, Issuer: issuer})
	require.NoError(t, err)
	return v
}

func TestValidateToken(t *testing.T) {
	v := newValidator(t, "")
	token := signToken(t, testSecret, Claims{
		UserID: "user-1",
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestValidateToken_Expired(t *testing.T) {
	v := newValidator(t, "")
	token := signToken(t, testSecret, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	v := newValidator(t, "")
	token := signToken(t, "different-secret", Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_IssuerCheck(t *testing.T) {
	v := newValidator(t, "loupe")
	token := signToken(t, testSecret, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	v := newValidator(t, "")
	token := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_Empty(t *testing.T) {
	v := newValidator(t, "")
	_, err := v.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.ValidateToken("Bearer   ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()

	_, err := GetPrincipal(ctx)
	assert.Error(t, err, "empty context")

	ctx = SetPrincipal(ctx, &Principal{UserID: "user-1", Email: "user@example.com"})
	principal, err := GetPrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
}
