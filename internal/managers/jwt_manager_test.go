package managers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"))

	for _, purpose := range []TokenPurpose{PurposeAccess, PurposePasswordReset} {
		token, err := jwtMgr.GenerateJWT("alice@example.com", purpose, time.Hour)
		require.NoError(t, err)

		subject, err := jwtMgr.ValidateJWT(token, purpose)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", subject)
	}
}

func TestValidateJWTExpired(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"))

	token, err := jwtMgr.GenerateJWT("alice@example.com", PurposeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateJWTWrongPurpose(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"))

	accessToken, err := jwtMgr.GenerateJWT("alice@example.com", PurposeAccess, time.Hour)
	require.NoError(t, err)
	resetToken, err := jwtMgr.GenerateJWT("alice@example.com", PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(accessToken, PurposePasswordReset)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	_, err = jwtMgr.ValidateJWT(resetToken, PurposeAccess)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestValidateJWTMissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	jwtMgr := NewJWTManager(secret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
		"type": string(PurposeAccess),
	})
	tokenString, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(tokenString, PurposeAccess)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestValidateJWTDefaultsToAccessPurpose(t *testing.T) {
	secret := []byte("test-secret")
	jwtMgr := NewJWTManager(secret)

	// Tokens without a type claim stem from older deployments and count as access tokens.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(secret)
	require.NoError(t, err)

	subject, err := jwtMgr.ValidateJWT(tokenString, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)

	_, err = jwtMgr.ValidateJWT(tokenString, PurposePasswordReset)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestValidateJWTTampered(t *testing.T) {
	jwtMgr := NewJWTManager([]byte("test-secret"))
	otherMgr := NewJWTManager([]byte("other-secret"))

	token, err := otherMgr.GenerateJWT("alice@example.com", PurposeAccess, time.Hour)
	require.NoError(t, err)

	_, err = jwtMgr.ValidateJWT(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = jwtMgr.ValidateJWT("not.a.jwt", PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
