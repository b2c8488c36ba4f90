package managers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// TokenPurpose restricts what an otherwise valid token may be used for.
// Every consumer must check the purpose explicitly; an access token must
// never authorize a password reset and vice versa.
type TokenPurpose string

const (
	// PurposeAccess marks tokens that authenticate API requests. It is also
	// the purpose of email verification links, matching the wire format of
	// previous deployments where verification tokens carried no type claim.
	PurposeAccess TokenPurpose = "access"

	// PurposePasswordReset marks tokens that may only redeem a password reset.
	PurposePasswordReset TokenPurpose = "password_reset"
)

const (
	// AccessTokenTTL is the default lifetime of access-purpose tokens.
	AccessTokenTTL = 30 * time.Minute

	// PasswordResetTokenTTL is the lifetime of password reset tokens.
	PasswordResetTokenTTL = time.Hour
)

var (
	// ErrInvalidToken covers bad signatures, malformed structure and expiry.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongPurpose is returned when a structurally valid token carries a
	// purpose other than the one the consuming operation expects.
	ErrWrongPurpose = errors.New("token purpose mismatch")

	// ErrMissingSubject is returned when the subject claim is absent or empty.
	ErrMissingSubject = errors.New("token subject missing")
)

// JWTMgr issues and validates signed, time-limited tokens carrying a subject
// and a purpose tag.
type JWTMgr interface {
	GenerateJWT(subject string, purpose TokenPurpose, ttl time.Duration) (string, error)
	ValidateJWT(tokenString string, expectedPurpose TokenPurpose) (string, error)
}

// JWTManager handles JWT generation, signing, and validation using a single
// shared HMAC-SHA256 secret. Validation is pure given the secret; no I/O.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a new JWTManager with the given shared secret.
func NewJWTManager(secret []byte) JWTMgr {
	log.Info("Initializing JWT manager")
	return &JWTManager{secret: secret}
}

// GenerateJWT encodes {subject, purpose, exp} into a signed token.
func (jm *JWTManager) GenerateJWT(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"type": string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jm.secret)
}

// ValidateJWT validates the given token and returns its subject.
// It fails with ErrInvalidToken when the signature does not verify, the
// structure is malformed or the token is expired, with ErrWrongPurpose when
// the embedded purpose differs from expectedPurpose, and with
// ErrMissingSubject when the subject claim is absent.
func (jm *JWTManager) ValidateJWT(tokenString string, expectedPurpose TokenPurpose) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}

		return jm.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// Tokens issued before the purpose tag existed default to "access".
	purpose := PurposeAccess
	if rawType, exists := claims["type"]; exists {
		typeString, ok := rawType.(string)
		if !ok {
			return "", ErrInvalidToken
		}
		purpose = TokenPurpose(typeString)
	}

	if purpose != expectedPurpose {
		return "", ErrWrongPurpose
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrMissingSubject
	}

	return subject, nil
}
