// Package hasher provides one-way password hashing and verification.
package hasher

import "golang.org/x/crypto/bcrypt"

// Hash produces a salted bcrypt digest of the given plaintext. The salt is
// randomized per call, so hashing the same plaintext twice yields different
// digests that both verify.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. A malformed digest
// is treated as a mismatch, never as an error.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
