package security

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrNotAHash = errors.New("stored credential is not a bcrypt hash")

// HashPasswordCost hashes a plain text password with bcrypt at cost.
func HashPasswordCost(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A stored value that is not a bcrypt hash yields ErrNotAHash, never a match.
func CheckPassword(hash, plain string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return ErrNotAHash
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// MatchesLegacyPlaintext reports whether a stored non-hash credential equals plain.
// Only accounts written before hashing was introduced hold such values.
func MatchesLegacyPlaintext(stored, plain string) bool {
	if stored == "" {
		return false
	}
	if _, err := bcrypt.Cost([]byte(stored)); err == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}
