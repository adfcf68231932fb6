package hasher

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates anything past 72 bytes, so longer input is
// rejected instead of hashed.
const MaxPasswordLen = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hash generates a salted bcrypt hash of the raw password. Every call
// produces a different hash for the same input.
func Hash(password string) ([]byte, error) {
	if len(password) > MaxPasswordLen {
		return nil, ErrPasswordTooLong
	}

	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Verify reports whether the raw password matches the hash. A mismatch is
// not an error.
func Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
