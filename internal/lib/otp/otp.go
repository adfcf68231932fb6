package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	MinDigits = 4
	MaxDigits = 6
)

// NewCode draws a uniformly random numeric code of the given length,
// zero-padded ("0042" is a valid 4-digit code).
func NewCode(digits int) (string, error) {
	const op = "otp.NewCode"

	if digits < MinDigits || digits > MaxDigits {
		return "", fmt.Errorf("%s: code length %d out of range", op, digits)
	}

	space := big.NewInt(1)
	for i := 0; i < digits; i++ {
		space.Mul(space, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// Equal compares a submitted code with the stored one in constant time.
func Equal(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
