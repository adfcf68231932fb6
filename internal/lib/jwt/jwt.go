package jwt

import (
	"fmt"
	"time"

	"signup_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// NewToken mints a signed session token for the user. The token is
// self-contained: subject, issue and expiry times, nothing stored server-side.
func NewToken(user models.User, secret string, ttl time.Duration) (string, error) {
	const op = "jwt.NewToken"

	now := time.Now()

	claims := jwt.MapClaims{
		"sub":     user.Email,
		"purpose": "session",
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken verifies the signature before trusting any claim, then expiry,
// and returns the subject email.
func ParseToken(tokenStr, secret string) (string, error) {
	const op = "jwt.ParseToken"

	claims := jwt.MapClaims{}

	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to parse token: %w", op, err)
	}

	if !parsedToken.Valid {
		return "", fmt.Errorf("%s: invalid token", op)
	}

	if purpose, ok := claims["purpose"].(string); !ok || purpose != "session" {
		return "", fmt.Errorf("%s: invalid token purpose", op)
	}

	if expFloat, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(expFloat) {
			return "", fmt.Errorf("%s: token expired", op)
		}
	} else {
		return "", fmt.Errorf("%s: missing exp claim", op)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%s: missing sub claim", op)
	}

	return sub, nil
}
