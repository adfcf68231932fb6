package jwt

import (
	"testing"
	"time"

	"signup_service/internal/models"
)

func TestNewTokenAndParse_Success(t *testing.T) {
	t.Parallel()

	user := models.User{ID: 1, Email: "a@x.com", Username: "a"}

	tok, err := NewToken(user, "super-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	sub, err := ParseToken(tok, "super-secret")
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if sub != user.Email {
		t.Fatalf("subject mismatch: got %q want %q", sub, user.Email)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	user := models.User{Email: "a@x.com"}

	tok, err := NewToken(user, "secret", -1*time.Minute)
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	if _, err = ParseToken(tok, "secret"); err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(models.User{Email: "a@x.com"}, "right-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewToken error: %v", err)
	}

	if _, err = ParseToken(tok, "wrong-secret"); err == nil {
		t.Fatalf("expected error for invalid signature, got nil")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseToken("not.a.jwt", "k"); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
