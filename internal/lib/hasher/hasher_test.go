package hasher

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify_Success(t *testing.T) {
	t.Parallel()

	hash, err := Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !Verify("correct horse battery staple", hash) {
		t.Fatalf("Verify returned false for matching password")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, err := Hash("right")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if Verify("wrong", hash) {
		t.Fatalf("Verify returned true for non-matching password")
	}
}

func TestHash_Salted(t *testing.T) {
	t.Parallel()

	h1, err := Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	h2, err := Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if bytes.Equal(h1, h2) {
		t.Fatalf("two hashes of the same password are identical, salt missing")
	}
}

func TestHash_TooLong(t *testing.T) {
	t.Parallel()

	_, err := Hash(strings.Repeat("a", MaxPasswordLen+1))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestHash_MaxLenBoundary(t *testing.T) {
	t.Parallel()

	pass := strings.Repeat("a", MaxPasswordLen)

	hash, err := Hash(pass)
	if err != nil {
		t.Fatalf("Hash error at 72 bytes: %v", err)
	}

	if !Verify(pass, hash) {
		t.Fatalf("Verify returned false for 72-byte password")
	}
}
