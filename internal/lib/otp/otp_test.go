package otp

import (
	"testing"
)

func TestNewCode_Length(t *testing.T) {
	t.Parallel()

	for digits := MinDigits; digits <= MaxDigits; digits++ {
		for i := 0; i < 50; i++ {
			code, err := NewCode(digits)
			if err != nil {
				t.Fatalf("NewCode(%d) error: %v", digits, err)
			}
			if len(code) != digits {
				t.Fatalf("NewCode(%d) = %q, want %d digits", digits, code, digits)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("NewCode(%d) = %q, contains non-digit", digits, code)
				}
			}
		}
	}
}

func TestNewCode_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, digits := range []int{0, 3, 7, -1} {
		if _, err := NewCode(digits); err == nil {
			t.Fatalf("NewCode(%d) expected error, got nil", digits)
		}
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		submitted string
		stored    string
		want      bool
	}{
		{"match", "4821", "4821", true},
		{"mismatch", "4821", "4822", false},
		{"length mismatch", "4821", "48210", false},
		{"empty submitted", "", "4821", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.submitted, tt.stored); got != tt.want {
				t.Fatalf("Equal(%q, %q) = %v, want %v", tt.submitted, tt.stored, got, tt.want)
			}
		})
	}
}
