package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPasswordCost("p1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "p1" {
		t.Fatalf("hash must not equal plaintext")
	}

	if err := CheckPassword(hash, "p1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "p2"); !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestCheckPassword_PlaintextStoredValueNeverMatches(t *testing.T) {
	if err := CheckPassword("secret", "secret"); !errors.Is(err, ErrNotAHash) {
		t.Fatalf("expected ErrNotAHash, got %v", err)
	}
}

func TestMatchesLegacyPlaintext(t *testing.T) {
	hash, _ := HashPasswordCost("secret", bcrypt.MinCost)

	tests := []struct {
		name   string
		stored string
		plain  string
		want   bool
	}{
		{"plaintext match", "secret", "secret", true},
		{"plaintext mismatch", "secret", "other", false},
		{"empty stored", "", "", false},
		{"bcrypt hash is never plaintext", hash, hash, false},
	}

	for _, tt := range tests {
		if got := MatchesLegacyPlaintext(tt.stored, tt.plain); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
