package account

import "testing"

func TestHasRole(t *testing.T) {
	a := Account{Role: RoleSupplier}

	if !a.HasRole(RoleAdmin, RoleSupplier) {
		t.Fatalf("supplier should pass a supplier/admin gate")
	}
	if a.HasRole(RoleAdmin) {
		t.Fatalf("supplier should not pass an admin gate")
	}
	if a.HasRole() {
		t.Fatalf("empty role set admits nobody")
	}
}

func TestNew_NormalisesAndDefaults(t *testing.T) {
	a := New(" bob ", "  Bob@Example.COM ", "hash", "")

	if a.Email != "bob@example.com" {
		t.Fatalf("email = %q", a.Email)
	}
	if a.Username != "bob" {
		t.Fatalf("username = %q", a.Username)
	}
	if a.Role != RoleUser {
		t.Fatalf("role = %q, want user", a.Role)
	}
	if a.CreatedAt.IsZero() || !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Fatalf("timestamps not initialised")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]bool{"user": true, " Admin ": true, "supplier": true, "root": false, "": false}
	for in, ok := range cases {
		if _, got := ParseRole(in); got != ok {
			t.Fatalf("ParseRole(%q) ok=%v, want %v", in, got, ok)
		}
	}
}
