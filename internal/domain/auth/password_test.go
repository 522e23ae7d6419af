package auth

import (
	"testing"

	"github.com/alexedwards/argon2id"
)

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected matching password to verify")
	}
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected mismatched password to fail verification")
	}
}

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("p")
	if err != nil {
		t.Fatal(err)
	}
	if detectHashKind(hash) != hashScrypt {
		t.Errorf("expected scrypt hash format, got %q", hash)
	}
}

func TestVerifyPasswordLegacyArgon2id(t *testing.T) {
	hash, err := argon2id.CreateHash("legacy-password", argon2id.DefaultParams)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyPassword("legacy-password", hash)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected legacy argon2id hash to verify")
	}
}

func TestVerifyPasswordUnknownFormat(t *testing.T) {
	if _, err := VerifyPassword("x", "not-a-real-hash"); err == nil {
		t.Error("expected error for unrecognized hash format")
	}
}
