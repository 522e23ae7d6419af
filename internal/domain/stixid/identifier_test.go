package stixid

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseIdentifier(t *testing.T) {
	id, err := Parse("indicator--8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.ObjectType() != "indicator" {
		t.Errorf("ObjectType = %q, want indicator", id.ObjectType())
	}
	if id.UUID().String() != "8e2e2d2b-17d4-4cbf-938f-98ee46b3cd3f" {
		t.Errorf("UUID = %s, want 8e2e2d2b-...", id.UUID())
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	u := uuid.New()
	id, err := WithUUID("malware", u)
	if err != nil {
		t.Fatalf("WithUUID: %v", err)
	}
	s := id.String()
	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse round-trip: %v", err)
	}
	if parsed != id {
		t.Errorf("round-trip mismatch: %v != %v", parsed, id)
	}
	if parsed.String() != s {
		t.Errorf("serialize round-trip mismatch: %q != %q", parsed.String(), s)
	}
}

func TestIdentifierCaseInsensitiveType(t *testing.T) {
	id, err := WithUUID("Indicator", uuid.New())
	if err != nil {
		t.Fatalf("WithUUID: %v", err)
	}
	if id.ObjectType() != "indicator" {
		t.Errorf("ObjectType = %q, want lowercased indicator", id.ObjectType())
	}
	if !id.IsType("INDICATOR") {
		t.Error("IsType should be case-insensitive")
	}
}

func TestInvalidIdentifierFormat(t *testing.T) {
	cases := []string{"", "noseparator", "bad_type--" + uuid.New().String(), "has--two--seps"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", c)
		}
	}
}

func TestDeterministicIDStable(t *testing.T) {
	id1, err := Deterministic("file", StixNamespace, []byte(`{"name":"a"}`))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := Deterministic("file", StixNamespace, []byte(`{"name":"a"}`))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("deterministic IDs differ for identical input: %v != %v", id1, id2)
	}
	id3, err := Deterministic("file", StixNamespace, []byte(`{"name":"b"}`))
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id3 {
		t.Error("deterministic IDs for different input must differ")
	}
}
