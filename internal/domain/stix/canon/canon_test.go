package canon

import (
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

func TestDeriveIDStableForSameProps(t *testing.T) {
	props := map[string]any{"value": "2001:db8::1"}
	id1, err := DeriveID("ipv6-addr", stixid.StixNamespace, props, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := DeriveID("ipv6-addr", stixid.StixNamespace, props, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("expected stable id, got %v != %v", id1, id2)
	}
}

func TestDeriveIDDiffersOnValueChange(t *testing.T) {
	a := map[string]any{"value": "2001:db8::1"}
	b := map[string]any{"value": "2001:db8::2"}
	id1, err := DeriveID("ipv6-addr", stixid.StixNamespace, a, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := DeriveID("ipv6-addr", stixid.StixNamespace, b, []string{"value"})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Error("expected different ids for different contributing values")
	}
}

func TestDeriveIDIgnoresNonContributingProps(t *testing.T) {
	a := map[string]any{"value": "2001:db8::1", "defanged": false}
	b := map[string]any{"value": "2001:db8::1", "defanged": true}
	id1, _ := DeriveID("ipv6-addr", stixid.StixNamespace, a, []string{"value"})
	id2, _ := DeriveID("ipv6-addr", stixid.StixNamespace, b, []string{"value"})
	if id1 != id2 {
		t.Error("non-contributing property changes must not affect the derived id")
	}
}

func TestCanonicalizeSortsKeys(t *testing.T) {
	out, err := Canonicalize(map[string]any{"b": 1, "a": 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":2,"b":1}` {
		t.Errorf("Canonicalize = %s, want sorted key order", out)
	}
}

func TestCanonicalizeWholeNumberFloat(t *testing.T) {
	// A JSON-decoded integer arrives as float64; it must canonicalize as
	// "5", not "5.0" or scientific notation.
	out, err := Canonicalize(map[string]any{"count": float64(5), "nested": []any{float64(10)}})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"count":5,"nested":[10]}` {
		t.Errorf("Canonicalize = %s, want whole-number floats formatted as integers", out)
	}
}

func TestCanonicalizePreservesFraction(t *testing.T) {
	out, err := Canonicalize(map[string]any{"value": 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"value":1.5}` {
		t.Errorf("Canonicalize = %s, want fractional value preserved", out)
	}
}
