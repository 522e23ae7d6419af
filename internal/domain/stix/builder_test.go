package stix

import (
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

func mustBuildErr(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if apperr.KindOf(err) != kind {
		t.Fatalf("expected kind %v, got %v (%v)", kind, apperr.KindOf(err), err)
	}
}

func TestIPv6AddrDeterminism(t *testing.T) {
	obj1, err := NewBuilder("ipv6-addr").Set("value", "2001:db8::1").Build()
	if err != nil {
		t.Fatal(err)
	}
	obj2, err := NewBuilder("ipv6-addr").Set("value", "2001:db8::1").Build()
	if err != nil {
		t.Fatal(err)
	}
	if obj1.ID != obj2.ID {
		t.Errorf("expected identical ids for identical value, got %v != %v", obj1.ID, obj2.ID)
	}

	obj3, err := NewBuilder("ipv6-addr").Set("value", "2001:db8::2").Build()
	if err != nil {
		t.Fatal(err)
	}
	if obj1.ID == obj3.ID {
		t.Error("expected different ids for different values")
	}
}

func TestLocationDependencyConstraint(t *testing.T) {
	_, err := NewBuilder("location").
		Set("name", "X").
		Set("latitude", 55.75).
		Build()
	mustBuildErr(t, err, apperr.ConstraintViolation)

	obj, err := NewBuilder("location").
		Set("name", "X").
		Set("latitude", 55.75).
		Set("longitude", 37.61).
		Build()
	if err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if obj.Type != "location" {
		t.Errorf("Type = %q, want location", obj.Type)
	}
}

func TestObservedDataMutualExclusion(t *testing.T) {
	created := stixid.Now()
	_, err := NewBuilder("observed-data").
		Set("created", created).
		Set("modified", created).
		Set("first_observed", created).
		Set("last_observed", created).
		Set("number_observed", 1).
		Set("objects", map[string]any{"0": map[string]any{"type": "file"}}).
		Set("object_refs", []stixid.Identifier{}).
		Build()
	mustBuildErr(t, err, apperr.ConstraintViolation)
}

func TestUnknownTypeRejected(t *testing.T) {
	_, err := NewBuilder("not-a-real-type").Build()
	mustBuildErr(t, err, apperr.Unsupported)
}

func TestProcessRequiresContentField(t *testing.T) {
	_, err := NewBuilder("process").Build()
	mustBuildErr(t, err, apperr.ConstraintViolation)

	obj, err := NewBuilder("process").Set("pid", float64(4)).Build()
	if err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if obj.Type != "process" {
		t.Errorf("Type = %q, want process", obj.Type)
	}
}

func TestNewVersionAdvancesModified(t *testing.T) {
	created := stixid.Now()
	obj, err := NewBuilder("identity").
		Set("created", created).
		Set("modified", created).
		Set("spec_version", "2.1").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	next, err := NewVersion(obj)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateVersionChain(obj, next); err != nil {
		t.Errorf("expected valid version chain, got %v", err)
	}
	nextModified, _ := next.Modified()
	prevModified, _ := obj.Modified()
	if !nextModified.After(prevModified) {
		t.Error("expected modified to strictly advance")
	}
}

func TestRevokedObjectRejectsFurtherVersions(t *testing.T) {
	created := stixid.Now()
	obj, err := NewBuilder("malware").
		Set("created", created).
		Set("modified", created).
		Set("spec_version", "2.1").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	revoked, err := Revoke(obj)
	if err != nil {
		t.Fatal(err)
	}
	next, err := NewVersion(revoked)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateVersionChain(revoked, next); err == nil {
		t.Error("expected revoked object to reject further versions")
	}
}
