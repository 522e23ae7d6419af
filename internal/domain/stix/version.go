package stix

import (
	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// unmodifiableProps cannot differ between versions sharing an identifier
// (spec.md §4.4).
var unmodifiableProps = []string{"created_by_ref", "spec_version"}

// NewVersion returns a clone of obj with modified set to now, at the
// object's spec precision (millisecond). modified must be strictly greater
// than obj's prior modified; a clock that has not advanced is a Conflict
// error rather than a silently-skipped version.
func NewVersion(obj Object) (Object, error) {
	prevModified, hadModified := obj.Modified()
	now := stixid.Now()
	if hadModified && !now.After(prevModified) {
		return Object{}, apperr.New(apperr.Conflict, "new version's modified timestamp did not advance")
	}

	props := make(map[string]any, len(obj.Props))
	for k, v := range obj.Props {
		props[k] = v
	}
	props["modified"] = now

	return Object{Type: obj.Type, ID: obj.ID, Props: props}, nil
}

// Revoke returns a new version of obj with revoked = true (spec.md §4.4).
// Per spec.md §3, revoked = true precludes further version creation; callers
// must check obj.Revoked() before calling NewVersion or Revoke again.
func Revoke(obj Object) (Object, error) {
	next, err := NewVersion(obj)
	if err != nil {
		return Object{}, err
	}
	next.Props["revoked"] = true
	return next, nil
}

// ValidateVersionChain checks that next is a legal successor of prev: the
// unmodifiable properties (id, type, created, created_by_ref, spec_version)
// are unchanged, and modified strictly increased.
func ValidateVersionChain(prev, next Object) error {
	if prev.ID != next.ID {
		return apperr.New(apperr.Conflict, "id must not change between versions")
	}
	if prev.Type != next.Type {
		return apperr.New(apperr.Conflict, "type must not change between versions")
	}
	if prevCreated, ok := prev.Created(); ok {
		if nextCreated, ok2 := next.Created(); !ok2 || !nextCreated.Equal(prevCreated) {
			return apperr.New(apperr.Conflict, "created must not change between versions")
		}
	}
	for _, key := range unmodifiableProps {
		pv, pok := prev.Props[key]
		nv, nok := next.Props[key]
		if pok != nok || (pok && pv != nv) {
			return apperr.Newf(apperr.Conflict, "%s must not change between versions", key)
		}
	}

	prevModified, hadPrev := prev.Modified()
	nextModified, hadNext := next.Modified()
	if !hadPrev || !hadNext {
		return apperr.New(apperr.Conflict, "both versions must carry a modified timestamp")
	}
	if !nextModified.After(prevModified) {
		return apperr.New(apperr.Conflict, "modified must strictly increase between versions")
	}
	if prev.Revoked() {
		return apperr.New(apperr.Conflict, "revoked objects accept no further versions")
	}
	return nil
}
