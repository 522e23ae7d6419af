package stix

import (
	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

func constraintViolationf(format string, args ...any) error {
	return apperr.Newf(apperr.ConstraintViolation, format, args...)
}

// refsCategory requires every identifier referenced by field to resolve (via
// the type registry) to an object of the given category. Unlike
// constraint.RefsType, which checks against a fixed type list, this checks
// against a whole Category — used where the STIX spec constrains a
// reference to "any SDO" rather than an enumerated set of types.
func refsCategory(field string, want Category) constraint.Rule {
	return func(props map[string]any) error {
		raw, ok := props[field]
		if !ok {
			return nil
		}
		var refs []stixid.Identifier
		switch t := raw.(type) {
		case stixid.Identifier:
			refs = []stixid.Identifier{t}
		case []stixid.Identifier:
			refs = t
		}
		for _, ref := range refs {
			def, ok := Lookup(ref.ObjectType())
			if !ok || def.Category != want {
				return constraintViolationf("%s: %s is not a %s", field, ref, want)
			}
		}
		return nil
	}
}

// notRefType requires, if field is present, that its referenced type NOT be
// in disallowed.
func notRefType(field string, disallowed ...string) constraint.Rule {
	set := make(map[string]bool, len(disallowed))
	for _, d := range disallowed {
		set[d] = true
	}
	return func(props map[string]any) error {
		raw, ok := props[field]
		if !ok {
			return nil
		}
		ref, ok := raw.(stixid.Identifier)
		if !ok {
			return nil
		}
		if set[ref.ObjectType()] {
			return constraintViolationf("%s: must not reference a %s", field, ref.ObjectType())
		}
		return nil
	}
}

// locationAtLeastOne implements location's compound at_least_one rule: region
// OR country OR (latitude AND longitude).
func locationAtLeastOne() constraint.Rule {
	return func(props map[string]any) error {
		if v, ok := props["region"]; ok && v != "" {
			return nil
		}
		if v, ok := props["country"]; ok && v != "" {
			return nil
		}
		_, hasLat := props["latitude"]
		_, hasLong := props["longitude"]
		if hasLat && hasLong {
			return nil
		}
		return constraintViolationf("location requires region, country, or both latitude and longitude")
	}
}

// networkTrafficEndRequiresInactive implements "if end present then
// is_active must be false".
func networkTrafficEndRequiresInactive() constraint.Rule {
	return func(props map[string]any) error {
		if _, ok := props["end"]; !ok {
			return nil
		}
		active, ok := props["is_active"].(bool)
		if ok && active {
			return constraintViolationf("network-traffic: is_active must be false when end is set")
		}
		return nil
	}
}
