// Package constraint implements the declarative constraint primitives that
// back STIX object validation (spec.md §4.1). Per-type rule sets are data
// (slices of Rule), not code paths embedded in builders.
package constraint

import (
	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// Rule checks one constraint against a property bag. It returns a
// *apperr.Error of kind ConstraintViolation on failure, nil on success.
type Rule func(props map[string]any) error

// recognizedHashAlgorithms are the STIX 2.1 hash algorithm identifiers.
var recognizedHashAlgorithms = map[string]bool{
	"MD5": true, "SHA-1": true, "SHA-256": true, "SHA-512": true,
	"SHA3-256": true, "SHA3-512": true, "SSDEEP": true, "TLSH": true,
}

func present(props map[string]any, name string) bool {
	v, ok := props[name]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case []stixid.Identifier:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func violation(format string, args ...any) error {
	return apperr.Newf(apperr.ConstraintViolation, format, args...)
}

// AtLeastOne requires at least one of names to be present.
func AtLeastOne(names ...string) Rule {
	return func(props map[string]any) error {
		for _, n := range names {
			if present(props, n) {
				return nil
			}
		}
		return violation("at least one of %v must be present", names)
	}
}

// MutuallyExclusive requires at most one of names to be present. A name
// counts as present when its key holds a non-nil value, even an empty one.
func MutuallyExclusive(names ...string) Rule {
	return func(props map[string]any) error {
		found := ""
		for _, n := range names {
			if v, ok := props[n]; ok && v != nil {
				if found != "" {
					return violation("%q and %q are mutually exclusive", found, n)
				}
				found = n
			}
		}
		return nil
	}
}

// Dependency requires that if any of dependents is present, every name in
// required must also be present.
func Dependency(required, dependents []string) Rule {
	return func(props map[string]any) error {
		anyDependent := false
		for _, d := range dependents {
			if present(props, d) {
				anyDependent = true
				break
			}
		}
		if !anyDependent {
			return nil
		}
		for _, r := range required {
			if !present(props, r) {
				return violation("%v present requires %q", dependents, r)
			}
		}
		return nil
	}
}

func asTimestamp(v any) (stixid.Timestamp, bool) {
	switch t := v.(type) {
	case stixid.Timestamp:
		return t, true
	case *stixid.Timestamp:
		if t == nil {
			return stixid.Timestamp{}, false
		}
		return *t, true
	default:
		return stixid.Timestamp{}, false
	}
}

// TimestampOrder requires b >= a when both are present.
func TimestampOrder(a, b string) Rule {
	return func(props map[string]any) error {
		av, aok := asTimestamp(props[a])
		bv, bok := asTimestamp(props[b])
		if !aok || !bok {
			return nil
		}
		if bv.Before(av) {
			return violation("%s (%s) must be >= %s (%s)", b, bv, a, av)
		}
		return nil
	}
}

// TimestampOrderStrict requires b > a when both are present.
func TimestampOrderStrict(a, b string) Rule {
	return func(props map[string]any) error {
		av, aok := asTimestamp(props[a])
		bv, bok := asTimestamp(props[b])
		if !aok || !bok {
			return nil
		}
		if !bv.After(av) {
			return violation("%s (%s) must be > %s (%s)", b, bv, a, av)
		}
		return nil
	}
}

func asIdentifiers(v any) []stixid.Identifier {
	switch t := v.(type) {
	case stixid.Identifier:
		return []stixid.Identifier{t}
	case *stixid.Identifier:
		if t == nil {
			return nil
		}
		return []stixid.Identifier{*t}
	case []stixid.Identifier:
		return t
	default:
		return nil
	}
}

func allowedSet(allowed []string) map[string]bool {
	m := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		m[a] = true
	}
	return m
}

// RefsType requires every identifier referenced by field to have a type in
// allowed. field may hold a single stixid.Identifier or a []stixid.Identifier.
func RefsType(field string, allowed ...string) Rule {
	set := allowedSet(allowed)
	return func(props map[string]any) error {
		for _, ref := range asIdentifiers(props[field]) {
			if !set[ref.ObjectType()] {
				return violation("%s: referenced type %q not in %v", field, ref.ObjectType(), allowed)
			}
		}
		return nil
	}
}

// OptionalRefType requires, if field is present, that its referenced type be
// in allowed. Semantically identical to RefsType; kept distinct per
// spec.md §4.1's naming so rule tables read the same as the primitive list.
func OptionalRefType(field string, allowed ...string) Rule {
	return RefsType(field, allowed...)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// Range requires, if field is present, that its numeric value lie in [lo, hi].
func Range(field string, lo, hi float64) Rule {
	return func(props map[string]any) error {
		v, ok := props[field]
		if !ok || v == nil {
			return nil
		}
		f, ok := asFloat(v)
		if !ok {
			return violation("%s: not a number", field)
		}
		if f < lo || f > hi {
			return violation("%s (%v) must be in [%v, %v]", field, f, lo, hi)
		}
		return nil
	}
}

// NonNegative requires, if field is present, that its numeric value be >= 0.
func NonNegative(field string) Rule {
	return func(props map[string]any) error {
		v, ok := props[field]
		if !ok || v == nil {
			return nil
		}
		f, ok := asFloat(v)
		if !ok {
			return violation("%s: not a number", field)
		}
		if f < 0 {
			return violation("%s (%v) must be >= 0", field, f)
		}
		return nil
	}
}

// HashAlgorithms requires every key of the hashes map named by field to be a
// recognized STIX hash algorithm identifier.
func HashAlgorithms(field string) Rule {
	return func(props map[string]any) error {
		v, ok := props[field]
		if !ok || v == nil {
			return nil
		}
		var algs []string
		switch hashes := v.(type) {
		case map[string]string:
			for alg := range hashes {
				algs = append(algs, alg)
			}
		case map[string]any:
			for alg := range hashes {
				algs = append(algs, alg)
			}
		default:
			return violation("%s: expected a map of algorithm to hash value", field)
		}
		for _, alg := range algs {
			if !recognizedHashAlgorithms[alg] {
				return violation("%s: %q is not a recognized STIX hash algorithm", field, alg)
			}
		}
		return nil
	}
}

// Run evaluates rules in order against props, returning the first failure.
func Run(props map[string]any, rules ...Rule) error {
	for _, r := range rules {
		if err := r(props); err != nil {
			return err
		}
	}
	return nil
}

// BothOrNeither requires a and b to either both be present or both absent.
func BothOrNeither(a, b string) Rule {
	return func(props map[string]any) error {
		pa, pb := present(props, a), present(props, b)
		if pa != pb {
			return violation("%s and %s must both be present or both absent", a, b)
		}
		return nil
	}
}
