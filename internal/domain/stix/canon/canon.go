// Package canon derives deterministic STIX cyber-observable object
// identifiers from the canonical JSON encoding of their ID-contributing
// properties (spec.md §4.3).
package canon

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// Canonicalize produces the deterministic byte sequence for props: keys
// sorted lexicographically at every level, no insignificant whitespace, and
// whole-number floats rewritten so they encode without a trailing decimal
// point or exponent. encoding/json already serializes map[string]any with
// sorted keys and no extraneous whitespace, which satisfies RFC 8785's
// ordering requirement for the object-key case; canonicalizeNumbers covers
// the number-formatting requirement RFC 8785 §3.2.2.3 names (spec.md §4.3
// step 2), since a contributing property decoded through encoding/json
// arrives as float64 regardless of whether the source literal was an
// integer.
func Canonicalize(props map[string]any) ([]byte, error) {
	return json.Marshal(canonicalizeNumbers(props))
}

// canonicalizeNumbers walks v, rewriting any float64 holding a whole-number
// value as a json.Number so it encodes as "5" rather than "5.0" or "5e+00".
func canonicalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = canonicalizeNumbers(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = canonicalizeNumbers(child)
		}
		return out
	case float64:
		if !math.IsInf(val, 0) && !math.IsNaN(val) && val == math.Trunc(val) {
			return json.Number(strconv.FormatFloat(val, 'f', -1, 64))
		}
		return val
	default:
		return val
	}
}

// Contributing selects the subset of props named in order, in the order
// contributingKeys lists them. Keys absent from props are skipped. The
// returned map is canonicalized independent of this order (JSON object keys
// sort on encode), but selection order is preserved for callers that want to
// inspect which properties actually contributed.
func Contributing(props map[string]any, contributingKeys []string) map[string]any {
	out := make(map[string]any, len(contributingKeys))
	for _, k := range contributingKeys {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}

// DeriveID computes the deterministic UUIDv5 identifier for objectType from
// its ID-contributing properties. If contributingKeys is empty, the type has
// no ID-contributing properties and callers should fall back to a random
// UUIDv4 via stixid.New instead of calling DeriveID.
func DeriveID(objectType string, namespace uuid.UUID, props map[string]any, contributingKeys []string) (stixid.Identifier, error) {
	selected := Contributing(props, contributingKeys)
	canonical, err := Canonicalize(selected)
	if err != nil {
		return stixid.Identifier{}, err
	}
	return stixid.Deterministic(objectType, namespace, canonical)
}
