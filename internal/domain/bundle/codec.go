package bundle

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// DecodeMode controls how the codec treats properties it does not
// recognize (spec.md §4.5).
type DecodeMode int

const (
	// Strict rejects any top-level "x_*" custom property. Other keys are not
	// checked against the type's fields and pass through to the builder.
	Strict DecodeMode = iota
	// AllowCustom preserves unrecognized "x_*" keys and any other unknown
	// key; only recognized-but-malformed values still fail.
	AllowCustom
)

// knownCommonProperties are never treated as custom even under Strict mode.
var knownCommonProperties = map[string]bool{
	"type": true, "id": true, "spec_version": true, "created": true, "modified": true,
	"created_by_ref": true, "revoked": true, "confidence": true, "lang": true,
	"labels": true, "external_references": true, "object_marking_refs": true,
	"granular_markings": true, "defanged": true, "extensions": true,
}

// wireBundle mirrors the JSON shape of a Bundle envelope.
type wireBundle struct {
	Type    string            `json:"type"`
	ID      string            `json:"id"`
	Objects []json.RawMessage `json:"objects,omitempty"`
}

// EncodeCompact serializes b as compact (single-line) JSON. Empty optional
// arrays are elided: EncodeObject drops every property holding an empty
// slice.
func EncodeCompact(b *Bundle) ([]byte, error) {
	return encode(b, false)
}

// EncodeIndented serializes b as 2-space indented JSON.
func EncodeIndented(b *Bundle) ([]byte, error) {
	return encode(b, true)
}

func encode(b *Bundle, indent bool) ([]byte, error) {
	wire := wireBundle{Type: "bundle", ID: b.ID.String()}
	for _, obj := range b.Objects {
		raw, err := EncodeObject(obj)
		if err != nil {
			return nil, err
		}
		wire.Objects = append(wire.Objects, raw)
	}
	if indent {
		out, err := json.MarshalIndent(wire, "", "  ")
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "encode bundle", err)
		}
		return out, nil
	}
	out, err := json.Marshal(wire)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encode bundle", err)
	}
	return out, nil
}

// EncodeObject serializes a single object to its wire JSON form (common
// properties inlined, no bundle envelope). Used directly by persistence
// adapters that store one serialized object per row.
func EncodeObject(obj stix.Object) (json.RawMessage, error) {
	props := make(map[string]any, len(obj.Props)+2)
	for k, v := range obj.Props {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.Len() == 0 {
			continue
		}
		props[k] = v
	}
	props["type"] = obj.Type
	props["id"] = obj.ID.String()
	out, err := json.Marshal(props)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encode object", err)
	}
	return out, nil
}

// Decode parses raw as a bundle envelope and rebuilds each contained object
// through the constraint-checking builder. mode controls unknown-key
// handling for each object's top-level properties.
func Decode(raw []byte, mode DecodeMode) (*Bundle, error) {
	var wire wireBundle
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "malformed bundle JSON", err)
	}
	if wire.Type != "bundle" {
		return nil, apperr.Newf(apperr.InvalidInput, "expected bundle type, got %q", wire.Type)
	}
	id, err := stixid.Parse(wire.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "invalid bundle id", err)
	}

	b := &Bundle{ID: id}
	for _, rawObj := range wire.Objects {
		obj, err := DecodeObject(rawObj, mode)
		if err != nil {
			return nil, err
		}
		b.Add(obj)
	}
	return b, nil
}

// DecodeObject parses a single STIX object's JSON representation and runs it
// through the type's builder and constraint engine.
func DecodeObject(raw []byte, mode DecodeMode) (stix.Object, error) {
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return stix.Object{}, apperr.Wrap(apperr.InvalidInput, "malformed object JSON", err)
	}

	typ, _ := props["type"].(string)
	if typ == "" {
		return stix.Object{}, apperr.New(apperr.InvalidInput, "object missing required \"type\" property")
	}
	def, ok := stix.Lookup(typ)
	if !ok {
		return stix.Object{}, apperr.Newf(apperr.Unsupported, "unknown STIX type %q", typ)
	}

	if mode == Strict {
		if err := rejectUnknownKeys(props); err != nil {
			return stix.Object{}, err
		}
	}

	builder := stix.NewBuilder(typ)
	if idVal, ok := props["id"].(string); ok && idVal != "" {
		parsed, err := stixid.Parse(idVal)
		if err != nil {
			return stix.Object{}, apperr.Wrap(apperr.InvalidInput, "invalid object id", err)
		}
		builder.WithID(parsed)
	}
	delete(props, "type")
	delete(props, "id")

	if err := decodeTimestampFields(props); err != nil {
		return stix.Object{}, err
	}
	if refs, ok := props["external_references"].([]any); ok {
		for _, r := range refs {
			if refMap, ok := r.(map[string]any); ok {
				if err := stix.ValidateExternalReference(refMap); err != nil {
					return stix.Object{}, err
				}
			}
		}
	}

	builder.SetAll(props)
	_ = def
	return builder.Build()
}

// timestampFields lists the common and type-specific properties whose wire
// representation must be parsed into a stixid.Timestamp rather than kept as
// a raw string, so that constraints like timestamp_order can compare them.
var timestampFields = []string{
	"created", "modified", "first_seen", "last_seen", "valid_from", "valid_until",
	"first_observed", "last_observed", "start", "end", "created_time",
}

func decodeTimestampFields(props map[string]any) error {
	for _, field := range timestampFields {
		raw, ok := props[field]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		ts, err := stixid.ParseTimestamp(s)
		if err != nil {
			return apperr.Wrap(apperr.InvalidInput, "invalid timestamp for "+field, err)
		}
		props[field] = ts
	}
	return nil
}

func rejectUnknownKeys(props map[string]any) error {
	for key := range props {
		if knownCommonProperties[key] {
			continue
		}
		if strings.HasPrefix(key, "x_") {
			return apperr.Newf(apperr.InvalidInput, "custom property %q not allowed in strict decode mode", key)
		}
		// Every key outside x_* is accepted here, recognized or not; this
		// check only rejects the custom-extension namespace.
	}
	return nil
}
