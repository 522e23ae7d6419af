// Package stixid provides the STIX identifier and timestamp primitives:
// the `<type>--<uuid>` identifier format and precision-tracked ISO-8601
// timestamps shared by every STIX object.
package stixid

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// StixNamespace is the fixed UUIDv5 namespace used to derive deterministic
// SCO identifiers (spec.md §4.3).
var StixNamespace = uuid.MustParse("00abedb4-aa42-466c-9c01-fed23315a9b7")

// typeRegexp matches a valid lowercase STIX object type.
var typeRegexp = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// Identifier is a validated STIX identifier: an object type paired with a
// UUID. Two identifiers are equal iff both parts are equal, comparing the
// type case-insensitively.
type Identifier struct {
	objectType string
	id         uuid.UUID
}

// New creates an identifier with a fresh random UUIDv4.
func New(objectType string) (Identifier, error) {
	return WithUUID(objectType, uuid.New())
}

// WithUUID creates an identifier with a caller-supplied UUID.
func WithUUID(objectType string, id uuid.UUID) (Identifier, error) {
	t, err := validateType(objectType)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{objectType: t, id: id}, nil
}

// Deterministic creates a UUIDv5 identifier from a namespace and the
// canonical bytes of the contributing properties (spec.md §4.3).
func Deterministic(objectType string, namespace uuid.UUID, canonicalBytes []byte) (Identifier, error) {
	t, err := validateType(objectType)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{objectType: t, id: uuid.NewSHA1(namespace, canonicalBytes)}, nil
}

// Parse splits s on the first "--" into type and UUID and validates both.
func Parse(s string) (Identifier, error) {
	typ, uuidPart, ok := strings.Cut(s, "--")
	if !ok {
		return Identifier{}, apperr.Newf(apperr.InvalidInput,
			"%q does not match the STIX identifier format '<type>--<uuid>'", s)
	}
	t, err := validateType(typ)
	if err != nil {
		return Identifier{}, err
	}
	u, err := uuid.Parse(uuidPart)
	if err != nil {
		return Identifier{}, apperr.Newf(apperr.InvalidInput, "invalid UUID in identifier %q: %v", s, err)
	}
	return Identifier{objectType: t, id: u}, nil
}

func validateType(objectType string) (string, error) {
	if objectType == "" {
		return "", apperr.New(apperr.InvalidInput, "object type must not be empty")
	}
	lower := strings.ToLower(objectType)
	if !typeRegexp.MatchString(lower) {
		return "", apperr.Newf(apperr.InvalidInput,
			"%q is not a valid STIX type: must be lowercase alphanumeric with hyphens", objectType)
	}
	return lower, nil
}

// ObjectType returns the identifier's object type (always lowercase).
func (id Identifier) ObjectType() string { return id.objectType }

// UUID returns the identifier's UUID component.
func (id Identifier) UUID() uuid.UUID { return id.id }

// IsType reports whether the identifier's type matches name, case-insensitively.
func (id Identifier) IsType(name string) bool {
	return strings.EqualFold(id.objectType, name)
}

// IsZero reports whether id is the zero value (unset).
func (id Identifier) IsZero() bool {
	return id.objectType == "" && id.id == uuid.Nil
}

// String renders the canonical `<type>--<uuid>` form.
func (id Identifier) String() string {
	return id.objectType + "--" + id.id.String()
}

// MarshalText implements encoding.TextMarshaler, used by encoding/json.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by encoding/json.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
