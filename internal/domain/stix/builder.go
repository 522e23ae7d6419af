package stix

import (
	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix/canon"
	"github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// Builder accumulates property values for one object and invokes the
// constraint engine on Build (spec.md §4.1: "A builder that accepts the
// type-specific fields and a common-property record. build() that invokes
// the constraint engine; failures produce structured errors.").
type Builder struct {
	typ        string
	props      map[string]any
	explicitID *stixid.Identifier
	namespace  uuid.UUID
}

// NewBuilder starts a builder for the given STIX type.
func NewBuilder(typ string) *Builder {
	return &Builder{typ: typ, props: map[string]any{}, namespace: stixid.StixNamespace}
}

// Set assigns a single property. Returns the builder for chaining.
func (b *Builder) Set(key string, value any) *Builder {
	b.props[key] = value
	return b
}

// SetAll merges props into the builder's property bag.
func (b *Builder) SetAll(props map[string]any) *Builder {
	for k, v := range props {
		b.props[k] = v
	}
	return b
}

// WithID forces the object's identifier instead of deriving or randomizing
// one. Used when reconstructing a persisted object, or an existing SDO
// version.
func (b *Builder) WithID(id stixid.Identifier) *Builder {
	b.explicitID = &id
	return b
}

// WithNamespace overrides the UUIDv5 namespace used for deterministic SCO
// IDs. Defaults to stixid.StixNamespace.
func (b *Builder) WithNamespace(ns uuid.UUID) *Builder {
	b.namespace = ns
	return b
}

// Build runs the constraint engine and derives the object's identifier,
// returning a structured ConstraintViolation error on any failure.
func (b *Builder) Build() (Object, error) {
	def, ok := Lookup(b.typ)
	if !ok {
		return Object{}, apperr.Newf(apperr.Unsupported, "unknown STIX type %q", b.typ)
	}

	rules := make([]constraint.Rule, 0, len(commonRules())+len(def.Constraints))
	rules = append(rules, commonRules()...)
	rules = append(rules, def.Constraints...)
	if err := constraint.Run(b.props, rules...); err != nil {
		return Object{}, err
	}

	id, err := b.resolveID(def)
	if err != nil {
		return Object{}, err
	}

	props := make(map[string]any, len(b.props))
	for k, v := range b.props {
		props[k] = v
	}
	return Object{Type: def.Name, ID: id, Props: props}, nil
}

func (b *Builder) resolveID(def TypeDef) (stixid.Identifier, error) {
	if b.explicitID != nil {
		if !b.explicitID.IsType(def.Name) {
			return stixid.Identifier{}, apperr.Newf(apperr.InvalidInput,
				"identifier type %q does not match object type %q", b.explicitID.ObjectType(), def.Name)
		}
		return *b.explicitID, nil
	}
	if def.Category == SCO && len(def.ContributingProps) > 0 {
		return canon.DeriveID(def.Name, b.namespace, b.props, def.ContributingProps)
	}
	return stixid.New(def.Name)
}
