// Package stix implements the STIX 2.1 object model: a closed, discriminated
// variant over SDOs, SROs, SCOs, and meta objects, built through a single
// constraint-checking builder (spec.md §3, §4.1, §9).
package stix

import (
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// Category is the top-level discriminant of a STIX object.
type Category int

const (
	// SDO is a STIX Domain Object (indicator, malware, campaign, …).
	SDO Category = iota
	// SRO is a STIX Relationship Object (relationship, sighting).
	SRO
	// SCO is a STIX Cyber-observable Object (file, ipv4-addr, …).
	SCO
	// Meta covers marking-definition and language-content.
	Meta
)

func (c Category) String() string {
	switch c {
	case SDO:
		return "sdo"
	case SRO:
		return "sro"
	case SCO:
		return "sco"
	case Meta:
		return "meta"
	default:
		return "unknown"
	}
}

// Object is a validated STIX object: a type tag, its identifier, and a
// property bag holding both the common properties and the type-specific
// fields. The variants share this record via composition rather than
// inheritance; dispatch is by the TypeDef looked up from Type, not by a
// class hierarchy.
type Object struct {
	Type  string
	ID    stixid.Identifier
	Props map[string]any
}

// Category returns the object's discriminant, looked up from its TypeDef.
func (o Object) Category() Category {
	def, ok := Lookup(o.Type)
	if !ok {
		return SDO
	}
	return def.Category
}

// Get returns the raw property value stored under key.
func (o Object) Get(key string) (any, bool) {
	v, ok := o.Props[key]
	return v, ok
}

// Created returns the object's created timestamp, if present.
func (o Object) Created() (stixid.Timestamp, bool) {
	return timestampProp(o.Props, "created")
}

// Modified returns the object's modified timestamp, if present.
func (o Object) Modified() (stixid.Timestamp, bool) {
	return timestampProp(o.Props, "modified")
}

// CreatedByRef returns the identifier of the identity that created the
// object, if present.
func (o Object) CreatedByRef() (stixid.Identifier, bool) {
	return identifierProp(o.Props, "created_by_ref")
}

// Revoked reports whether the object carries revoked = true.
func (o Object) Revoked() bool {
	v, ok := o.Props["revoked"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Confidence returns the object's confidence score (0-100), if present.
func (o Object) Confidence() (int, bool) {
	v, ok := o.Props["confidence"]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// Labels returns the object's labels, if present.
func (o Object) Labels() []string {
	v, ok := o.Props["labels"]
	if !ok {
		return nil
	}
	ls, _ := v.([]string)
	return ls
}

func timestampProp(props map[string]any, key string) (stixid.Timestamp, bool) {
	v, ok := props[key]
	if !ok {
		return stixid.Timestamp{}, false
	}
	ts, ok := v.(stixid.Timestamp)
	return ts, ok
}

func identifierProp(props map[string]any, key string) (stixid.Identifier, bool) {
	v, ok := props[key]
	if !ok {
		return stixid.Identifier{}, false
	}
	id, ok := v.(stixid.Identifier)
	return id, ok
}
