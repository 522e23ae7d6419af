package stix

import (
	"sync"

	"github.com/darwis-taxii/taxii-server/internal/domain/stix/constraint"
)

// TypeDef is the data-driven description of one STIX object type: its
// category, the constraint rules its builder enforces, and — for SCOs —
// the ordered list of ID-contributing properties used for deterministic
// UUIDv5 derivation (spec.md §4.3). Per-type rule lists are data, not code
// paths embedded in builders (spec.md §9).
type TypeDef struct {
	Name     string
	Category Category

	// Constraints are evaluated, in order, against the object's full
	// property bag (common properties plus type-specific fields).
	Constraints []constraint.Rule

	// ContributingProps names the SCO's ID-contributing properties in
	// declaration order. Empty for SDOs, SROs, Meta objects, and SCOs with
	// no ID-contributing properties (e.g. process), which receive a random
	// UUIDv4 instead of a derived UUIDv5.
	ContributingProps []string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]TypeDef{}
)

// Register adds or replaces the TypeDef for def.Name. This is the
// registration point for custom object types (spec.md §1 Non-goals:
// "supporting arbitrary custom object types beyond a registration point").
func Register(def TypeDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[def.Name] = def
}

// Lookup returns the TypeDef registered for typ, if any.
func Lookup(typ string) (TypeDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[typ]
	return def, ok
}

// RegisteredTypes returns the names of all currently registered types.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
