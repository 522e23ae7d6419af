// Package bundle implements the STIX Bundle container and its JSON codec
// (spec.md §4.5). A Bundle is not itself a STIX object: it has no
// created/modified and carries only a fresh bundle identifier plus an
// ordered sequence of objects.
package bundle

import (
	"github.com/darwis-taxii/taxii-server/internal/domain/stix"
	"github.com/darwis-taxii/taxii-server/internal/domain/stixid"
)

// Bundle is an ordered, mutable sequence of STIX objects.
type Bundle struct {
	ID      stixid.Identifier
	Objects []stix.Object
}

// New creates an empty bundle with a fresh identifier.
func New() (*Bundle, error) {
	id, err := stixid.New("bundle")
	if err != nil {
		return nil, err
	}
	return &Bundle{ID: id}, nil
}

// Add appends a single object.
func (b *Bundle) Add(obj stix.Object) {
	b.Objects = append(b.Objects, obj)
}

// AddAll appends every object in objs, in order.
func (b *Bundle) AddAll(objs []stix.Object) {
	b.Objects = append(b.Objects, objs...)
}

// Len returns the number of objects in the bundle.
func (b *Bundle) Len() int { return len(b.Objects) }

// FindByID returns the first object matching id, if any.
func (b *Bundle) FindByID(id stixid.Identifier) (stix.Object, bool) {
	for _, obj := range b.Objects {
		if obj.ID == id {
			return obj, true
		}
	}
	return stix.Object{}, false
}

// FindByType returns every object whose Type equals typ, in bundle order.
func (b *Bundle) FindByType(typ string) []stix.Object {
	var out []stix.Object
	for _, obj := range b.Objects {
		if obj.Type == typ {
			out = append(out, obj)
		}
	}
	return out
}

// RemoveByID removes the first object matching id. Reports whether an object
// was removed.
func (b *Bundle) RemoveByID(id stixid.Identifier) bool {
	for i, obj := range b.Objects {
		if obj.ID == id {
			b.Objects = append(b.Objects[:i], b.Objects[i+1:]...)
			return true
		}
	}
	return false
}

// Merge appends other's objects into b, preserving b's own identifier.
func (b *Bundle) Merge(other *Bundle) {
	b.AddAll(other.Objects)
}

// Dedupe collapses objects sharing an identifier, keeping only the one with
// the greatest modified timestamp (spec.md §4.5). Among objects sharing an
// identifier that carry no modified timestamp (SCOs, Meta objects), the
// first one seen is kept, whether or not their other properties match.
func (b *Bundle) Dedupe() {
	latest := make(map[stixid.Identifier]stix.Object, len(b.Objects))
	order := make([]stixid.Identifier, 0, len(b.Objects))
	for _, obj := range b.Objects {
		existing, ok := latest[obj.ID]
		if !ok {
			order = append(order, obj.ID)
			latest[obj.ID] = obj
			continue
		}
		existingModified, existingHas := existing.Modified()
		objModified, objHas := obj.Modified()
		if objHas && (!existingHas || objModified.After(existingModified)) {
			latest[obj.ID] = obj
		}
	}
	deduped := make([]stix.Object, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, latest[id])
	}
	b.Objects = deduped
}
