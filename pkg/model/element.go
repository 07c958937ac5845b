package model

import (
	"maps"
	"slices"

	"github.com/esantoro/gaphor/pkg/domain"
)

// Element is a model object: a kind, string attributes, and named collections of
// references to other elements.
//
// Elements are owned by a Factory. Read them freely, but mutate them only through the
// Factory so that every change is recorded for undo.
type Element struct {
	id          string
	kind        string
	attributes  map[string]string
	collections map[string][]string
}

func newElement(id, kind string) *Element {
	return &Element{
		id:          id,
		kind:        kind,
		attributes:  make(map[string]string),
		collections: make(map[string][]string),
	}
}

func elementFromRecord(rec domain.ElementRecord) *Element {
	e := newElement(rec.ID, rec.Kind)
	for k, v := range rec.Attributes {
		e.attributes[k] = v
	}
	for k, v := range rec.Collections {
		if len(v) > 0 {
			e.collections[k] = slices.Clone(v)
		}
	}
	return e
}

// ID returns the element identifier.
func (e *Element) ID() string { return e.id }

// Kind returns the element kind (e.g. "Class", "Association").
func (e *Element) Kind() string { return e.kind }

// Attribute returns the value of an attribute.
func (e *Element) Attribute(key string) (string, bool) {
	v, ok := e.attributes[key]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (e *Element) Attributes() map[string]string {
	return maps.Clone(e.attributes)
}

// Collection returns a copy of the references held in a collection.
func (e *Element) Collection(name string) []string {
	return slices.Clone(e.collections[name])
}

// Record returns the storable form of the element.
func (e *Element) Record() domain.ElementRecord {
	rec := domain.ElementRecord{ID: e.id, Kind: e.kind}
	if len(e.attributes) > 0 {
		rec.Attributes = maps.Clone(e.attributes)
	}
	if len(e.collections) > 0 {
		rec.Collections = make(map[string][]string, len(e.collections))
		for k, v := range e.collections {
			rec.Collections[k] = slices.Clone(v)
		}
	}
	return rec
}
