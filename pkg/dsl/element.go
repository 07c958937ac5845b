package dsl

import "github.com/esantoro/gaphor/pkg/script"

// ElementBuilder adds steps that target a single element.
// An element created without alias or ID has no reference; steps added
// through it fail validation at Build.
type ElementBuilder struct {
	builder *Builder
	ref     string
}

// Set assigns an attribute.
func (e *ElementBuilder) Set(key, value string) *ElementBuilder {
	e.builder.add(script.Step{Op: script.OpSet, ID: e.ref, Key: key, Value: value})
	return e
}

// Unset clears an attribute.
func (e *ElementBuilder) Unset(key string) *ElementBuilder {
	e.builder.add(script.Step{Op: script.OpUnset, ID: e.ref, Key: key})
	return e
}

// Add appends ref to one of the element's collections.
func (e *ElementBuilder) Add(collection, ref string) *ElementBuilder {
	e.builder.add(script.Step{Op: script.OpAdd, ID: e.ref, Collection: collection, Ref: ref})
	return e
}

// Remove drops ref from one of the element's collections.
func (e *ElementBuilder) Remove(collection, ref string) *ElementBuilder {
	e.builder.add(script.Step{Op: script.OpRemove, ID: e.ref, Collection: collection, Ref: ref})
	return e
}

// Delete removes the element. It returns the parent builder.
func (e *ElementBuilder) Delete() *Builder {
	e.builder.add(script.Step{Op: script.OpDelete, ID: e.ref})
	return e.builder
}

// Ref returns the reference later steps use for this element.
func (e *ElementBuilder) Ref() string {
	return e.ref
}

// Done returns the parent builder.
func (e *ElementBuilder) Done() *Builder {
	return e.builder
}
