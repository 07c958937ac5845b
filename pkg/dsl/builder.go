package dsl

import (
	"fmt"

	"github.com/esantoro/gaphor/pkg/script"
)

// Builder accumulates script steps in order.
type Builder struct {
	steps []script.Step
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) add(s script.Step) {
	b.steps = append(b.steps, s)
}

// Begin opens an explicit transaction.
func (b *Builder) Begin() *Builder {
	b.add(script.Step{Op: script.OpBegin})
	return b
}

// Commit closes the innermost explicit transaction.
func (b *Builder) Commit() *Builder {
	b.add(script.Step{Op: script.OpCommit})
	return b
}

// Discard marks the outermost transaction as discarded.
func (b *Builder) Discard() *Builder {
	b.add(script.Step{Op: script.OpDiscard})
	return b
}

func (b *Builder) Undo() *Builder {
	b.add(script.Step{Op: script.OpUndo})
	return b
}

func (b *Builder) Redo() *Builder {
	b.add(script.Step{Op: script.OpRedo})
	return b
}

func (b *Builder) Backup() *Builder {
	b.add(script.Step{Op: script.OpBackup})
	return b
}

func (b *Builder) Restore() *Builder {
	b.add(script.Step{Op: script.OpRestore})
	return b
}

// Create adds a create step and returns a builder for the new element.
// When alias is set, later steps refer to the element as "$alias".
func (b *Builder) Create(kind, alias string) *ElementBuilder {
	b.add(script.Step{Op: script.OpCreate, Kind: kind, As: alias})
	ref := ""
	if alias != "" {
		ref = "$" + alias
	}
	return &ElementBuilder{builder: b, ref: ref}
}

// CreateWithID is like Create but fixes the element ID.
func (b *Builder) CreateWithID(kind, id string) *ElementBuilder {
	b.add(script.Step{Op: script.OpCreate, Kind: kind, ID: id})
	return &ElementBuilder{builder: b, ref: id}
}

// Element returns a builder for an existing element, by ID or "$alias".
func (b *Builder) Element(ref string) *ElementBuilder {
	return &ElementBuilder{builder: b, ref: ref}
}

// Steps returns the steps collected so far without validating them.
func (b *Builder) Steps() []script.Step {
	out := make([]script.Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Build validates and returns the script.
func (b *Builder) Build() ([]script.Step, error) {
	for i, s := range b.steps {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("failed to build script: %w", &script.StepError{Index: i, Op: s.Op, Err: err})
		}
	}
	return b.Steps(), nil
}
