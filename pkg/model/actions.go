package model

import (
	"fmt"

	"github.com/esantoro/gaphor/pkg/domain"
)

// createElement reverses an element creation.
type createElement struct {
	factory *Factory
	rec     domain.ElementRecord
}

func (a *createElement) Undo() error {
	_, err := a.factory.remove(a.rec.ID)
	return err
}

func (a *createElement) Redo() error {
	return a.factory.insert(elementFromRecord(a.rec))
}

func (a *createElement) String() string {
	return fmt.Sprintf("create %s %s", a.rec.Kind, a.rec.ID)
}

// deleteElement reverses an element deletion. The record holds the element as it
// was right before it was removed.
type deleteElement struct {
	factory *Factory
	rec     domain.ElementRecord
}

func (a *deleteElement) Undo() error {
	return a.factory.insert(elementFromRecord(a.rec))
}

func (a *deleteElement) Redo() error {
	_, err := a.factory.remove(a.rec.ID)
	return err
}

func (a *deleteElement) String() string {
	return fmt.Sprintf("delete %s %s", a.rec.Kind, a.rec.ID)
}

// setAttribute reverses an attribute change. had/has tell whether the attribute
// existed before and after the change.
type setAttribute struct {
	factory *Factory
	id, key string
	old     string
	had     bool
	value   string
	has     bool
}

func (a *setAttribute) Undo() error {
	return a.factory.setAttr(a.id, a.key, a.old, a.had)
}

func (a *setAttribute) Redo() error {
	return a.factory.setAttr(a.id, a.key, a.value, a.has)
}

func (a *setAttribute) String() string {
	if !a.has {
		return fmt.Sprintf("unset %s.%s", a.id, a.key)
	}
	return fmt.Sprintf("set %s.%s=%q", a.id, a.key, a.value)
}

type addToCollection struct {
	factory       *Factory
	id, coll, ref string
	index         int
}

func (a *addToCollection) Undo() error {
	return a.factory.removeRef(a.id, a.coll, a.ref, a.index)
}

func (a *addToCollection) Redo() error {
	return a.factory.insertRef(a.id, a.coll, a.ref, a.index)
}

func (a *addToCollection) String() string {
	return fmt.Sprintf("add %s to %s.%s", a.ref, a.id, a.coll)
}

type removeFromCollection struct {
	factory       *Factory
	id, coll, ref string
	index         int
}

func (a *removeFromCollection) Undo() error {
	return a.factory.insertRef(a.id, a.coll, a.ref, a.index)
}

func (a *removeFromCollection) Redo() error {
	return a.factory.removeRef(a.id, a.coll, a.ref, a.index)
}

func (a *removeFromCollection) String() string {
	return fmt.Sprintf("remove %s from %s.%s", a.ref, a.id, a.coll)
}
