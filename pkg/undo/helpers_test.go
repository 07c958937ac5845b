package undo_test

import (
	"errors"
	"fmt"
)

// journal records the order in which actions are replayed.
type journal struct {
	calls []string
}

// step is a test action that logs its calls and optionally fails.
type step struct {
	name      string
	j         *journal
	failUndo  bool
	failRedo  bool
	panicUndo bool
}

func (s *step) Undo() error {
	s.j.calls = append(s.j.calls, "undo:"+s.name)
	if s.panicUndo {
		panic("broken record " + s.name)
	}
	if s.failUndo {
		return errors.New("cannot undo " + s.name)
	}
	return nil
}

func (s *step) Redo() error {
	s.j.calls = append(s.j.calls, "redo:"+s.name)
	if s.failRedo {
		return errors.New("cannot redo " + s.name)
	}
	return nil
}

func (s *step) String() string {
	return s.name
}

// setValue mutates a map entry and remembers the previous value.
type setValue struct {
	model    map[string]string
	key      string
	old, new string
}

func newSetValue(model map[string]string, key, value string) *setValue {
	a := &setValue{model: model, key: key, old: model[key], new: value}
	model[key] = value
	return a
}

func (a *setValue) Undo() error {
	a.model[a.key] = a.old
	return nil
}

func (a *setValue) Redo() error {
	a.model[a.key] = a.new
	return nil
}

func (a *setValue) String() string {
	return fmt.Sprintf("set %s=%s", a.key, a.new)
}
