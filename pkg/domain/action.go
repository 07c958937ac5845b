package domain

// Action is a single reversible edit recorded by a mutation site.
//
// Undo reverses the net effect of the original mutation as observed at the moment it
// is invoked; Redo re-applies that same effect. A returned error is an action-level
// failure local to this record: the engine logs it and moves on to the next record.
//
// Actions are treated as immutable once created and are never shared between
// transactions.
type Action interface {
	Undo() error
	Redo() error
}

// ActionFunc adapts a pair of closures to the Action interface.
// Nil closures are treated as no-ops.
type ActionFunc struct {
	// Name is used only for logging and diagnostics.
	Name     string
	UndoFunc func() error
	RedoFunc func() error
}

// Undo implements Action.
func (a ActionFunc) Undo() error {
	if a.UndoFunc == nil {
		return nil
	}
	return a.UndoFunc()
}

// Redo implements Action.
func (a ActionFunc) Redo() error {
	if a.RedoFunc == nil {
		return nil
	}
	return a.RedoFunc()
}

// String returns the action name.
func (a ActionFunc) String() string {
	if a.Name == "" {
		return "func"
	}
	return a.Name
}

// Direction tells whether an action is being undone or redone.
type Direction string

const (
	DirectionUndo Direction = "undo"
	DirectionRedo Direction = "redo"
)
