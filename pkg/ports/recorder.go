package ports

import "github.com/esantoro/gaphor/pkg/domain"

// UndoRecorder is the capability mutation sites use to register reversible effects.
// *undo.Manager implements it.
type UndoRecorder interface {
	AddUndoAction(action domain.Action)
}

// TransactionManager is the full surface consumed by command handlers and UI layers.
type TransactionManager interface {
	UndoRecorder

	BeginTransaction()
	CommitTransaction()
	DiscardTransaction() error
	UndoTransaction()
	RedoTransaction()

	InTransaction() bool
	CanUndo() bool
	CanRedo() bool
}
