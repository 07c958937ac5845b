package undo

import (
	"log/slog"
	"time"

	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/domain"
)

// Manager sequences transactions into an undo stack and a redo stack.
//
// Nested BeginTransaction calls only increase a depth counter, so every action added
// until the outermost CommitTransaction lands in the same Transaction.
//
// A Manager is not safe for concurrent use. All calls are expected to come from one
// logical control flow (e.g. the command loop of an editor, or a session lock).
type Manager struct {
	current *Transaction
	depth   int

	undoStack []*Transaction
	redoStack []*Transaction

	// inUndo blocks begin/commit/discard while a transaction is being replayed.
	inUndo bool
	// shortCircuit blocks AddUndoAction while a transaction is being replayed.
	shortCircuit bool

	stackLimit int
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// New creates a Manager with empty history.
func New(opts ...Option) *Manager {
	m := &Manager{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeginTransaction opens a transaction, or nests into the open one.
// Opening a new top-level transaction clears the redo stack.
// It is a no-op while a transaction is being replayed.
func (m *Manager) BeginTransaction() {
	if m.inUndo {
		return
	}

	if m.current != nil {
		m.depth++
		return
	}

	m.current = NewTransaction()
	m.ClearRedoStack()
	m.depth = 1

	m.emit(m.hooks.OnBegin, domain.EventBegin, 0)
}

// AddUndoAction records an action in the open transaction.
// Outside a transaction, or during playback, the action is silently ignored.
// Recording an action invalidates the redo stack.
func (m *Manager) AddUndoAction(action domain.Action) {
	if m.shortCircuit || m.current == nil {
		return
	}
	if action == nil {
		m.logger.Debug("ignoring nil undo action")
		return
	}

	if len(m.redoStack) > 0 {
		m.ClearRedoStack()
	}

	m.current.Add(action)
}

// CommitTransaction closes one nesting level. When the outermost level is closed the
// transaction is pushed on the undo stack, unless it recorded nothing.
// Committing without an open transaction is a no-op.
func (m *Manager) CommitTransaction() {
	if m.inUndo {
		return
	}
	if m.current == nil {
		return
	}

	m.depth--
	if m.depth > 0 {
		return
	}

	tx := m.current
	m.current = nil
	m.depth = 0

	if !tx.CanUndo() {
		m.logger.Debug("nothing to commit")
		return
	}

	m.pushUndo(tx)
	m.emit(m.hooks.OnCommit, domain.EventCommit, tx.Len())
}

// DiscardTransaction closes one nesting level; when the outermost level is closed the
// open transaction is dropped instead of being pushed on the undo stack.
//
// Only the recording is discarded. Mutations the caller already applied stay applied,
// and there is no longer a way to undo them.
//
// It returns a *domain.TransactionError wrapping domain.ErrNoTransaction when no
// transaction is open.
func (m *Manager) DiscardTransaction() error {
	if m.inUndo {
		return nil
	}
	if m.current == nil {
		return &domain.TransactionError{Op: "discard", Err: domain.ErrNoTransaction}
	}

	m.depth--
	if m.depth > 0 {
		return nil
	}

	dropped := m.current.Len()
	m.current = nil
	m.depth = 0

	m.emit(m.hooks.OnDiscard, domain.EventDiscard, dropped)
	return nil
}

// UndoTransaction reverts the most recent transaction and moves it to the redo stack.
// An open transaction is committed first. Failing actions are logged and skipped.
func (m *Manager) UndoTransaction() {
	if len(m.undoStack) == 0 {
		return
	}

	if m.current != nil {
		m.logger.Warn("undo requested while in a transaction, committing it first", "depth", m.depth)
		m.forceCommit()
	}

	tx := m.undoStack[len(m.undoStack)-1]
	m.undoStack[len(m.undoStack)-1] = nil
	m.undoStack = m.undoStack[:len(m.undoStack)-1]

	m.replay(tx, domain.DirectionUndo)

	m.redoStack = append(m.redoStack, tx)
	m.emit(m.hooks.OnUndo, domain.EventUndo, tx.Len())
}

// RedoTransaction re-applies the most recently undone transaction and moves it back
// to the undo stack. Failing actions are logged and skipped.
func (m *Manager) RedoTransaction() {
	if len(m.redoStack) == 0 {
		return
	}

	tx := m.redoStack[len(m.redoStack)-1]
	m.redoStack[len(m.redoStack)-1] = nil
	m.redoStack = m.redoStack[:len(m.redoStack)-1]

	m.replay(tx, domain.DirectionRedo)

	m.pushUndo(tx)
	m.emit(m.hooks.OnRedo, domain.EventRedo, tx.Len())
}

// ClearUndoStack drops the undo history and any open transaction.
func (m *Manager) ClearUndoStack() {
	m.undoStack = nil
	m.current = nil
	m.depth = 0
}

// ClearRedoStack drops the redo history.
func (m *Manager) ClearRedoStack() {
	m.redoStack = nil
}

// ClearHistory drops both stacks and any open transaction, then fires OnClear.
func (m *Manager) ClearHistory() {
	m.ClearUndoStack()
	m.ClearRedoStack()
	m.emit(m.hooks.OnClear, domain.EventClear, 0)
}

// InTransaction reports whether a transaction is open.
func (m *Manager) InTransaction() bool {
	return m.current != nil
}

// CanUndo reports whether a transaction is open or the undo stack is not empty.
func (m *Manager) CanUndo() bool {
	return m.current != nil || len(m.undoStack) > 0
}

// CanRedo reports whether the redo stack is not empty.
func (m *Manager) CanRedo() bool {
	return len(m.redoStack) > 0
}

// Depth returns the current nesting depth (0 when idle).
func (m *Manager) Depth() int {
	return m.depth
}

// UndoDepth returns the number of transactions on the undo stack.
func (m *Manager) UndoDepth() int {
	return len(m.undoStack)
}

// RedoDepth returns the number of transactions on the redo stack.
func (m *Manager) RedoDepth() int {
	return len(m.redoStack)
}

// Replaying reports whether a transaction is being undone or redone.
func (m *Manager) Replaying() bool {
	return m.inUndo
}

// forceCommit closes every nesting level of the open transaction at once.
func (m *Manager) forceCommit() {
	m.depth = 1
	m.CommitTransaction()
}

func (m *Manager) replay(tx *Transaction, dir domain.Direction) {
	m.inUndo = true
	m.shortCircuit = true
	defer func() {
		m.inUndo = false
		m.shortCircuit = false
	}()

	var failures int
	if dir == domain.DirectionUndo {
		failures = tx.Undo(m.reportFailure)
	} else {
		failures = tx.Redo(m.reportFailure)
	}

	if failures > 0 {
		m.logger.Warn("transaction replayed with failures",
			"direction", string(dir),
			"actions", tx.Len(),
			"failures", failures,
		)
	}
}

func (m *Manager) reportFailure(f *domain.ActionFailure) {
	m.logger.Error("error while replaying action",
		"direction", string(f.Direction),
		"action", domain.DescribeAction(f.Action),
		"index", f.Index,
		"error", f.Err,
	)
	if m.hooks.OnActionFailure != nil {
		m.hooks.OnActionFailure(f)
	}
}

func (m *Manager) pushUndo(tx *Transaction) {
	m.undoStack = append(m.undoStack, tx)
	if m.stackLimit > 0 && len(m.undoStack) > m.stackLimit {
		evicted := len(m.undoStack) - m.stackLimit
		clear(m.undoStack[:evicted])
		m.undoStack = m.undoStack[evicted:]
		m.logger.Debug("undo stack limit reached, evicted oldest transactions", "evicted", evicted)
	}
}

func (m *Manager) emit(hook func(*domain.TransactionEvent), typ domain.EventType, actions int) {
	if hook == nil {
		return
	}
	hook(&domain.TransactionEvent{
		Timestamp: time.Now(),
		Type:      typ,
		Actions:   actions,
		UndoDepth: len(m.undoStack),
		RedoDepth: len(m.redoStack),
	})
}
