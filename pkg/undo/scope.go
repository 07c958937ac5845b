package undo

import "github.com/esantoro/gaphor/pkg/domain"

// Scope brackets a unit of work in a transaction.
//
//	scope := manager.Begin()
//	defer scope.Close()
//
// Close commits. It never discards; call Discard explicitly to cancel the recording.
type Scope struct {
	manager *Manager
	closed  bool
}

// Begin opens (or nests into) a transaction and returns its scope.
func (m *Manager) Begin() *Scope {
	m.BeginTransaction()
	return &Scope{manager: m}
}

// Close commits the scope's nesting level. Calling it more than once is a no-op.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.manager.CommitTransaction()
}

// Discard cancels the scope's nesting level instead of committing it.
// The deferred Close becomes a no-op. Already applied mutations are not rolled back.
func (s *Scope) Discard() error {
	if s.closed {
		return &domain.TransactionError{Op: "discard", Err: domain.ErrNoTransaction}
	}
	s.closed = true
	return s.manager.DiscardTransaction()
}

// Undoable runs fn inside a transaction. The transaction is committed on every exit
// path, including an error return or a panic.
func (m *Manager) Undoable(fn func() error) error {
	scope := m.Begin()
	defer scope.Close()
	return fn()
}

// Wrap returns fn wrapped by Undoable, for command tables and menu bindings.
func (m *Manager) Wrap(fn func() error) func() error {
	return func() error {
		return m.Undoable(fn)
	}
}
