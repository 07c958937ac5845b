/*
Package undo implements the transactional undo/redo manager.

Mutation sites record reversible actions with AddUndoAction while a transaction is open.
Nested begin/commit pairs collapse into a single Transaction, which is pushed on the undo
stack when the outermost level commits. UndoTransaction and RedoTransaction replay whole
transactions in LIFO order.

# Playback order

A transaction holding [A1, A2, A3] undoes A3, A2, A1 and redoes A1, A2, A3. A failing
action is logged and skipped; the rest of the transaction is still replayed and the
stacks stay consistent.

# Usage

	manager := undo.New(undo.WithLogger(logger))

	err := manager.Undoable(func() error {
		return factory.SetAttribute(id, "name", "Customer")
	})

	manager.UndoTransaction()
	manager.RedoTransaction()
*/
package undo
