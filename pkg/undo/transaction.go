package undo

import (
	"fmt"
	"slices"

	"github.com/esantoro/gaphor/pkg/domain"
)

// FailureHandler receives every record that fails during playback.
type FailureHandler func(*domain.ActionFailure)

// Transaction is an ordered group of actions recorded between a begin and the
// matching outermost commit. It is played back as one unit.
//
// The action slice is reversed in place on every Undo and Redo. After an Undo the
// storage order is newest-first; after the following Redo it is back to insertion order.
type Transaction struct {
	actions []domain.Action
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Add appends an action.
func (t *Transaction) Add(action domain.Action) {
	t.actions = append(t.actions, action)
}

// CanUndo reports whether the transaction holds at least one action.
func (t *Transaction) CanUndo() bool {
	return len(t.actions) > 0
}

// Len returns the number of recorded actions.
func (t *Transaction) Len() int {
	return len(t.actions)
}

// Actions returns a copy of the actions in their current storage order.
func (t *Transaction) Actions() []domain.Action {
	return slices.Clone(t.actions)
}

// Undo reverses the storage order and undoes every action in that order,
// so the last recorded action is undone first. It returns the number of failures.
func (t *Transaction) Undo(onFailure FailureHandler) int {
	return t.playback(domain.DirectionUndo, onFailure)
}

// Redo reverses the storage order again and redoes every action in that order,
// so the first recorded action is redone first. It returns the number of failures.
func (t *Transaction) Redo(onFailure FailureHandler) int {
	return t.playback(domain.DirectionRedo, onFailure)
}

func (t *Transaction) playback(dir domain.Direction, onFailure FailureHandler) int {
	slices.Reverse(t.actions)

	failures := 0
	for i, action := range t.actions {
		if err := apply(action, dir); err != nil {
			failures++
			if onFailure != nil {
				onFailure(&domain.ActionFailure{
					Action:    action,
					Direction: dir,
					Index:     i,
					Err:       err,
				})
			}
		}
	}
	return failures
}

// apply runs a single record, turning a panic into an error so that one broken
// record cannot abort the rest of the playback.
func apply(action domain.Action, dir domain.Direction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if dir == domain.DirectionUndo {
		return action.Undo()
	}
	return action.Redo()
}
