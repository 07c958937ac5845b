package domain

import (
	"errors"
	"fmt"
)

// ErrNoTransaction is returned when discarding while no transaction is open.
var ErrNoTransaction = errors.New("no transaction to discard")

// TransactionError reports structural misuse of the transaction manager.
// It is the only error surfaced to callers of the manager.
type TransactionError struct {
	// Op is the manager operation that was misused (e.g. "discard").
	Op string
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is(err, ErrNoTransaction).
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// ActionFailure reports that a single record failed while being replayed.
// It is logged and passed to LifecycleHooks.OnActionFailure; it never reaches the
// caller of UndoTransaction or RedoTransaction.
type ActionFailure struct {
	Action    Action
	Direction Direction
	// Index is the position of the record in the playback order.
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ActionFailure) Error() string {
	return fmt.Sprintf("%s of action %s (#%d) failed: %v", e.Direction, DescribeAction(e.Action), e.Index, e.Err)
}

// Unwrap returns the cause.
func (e *ActionFailure) Unwrap() error {
	return e.Err
}

// IsTransactionError returns true if err is (or wraps) a TransactionError.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}

// DescribeAction returns a printable name for an action.
func DescribeAction(a Action) string {
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", a)
}
