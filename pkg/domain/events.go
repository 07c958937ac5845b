package domain

import "time"

// EventType defines the category of a transaction event.
type EventType string

const (
	EventBegin   EventType = "begin"
	EventCommit  EventType = "commit"
	EventDiscard EventType = "discard"
	EventUndo    EventType = "undo"
	EventRedo    EventType = "redo"
	EventClear   EventType = "clear"
)

// TransactionEvent describes a change in the undo history.
type TransactionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	// Actions is the number of records held by the transaction involved.
	Actions   int `json:"actions"`
	UndoDepth int `json:"undo_depth"`
	RedoDepth int `json:"redo_depth"`
}

// LifecycleHooks defines callbacks for undo manager observability.
// All fields are optional.
type LifecycleHooks struct {
	// OnBegin fires when a new top-level transaction is opened.
	OnBegin func(*TransactionEvent)
	// OnCommit fires when a non-empty transaction lands on the undo stack.
	OnCommit func(*TransactionEvent)
	// OnDiscard fires when the outermost discard drops the open transaction.
	OnDiscard func(*TransactionEvent)
	OnUndo    func(*TransactionEvent)
	OnRedo    func(*TransactionEvent)
	// OnClear fires when the whole history is dropped, e.g. after a load or restore.
	OnClear func(*TransactionEvent)
	// OnActionFailure fires once per record that fails during playback.
	OnActionFailure func(*ActionFailure)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnBegin:         chainEvent(h.OnBegin, other.OnBegin),
		OnCommit:        chainEvent(h.OnCommit, other.OnCommit),
		OnDiscard:       chainEvent(h.OnDiscard, other.OnDiscard),
		OnUndo:          chainEvent(h.OnUndo, other.OnUndo),
		OnRedo:          chainEvent(h.OnRedo, other.OnRedo),
		OnClear:         chainEvent(h.OnClear, other.OnClear),
		OnActionFailure: chainFailure(h.OnActionFailure, other.OnActionFailure),
	}
}

func chainEvent(a, b func(*TransactionEvent)) func(*TransactionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ev *TransactionEvent) {
		a(ev)
		b(ev)
	}
}

func chainFailure(a, b func(*ActionFailure)) func(*ActionFailure) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(f *ActionFailure) {
		a(f)
		b(f)
	}
}
