package model

import "slices"

// EventKind defines what happened to the model.
type EventKind string

const (
	ElementCreated EventKind = "created"
	ElementChanged EventKind = "changed"
	ElementDeleted EventKind = "deleted"
	ModelFlushed   EventKind = "flushed"
)

// Event is emitted by the Factory after every change, including changes replayed by
// undo and redo.
type Event struct {
	Kind      EventKind
	ElementID string
	// Property names the changed attribute or collection, if any.
	Property string
}

// Observer receives model events.
type Observer func(Event)

type subscription struct {
	id       int
	observer Observer
}

// Subscribe registers an observer and returns a function that removes it.
func (f *Factory) Subscribe(o Observer) func() {
	f.nextSub++
	id := f.nextSub
	f.subs = append(f.subs, subscription{id: id, observer: o})
	return func() {
		f.subs = slices.DeleteFunc(slices.Clone(f.subs), func(s subscription) bool {
			return s.id == id
		})
	}
}

func (f *Factory) notify(kind EventKind, id, property string) {
	ev := Event{Kind: kind, ElementID: id, Property: property}
	// observers may unsubscribe while being notified
	for _, s := range slices.Clone(f.subs) {
		s.observer(ev)
	}
}
