package model

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/ports"
	"github.com/google/uuid"
)

// Factory owns the elements of one model and is the only place where they are mutated.
//
// Every public mutation registers a reversible action with the configured
// ports.UndoRecorder. Actions refer to elements by ID, so they keep working after an
// element was deleted and re-created by undo. Hold IDs, not *Element pointers.
//
// A Factory is not safe for concurrent use.
type Factory struct {
	elements map[string]*Element
	recorder ports.UndoRecorder
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger

	subs    []subscription
	nextSub int
}

// Option configures a Factory.
type Option func(*Factory)

// WithRecorder sets where undo actions are registered (typically an *undo.Manager).
func WithRecorder(r ports.UndoRecorder) Option {
	return func(f *Factory) {
		f.recorder = r
	}
}

// WithIDGenerator overrides the element ID generator (default: random UUIDs).
func WithIDGenerator(gen func() string) Option {
	return func(f *Factory) {
		f.newID = gen
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		f.now = now
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates an empty model.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		elements: make(map[string]*Element),
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create adds a new element with a generated ID.
func (f *Factory) Create(kind string) (*Element, error) {
	return f.CreateWithID(f.newID(), kind)
}

// CreateWithID adds a new element with the given ID.
func (f *Factory) CreateWithID(id, kind string) (*Element, error) {
	e := newElement(id, kind)
	if err := f.insert(e); err != nil {
		return nil, err
	}
	f.record(&createElement{factory: f, rec: e.Record()})
	return e, nil
}

// Delete removes an element. References to it held by other elements are removed
// first, each one as its own recorded action.
func (f *Factory) Delete(id string) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrElementNotFound)
	}

	for _, ownerID := range f.Keys() {
		owner := f.elements[ownerID]
		for _, coll := range sortedKeys(owner.collections) {
			for slices.Contains(owner.collections[coll], id) {
				if err := f.RemoveFrom(ownerID, coll, id); err != nil {
					return err
				}
			}
		}
	}

	rec := e.Record()
	if _, err := f.remove(id); err != nil {
		return err
	}
	f.record(&deleteElement{factory: f, rec: rec})
	return nil
}

// SetAttribute sets an attribute value.
func (f *Factory) SetAttribute(id, key, value string) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("set %s.%s: %w", id, key, ErrElementNotFound)
	}
	old, had := e.attributes[key]
	if had && old == value {
		return nil
	}
	if err := f.setAttr(id, key, value, true); err != nil {
		return err
	}
	f.record(&setAttribute{factory: f, id: id, key: key, old: old, had: had, value: value, has: true})
	return nil
}

// UnsetAttribute removes an attribute. Removing a missing attribute is a no-op.
func (f *Factory) UnsetAttribute(id, key string) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("unset %s.%s: %w", id, key, ErrElementNotFound)
	}
	old, had := e.attributes[key]
	if !had {
		return nil
	}
	if err := f.setAttr(id, key, "", false); err != nil {
		return err
	}
	f.record(&setAttribute{factory: f, id: id, key: key, old: old, had: true, has: false})
	return nil
}

// AddTo appends a reference to another element to a collection.
func (f *Factory) AddTo(id, coll, ref string) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("add to %s.%s: %w", id, coll, ErrElementNotFound)
	}
	if _, ok := f.elements[ref]; !ok {
		return fmt.Errorf("add %s to %s.%s: %w", ref, id, coll, ErrElementNotFound)
	}
	index := len(e.collections[coll])
	if err := f.insertRef(id, coll, ref, index); err != nil {
		return err
	}
	f.record(&addToCollection{factory: f, id: id, coll: coll, ref: ref, index: index})
	return nil
}

// RemoveFrom removes the last occurrence of a reference from a collection.
func (f *Factory) RemoveFrom(id, coll, ref string) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("remove from %s.%s: %w", id, coll, ErrElementNotFound)
	}
	index := lastIndex(e.collections[coll], ref)
	if index < 0 {
		return fmt.Errorf("remove %s from %s.%s: %w", ref, id, coll, ErrNotInCollection)
	}
	if err := f.removeRef(id, coll, ref, index); err != nil {
		return err
	}
	f.record(&removeFromCollection{factory: f, id: id, coll: coll, ref: ref, index: index})
	return nil
}

// Lookup returns the element with the given ID.
func (f *Factory) Lookup(id string) (*Element, bool) {
	e, ok := f.elements[id]
	return e, ok
}

// Keys returns all element IDs, sorted.
func (f *Factory) Keys() []string {
	return sortedKeys(f.elements)
}

// Size returns the number of elements.
func (f *Factory) Size() int {
	return len(f.elements)
}

// Select returns the elements of the given kind, sorted by ID.
func (f *Factory) Select(kind string) []*Element {
	var out []*Element
	for _, id := range f.Keys() {
		if e := f.elements[id]; e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Flush removes every element without recording anything.
func (f *Factory) Flush() {
	f.elements = make(map[string]*Element)
	f.notify(ModelFlushed, "", "")
}

// Snapshot returns the storable form of the whole model, ordered by element ID.
func (f *Factory) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		TakenAt:  f.now().UTC(),
		Elements: make([]domain.ElementRecord, 0, len(f.elements)),
	}
	for _, id := range f.Keys() {
		snap.Elements = append(snap.Elements, f.elements[id].Record())
	}
	return snap
}

// Replace swaps the model for fresh elements built from the snapshot.
// Nothing is recorded. The snapshot is checked first: on error the model is untouched.
func (f *Factory) Replace(snap *domain.Snapshot) error {
	var records []domain.ElementRecord
	if snap != nil {
		records = snap.Elements
	}

	next := make(map[string]*Element, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("load element of kind %q: empty id", rec.Kind)
		}
		if _, exists := next[rec.ID]; exists {
			return fmt.Errorf("load element: create %s: %w", rec.ID, ErrDuplicateElement)
		}
		next[rec.ID] = elementFromRecord(rec)
	}

	f.Flush()
	f.elements = next
	for _, id := range f.Keys() {
		f.notify(ElementCreated, id, "")
	}
	f.logger.Debug("model replaced", "elements", len(f.elements))
	return nil
}

func (f *Factory) record(action domain.Action) {
	if f.recorder == nil {
		return
	}
	f.recorder.AddUndoAction(action)
}

// The primitives below apply changes and notify observers, without recording.
// Actions use them during playback.

func (f *Factory) insert(e *Element) error {
	if _, exists := f.elements[e.id]; exists {
		return fmt.Errorf("create %s: %w", e.id, ErrDuplicateElement)
	}
	f.elements[e.id] = e
	f.notify(ElementCreated, e.id, "")
	return nil
}

func (f *Factory) remove(id string) (*Element, error) {
	e, ok := f.elements[id]
	if !ok {
		return nil, fmt.Errorf("delete %s: %w", id, ErrElementNotFound)
	}
	delete(f.elements, id)
	f.notify(ElementDeleted, id, "")
	return e, nil
}

func (f *Factory) setAttr(id, key, value string, present bool) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("set %s.%s: %w", id, key, ErrElementNotFound)
	}
	if present {
		e.attributes[key] = value
	} else {
		delete(e.attributes, key)
	}
	f.notify(ElementChanged, id, key)
	return nil
}

func (f *Factory) insertRef(id, coll, ref string, index int) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("add to %s.%s: %w", id, coll, ErrElementNotFound)
	}
	refs := e.collections[coll]
	index = min(max(index, 0), len(refs))
	e.collections[coll] = slices.Insert(refs, index, ref)
	f.notify(ElementChanged, id, coll)
	return nil
}

func (f *Factory) removeRef(id, coll, ref string, index int) error {
	e, ok := f.elements[id]
	if !ok {
		return fmt.Errorf("remove from %s.%s: %w", id, coll, ErrElementNotFound)
	}
	refs := e.collections[coll]
	if index < 0 || index >= len(refs) || refs[index] != ref {
		index = lastIndex(refs, ref)
	}
	if index < 0 {
		return fmt.Errorf("remove %s from %s.%s: %w", ref, id, coll, ErrNotInCollection)
	}
	refs = slices.Delete(refs, index, index+1)
	if len(refs) == 0 {
		delete(e.collections, coll)
	} else {
		e.collections[coll] = refs
	}
	f.notify(ElementChanged, id, coll)
	return nil
}

func lastIndex(refs []string, ref string) int {
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i] == ref {
			return i
		}
	}
	return -1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
