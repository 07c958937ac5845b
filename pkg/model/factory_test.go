package model_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/model"
	"github.com/esantoro/gaphor/pkg/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func newFixture(t *testing.T, opts ...undo.Option) (*model.Factory, *undo.Manager) {
	t.Helper()
	m := undo.New(opts...)
	f := model.NewFactory(model.WithRecorder(m), model.WithIDGenerator(sequentialIDs()))
	return f, m
}

func TestFactory_CreateUndoRedo(t *testing.T) {
	f, m := newFixture(t)

	err := m.Undoable(func() error {
		e, err := f.Create("Class")
		if err != nil {
			return err
		}
		return f.SetAttribute(e.ID(), "name", "Customer")
	})
	require.NoError(t, err)
	require.Equal(t, []string{"e1"}, f.Keys())

	m.UndoTransaction()
	assert.Equal(t, 0, f.Size())

	m.RedoTransaction()
	e, ok := f.Lookup("e1")
	require.True(t, ok)
	assert.Equal(t, "Class", e.Kind())
	name, _ := e.Attribute("name")
	assert.Equal(t, "Customer", name)
}

func TestFactory_SetAttributeRestoresAbsence(t *testing.T) {
	f, m := newFixture(t)
	e, err := f.CreateWithID("c1", "Class")
	require.NoError(t, err)

	require.NoError(t, m.Undoable(func() error {
		return f.SetAttribute(e.ID(), "name", "Customer")
	}))
	require.NoError(t, m.Undoable(func() error {
		return f.SetAttribute(e.ID(), "name", "Client")
	}))

	m.UndoTransaction()
	name, _ := e.Attribute("name")
	assert.Equal(t, "Customer", name)

	m.UndoTransaction()
	_, ok := e.Attribute("name")
	assert.False(t, ok, "undo removes an attribute that did not exist")

	m.RedoTransaction()
	m.RedoTransaction()
	name, _ = e.Attribute("name")
	assert.Equal(t, "Client", name)
}

func TestFactory_UnsetAttribute(t *testing.T) {
	f, m := newFixture(t)
	_, err := f.CreateWithID("c1", "Class")
	require.NoError(t, err)
	require.NoError(t, f.SetAttribute("c1", "abstract", "true"))

	require.NoError(t, m.Undoable(func() error {
		return f.UnsetAttribute("c1", "abstract")
	}))
	e, _ := f.Lookup("c1")
	_, ok := e.Attribute("abstract")
	assert.False(t, ok)

	m.UndoTransaction()
	v, _ := e.Attribute("abstract")
	assert.Equal(t, "true", v)
}

func TestFactory_SetSameValueRecordsNothing(t *testing.T) {
	f, m := newFixture(t)
	_, err := f.CreateWithID("c1", "Class")
	require.NoError(t, err)
	require.NoError(t, f.SetAttribute("c1", "name", "A"))

	require.NoError(t, m.Undoable(func() error {
		return f.SetAttribute("c1", "name", "A")
	}))
	assert.False(t, m.CanUndo())
}

func TestFactory_Collections(t *testing.T) {
	f, m := newFixture(t)
	for _, id := range []string{"pkg", "a", "b", "c"} {
		_, err := f.CreateWithID(id, "Class")
		require.NoError(t, err)
	}

	require.NoError(t, m.Undoable(func() error {
		for _, ref := range []string{"a", "b", "c"} {
			if err := f.AddTo("pkg", "ownedMember", ref); err != nil {
				return err
			}
		}
		return nil
	}))
	pkg, _ := f.Lookup("pkg")
	require.Equal(t, []string{"a", "b", "c"}, pkg.Collection("ownedMember"))

	require.NoError(t, m.Undoable(func() error {
		return f.RemoveFrom("pkg", "ownedMember", "b")
	}))
	assert.Equal(t, []string{"a", "c"}, pkg.Collection("ownedMember"))

	m.UndoTransaction()
	assert.Equal(t, []string{"a", "b", "c"}, pkg.Collection("ownedMember"), "removed reference goes back to its position")

	m.UndoTransaction()
	assert.Empty(t, pkg.Collection("ownedMember"))

	m.RedoTransaction()
	assert.Equal(t, []string{"a", "b", "c"}, pkg.Collection("ownedMember"))
}

func TestFactory_DeleteRemovesReferences(t *testing.T) {
	f, m := newFixture(t)
	for _, id := range []string{"pkg", "a", "diagram"} {
		_, err := f.CreateWithID(id, "Element")
		require.NoError(t, err)
	}
	require.NoError(t, f.SetAttribute("a", "name", "Customer"))
	require.NoError(t, f.AddTo("pkg", "ownedMember", "a"))
	require.NoError(t, f.AddTo("diagram", "presentation", "a"))

	require.NoError(t, m.Undoable(func() error {
		return f.Delete("a")
	}))

	_, ok := f.Lookup("a")
	assert.False(t, ok)
	pkg, _ := f.Lookup("pkg")
	diagram, _ := f.Lookup("diagram")
	assert.Empty(t, pkg.Collection("ownedMember"))
	assert.Empty(t, diagram.Collection("presentation"))

	m.UndoTransaction()
	a, ok := f.Lookup("a")
	require.True(t, ok)
	name, _ := a.Attribute("name")
	assert.Equal(t, "Customer", name)
	assert.Equal(t, []string{"a"}, pkg.Collection("ownedMember"))
	assert.Equal(t, []string{"a"}, diagram.Collection("presentation"))

	m.RedoTransaction()
	_, ok = f.Lookup("a")
	assert.False(t, ok)
}

func TestFactory_Errors(t *testing.T) {
	f, _ := newFixture(t)
	_, err := f.CreateWithID("c1", "Class")
	require.NoError(t, err)

	_, err = f.CreateWithID("c1", "Class")
	assert.ErrorIs(t, err, model.ErrDuplicateElement)
	assert.ErrorIs(t, f.SetAttribute("missing", "name", "x"), model.ErrElementNotFound)
	assert.ErrorIs(t, f.AddTo("c1", "ownedMember", "missing"), model.ErrElementNotFound)
	assert.ErrorIs(t, f.RemoveFrom("c1", "ownedMember", "c1"), model.ErrNotInCollection)
	assert.ErrorIs(t, f.Delete("missing"), model.ErrElementNotFound)
}

func TestFactory_MutationsOutsideTransactionAreNotRecorded(t *testing.T) {
	f, m := newFixture(t)
	_, err := f.Create("Class")
	require.NoError(t, err)
	assert.False(t, m.CanUndo())
}

func TestFactory_BrokenActionDoesNotBlockOthers(t *testing.T) {
	var failures []*domain.ActionFailure
	f, m := newFixture(t, undo.WithHooks(domain.LifecycleHooks{
		OnActionFailure: func(af *domain.ActionFailure) { failures = append(failures, af) },
	}))
	_, err := f.CreateWithID("a", "Class")
	require.NoError(t, err)
	_, err = f.CreateWithID("b", "Class")
	require.NoError(t, err)

	require.NoError(t, m.Undoable(func() error {
		if err := f.SetAttribute("a", "name", "A"); err != nil {
			return err
		}
		return f.SetAttribute("b", "name", "B")
	}))

	// Remove "b" behind the manager's back: undoing its attribute change now fails.
	f.Flush()
	_, err = f.CreateWithID("a", "Class")
	require.NoError(t, err)
	require.NoError(t, f.SetAttribute("a", "name", "A"))

	m.UndoTransaction()

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], model.ErrElementNotFound)
	a, _ := f.Lookup("a")
	_, ok := a.Attribute("name")
	assert.False(t, ok, "the healthy action was still undone")
	assert.True(t, m.CanRedo())
}

func TestFactory_Events(t *testing.T) {
	f, m := newFixture(t)
	var events []model.Event
	unsubscribe := f.Subscribe(func(ev model.Event) { events = append(events, ev) })

	require.NoError(t, m.Undoable(func() error {
		if _, err := f.CreateWithID("c1", "Class"); err != nil {
			return err
		}
		return f.SetAttribute("c1", "name", "Customer")
	}))
	m.UndoTransaction()

	assert.Equal(t, []model.Event{
		{Kind: model.ElementCreated, ElementID: "c1"},
		{Kind: model.ElementChanged, ElementID: "c1", Property: "name"},
		{Kind: model.ElementChanged, ElementID: "c1", Property: "name"},
		{Kind: model.ElementDeleted, ElementID: "c1"},
	}, events)

	unsubscribe()
	f.Flush()
	assert.Len(t, events, 4)
}

func TestFactory_SnapshotReplace(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := undo.New()
	f := model.NewFactory(model.WithRecorder(m), model.WithClock(func() time.Time { return now }))

	_, err := f.CreateWithID("b", "Property")
	require.NoError(t, err)
	_, err = f.CreateWithID("a", "Class")
	require.NoError(t, err)
	require.NoError(t, f.AddTo("a", "ownedAttribute", "b"))

	snap := f.Snapshot()
	assert.Equal(t, now, snap.TakenAt)
	require.Len(t, snap.Elements, 2)
	assert.Equal(t, "a", snap.Elements[0].ID)
	assert.Equal(t, []string{"b"}, snap.Elements[0].Collections["ownedAttribute"])

	before, _ := f.Lookup("a")
	require.NoError(t, f.Replace(snap))
	after, _ := f.Lookup("a")

	assert.NotSame(t, before, after, "replace creates fresh elements")
	assert.Equal(t, before.Record(), after.Record())
	assert.False(t, m.CanUndo(), "replace is not recorded")
}

func TestFactory_ReplaceRejectsBadSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.ElementRecord
		wantErr error
	}{
		{"DuplicateID", []domain.ElementRecord{{ID: "x", Kind: "Class"}, {ID: "x", Kind: "Class"}}, model.ErrDuplicateElement},
		{"EmptyID", []domain.ElementRecord{{ID: "x", Kind: "Class"}, {Kind: "Class"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, m := newFixture(t)
			require.NoError(t, m.Undoable(func() error {
				_, err := f.CreateWithID("kept", "Package")
				return err
			}))
			var events []model.Event
			f.Subscribe(func(ev model.Event) { events = append(events, ev) })

			err := f.Replace(&domain.Snapshot{Elements: tt.records})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Equal(t, []string{"kept"}, f.Keys(), "a rejected snapshot leaves the model untouched")
			assert.Empty(t, events)
		})
	}
}

func TestFactory_ReplaceEvents(t *testing.T) {
	f, _ := newFixture(t)
	_, err := f.CreateWithID("old", "Class")
	require.NoError(t, err)

	var events []model.Event
	f.Subscribe(func(ev model.Event) { events = append(events, ev) })

	require.NoError(t, f.Replace(&domain.Snapshot{Elements: []domain.ElementRecord{
		{ID: "b", Kind: "Class"},
		{ID: "a", Kind: "Class"},
	}}))

	assert.Equal(t, []model.Event{
		{Kind: model.ModelFlushed},
		{Kind: model.ElementCreated, ElementID: "a"},
		{Kind: model.ElementCreated, ElementID: "b"},
	}, events)
}

func TestFactory_UnsubscribeDuringNotify(t *testing.T) {
	f := model.NewFactory()
	var calls []string

	var unsubscribeFirst func()
	unsubscribeFirst = f.Subscribe(func(model.Event) {
		calls = append(calls, "first")
		unsubscribeFirst()
	})
	f.Subscribe(func(model.Event) { calls = append(calls, "second") })
	f.Subscribe(func(model.Event) { calls = append(calls, "third") })

	f.Flush()
	assert.Equal(t, []string{"first", "second", "third"}, calls)

	calls = nil
	f.Flush()
	assert.Equal(t, []string{"second", "third"}, calls)
}

func TestFactory_Select(t *testing.T) {
	f := model.NewFactory(model.WithIDGenerator(sequentialIDs()))
	for _, kind := range []string{"Class", "Package", "Class"} {
		_, err := f.Create(kind)
		require.NoError(t, err)
	}
	classes := f.Select("Class")
	require.Len(t, classes, 2)
	assert.Equal(t, "e1", classes[0].ID())
	assert.Equal(t, "e3", classes[1].ID())
}
