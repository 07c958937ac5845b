package undo_test

import (
	"errors"
	"testing"

	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoable_CommitsOnSuccess(t *testing.T) {
	j := &journal{}
	m := undo.New()

	err := m.Undoable(func() error {
		assert.True(t, m.InTransaction())
		m.AddUndoAction(&step{name: "a1", j: j})
		return nil
	})

	require.NoError(t, err)
	assert.False(t, m.InTransaction())
	assert.Equal(t, 1, m.UndoDepth())
}

func TestUndoable_CommitsOnError(t *testing.T) {
	j := &journal{}
	m := undo.New()
	boom := errors.New("boom")

	err := m.Undoable(func() error {
		m.AddUndoAction(&step{name: "a1", j: j})
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, m.InTransaction())
	assert.Equal(t, 1, m.UndoDepth(), "errors commit, they never discard")
}

func TestUndoable_CommitsOnPanic(t *testing.T) {
	j := &journal{}
	m := undo.New()

	assert.PanicsWithValue(t, "boom", func() {
		_ = m.Undoable(func() error {
			m.AddUndoAction(&step{name: "a1", j: j})
			panic("boom")
		})
	})

	assert.False(t, m.InTransaction())
	assert.Equal(t, 1, m.UndoDepth())
}

func TestUndoable_Nested(t *testing.T) {
	j := &journal{}
	m := undo.New()

	outer := m.Wrap(func() error {
		m.AddUndoAction(&step{name: "a1", j: j})
		return m.Undoable(func() error {
			m.AddUndoAction(&step{name: "a2", j: j})
			return nil
		})
	})

	require.NoError(t, outer())
	assert.Equal(t, 1, m.UndoDepth())

	m.UndoTransaction()
	assert.Equal(t, []string{"undo:a2", "undo:a1"}, j.calls)
}

func TestScope_Discard(t *testing.T) {
	j := &journal{}
	m := undo.New()

	func() {
		scope := m.Begin()
		defer scope.Close()

		m.AddUndoAction(&step{name: "a1", j: j})
		require.NoError(t, scope.Discard())
	}()

	assert.False(t, m.InTransaction())
	assert.False(t, m.CanUndo())
}

func TestScope_DiscardTwice(t *testing.T) {
	m := undo.New()
	scope := m.Begin()
	require.NoError(t, scope.Discard())

	err := scope.Discard()
	assert.ErrorIs(t, err, domain.ErrNoTransaction)
	scope.Close()
	assert.False(t, m.InTransaction())
}

func TestScope_CloseIsIdempotent(t *testing.T) {
	j := &journal{}
	m := undo.New()

	m.BeginTransaction()
	inner := m.Begin()
	m.AddUndoAction(&step{name: "a1", j: j})
	inner.Close()
	inner.Close()

	assert.True(t, m.InTransaction(), "a second Close must not close the outer level")
	m.CommitTransaction()
	assert.Equal(t, 1, m.UndoDepth())
}
