package record

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

type applied struct{ names []string }

func appliedOf(a *world.Access) *applied {
	return world.GetOrInit(a, func() *applied { return &applied{} })
}

// entry appends its name to the applied list on redo and removes it on undo.
func entry(name string) Entry {
	return Entry{
		Name:    name,
		Payload: ir.IRObject{"name": ir.IRString(name)},
		Redo: func(a *world.Access) error {
			s := appliedOf(a)
			s.names = append(s.names, name)
			return nil
		},
		Undo: func(a *world.Access) error {
			s := appliedOf(a)
			if len(s.names) == 0 || s.names[len(s.names)-1] != name {
				return fmt.Errorf("undo %s out of order", name)
			}
			s.names = s.names[:len(s.names)-1]
			return nil
		},
	}
}

func tick(t *testing.T, w *world.World) *world.Access {
	t.Helper()
	w.Advance(0)
	a, err := w.Borrow(world.Scope{})
	require.NoError(t, err)
	t.Cleanup(a.Release)
	return a
}

func TestUndoRedoRestoresState(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")

	require.NoError(t, s.Do(a, entry("A")))
	require.NoError(t, s.Do(a, entry("B")))

	ok, err := s.Undo(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"A"}, appliedOf(a).names)

	ok, err = s.Redo(a)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"A", "B"}, appliedOf(a).names)
	assert.Equal(t, []string{"A", "B"}, s.Names())
	assert.Equal(t, 2, s.Cursor())
}

func TestPushAfterUndoDiscardsRedoHistory(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")

	require.NoError(t, s.Do(a, entry("A")))
	require.NoError(t, s.Do(a, entry("B")))
	_, err := s.Undo(a)
	require.NoError(t, err)
	require.NoError(t, s.Do(a, entry("C")))

	assert.Equal(t, []string{"A", "C"}, s.Names())
	assert.Equal(t, []string{"A", "C"}, appliedOf(a).names)
	assert.Empty(t, s.Redoable())

	ok, err := s.Redo(a)
	require.NoError(t, err)
	assert.False(t, ok, "B is gone")
}

func TestBoundariesAreNoOps(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")

	ok, err := s.Undo(a)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Push(a, entry("A")))
	ok, err = s.Redo(a)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"A"}, s.Undoable())
	assert.Equal(t, 1, s.Len())
}

func TestPushDuringUndoIsRejected(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")
	var pushErr error

	require.NoError(t, s.Push(a, Entry{
		Name: "reentrant",
		Undo: func(a *world.Access) error {
			pushErr = s.Push(a, entry("nested"))
			return nil
		},
	}))

	ok, err := s.Undo(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, pushErr, ErrUndoRedoInProgress)
	assert.Equal(t, []string{"reentrant"}, s.Names())
}

func TestFailedUndoKeepsCursor(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")
	boom := errors.New("boom")

	require.NoError(t, s.Push(a, Entry{Name: "x", Undo: func(*world.Access) error { return boom }}))

	ok, err := s.Undo(a)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Cursor())
}

func TestReleasedAccessPanics(t *testing.T) {
	w := world.New()
	w.Advance(0)
	a, err := w.Borrow(world.Scope{})
	require.NoError(t, err)
	a.Release()

	s := NewStack("edits")
	assert.PanicsWithValue(t, world.ErrAccessExpired, func() { _ = s.Push(a, entry("A")) })
	assert.PanicsWithValue(t, world.ErrAccessExpired, func() { _, _ = s.Undo(a) })
}

type journalCall struct {
	op     string
	stack  string
	n      int
	record string
}

type fakeJournal struct {
	calls []journalCall
	fail  error
}

func (j *fakeJournal) AppendEntry(_ context.Context, e ir.RecordEntry) error {
	j.calls = append(j.calls, journalCall{op: "append", stack: e.Stack, n: e.Position, record: e.Name})
	return j.fail
}

func (j *fakeJournal) TruncateEntries(_ context.Context, stack string, from int) error {
	j.calls = append(j.calls, journalCall{op: "truncate", stack: stack, n: from})
	return j.fail
}

func (j *fakeJournal) SetCursor(_ context.Context, stack string, cursor int) error {
	j.calls = append(j.calls, journalCall{op: "cursor", stack: stack, n: cursor})
	return j.fail
}

func TestJournalMirrorsChanges(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	j := &fakeJournal{}
	s := NewStack("edits", WithJournal(j))

	require.NoError(t, s.Do(a, entry("A")))
	require.NoError(t, s.Do(a, entry("B")))
	_, err := s.Undo(a)
	require.NoError(t, err)
	require.NoError(t, s.Do(a, entry("C")))

	assert.Equal(t, []journalCall{
		{op: "append", stack: "edits", n: 0, record: "A"},
		{op: "cursor", stack: "edits", n: 1},
		{op: "append", stack: "edits", n: 1, record: "B"},
		{op: "cursor", stack: "edits", n: 2},
		{op: "cursor", stack: "edits", n: 1},
		{op: "truncate", stack: "edits", n: 1},
		{op: "append", stack: "edits", n: 1, record: "C"},
		{op: "cursor", stack: "edits", n: 2},
	}, j.calls)
}

func TestJournalFailureRejectsPush(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits", WithJournal(&fakeJournal{fail: errors.New("disk full")}))

	err := s.Push(a, entry("A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, s.Len())
}

func TestTasks(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")

	seq := task.Sequence(
		task.Discard(DoTask(s, entry("A"))),
		task.Discard(PushTask(s, Entry{Name: "B"})),
		task.Discard(UndoTask(s)),
	)
	require.True(t, seq.Poll(a).IsReady())
	assert.Equal(t, 1, s.Cursor())

	p := RedoTask(s).Poll(a)
	require.True(t, p.IsReady())
	assert.True(t, p.Value())

	p = RedoTask(s).Poll(a)
	require.NoError(t, p.Err())
	assert.False(t, p.Value())
}

func TestTaskFailureIsSuspendPointFailure(t *testing.T) {
	w := world.New()
	a := tick(t, w)
	s := NewStack("edits")
	require.NoError(t, s.Push(a, Entry{Name: "x", Undo: func(*world.Access) error { return errors.New("gone") }}))

	p := UndoTask(s).Poll(a)

	require.True(t, p.IsReady())
	assert.True(t, task.IsSuspendPointFailure(p.Err()))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.Stack("b")
	assert.Same(t, a, r.Stack("b"))
	r.Stack("a")

	_, ok := r.Lookup("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
