package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/world"
)

// ErrUndoRedoInProgress is returned when an entry's Undo or Redo tries to
// modify the stack it is being applied from.
var ErrUndoRedoInProgress = errors.New("undo or redo in progress")

// Entry is one reversible action.
type Entry struct {
	// Name labels the entry in history listings.
	Name string

	// Payload describes the action for the journal. It is not used to
	// apply the action.
	Payload ir.IRObject

	// Undo reverts the action. Redo applies it again.
	Undo func(a *world.Access) error
	Redo func(a *world.Access) error
}

// Journal persists stack changes.
type Journal interface {
	AppendEntry(ctx context.Context, e ir.RecordEntry) error
	TruncateEntries(ctx context.Context, stack string, from int) error
	SetCursor(ctx context.Context, stack string, cursor int) error
}

// Stack is a named undo/redo history. It is used only from the tick
// goroutine.
type Stack struct {
	name    string
	entries []Entry
	cursor  int
	busy    bool
	journal Journal
	logger  *slog.Logger
}

// Option configures a Stack.
type Option func(*Stack)

// WithJournal mirrors the stack into j.
func WithJournal(j Journal) Option {
	return func(s *Stack) {
		s.journal = j
	}
}

// WithLogger sets the stack's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stack) {
		s.logger = l
	}
}

// NewStack creates an empty stack.
func NewStack(name string, opts ...Option) *Stack {
	s := &Stack{name: name, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stack's name.
func (s *Stack) Name() string { return s.name }

// Len returns the number of entries, undoable and redoable.
func (s *Stack) Len() int { return len(s.entries) }

// Cursor returns the number of undoable entries.
func (s *Stack) Cursor() int { return s.cursor }

// Names returns every entry's name in order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Undoable returns the names of entries Undo would revert, oldest first.
func (s *Stack) Undoable() []string { return s.Names()[:s.cursor] }

// Redoable returns the names of entries Redo would apply, next first.
func (s *Stack) Redoable() []string { return s.Names()[s.cursor:] }

// Push records an action that has already been applied. Entries after the
// cursor are discarded.
func (s *Stack) Push(a *world.Access, e Entry) error {
	live(a)
	if s.busy {
		return ErrUndoRedoInProgress
	}
	ctx := a.Context()
	if s.cursor < len(s.entries) {
		if err := s.truncate(ctx); err != nil {
			return err
		}
	}
	if s.journal != nil {
		payload := e.Payload
		if payload == nil {
			payload = ir.IRObject{}
		}
		id, err := ir.RecordEntryID(s.name, s.cursor, e.Name, payload, a.Tick())
		if err != nil {
			return fmt.Errorf("push %s: %w", e.Name, err)
		}
		rec := ir.RecordEntry{
			ID:       id,
			Stack:    s.name,
			Position: s.cursor,
			Name:     e.Name,
			Payload:  payload,
			Tick:     a.Tick(),
		}
		if err := s.journal.AppendEntry(ctx, rec); err != nil {
			return fmt.Errorf("push %s: %w", e.Name, err)
		}
	}
	s.entries = append(s.entries, e)
	s.cursor++
	s.logger.Debug("record push", "stack", s.name, "entry", e.Name, "cursor", s.cursor)
	return s.syncCursor(ctx)
}

// Do applies e.Redo and pushes e if it succeeds.
func (s *Stack) Do(a *world.Access, e Entry) error {
	live(a)
	if s.busy {
		return ErrUndoRedoInProgress
	}
	if e.Redo != nil {
		if err := s.apply(a, e.Redo); err != nil {
			return fmt.Errorf("do %s: %w", e.Name, err)
		}
	}
	return s.Push(a, e)
}

// Undo reverts the entry before the cursor. It returns false with no error
// when there is nothing to undo. If the entry's Undo fails the cursor does
// not move.
func (s *Stack) Undo(a *world.Access) (bool, error) {
	live(a)
	if s.busy {
		return false, ErrUndoRedoInProgress
	}
	if s.cursor == 0 {
		return false, nil
	}
	e := s.entries[s.cursor-1]
	if e.Undo != nil {
		if err := s.apply(a, e.Undo); err != nil {
			return false, fmt.Errorf("undo %s: %w", e.Name, err)
		}
	}
	s.cursor--
	s.logger.Debug("record undo", "stack", s.name, "entry", e.Name, "cursor", s.cursor)
	return true, s.syncCursor(a.Context())
}

// Redo re-applies the entry at the cursor. It returns false with no error
// when there is nothing to redo.
func (s *Stack) Redo(a *world.Access) (bool, error) {
	live(a)
	if s.busy {
		return false, ErrUndoRedoInProgress
	}
	if s.cursor == len(s.entries) {
		return false, nil
	}
	e := s.entries[s.cursor]
	if e.Redo != nil {
		if err := s.apply(a, e.Redo); err != nil {
			return false, fmt.Errorf("redo %s: %w", e.Name, err)
		}
	}
	s.cursor++
	s.logger.Debug("record redo", "stack", s.name, "entry", e.Name, "cursor", s.cursor)
	return true, s.syncCursor(a.Context())
}

// live panics unless a belongs to the current tick.
func live(a *world.Access) {
	if !a.Valid() {
		panic(world.ErrAccessExpired)
	}
}

func (s *Stack) apply(a *world.Access, fn func(*world.Access) error) error {
	s.busy = true
	defer func() { s.busy = false }()
	return fn(a)
}

func (s *Stack) truncate(ctx context.Context) error {
	if s.journal != nil {
		if err := s.journal.TruncateEntries(ctx, s.name, s.cursor); err != nil {
			return fmt.Errorf("truncate %s: %w", s.name, err)
		}
	}
	clear(s.entries[s.cursor:])
	s.entries = s.entries[:s.cursor]
	return nil
}

func (s *Stack) syncCursor(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.SetCursor(ctx, s.name, s.cursor); err != nil {
		return fmt.Errorf("set cursor %s: %w", s.name, err)
	}
	return nil
}
