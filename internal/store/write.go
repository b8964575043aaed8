package store

import (
	"context"
	"fmt"

	"github.com/roach88/tickflow/internal/ir"
)

// AppendEntry inserts a record stack entry at its position.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting the same
// position is silently ignored. A stack replaces history by calling
// TruncateEntries first.
//
// The payload is serialized to canonical JSON per RFC 8785.
func (s *Store) AppendEntry(ctx context.Context, e ir.RecordEntry) error {
	payloadJSON, err := marshalPayload(e.Payload)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO record_entries
		(stack, position, id, name, payload, tick)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		e.Stack,
		e.Position,
		e.ID,
		e.Name,
		payloadJSON,
		e.Tick,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// TruncateEntries deletes a stack's entries at position from and later.
func (s *Store) TruncateEntries(ctx context.Context, stack string, from int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM record_entries
		WHERE stack = ? AND position >= ?
	`, stack, from)
	if err != nil {
		return fmt.Errorf("truncate entries: %w", err)
	}
	return nil
}

// SetCursor stores a stack's cursor, creating the row on first use.
func (s *Store) SetCursor(ctx context.Context, stack string, cursor int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_cursors (stack, cursor)
		VALUES (?, ?)
		ON CONFLICT(stack) DO UPDATE SET cursor = excluded.cursor
	`, stack, cursor)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

// WriteOutcome inserts a reactor outcome.
// Uses ON CONFLICT DO NOTHING for idempotency - an outcome is identified
// by its content-addressed ID and its seq.
func (s *Store) WriteOutcome(ctx context.Context, o ir.Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reactor_outcomes
		(seq, id, reactor_id, name, status, error, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		o.Seq,
		o.ID,
		o.ReactorID,
		o.Name,
		string(o.Status),
		o.Error,
		o.Tick,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}
