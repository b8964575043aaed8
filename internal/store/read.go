package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
)

// ReadHistory returns a stack's entries in position order plus its cursor.
// An unknown stack yields an empty history with cursor 0.
func (s *Store) ReadHistory(ctx context.Context, stack string) (ir.History, error) {
	h := ir.History{Stack: stack, Entries: []ir.RecordEntry{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stack, position, name, payload, tick
		FROM record_entries
		WHERE stack = ?
		ORDER BY position ASC, id COLLATE BINARY ASC
	`, stack)
	if err != nil {
		return h, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return h, err
		}
		h.Entries = append(h.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return h, fmt.Errorf("iterate entries: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT cursor FROM record_cursors WHERE stack = ?
	`, stack).Scan(&h.Cursor)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("query cursor: %w", err)
	}
	return h, nil
}

// ReadEntry returns one entry by ID.
func (s *Store) ReadEntry(ctx context.Context, id string) (ir.RecordEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stack, position, name, payload, tick
		FROM record_entries
		WHERE id = ?
		ORDER BY stack COLLATE BINARY ASC, position ASC
		LIMIT 1
	`, id)
	if err != nil {
		return ir.RecordEntry{}, fmt.Errorf("query entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ir.RecordEntry{}, fmt.Errorf("iterate entry: %w", err)
		}
		return ir.RecordEntry{}, fmt.Errorf("entry %s: %w", id, sql.ErrNoRows)
	}
	return scanEntry(rows)
}

// ListStacks returns every stack with entries or a cursor, sorted by name.
func (s *Store) ListStacks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stack FROM record_entries
		UNION
		SELECT stack FROM record_cursors
		ORDER BY stack
	`)
	if err != nil {
		return nil, fmt.Errorf("query stacks: %w", err)
	}
	defer rows.Close()

	stacks := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan stack: %w", err)
		}
		stacks = append(stacks, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stacks: %w", err)
	}
	return stacks, nil
}

// OutcomeFilter narrows ReadOutcomes. Zero fields match everything.
type OutcomeFilter struct {
	ReactorID string
	Status    ir.OutcomeStatus
}

// ReadOutcomes returns outcomes in seq order.
func (s *Store) ReadOutcomes(ctx context.Context, f OutcomeFilter) ([]ir.Outcome, error) {
	var (
		where []string
		args  []any
	)
	if f.ReactorID != "" {
		where = append(where, "reactor_id = ?")
		args = append(args, f.ReactorID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT seq, id, reactor_id, name, status, error, tick FROM reactor_outcomes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []ir.Outcome{}
	for rows.Next() {
		var (
			o      ir.Outcome
			status string
		)
		if err := rows.Scan(&o.Seq, &o.ID, &o.ReactorID, &o.Name, &status, &o.Error, &o.Tick); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = ir.OutcomeStatus(status)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// MaxOutcomeSeq returns the highest stored outcome seq, or 0. The engine
// clock resumes from it so seqs stay unique across runs.
func (s *Store) MaxOutcomeSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM reactor_outcomes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	return seq.Int64, nil
}

func scanEntry(rows *sql.Rows) (ir.RecordEntry, error) {
	var (
		e       ir.RecordEntry
		payload string
	)
	if err := rows.Scan(&e.ID, &e.Stack, &e.Position, &e.Name, &payload, &e.Tick); err != nil {
		return ir.RecordEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	obj, err := unmarshalPayload(payload)
	if err != nil {
		return ir.RecordEntry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Payload = obj
	return e, nil
}
