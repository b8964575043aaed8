package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tickflow/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry creates an entry with its content-addressed ID.
func createTestEntry(stack string, position int, name string, tick int64) ir.RecordEntry {
	payload := ir.IRObject{"name": ir.IRString(name)}
	return ir.RecordEntry{
		ID:       ir.MustRecordEntryID(stack, position, name, payload, tick),
		Stack:    stack,
		Position: position,
		Name:     name,
		Payload:  payload,
		Tick:     tick,
	}
}

// createTestOutcome creates an outcome with its content-addressed ID.
func createTestOutcome(reactorID string, status ir.OutcomeStatus, seq int64) ir.Outcome {
	return ir.Outcome{
		ID:        ir.OutcomeID(reactorID, status, seq),
		Seq:       seq,
		ReactorID: reactorID,
		Name:      reactorID,
		Status:    status,
		Tick:      seq,
	}
}
