package ir

// RecordEntry is the persisted description of one record stack entry.
// The undo and redo behaviour lives in memory; the journal keeps what was
// done and where the cursor stands.
type RecordEntry struct {
	ID       string   `json:"id"`
	Stack    string   `json:"stack"`
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Payload  IRObject `json:"payload"`
	Tick     int64    `json:"tick"`
}

// History is a stack's persisted entries plus its cursor. Entries before
// Cursor are undoable; entries at or after it are redoable.
type History struct {
	Stack   string        `json:"stack"`
	Entries []RecordEntry `json:"entries"`
	Cursor  int           `json:"cursor"`
}

// Names returns the entry names in stack order.
func (h History) Names() []string {
	names := make([]string, len(h.Entries))
	for i, e := range h.Entries {
		names[i] = e.Name
	}
	return names
}

// OutcomeStatus is a reactor's terminal status.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome records how and when a reactor finished.
type Outcome struct {
	ID        string        `json:"id"`
	Seq       int64         `json:"seq"`
	ReactorID string        `json:"reactor_id"`
	Name      string        `json:"name"`
	Status    OutcomeStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	Tick      int64         `json:"tick"`
}
