package testutil

import (
	"sync"
	"time"
)

// DeltaScript replays a fixed list of frame deltas so tick-driven tests
// see identical timing on every run. After the script runs out the last
// delta repeats.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeltaScript struct {
	mu      sync.Mutex
	deltas  []time.Duration
	idx     int
	elapsed time.Duration
}

// NewDeltaScript creates a script. With no deltas, Next returns 0.
func NewDeltaScript(deltas ...time.Duration) *DeltaScript {
	return &DeltaScript{deltas: deltas}
}

// Fixed returns a script that always yields d.
func Fixed(d time.Duration) *DeltaScript {
	return NewDeltaScript(d)
}

// Next returns the next frame delta.
func (s *DeltaScript) Next() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deltas) == 0 {
		return 0
	}
	i := min(s.idx, len(s.deltas)-1)
	s.idx++
	s.elapsed += s.deltas[i]
	return s.deltas[i]
}

// Frames returns how many deltas have been handed out.
func (s *DeltaScript) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

// Elapsed returns the sum of the deltas handed out.
func (s *DeltaScript) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Reset rewinds to the first delta.
func (s *DeltaScript) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = 0
	s.elapsed = 0
}
