package world

import (
	"errors"
	"reflect"
	"time"
)

var (
	// ErrAlreadyBorrowed is returned by Borrow while another Access is live.
	ErrAlreadyBorrowed = errors.New("world already borrowed")

	// ErrAccessExpired is the panic value for any use of a released Access.
	ErrAccessExpired = errors.New("world access used after its tick")
)

// Entity is an opaque handle. The World only tracks whether it is alive.
type Entity uint64

// World is the shared mutable state ticked by the host. It is not safe for
// concurrent use; host goroutines feed events through engine.Inbox instead.
type World struct {
	tick    int64
	delta   time.Duration
	elapsed time.Duration

	resources map[reflect.Type]any
	switches  map[string]*switchState

	// current is readable during this tick; pending becomes current on the
	// next Advance.
	current []Event
	pending []Event
	seq     uint64

	entities   map[Entity]struct{}
	nextEntity Entity

	live *Access
}

// New creates an empty world at tick 0.
func New() *World {
	return &World{
		resources: make(map[reflect.Type]any),
		switches:  make(map[string]*switchState),
		entities:  make(map[Entity]struct{}),
	}
}

// Advance starts the next frame: the tick number increments, delta becomes
// the frame's elapsed time, and events sent since the previous Advance become
// readable. Events from the previous frame are dropped.
func (w *World) Advance(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	w.tick++
	w.delta = delta
	w.elapsed += delta
	w.current, w.pending = w.pending, w.current[:0]
	for i := range w.current {
		w.current[i].Tick = w.tick
	}
}

// Tick returns the current frame number. It is 0 before the first Advance.
func (w *World) Tick() int64 { return w.tick }

// Delta returns the time elapsed in the current frame.
func (w *World) Delta() time.Duration { return w.delta }

// Elapsed returns the sum of every frame's delta.
func (w *World) Elapsed() time.Duration { return w.elapsed }

// Send queues an event. It becomes readable on the next Advance.
func (w *World) Send(kind string, payload any) Event {
	w.seq++
	ev := Event{Kind: kind, Payload: payload, Seq: w.seq}
	w.pending = append(w.pending, ev)
	return ev
}

// Events returns the events readable in the current frame.
func (w *World) Events() []Event {
	out := make([]Event, len(w.current))
	copy(out, w.current)
	return out
}

// Spawn allocates a live entity.
func (w *World) Spawn() Entity {
	w.nextEntity++
	w.entities[w.nextEntity] = struct{}{}
	return w.nextEntity
}

// Despawn removes e. It reports whether e was alive.
func (w *World) Despawn(e Entity) bool {
	if _, ok := w.entities[e]; !ok {
		return false
	}
	delete(w.entities, e)
	return true
}

// Alive reports whether e has been spawned and not despawned.
func (w *World) Alive(e Entity) bool {
	_, ok := w.entities[e]
	return ok
}

// Scope carries what an Access needs from its reactor.
type Scope struct {
	// Reader is the reactor's event cursor. Nil gives the Access a private
	// cursor that is discarded with it.
	Reader *Reader

	// Wake is called by effects that complete off the tick goroutine.
	Wake func()

	// MaxSteps bounds the progress steps taken through this Access.
	// Zero or less means unbounded.
	MaxSteps int
}

// Borrow returns the single live Access for this tick. Release it before
// borrowing again.
func (w *World) Borrow(s Scope) (*Access, error) {
	if w.live != nil {
		return nil, ErrAlreadyBorrowed
	}
	if s.Reader == nil {
		s.Reader = &Reader{}
	}
	a := &Access{w: w, scope: s}
	w.live = a
	return a, nil
}

// Borrowed reports whether an Access is currently live.
func (w *World) Borrowed() bool { return w.live != nil }
