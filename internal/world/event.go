package world

// Event is a host or task event. Seq is assigned by the World and is unique
// and increasing across the World's lifetime.
type Event struct {
	Kind    string
	Payload any
	Seq     uint64
	Tick    int64
}

// Reader is a per-consumer cursor over the event buffer. Each kind is
// tracked separately so reading one kind never skips another.
//
// The zero value is ready to use. A Reader belongs to one reactor.
type Reader struct {
	cursors map[string]uint64
}

func (r *Reader) next(events []Event, kind string) (Event, bool) {
	last := r.cursors[kind]
	for _, ev := range events {
		if ev.Kind != kind || ev.Seq <= last {
			continue
		}
		if r.cursors == nil {
			r.cursors = make(map[string]uint64)
		}
		r.cursors[kind] = ev.Seq
		return ev, true
	}
	return Event{}, false
}

func (r *Reader) peek(events []Event, kind string) bool {
	last := r.cursors[kind]
	for _, ev := range events {
		if ev.Kind == kind && ev.Seq > last {
			return true
		}
	}
	return false
}
