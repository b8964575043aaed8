package world

// switchState is a boolean latch plus the tick it last changed on.
type switchState struct {
	on      bool
	changed int64
}

// SetSwitch turns the named switch on or off. Setting a switch to its
// current state does not count as a change.
func (w *World) SetSwitch(name string, on bool) {
	s, ok := w.switches[name]
	if !ok {
		s = &switchState{changed: -1}
		w.switches[name] = s
	}
	if s.on == on {
		return
	}
	s.on = on
	s.changed = w.tick
}

// Switch reports whether the named switch is on. Unknown switches are off.
func (w *World) Switch(name string) bool {
	s, ok := w.switches[name]
	return ok && s.on
}

// JustTurnedOn reports whether the switch went on during the current tick.
func (w *World) JustTurnedOn(name string) bool {
	s, ok := w.switches[name]
	return ok && s.on && s.changed == w.tick
}

// JustTurnedOff reports whether the switch went off during the current tick.
func (w *World) JustTurnedOff(name string) bool {
	s, ok := w.switches[name]
	return ok && !s.on && s.changed == w.tick
}

// Switches returns a snapshot of every known switch.
func (w *World) Switches() map[string]bool {
	out := make(map[string]bool, len(w.switches))
	for name, s := range w.switches {
		out[name] = s.on
	}
	return out
}
