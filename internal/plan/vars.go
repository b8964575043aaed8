package plan

import (
	"maps"
	"slices"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/world"
)

// Vars holds plan variables. It is a World resource and, like the World,
// is only touched from the tick goroutine or by the host between ticks.
type Vars struct {
	values map[string]ir.IRValue
}

// NewVars returns an empty variable set.
func NewVars() *Vars {
	return &Vars{values: make(map[string]ir.IRValue)}
}

// Get returns the value of name.
func (v *Vars) Get(name string) (ir.IRValue, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Set assigns name. A nil value is stored as ir.Null.
func (v *Vars) Set(name string, val ir.IRValue) {
	if val == nil {
		val = ir.Null
	}
	v.values[name] = val
}

// Delete removes name. It reports whether it was set.
func (v *Vars) Delete(name string) bool {
	_, ok := v.values[name]
	delete(v.values, name)
	return ok
}

// Names returns the variable names in sorted order.
func (v *Vars) Names() []string {
	return slices.Sorted(maps.Keys(v.values))
}

// Snapshot copies the variables into an object.
func (v *Vars) Snapshot() ir.IRObject {
	return ir.IRObject(maps.Clone(v.values))
}

// VarsOf returns the World's variables through a tick's Access, creating
// them on first use.
func VarsOf(a *world.Access) *Vars {
	return world.GetOrInit(a, NewVars)
}

// WorldVars is VarsOf for the host side, between ticks.
func WorldVars(w *world.World) *Vars {
	if v, ok := world.Resource[*Vars](w); ok {
		return v
	}
	v := NewVars()
	world.SetResource(w, v)
	return v
}
