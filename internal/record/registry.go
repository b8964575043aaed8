package record

import (
	"maps"
	"slices"
)

// Registry hands out named stacks, creating each on first use with the
// registry's options.
type Registry struct {
	stacks map[string]*Stack
	opts   []Option
}

// NewRegistry creates an empty registry. opts apply to every stack it
// creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{stacks: make(map[string]*Stack), opts: opts}
}

// Stack returns the stack called name.
func (r *Registry) Stack(name string) *Stack {
	s, ok := r.stacks[name]
	if !ok {
		s = NewStack(name, r.opts...)
		r.stacks[name] = s
	}
	return s
}

// Lookup returns the stack called name if it exists.
func (r *Registry) Lookup(name string) (*Stack, bool) {
	s, ok := r.stacks[name]
	return s, ok
}

// Names returns the names of every created stack, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.stacks))
}
