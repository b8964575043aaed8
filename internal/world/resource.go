package world

import "reflect"

func keyOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// SetResource stores v as the World's resource of type T.
func SetResource[T any](w *World, v T) {
	w.resources[keyOf[T]()] = v
}

// Resource returns the World's resource of type T.
func Resource[T any](w *World) (T, bool) {
	v, ok := w.resources[keyOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// RemoveResource deletes the resource of type T. It reports whether one
// was present.
func RemoveResource[T any](w *World) bool {
	k := keyOf[T]()
	if _, ok := w.resources[k]; !ok {
		return false
	}
	delete(w.resources, k)
	return true
}

// Get is Resource through a tick's Access.
func Get[T any](a *Access) (T, bool) {
	a.check()
	return Resource[T](a.w)
}

// Set is SetResource through a tick's Access.
func Set[T any](a *Access, v T) {
	a.check()
	SetResource(a.w, v)
}

// Remove is RemoveResource through a tick's Access.
func Remove[T any](a *Access) bool {
	a.check()
	return RemoveResource[T](a.w)
}

// GetOrInit returns the resource of type T, storing init() first if absent.
func GetOrInit[T any](a *Access, init func() T) T {
	a.check()
	if v, ok := Resource[T](a.w); ok {
		return v
	}
	v := init()
	SetResource(a.w, v)
	return v
}
