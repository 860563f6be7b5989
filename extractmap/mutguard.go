package extractmap

// MutGuard lends out a stored value for mutation, key-bearing fields
// included. Acquiring the guard removes the value from the map, so for the
// guard's lifetime its key reads as absent; Release reinserts the value
// under whatever key it extracts at that moment.
//
// Release must run on every exit path, which in Go means
//
//	g, ok := m.GetMut(key)
//	if ok {
//	    defer g.Release()
//	    ...
//	}
//
// A guard that is never released silently loses its value from the map.
// That is a resource leak on the caller, not a corruption of the remaining
// table, and the map does not try to detect it.
type MutGuard[K comparable, V KeyExtractor[K]] struct {
	m        *Map[K, V]
	value    V
	released bool
}

// GetMut removes the value stored under key and wraps it in a guard.
// It returns false if the key is absent, which includes keys currently
// held by another guard.
func (m *Map[K, V]) GetMut(key K) (*MutGuard[K, V], bool) {
	v, ok := m.Remove(key)
	if !ok {
		return nil, false
	}
	return &MutGuard[K, V]{m: m, value: v}, true
}

// Value exposes the held value for reading and writing. The pointer is
// valid until Release.
func (g *MutGuard[K, V]) Value() *V { return &g.value }

// Release reinserts the held value, rehashed under its current extracted
// key. Calling Release more than once is a no-op.
func (g *MutGuard[K, V]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.m.Insert(g.value)
}

// Mutate runs f on the value stored under key inside a guard, releasing on
// every exit path including a panic in f. It reports whether the key was
// present.
func (m *Map[K, V]) Mutate(key K, f func(*V)) bool {
	g, ok := m.GetMut(key)
	if !ok {
		return false
	}
	defer g.Release()
	f(g.Value())
	return true
}
