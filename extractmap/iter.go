package extractmap

import "iter"

// Iter returns a lazy sequence over copies of the stored values, in
// table order, which is unspecified and in particular not insertion
// order. Each call yields a fresh, restartable sequence. The map must not
// be mutated while a sequence is being consumed.
func (m *Map[K, V]) Iter() iter.Seq[V] {
	return func(yield func(V) bool) {
		for i := range m.slots {
			if m.slots[i].state != slotFull {
				continue
			}
			if !yield(m.slots[i].elem.Value()) {
				return
			}
		}
	}
}

// Drain returns a consuming sequence: every value it yields is removed
// from the map first. Consuming the whole sequence empties the map;
// stopping early leaves the unvisited values in place. As with Iter, the
// map must not be otherwise mutated while the sequence is being consumed.
func (m *Map[K, V]) Drain() iter.Seq[V] {
	return func(yield func(V) bool) {
		for i := range m.slots {
			if m.slots[i].state != slotFull {
				continue
			}
			if !yield(m.removeAt(i)) {
				return
			}
		}
	}
}

// Extend inserts every value of seq, last writer winning per key.
func (m *Map[K, V]) Extend(seq iter.Seq[V]) {
	for v := range seq {
		m.Insert(v)
	}
}

// Collect builds a fresh map from a sequence of values.
func Collect[K comparable, V KeyExtractor[K]](seq iter.Seq[V]) *Map[K, V] {
	m := New[K, V]()
	m.Extend(seq)
	return m
}

// MutIter is the mutable traversal. Values cannot be lent out two at a
// time without risking a half-mutated key becoming visible, so the
// traversal is lending: it snapshots every key up front, then hands out
// one MutGuard per step. Releasing the guard re-homes the value under its
// current key, so rewriting keys mid-traversal is safe; the snapshot means
// a re-homed value is not visited twice.
type MutIter[K comparable, V KeyExtractor[K]] struct {
	m    *Map[K, V]
	keys []K
	cur  *MutGuard[K, V]
}

// IterMut starts a mutable traversal over the keys present right now.
func (m *Map[K, V]) IterMut() *MutIter[K, V] {
	keys := make([]K, 0, m.live)
	for i := range m.slots {
		if m.slots[i].state == slotFull {
			keys = append(keys, m.slots[i].elem.Key())
		}
	}
	return &MutIter[K, V]{m: m, keys: keys}
}

// Next releases the previously handed-out guard, if the caller has not
// already, and lends the next value. Keys removed since the snapshot are
// skipped. It returns false when the snapshot is exhausted.
func (it *MutIter[K, V]) Next() (*MutGuard[K, V], bool) {
	if it.cur != nil {
		it.cur.Release()
		it.cur = nil
	}
	for len(it.keys) > 0 {
		key := it.keys[0]
		it.keys = it.keys[1:]
		if g, ok := it.m.GetMut(key); ok {
			it.cur = g
			return g, true
		}
	}
	return nil, false
}

// Remaining returns the number of snapshot keys not yet visited.
func (it *MutIter[K, V]) Remaining() int { return len(it.keys) }

// ForEachMut visits every value under a guard, releasing it after each
// call to f even if f panics.
func (m *Map[K, V]) ForEachMut(f func(*V)) {
	it := m.IterMut()
	for {
		g, ok := it.Next()
		if !ok {
			return
		}
		func() {
			defer g.Release()
			f(g.Value())
		}()
	}
}
