package extractmap

import "github.com/on-the-ground/extract_map_go/internal/keywrap"

// Entry is a single-probe view over the slot a key maps to, either
// occupied or vacant. It fuses lookup with a following insert or update so
// the hash and probe work are paid once.
//
// An Entry is a transient cursor: any other mutation of the map (Insert,
// Remove, a guard release, another entry) invalidates it. Using a stale
// entry is a caller error, same as with stale slot views in any
// open-addressing table.
type Entry[K comparable, V KeyExtractor[K]] struct {
	occupied *OccupiedEntry[K, V]
	vacant   *VacantEntry[K, V]
}

// Entry probes once for key and returns the resulting view.
func (m *Map[K, V]) Entry(key K) Entry[K, V] {
	m.ensureInit()
	// Growing now keeps the probed position valid for a later insert, so a
	// vacant entry never needs a second probe.
	m.maybeGrow()
	h := m.hasher.Hash(key)
	idx, existing := m.findInsert(h, key)
	if existing {
		return Entry[K, V]{occupied: &OccupiedEntry[K, V]{m: m, key: key, hash: h, idx: idx}}
	}
	return Entry[K, V]{vacant: &VacantEntry[K, V]{m: m, key: key, hash: h, idx: idx}}
}

// Occupied reports whether the probed key was present.
func (e Entry[K, V]) Occupied() bool { return e.occupied != nil }

// AndModify applies f to the stored value if the entry is occupied and
// leaves a vacant entry untouched, returning the entry for chaining. If f
// changes the extracted key the value is re-homed under the new key.
func (e Entry[K, V]) AndModify(f func(*V)) Entry[K, V] {
	if e.occupied != nil {
		e.occupied.Update(f)
	}
	return e
}

// OrInsert stores value if the entry is vacant, then returns the occupied
// view either way.
func (e Entry[K, V]) OrInsert(value V) *OccupiedEntry[K, V] {
	if e.occupied != nil {
		return e.occupied
	}
	return e.vacant.Insert(value)
}

// OrInsertWith is OrInsert with a lazily built value, only constructed
// when the entry is vacant.
func (e Entry[K, V]) OrInsertWith(f func() V) *OccupiedEntry[K, V] {
	if e.occupied != nil {
		return e.occupied
	}
	return e.vacant.Insert(f())
}

// Insert stores value whether the entry is occupied or vacant, replacing
// any previous value, and returns the occupied view.
func (e Entry[K, V]) Insert(value V) *OccupiedEntry[K, V] {
	if e.occupied != nil {
		e.occupied.Set(value)
		return e.occupied
	}
	return e.vacant.Insert(value)
}

// OccupiedEntry is a view over a slot known to hold a value.
type OccupiedEntry[K comparable, V KeyExtractor[K]] struct {
	m    *Map[K, V]
	key  K
	hash uint64
	idx  int
}

// Get returns a copy of the stored value.
func (e *OccupiedEntry[K, V]) Get() V {
	return e.m.slots[e.idx].elem.Value()
}

// Key returns the key the entry was probed with.
func (e *OccupiedEntry[K, V]) Key() K { return e.key }

// Update gives f in-place mutable access to the stored value. When f does
// not touch the key-bearing fields no rehash happens; when it does, the
// value is re-homed under its new key and the entry follows it.
func (e *OccupiedEntry[K, V]) Update(f func(*V)) {
	f(e.m.slots[e.idx].elem.ValuePtr())
	e.fixupKey()
}

// Set replaces the stored value and returns the previous one. A
// replacement carrying a different extracted key is re-homed.
func (e *OccupiedEntry[K, V]) Set(value V) V {
	prev := e.m.slots[e.idx].elem.Value()
	e.m.slots[e.idx].elem = keywrap.Wrap(value, e.hash)
	e.fixupKey()
	return prev
}

// Remove vacates the slot, returning the value and a vacant entry reusing
// the same probed position.
func (e *OccupiedEntry[K, V]) Remove() (V, *VacantEntry[K, V]) {
	v := e.m.removeAt(e.idx)
	return v, &VacantEntry[K, V]{m: e.m, key: e.key, hash: e.hash, idx: e.idx}
}

// fixupKey re-homes the slot's value if its extracted key no longer equals
// the key this entry was probed with, and repositions the entry on it.
func (e *OccupiedEntry[K, V]) fixupKey() {
	elem := &e.m.slots[e.idx].elem
	newKey := elem.Key()
	if newKey == e.key {
		return
	}
	newIdx := e.m.rehomeAt(e.idx, e.key)
	e.idx = newIdx
	e.key = e.m.slots[newIdx].elem.Key()
	e.hash = e.m.slots[newIdx].elem.Hash()
}

// VacantEntry is a view over the position a missing key would occupy.
type VacantEntry[K comparable, V KeyExtractor[K]] struct {
	m    *Map[K, V]
	key  K
	hash uint64
	idx  int
}

// Key returns the key the entry was probed with.
func (e *VacantEntry[K, V]) Key() K { return e.key }

// Insert places value into the probed position without comparing keys
// again; the probe already proved vacancy. It returns the now-occupied
// view. A value whose extracted key differs from the probed key is
// re-homed immediately.
func (e *VacantEntry[K, V]) Insert(value V) *OccupiedEntry[K, V] {
	m := e.m
	if m.slots[e.idx].state == slotEmpty {
		m.used++
	}
	m.slots[e.idx] = slot[K, V]{state: slotFull, elem: keywrap.Wrap(value, e.hash)}
	m.live++
	occ := &OccupiedEntry[K, V]{m: m, key: e.key, hash: e.hash, idx: e.idx}
	occ.fixupKey()
	return occ
}
