package extractmap

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/on-the-ground/extract_map_go/internal/keywrap"
	"github.com/on-the-ground/extract_map_go/shared/hashkit"
)

// KeyExtractor is the capability every stored value must provide: expose
// the logical key it is stored under. The key is never stored separately
// by the map; it is re-extracted whenever it is needed.
//
// Mutating a stored value in a way that changes its extracted key is only
// safe through MutGuard or the entry API, both of which re-home the value
// under its new key.
type KeyExtractor[K comparable] interface {
	ExtractKey() K
}

const (
	slotEmpty uint8 = iota
	slotTombstone
	slotFull
)

// minSlots keeps the probe arithmetic trivial: slot counts are always
// powers of two, never below this.
const minSlots = 8

type slot[K comparable, V KeyExtractor[K]] struct {
	state uint8
	elem  keywrap.Wrapped[K, V]
}

// Map is a hash map over values that carry their own keys. Lookup, removal
// and the entry API address values by extracted key; insertion needs no key
// argument at all.
//
// The zero value is ready to use and hashes with a per-map random seed.
// Map is not safe for concurrent use; it is a single-owner structure.
type Map[K comparable, V KeyExtractor[K]] struct {
	hasher hashkit.Hasher[K]
	slots  []slot[K, V]
	live   int // slots in state slotFull
	used   int // live plus tombstones
	log    *zap.Logger
}

// New returns an empty map hashing with a freshly seeded hashkit.Comparable.
func New[K comparable, V KeyExtractor[K]]() *Map[K, V] {
	return NewWithHasher[K, V](hashkit.NewComparable[K]())
}

// NewWithCapacity returns an empty map pre-sized so that n insertions do
// not trigger growth.
func NewWithCapacity[K comparable, V KeyExtractor[K]](n int) *Map[K, V] {
	return NewWithCapacityAndHasher[K, V](n, hashkit.NewComparable[K]())
}

// NewWithHasher returns an empty map using the provided hashing strategy.
func NewWithHasher[K comparable, V KeyExtractor[K]](h hashkit.Hasher[K]) *Map[K, V] {
	return &Map[K, V]{hasher: h}
}

// NewWithCapacityAndHasher combines NewWithCapacity and NewWithHasher.
func NewWithCapacityAndHasher[K comparable, V KeyExtractor[K]](n int, h hashkit.Hasher[K]) *Map[K, V] {
	m := &Map[K, V]{hasher: h}
	m.ensureInit()
	m.Reserve(n)
	return m
}

// SetLogger routes the map's internal debug events (growth, re-homing)
// to the given logger. The default is no logging at all.
func (m *Map[K, V]) SetLogger(l *zap.Logger) {
	m.log = l
}

func (m *Map[K, V]) logger() *zap.Logger {
	if m.log == nil {
		return zap.NewNop()
	}
	return m.log
}

func (m *Map[K, V]) ensureInit() {
	if m.hasher == nil {
		m.hasher = hashkit.NewComparable[K]()
	}
	if m.slots == nil {
		m.slots = make([]slot[K, V], minSlots)
	}
}

// Len returns the number of stored values.
func (m *Map[K, V]) Len() int { return m.live }

// IsEmpty reports whether the map holds no values.
func (m *Map[K, V]) IsEmpty() bool { return m.live == 0 }

// Capacity returns how many values the map can hold before growing.
func (m *Map[K, V]) Capacity() int {
	return len(m.slots) / 8 * 7
}

// Insert stores value under its extracted key. If a value with an equal
// key was already present it is replaced and returned; last writer wins.
func (m *Map[K, V]) Insert(value V) (prev V, replaced bool) {
	m.ensureInit()
	h := m.hasher.Hash(value.ExtractKey())
	prev, replaced, _ = m.insertWrapped(keywrap.Wrap(value, h))
	return prev, replaced
}

// Get returns the value stored under key, or the zero value and false.
func (m *Map[K, V]) Get(key K) (V, bool) {
	idx, ok := m.find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.slots[idx].elem.Value(), true
}

// ContainsKey reports whether a value is stored under key.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.find(key)
	return ok
}

// Remove deletes and returns the value stored under key. Removing an
// absent key is a no-op returning false.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	idx, ok := m.find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.removeAt(idx), true
}

// Reserve grows the table, if needed, so that n further insertions do not
// trigger growth.
func (m *Map[K, V]) Reserve(n int) {
	m.ensureInit()
	need := m.live + n
	size := len(m.slots)
	for need > size/8*7 {
		size *= 2
	}
	if size != len(m.slots) {
		m.rehash(size)
	}
}

// Clear removes every value, keeping the allocated capacity.
func (m *Map[K, V]) Clear() {
	clear(m.slots)
	m.live = 0
	m.used = 0
}

// Clone returns a shallow copy sharing the hashing strategy and logger.
func (m *Map[K, V]) Clone() *Map[K, V] {
	dup := &Map[K, V]{
		hasher: m.hasher,
		live:   m.live,
		used:   m.used,
		log:    m.log,
	}
	if m.slots != nil {
		dup.slots = make([]slot[K, V], len(m.slots))
		copy(dup.slots, m.slots)
	}
	return dup
}

// EqualFunc reports order-independent equality: same length, and for every
// value in m the other map stores a value under the same key for which eq
// returns true.
func (m *Map[K, V]) EqualFunc(other *Map[K, V], eq func(a, b V) bool) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := range m.slots {
		if m.slots[i].state != slotFull {
			continue
		}
		v := m.slots[i].elem.Value()
		ov, ok := other.Get(v.ExtractKey())
		if !ok || !eq(v, ov) {
			return false
		}
	}
	return true
}

// Equal is EqualFunc with == for comparable value types.
func Equal[K comparable, V interface {
	comparable
	KeyExtractor[K]
}](a, b *Map[K, V]) bool {
	return a.EqualFunc(b, func(x, y V) bool { return x == y })
}

// String renders the map as a key:value mapping in iteration order.
func (m *Map[K, V]) String() string {
	var b strings.Builder
	b.WriteString("extractmap.Map[")
	first := true
	for i := range m.slots {
		if m.slots[i].state != slotFull {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		v := m.slots[i].elem.Value()
		fmt.Fprintf(&b, "%v:%v", v.ExtractKey(), v)
	}
	b.WriteByte(']')
	return b.String()
}

// find probes for key and returns its slot index.
func (m *Map[K, V]) find(key K) (int, bool) {
	if m.live == 0 {
		return 0, false
	}
	h := m.hasher.Hash(key)
	mask := len(m.slots) - 1
	for i := int(h) & mask; ; i = (i + 1) & mask {
		switch m.slots[i].state {
		case slotEmpty:
			return 0, false
		case slotFull:
			if m.slots[i].elem.Matches(h, key) {
				return i, true
			}
		}
	}
}

// findInsert probes for key, returning either the index of the slot that
// already stores it (existing=true), or the slot a new value should land
// in. Tombstones encountered on the way are reused.
func (m *Map[K, V]) findInsert(h uint64, key K) (idx int, existing bool) {
	mask := len(m.slots) - 1
	reuse := -1
	for i := int(h) & mask; ; i = (i + 1) & mask {
		switch m.slots[i].state {
		case slotEmpty:
			if reuse >= 0 {
				return reuse, false
			}
			return i, false
		case slotTombstone:
			if reuse < 0 {
				reuse = i
			}
		case slotFull:
			if m.slots[i].elem.Matches(h, key) {
				return i, true
			}
		}
	}
}

// insertWrapped is the single write path shared by Insert, the entry API,
// guard release and the JSON decoder. It returns the final slot index so
// entry views can stay positioned after a re-home.
func (m *Map[K, V]) insertWrapped(w keywrap.Wrapped[K, V]) (prev V, replaced bool, idx int) {
	m.ensureInit()
	m.maybeGrow()

	idx, existing := m.findInsert(w.Hash(), w.Key())
	if existing {
		prev = m.slots[idx].elem.Value()
		m.slots[idx].elem = w
		return prev, true, idx
	}
	if m.slots[idx].state == slotEmpty {
		m.used++
	}
	m.slots[idx] = slot[K, V]{state: slotFull, elem: w}
	m.live++
	return prev, false, idx
}

// removeAt vacates a known-full slot, leaving a tombstone so probe chains
// through it stay intact.
func (m *Map[K, V]) removeAt(idx int) V {
	v := m.slots[idx].elem.Value()
	m.slots[idx] = slot[K, V]{state: slotTombstone}
	m.live--
	return v
}

// maybeGrow keeps the load (live + tombstones) at or below 7/8 of the slot
// array. When most of the load is tombstones the table is rehashed in
// place instead of doubled.
func (m *Map[K, V]) maybeGrow() {
	if (m.used+1)*8 <= len(m.slots)*7 {
		return
	}
	size := len(m.slots)
	if m.live >= size/2 {
		size *= 2
	}
	m.rehash(size)
}

// rehash reinserts every live element into a fresh slot array of the given
// size. Cached hashes make this a pure placement pass; no key is hashed.
func (m *Map[K, V]) rehash(size int) {
	old := m.slots
	m.slots = make([]slot[K, V], size)
	m.used = m.live
	mask := size - 1
	for i := range old {
		if old[i].state != slotFull {
			continue
		}
		j := int(old[i].elem.Hash()) & mask
		for m.slots[j].state == slotFull {
			j = (j + 1) & mask
		}
		m.slots[j] = old[i]
	}
	m.logger().Debug("table rehashed",
		zap.Int("slots", size),
		zap.Int("live", m.live),
	)
}

// rehomeAt re-files the value at idx under its current extracted key. It
// is the shared fixup for every mutation path that may have changed the
// key while the value sat in its old bucket.
func (m *Map[K, V]) rehomeAt(idx int, oldKey K) (newIdx int) {
	v := m.removeAt(idx)
	newKey := v.ExtractKey()
	h := m.hasher.Hash(newKey)
	_, _, newIdx = m.insertWrapped(keywrap.Wrap(v, h))
	m.logger().Debug("value rehomed after key change",
		zap.Any("old_key", oldKey),
		zap.Any("new_key", newKey),
	)
	return newIdx
}
