// Package keywrap holds the slot element used by the extract map's table.
// A Wrapped value delegates hashing and equality to the key extracted from
// the value itself, so the table never stores a key separately from its
// value. The 64-bit hash is cached at wrap time, which lets the table grow
// without re-hashing and reject most probe candidates without touching the
// extracted key.
package keywrap

// KeyExtractor mirrors the capability required of stored values. It is
// declared here as well to keep this package free of import cycles;
// constraint satisfaction in Go is structural, so values written against
// the extractmap declaration satisfy this one unchanged.
type KeyExtractor[K comparable] interface {
	ExtractKey() K
}

// Wrapped is one stored value plus its cached hash.
type Wrapped[K comparable, V KeyExtractor[K]] struct {
	hash  uint64
	value V
}

// Wrap pairs a value with the hash of its extracted key.
func Wrap[K comparable, V KeyExtractor[K]](value V, hash uint64) Wrapped[K, V] {
	return Wrapped[K, V]{hash: hash, value: value}
}

// Hash returns the cached hash of the extracted key.
func (w Wrapped[K, V]) Hash() uint64 { return w.hash }

// Key re-extracts the key from the held value.
func (w Wrapped[K, V]) Key() K { return w.value.ExtractKey() }

// Value returns a copy of the held value.
func (w Wrapped[K, V]) Value() V { return w.value }

// ValuePtr exposes the held value for in-place mutation. The caller owns
// the consequences if the mutation changes the extracted key; the table
// re-checks the key after every mutation it brokers.
func (w *Wrapped[K, V]) ValuePtr() *V { return &w.value }

// Matches reports whether this element stores the given key. The cached
// hash is compared first so non-matching slots are rejected without an
// equality check on the key itself.
func (w Wrapped[K, V]) Matches(hash uint64, key K) bool {
	return w.hash == hash && w.value.ExtractKey() == key
}
