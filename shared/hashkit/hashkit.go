// Package hashkit provides the pluggable hashing strategies used by the
// extract map. A table owns exactly one Hasher, fixed at construction, so
// hashing behavior is explicit configuration rather than hidden global state.
//
// The contract every Hasher must uphold: keys that compare equal must hash
// equal. For good probe behavior the hash should spread keys across the
// full 64-bit range.
package hashkit

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// Hasher maps a key to a 64-bit hash value.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// Func adapts a plain function into a Hasher.
type Func[K comparable] func(K) uint64

func (f Func[K]) Hash(key K) uint64 { return f(key) }

// Comparable hashes any comparable key via hash/maphash, salted with an
// explicit seed. The zero value is unusable; construct with NewComparable
// or fill Seed yourself for deterministic tests.
type Comparable[K comparable] struct {
	Seed maphash.Seed
}

// NewComparable returns a Comparable hasher with a freshly drawn random
// seed, so hash values differ from process to process.
func NewComparable[K comparable]() Comparable[K] {
	return Comparable[K]{Seed: maphash.MakeSeed()}
}

func (c Comparable[K]) Hash(key K) uint64 {
	return maphash.Comparable(c.Seed, key)
}

// String hashes string keys with xxhash. Unlike Comparable it is
// deterministic across processes, which makes probe layouts reproducible.
type String struct{}

func (String) Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}
