// Package extractmap provides a hash map for values that carry their own
// keys.
//
// Instead of storing key/value pairs, the map stores bare values and asks
// each one for its key through the KeyExtractor capability. Keys are never
// duplicated into separate storage, and insertion takes only the value.
//
// # Reading and writing
//
// Plain operations (Insert, Get, Remove, ContainsKey) address values by
// extracted key. Insert-or-update patterns go through Entry, which probes
// once and branches into an occupied or vacant view. Mutations that may
// touch key-bearing fields go through GetMut, whose MutGuard removes the
// value for the duration of the mutation and reinserts it under its
// current key on Release.
//
// # Why the guard exists
//
// A hash table's placement of a value is a function of its key. Mutating
// the key of a value while it sits in its bucket corrupts the table.
// The guard makes the unsafe window structural: while a value is being
// mutated it is not in the table at all, so no lookup can observe a
// half-mutated key, and releasing the guard re-files the value wherever
// its new key says it belongs. The entry API covers the remaining gap by
// re-checking the extracted key after every mutation it brokers.
//
// # Hashing
//
// Hashing is explicit configuration: each map owns one hashkit.Hasher,
// chosen at construction. The default hashes any comparable key with a
// per-map random seed.
//
// Map is a single-owner structure with no internal locking. Share it
// across goroutines only behind your own synchronization.
package extractmap
