// Package bloom implements the fixed-size, k-probe bloom filter used by
// immutable runs to short-circuit lookups for keys that are definitely
// absent. The hash construction is a pair of polynomial rolling hashes
// over the key's UTF-8 bytes, combined with double hashing to derive the
// k probe positions, per the engine's on-disk-free (in-memory) design.
package bloom

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// DefaultBitsPerEntry and DefaultK implement the sizing rule used when a
// run builds a filter over n keys: m = 10*n bits, k = 3 probes.
const (
	DefaultBitsPerEntry = 10
	DefaultK            = 3

	hashSeedA uint64 = 1099511628211 // FNV-ish odd prime, seed for h1
	hashSeedB uint64 = 14695981039346656037
)

// Filter is a fixed-size bit array with k hash probes per key.
type Filter struct {
	bits   *bitset.BitSet
	m      uint
	k      uint
	nAdded uint
}

// New creates an empty filter with m bits and k probe functions.
func New(m, k uint) *Filter {
	if m == 0 {
		m = 1
	}
	if k == 0 {
		k = 1
	}
	return &Filter{bits: bitset.New(m), m: m, k: k}
}

// NewForEntries sizes a filter for an expected n entries using the
// engine's default bits-per-entry and probe count.
func NewForEntries(n int) *Filter {
	m := uint(n * DefaultBitsPerEntry)
	if m == 0 {
		m = DefaultBitsPerEntry
	}
	return New(m, DefaultK)
}

// polyHash computes a polynomial rolling hash of s's UTF-8 bytes under a
// given seed/base pair. Two independently-salted calls give h1 and h2.
func polyHash(s string, seed, base uint64) uint64 {
	h := seed
	for i := 0; i < len(s); i++ {
		h = h*base + uint64(s[i])
	}
	return h
}

func (f *Filter) probes(key string) []uint {
	h1 := polyHash(key, hashSeedA, 31)
	h2 := polyHash(key, hashSeedB, 37)
	if h2 == 0 {
		h2 = 1 // avoid degenerate all-identical probes
	}
	positions := make([]uint, f.k)
	for i := uint(0); i < f.k; i++ {
		p := h1 + uint64(i)*h2
		positions[i] = uint(p % uint64(f.m))
	}
	return positions
}

// Add marks key as present.
func (f *Filter) Add(key string) {
	for _, p := range f.probes(key) {
		f.bits.Set(p)
	}
	f.nAdded++
}

// Contains reports whether key may be present. false is authoritative
// (the key is definitely absent); true means "maybe".
func (f *Filter) Contains(key string) bool {
	for _, p := range f.probes(key) {
		if !f.bits.Test(p) {
			return false
		}
	}
	return true
}

// M returns the bit array size.
func (f *Filter) M() uint { return f.m }

// K returns the probe count.
func (f *Filter) K() uint { return f.k }

// EstimatedFPRate approximates the false-positive rate given the number
// of set bits observed so far: (1 - exp(-k*n/m))^k.
func (f *Filter) EstimatedFPRate() float64 {
	if f.m == 0 {
		return 1
	}
	n := float64(f.bits.Count())
	k := float64(f.k)
	m := float64(f.m)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// Snapshot is the serializable (bits, k, m) shape for a filter.
type Snapshot struct {
	Bits []bool
	K    uint
	M    uint
}

// Export produces a Snapshot suitable for persistence or inspection.
func (f *Filter) Export() Snapshot {
	bits := make([]bool, f.m)
	for i := uint(0); i < f.m; i++ {
		bits[i] = f.bits.Test(i)
	}
	return Snapshot{Bits: bits, K: f.k, M: f.m}
}

// Import reconstructs a Filter from a Snapshot.
func Import(s Snapshot) *Filter {
	f := New(s.M, s.K)
	for i, set := range s.Bits {
		if set {
			f.bits.Set(uint(i))
		}
	}
	return f
}
