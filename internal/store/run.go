package store

import (
	"sort"

	"example.com/lsmkv/internal/bloom"
)

// Run is a frozen, key-sorted sequence of versioned entries, immutable
// from construction until a compaction step consumes it. It is the
// engine's analog of an SSTable, but lives entirely on the Go heap: the
// engine has no on-disk persistence in scope.
type Run struct {
	ID        uint64
	Level     int
	entries   []Entry // sorted ascending by Key; unique keys
	minKey    string
	maxKey    string
	sizeBytes int64
	createdAt int64
	filter    *bloom.Filter
}

// NewRun freezes an ordered sequence of entries (as produced by
// MemTable.IterSorted or a compaction merge) into an immutable run at
// the given level. If buildBloom is set, a filter sized m=10n, k=3 is
// built over the stringified keys.
func NewRun(id uint64, level int, entries []Entry, createdAt int64, buildBloom bool) *Run {
	r := &Run{
		ID:        id,
		Level:     level,
		entries:   entries,
		createdAt: createdAt,
	}
	var size int64
	for _, e := range entries {
		size += e.ApproxSize()
	}
	r.sizeBytes = size
	if len(entries) > 0 {
		r.minKey = entries[0].Key
		r.maxKey = entries[len(entries)-1].Key
	}
	if buildBloom && len(entries) > 0 {
		f := bloom.NewForEntries(len(entries))
		for _, e := range entries {
			f.Add(e.Key)
		}
		r.filter = f
	}
	return r
}

// MayContainKey consults the bloom filter when present. false is
// authoritative (the run definitely does not hold key); true means
// "maybe" and a real lookup is required. A run without a filter always
// returns true.
func (r *Run) MayContainKey(key string) bool {
	if r.filter == nil {
		return true
	}
	return r.filter.Contains(key)
}

// Lookup binary-searches for key and returns whatever entry is stored
// for it, expired or not. Expiry is a shadowing concern for the
// caller's merged read path, not something Lookup can decide on its
// own: this run may be the structurally newest one holding key, and an
// expired entry found here still shadows an older, live copy in a
// deeper run.
func (r *Run) Lookup(key string, nowMs int64) (Entry, bool) {
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Key >= key
	})
	if i >= len(r.entries) || r.entries[i].Key != key {
		return Entry{}, false
	}
	return r.entries[i], true
}

// EntriesSorted returns all entries in ascending key order, including
// tombstones, to support a k-way merge.
func (r *Run) EntriesSorted() []Entry {
	return r.entries
}

// Overlaps reports whether r and other's key ranges intersect.
func (r *Run) Overlaps(other *Run) bool {
	if len(r.entries) == 0 || len(other.entries) == 0 {
		return false
	}
	return r.minKey <= other.maxKey && other.minKey <= r.maxKey
}

// overlapsRange reports whether r's key range intersects [minKey, maxKey].
func (r *Run) overlapsRange(minKey, maxKey string) bool {
	if len(r.entries) == 0 {
		return false
	}
	return r.minKey <= maxKey && minKey <= r.maxKey
}

// Metadata is the descriptive summary of a run, used by INFO.
type Metadata struct {
	ID         uint64
	Level      int
	MinKey     string
	MaxKey     string
	SizeBytes  int64
	EntryCount int
	CreatedAt  int64
}

// Metadata returns r's descriptive summary.
func (r *Run) Metadata() Metadata {
	return Metadata{
		ID:         r.ID,
		Level:      r.Level,
		MinKey:     r.minKey,
		MaxKey:     r.maxKey,
		SizeBytes:  r.sizeBytes,
		EntryCount: len(r.entries),
		CreatedAt:  r.createdAt,
	}
}

// SizeBytes returns the run's total byte footprint.
func (r *Run) SizeBytes() int64 { return r.sizeBytes }

// EntryCount returns the number of entries stored, including
// tombstones.
func (r *Run) EntryCount() int { return len(r.entries) }
