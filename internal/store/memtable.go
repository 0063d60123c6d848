package store

import (
	"github.com/huandu/skiplist"
)

// MemTable is the only mutable store of entries: a sorted map of current
// key to its latest versioned entry, ordered by the stringified key. It
// is backed by a skiplist the same way the teacher's memtable is, but
// keeps at most one entry per key (the latest) rather than a full
// multi-version history, per the engine's simpler single-generation
// design.
type MemTable struct {
	list      *skiplist.SkipList
	sizeBytes int64
}

// NewMemTable constructs an empty memtable.
func NewMemTable() *MemTable {
	return &MemTable{
		list: skiplist.New(skiplist.String),
	}
}

// Put inserts or overwrites key with value (or a tombstone), assigning
// expiresAt = now + ttlMs when hasTTL, and a version strictly greater
// than the superseded entry's (or 1 if none existed). size_bytes is
// updated by subtracting the superseded entry's cost and adding the
// new one's.
func (m *MemTable) Put(key string, value Value, nowMs int64, ttlMs int64, hasTTL bool) Entry {
	var version int64 = 1
	if elem := m.list.Get(key); elem != nil {
		prev := elem.Value.(Entry)
		version = prev.Version + 1
		m.sizeBytes -= prev.ApproxSize()
	}
	e := Entry{
		Key:       key,
		Value:     value,
		CreatedAt: nowMs,
		Version:   version,
	}
	if hasTTL {
		e.HasExpiry = true
		e.ExpiresAt = nowMs + ttlMs
	}
	m.list.Set(key, e)
	m.sizeBytes += e.ApproxSize()
	return e
}

// Get returns the stored entry for key. found is false when there is no
// entry at all, including one just lazily evicted because it expired.
// When found is true, callers distinguish a tombstone from a live value
// via entry.Value.IsTombstone().
func (m *MemTable) Get(key string, nowMs int64) (entry Entry, found bool) {
	elem := m.list.Get(key)
	if elem == nil {
		return Entry{}, false
	}
	e := elem.Value.(Entry)
	if e.Expired(nowMs) {
		m.removeLocked(key, e)
		return Entry{}, false
	}
	return e, true
}

// Peek returns the raw entry stored for key, expired or not, without
// evicting it. The memtable holds the structurally newest copy of a
// key system-wide, so a caller building a merged read path across the
// memtable and the run hierarchy needs to see an expired entry here
// too: it still shadows whatever older, live copy a deeper run holds.
func (m *MemTable) Peek(key string) (Entry, bool) {
	elem := m.list.Get(key)
	if elem == nil {
		return Entry{}, false
	}
	return elem.Value.(Entry), true
}

// Delete writes a tombstone for key so the deletion is visible through
// deeper runs. It returns true iff a live (non-tombstone, non-expired)
// entry existed immediately before the call.
func (m *MemTable) Delete(key string, nowMs int64) bool {
	existed := false
	if elem := m.list.Get(key); elem != nil {
		e := elem.Value.(Entry)
		if !e.Expired(nowMs) && !e.Value.IsTombstone() {
			existed = true
		}
	}
	m.Put(key, Tombstone(), nowMs, 0, false)
	return existed
}

// Expire updates the expiry of a live entry in place, returning whether
// one existed to update.
func (m *MemTable) Expire(key string, ttlMs int64, nowMs int64) bool {
	elem := m.list.Get(key)
	if elem == nil {
		return false
	}
	e := elem.Value.(Entry)
	if e.Expired(nowMs) {
		m.removeLocked(key, e)
		return false
	}
	if e.Value.IsTombstone() {
		return false
	}
	m.sizeBytes -= e.ApproxSize()
	e.HasExpiry = true
	e.ExpiresAt = nowMs + ttlMs
	m.list.Set(key, e)
	m.sizeBytes += e.ApproxSize()
	return true
}

// TTL reports remaining seconds until expiry: -2 absent, -1 present
// without expiry, else ceil((expires_at - now) / 1000).
func (m *MemTable) TTL(key string, nowMs int64) int64 {
	e, found := m.Get(key, nowMs)
	if !found || e.Value.IsTombstone() {
		return -2
	}
	if !e.HasExpiry {
		return -1
	}
	remainMs := e.ExpiresAt - nowMs
	if remainMs <= 0 {
		return -2
	}
	return (remainMs + 999) / 1000
}

// patternMatcher is the minimal surface Keys needs from a compiled glob.
type patternMatcher interface {
	MatchString(string) bool
}

// Keys returns keys whose stringification matches matcher, skipping
// tombstones and expired entries. A nil matcher matches everything.
func (m *MemTable) Keys(matcher patternMatcher, nowMs int64) []string {
	var out []string
	var expiredKeys []string
	for e := m.list.Front(); e != nil; e = e.Next() {
		key := e.Key().(string)
		entry := e.Value.(Entry)
		if entry.Expired(nowMs) {
			expiredKeys = append(expiredKeys, key)
			continue
		}
		if entry.Value.IsTombstone() {
			continue
		}
		if matcher != nil && !matcher.MatchString(key) {
			continue
		}
		out = append(out, key)
	}
	for _, k := range expiredKeys {
		if elem := m.list.Get(k); elem != nil {
			m.removeLocked(k, elem.Value.(Entry))
		}
	}
	return out
}

// IterSorted yields all entries (including tombstones, excluding
// expired ones) in ascending key order, for use at flush time.
func (m *MemTable) IterSorted(nowMs int64) []Entry {
	var out []Entry
	var toRemove []string
	for e := m.list.Front(); e != nil; e = e.Next() {
		entry := e.Value.(Entry)
		if entry.Expired(nowMs) {
			toRemove = append(toRemove, e.Key().(string))
			continue
		}
		out = append(out, entry)
	}
	for _, k := range toRemove {
		if elem := m.list.Get(k); elem != nil {
			m.removeLocked(k, elem.Value.(Entry))
		}
	}
	return out
}

// AllSorted returns every entry — live, tombstoned, or already expired
// — in ascending key order, without evicting anything. A merged read
// path that walks the memtable before any run needs this raw view: an
// expired entry here is still the structurally newest generation of
// its key and must be seen so it can shadow an older, live copy a run
// might hold, even though it will itself resolve to absent.
func (m *MemTable) AllSorted() []Entry {
	var out []Entry
	for e := m.list.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(Entry))
	}
	return out
}

// SizeBytes returns the current approximate footprint.
func (m *MemTable) SizeBytes() int64 { return m.sizeBytes }

// EntryCount returns the number of entries (including tombstones).
func (m *MemTable) EntryCount() int { return m.list.Len() }

// ShouldFlush reports whether size_bytes has crossed the threshold.
func (m *MemTable) ShouldFlush(thresholdBytes int64) bool {
	return m.sizeBytes >= thresholdBytes
}

// Reset empties the memtable, used after a flush copies its live set
// into a new run.
func (m *MemTable) Reset() {
	m.list = skiplist.New(skiplist.String)
	m.sizeBytes = 0
}

// OldestNewestCreatedAt scans for the min/max CreatedAt across all
// entries, used by INFO. ok is false for an empty memtable.
func (m *MemTable) OldestNewestCreatedAt() (oldest, newest int64, ok bool) {
	for e := m.list.Front(); e != nil; e = e.Next() {
		entry := e.Value.(Entry)
		if !ok {
			oldest, newest, ok = entry.CreatedAt, entry.CreatedAt, true
			continue
		}
		if entry.CreatedAt < oldest {
			oldest = entry.CreatedAt
		}
		if entry.CreatedAt > newest {
			newest = entry.CreatedAt
		}
	}
	return
}

func (m *MemTable) removeLocked(key string, e Entry) {
	m.list.Remove(key)
	m.sizeBytes -= e.ApproxSize()
}
