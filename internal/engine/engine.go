// Package engine hosts the facade described by the storage spec: one
// memtable, a leveled collection of immutable runs, a WAL, a compactor,
// and a clock, all owned by a single command executor so that no lock
// acquisition is required on the hot path. See executor.go for the
// actor loop that serializes access.
package engine

import (
	"sort"
	"strconv"

	"example.com/lsmkv/internal/clock"
	"example.com/lsmkv/internal/pattern"
	"example.com/lsmkv/internal/store"
)

// Engine is the public facade: SET/GET/DEL/... and friends, all routed
// through a single-goroutine command executor (see Start/Submit in
// executor.go). Engine's fields below are only ever touched from that
// goroutine once Start has been called.
type Engine struct {
	cfg       Config
	clock     clock.Clock
	memtable  *store.MemTable
	wal       *store.WAL
	levels    *store.Levels
	compactor *store.Compactor
	observers []Observer

	reqCh   chan request
	closeCh chan struct{}
	started bool

	nextRunID uint64
}

// New constructs an engine with the given configuration and clock. Call
// Start to begin processing commands.
func New(cfg Config, clk clock.Clock) *Engine {
	return &Engine{
		cfg:       cfg,
		clock:     clk,
		memtable:  store.NewMemTable(),
		wal:       store.NewWAL(),
		levels:    store.NewLevels(),
		compactor: store.NewCompactor(cfg.EnableBloomFilter, 1),
		reqCh:     make(chan request),
		closeCh:   make(chan struct{}),
		nextRunID: 1,
	}
}

// RegisterObserver adds an observer that receives lifecycle events.
// Must be called before Start.
func (e *Engine) RegisterObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// --- write path -----------------------------------------------------

func (e *Engine) doSet(key string, value []byte, ttlMs int64, hasTTL bool) {
	now := e.clock.NowMs()
	e.wal.Append(store.Record{Op: store.OpSet, Key: key, Value: value, HasValue: true, TTLMs: ttlMs, HasTTL: hasTTL})
	e.memtable.Put(key, store.Present(value), now, ttlMs, hasTTL)
	e.publishSet(key, value, ttlMs, hasTTL)
	e.maybeFlush()
}

func (e *Engine) doDel(key string) bool {
	now := e.clock.NowMs()
	e.wal.Append(store.Record{Op: store.OpDel, Key: key})
	deleted := e.memtable.Delete(key, now)
	e.publishDel(key, deleted)
	e.maybeFlush()
	return deleted
}

func (e *Engine) doExpire(key string, ttlMs int64) bool {
	now := e.clock.NowMs()
	e.wal.Append(store.Record{Op: store.OpExpire, Key: key, TTLMs: ttlMs, HasTTL: true})
	// EXPIRE on a key absent from the memtable but live in a run must
	// still take effect: pull the entry forward into the memtable first,
	// stamped with the current time (or one millisecond past the run
	// copy's created_at if the clock has not moved past it) so it
	// outranks the run-resident copy under the (created_at, version)
	// merge order, exactly as a fresh SET would — otherwise a later
	// compaction's tie-break could keep the stale, no-expiry original
	// and silently drop this EXPIRE.
	if _, found := e.memtable.Peek(key); !found {
		if entry, ok := e.lookupRuns(key, now); ok && !entry.Expired(now) && !entry.Value.IsTombstone() {
			stamp := now
			if stamp <= entry.CreatedAt {
				stamp = entry.CreatedAt + 1
			}
			e.memtable.Put(key, entry.Value, stamp, 0, false)
		}
	}
	ok := e.memtable.Expire(key, ttlMs, now)
	if ok {
		e.publishExpire(key, ttlMs)
	}
	e.maybeFlush()
	return ok
}

func (e *Engine) maybeFlush() {
	if !e.memtable.ShouldFlush(e.cfg.MemtableThresholdBytes()) {
		return
	}
	now := e.clock.NowMs()
	live := e.memtable.IterSorted(now)
	if len(live) > 0 {
		id := e.nextRunID
		e.nextRunID++
		run := store.NewRun(id, 0, live, now, e.cfg.EnableBloomFilter)
		e.levels.Append(0, run)
	}
	e.memtable.Reset()
	e.wal.Clear()
	e.publishFlush(len(e.levels.At(0)))
	e.maybeCompact()
}

func (e *Engine) maybeCompact() {
	if e.compactor.InProgress() {
		return
	}
	if !e.compactor.NeedsCompaction(e.levels) {
		return
	}
	now := e.clock.NowMs()
	level := e.nextCompactionLevel()
	e.publishCompactionStart(level)
	stats := e.compactor.Step(e.levels, now)
	if stats != nil {
		e.publishCompactionEnd(stats.Level, *stats)
	}
}

func (e *Engine) nextCompactionLevel() int {
	for l := 0; l < store.LMax; l++ {
		if len(e.levels.At(l)) > 0 {
			return l
		}
	}
	return 0
}

// --- read path --------------------------------------------------------

// get applies the merged read path: memtable first, then L0 runs newest
// to oldest, then each deeper level newest to oldest. The first source
// that structurally holds the key is authoritative and the search stops
// there — a tombstone or an expired entry found at that point shadows
// everything deeper and resolves to absent; the search never continues
// past it to resurrect an older, live copy.
func (e *Engine) get(key string) ([]byte, bool) {
	now := e.clock.NowMs()
	entry, found := e.findEntry(key, now)
	if !found || entry.Expired(now) || entry.Value.IsTombstone() {
		return nil, false
	}
	return entry.Value.Bytes, true
}

// findEntry returns the structurally newest entry for key, checking the
// memtable before any run: the memtable always holds the most recent
// generation, so a raw entry there (live, tombstoned, or expired)
// outranks anything a run could hold for the same key.
func (e *Engine) findEntry(key string, now int64) (store.Entry, bool) {
	if entry, found := e.memtable.Peek(key); found {
		return entry, true
	}
	return e.lookupRuns(key, now)
}

// lookupRuns searches L0 newest-to-oldest, then each deeper level
// newest-to-oldest, consulting each run's bloom filter before doing a
// binary search, and returns the first (structurally newest) entry it
// finds for key regardless of whether it is expired or a tombstone —
// resolving that into absence is the caller's job, not this search's.
func (e *Engine) lookupRuns(key string, now int64) (store.Entry, bool) {
	for l := 0; l <= store.LMax; l++ {
		runs := e.levels.At(l)
		for i := len(runs) - 1; i >= 0; i-- {
			r := runs[i]
			if !r.MayContainKey(key) {
				continue
			}
			if entry, found := r.Lookup(key, now); found {
				return entry, true
			}
		}
	}
	return store.Entry{}, false
}

func (e *Engine) exists(key string) bool {
	_, ok := e.get(key)
	return ok
}

func (e *Engine) ttl(key string) int64 {
	now := e.clock.NowMs()
	entry, found := e.findEntry(key, now)
	if !found || entry.Expired(now) || entry.Value.IsTombstone() {
		return -2
	}
	if !entry.HasExpiry {
		return -1
	}
	remain := entry.ExpiresAt - now
	if remain <= 0 {
		return -2
	}
	return (remain + 999) / 1000
}

func (e *Engine) incrDecr(key string, delta int64) (int64, *CommandError) {
	val, found := e.get(key)
	var current int64
	if found {
		parsed, err := strconv.ParseInt(string(val), 10, 64)
		if err == nil {
			current = parsed
		}
	}
	next := current + delta
	e.doSet(key, []byte(strconv.FormatInt(next, 10)), 0, false)
	return next, nil
}

// collectKeys walks memtable then L0 newest-to-oldest then deeper
// levels newest-to-oldest, taking the first (structurally most recent)
// occurrence of each key as authoritative — the same precedence get
// uses — and returns the live keys matching matcher (nil matches all).
func (e *Engine) collectKeys(matcher patternMatcher) []string {
	now := e.clock.NowMs()
	seen := map[string]bool{}
	var out []string

	decide := func(key string, value store.Value, expired bool) {
		if seen[key] {
			return
		}
		seen[key] = true
		if expired || value.IsTombstone() {
			return
		}
		if matcher != nil && !matcher.MatchString(key) {
			return
		}
		out = append(out, key)
	}

	for _, entry := range e.memtable.AllSorted() {
		decide(entry.Key, entry.Value, entry.Expired(now))
	}

	for l := 0; l <= store.LMax; l++ {
		runs := e.levels.At(l)
		for i := len(runs) - 1; i >= 0; i-- {
			for _, entry := range runs[i].EntriesSorted() {
				if seen[entry.Key] {
					continue
				}
				decide(entry.Key, entry.Value, entry.Expired(now))
			}
		}
	}

	sort.Strings(out)
	return out
}

// patternMatcher is the minimal surface a compiled glob exposes.
type patternMatcher interface {
	MatchString(string) bool
}

func compilePattern(p string, has bool) (*pattern.Matcher, *CommandError) {
	if !has {
		return pattern.MatchAll(), nil
	}
	m, err := pattern.Compile(p)
	if err != nil {
		return nil, validationError("invalid pattern %q: %v", p, err)
	}
	return m, nil
}

func (e *Engine) flushAll() {
	e.memtable.Reset()
	e.wal.Clear()
	e.levels = store.NewLevels()
	e.compactor = store.NewCompactor(e.cfg.EnableBloomFilter, 1)
	e.nextRunID = 1
}
