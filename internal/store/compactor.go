package store

import (
	"container/heap"
	"sort"
	"time"
)

// Stats records one compaction step, reported through INFO's
// compaction_history.
type Stats struct {
	Level          int
	InputRunCount  int
	OutputRunCount int
	InputBytes     int64
	OutputBytes    int64
	EntriesIn      int
	EntriesDropped int
	DurationMs     int64
}

// maxHistory bounds the retained compaction_history ring.
const maxHistory = 200

// thresholdForLevel returns K_L: 4 at L0 (size-tiered), 10^L for L>=1
// (leveled).
func thresholdForLevel(l int) int {
	if l == 0 {
		return 4
	}
	k := 1
	for i := 0; i < l; i++ {
		k *= 10
	}
	return k
}

// Compactor is the policy engine that merges runs within and across
// levels, dropping obsolete and expired entries. It never compacts
// during a flush and never runs two steps concurrently; inProgress
// guards reentry, and a tick that fires while a step is running is
// simply skipped.
type Compactor struct {
	enableBloom bool
	inProgress  bool
	nextRunID   uint64
	history     []Stats
}

// NewCompactor constructs a compactor; startID seeds the run ID
// sequence for runs it produces.
func NewCompactor(enableBloom bool, startID uint64) *Compactor {
	return &Compactor{enableBloom: enableBloom, nextRunID: startID}
}

// InProgress reports whether a compaction step is currently running.
func (c *Compactor) InProgress() bool { return c.inProgress }

// History returns the retained compaction statistics, oldest first.
func (c *Compactor) History() []Stats { return c.history }

// NeedsCompaction reports whether any level currently exceeds its
// threshold.
func (c *Compactor) NeedsCompaction(levels *Levels) bool {
	for l := 0; l < LMax; l++ {
		if len(levels.At(l)) > thresholdForLevel(l) {
			return true
		}
	}
	return false
}

// Step scans levels from shallowest to deepest for the first one whose
// run count exceeds its threshold and performs exactly one merge step
// there, merging into level+1. It returns nil if nothing needed
// compacting or a step was already in progress.
func (c *Compactor) Step(levels *Levels, nowMs int64) *Stats {
	if c.inProgress {
		return nil
	}
	level := -1
	for l := 0; l < LMax; l++ {
		if len(levels.At(l)) > thresholdForLevel(l) {
			level = l
			break
		}
	}
	if level == -1 {
		return nil
	}

	c.inProgress = true
	defer func() { c.inProgress = false }()

	start := time.Now()
	target := level + 1

	// Step 1: take the overflowing tier from `level`, oldest first. A
	// partial take would leave the overlap-free invariant at L1+
	// unenforceable, so the whole tier is taken.
	inputs := append([]*Run(nil), levels.At(level)...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].createdAt < inputs[j].createdAt })

	var minKey, maxKey string
	for i, r := range inputs {
		if i == 0 || r.minKey < minKey {
			minKey = r.minKey
		}
		if i == 0 || r.maxKey > maxKey {
			maxKey = r.maxKey
		}
	}

	// Step 2: from target, select all runs whose range intersects the
	// union range; everything else at target passes through untouched.
	var overlapping, passthrough []*Run
	for _, r := range levels.At(target) {
		if r.overlapsRange(minKey, maxKey) {
			overlapping = append(overlapping, r)
		} else {
			passthrough = append(passthrough, r)
		}
	}

	allInputs := append(append([]*Run(nil), inputs...), overlapping...)
	sort.SliceStable(allInputs, func(i, j int) bool { return allInputs[i].createdAt < allInputs[j].createdAt })

	// Step 3: k-way merge.
	merged, entriesIn, dropped := mergeRuns(allInputs, target, nowMs)

	var inputBytes int64
	for _, r := range allInputs {
		inputBytes += r.sizeBytes
	}

	// Step 4: emit the output run.
	var outRuns []*Run
	if len(merged) > 0 {
		id := c.nextRunID
		c.nextRunID++
		outRuns = append(outRuns, NewRun(id, target, merged, nowMs, c.enableBloom))
	}

	levels.Replace(level, nil)
	finalTarget := append(passthrough, outRuns...)
	sort.Slice(finalTarget, func(i, j int) bool { return finalTarget[i].minKey < finalTarget[j].minKey })
	levels.Replace(target, finalTarget)

	var outputBytes int64
	for _, r := range outRuns {
		outputBytes += r.sizeBytes
	}

	stats := Stats{
		Level:          level,
		InputRunCount:  len(allInputs),
		OutputRunCount: len(outRuns),
		InputBytes:     inputBytes,
		OutputBytes:    outputBytes,
		EntriesIn:      entriesIn,
		EntriesDropped: dropped,
		DurationMs:     time.Since(start).Milliseconds(),
	}
	c.record(stats)
	return &stats
}

func (c *Compactor) record(s Stats) {
	c.history = append(c.history, s)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}

// heapItem is a cursor into one input run during the k-way merge.
type heapItem struct {
	key      string
	runIdx   int
	entryIdx int
}

// runHeap orders cursors by key, breaking ties by runIdx so that,
// among equal keys, the earliest (oldest-first, source-order) run is
// popped first — the stable tie-break the merge step relies on.
type runHeap []heapItem

func (h runHeap) Len() int { return len(h) }
func (h runHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].runIdx < h[j].runIdx
}
func (h runHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *runHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *runHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// mergeRuns performs the k-way merge described by the compactor's
// step 3: at each key, keep exactly one entry — the newest by
// (created_at, version), earliest-source-wins on a full tie — drop it
// if expired, and drop a tombstone outright once targetLevel is the
// bottom level. entriesIn counts every entry consumed across inputs;
// entriesDropped counts shadowed duplicates plus anything elided.
func mergeRuns(runs []*Run, targetLevel int, nowMs int64) (out []Entry, entriesIn int, dropped int) {
	h := &runHeap{}
	heap.Init(h)
	for ri, r := range runs {
		if len(r.entries) > 0 {
			heap.Push(h, heapItem{key: r.entries[0].Key, runIdx: ri, entryIdx: 0})
		}
	}
	for h.Len() > 0 {
		key := (*h)[0].key
		var candidates []heapItem
		for h.Len() > 0 && (*h)[0].key == key {
			candidates = append(candidates, heap.Pop(h).(heapItem))
		}
		entriesIn += len(candidates)

		var best Entry
		bestSet := false
		for _, it := range candidates {
			e := runs[it.runIdx].entries[it.entryIdx]
			if !bestSet || newerThan(e, best) {
				best = e
				bestSet = true
			}
			if it.entryIdx+1 < len(runs[it.runIdx].entries) {
				heap.Push(h, heapItem{
					key:      runs[it.runIdx].entries[it.entryIdx+1].Key,
					runIdx:   it.runIdx,
					entryIdx: it.entryIdx + 1,
				})
			}
		}

		dropped += len(candidates) - 1 // shadowed duplicates at this key
		if best.Expired(nowMs) {
			dropped++
		} else if best.Value.IsTombstone() && targetLevel == LMax {
			dropped++
		} else {
			out = append(out, best)
		}
	}
	return out, entriesIn, dropped
}
