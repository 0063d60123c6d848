package store

import "testing"

func TestThresholdForLevel(t *testing.T) {
	cases := map[int]int{0: 4, 1: 10, 2: 100, 3: 1000}
	for level, want := range cases {
		if got := thresholdForLevel(level); got != want {
			t.Errorf("thresholdForLevel(%d) = %d, want %d", level, got, want)
		}
	}
}

func TestNeedsCompactionFalseWhenUnderThreshold(t *testing.T) {
	lv := NewLevels()
	for i := 0; i < 4; i++ {
		lv.Append(0, NewRun(uint64(i+1), 0, entries("a"), int64(i), false))
	}
	c := NewCompactor(false, 1)
	if c.NeedsCompaction(lv) {
		t.Fatalf("NeedsCompaction at exactly the threshold should be false (> not >=)")
	}
}

func TestNeedsCompactionTrueOverThreshold(t *testing.T) {
	lv := NewLevels()
	for i := 0; i < 5; i++ {
		lv.Append(0, NewRun(uint64(i+1), 0, entries("a"), int64(i), false))
	}
	c := NewCompactor(false, 1)
	if !c.NeedsCompaction(lv) {
		t.Fatalf("NeedsCompaction should be true once L0 exceeds its threshold of 4")
	}
}

func TestStepMergesOverflowingL0IntoL1(t *testing.T) {
	lv := NewLevels()
	for i := 0; i < 5; i++ {
		lv.Append(0, NewRun(uint64(i+1), 0, entries("a", "b"), int64(i), false))
	}
	c := NewCompactor(false, 100)
	stats := c.Step(lv, 1000)
	if stats == nil {
		t.Fatalf("Step returned nil, want a Stats for the overflowing L0")
	}
	if stats.Level != 0 {
		t.Fatalf("stats.Level = %d, want 0", stats.Level)
	}
	if len(lv.At(0)) != 0 {
		t.Fatalf("L0 should be emptied after compacting the whole tier, has %d runs", len(lv.At(0)))
	}
	if len(lv.At(1)) != 1 {
		t.Fatalf("L1 should hold exactly one merged run, has %d", len(lv.At(1)))
	}
	if lv.At(1)[0].EntryCount() != 2 {
		t.Fatalf("merged run entry count = %d, want 2 (deduplicated 'a' and 'b')", lv.At(1)[0].EntryCount())
	}
}

func TestStepPicksNewestVersionOnKeyCollision(t *testing.T) {
	lv := NewLevels()
	older := Entry{Key: "a", Value: Present([]byte("old")), CreatedAt: 100, Version: 1}
	newer := Entry{Key: "a", Value: Present([]byte("new")), CreatedAt: 200, Version: 1}
	for i := 0; i < 5; i++ {
		e := older
		if i == 2 {
			e = newer
		}
		lv.Append(0, NewRun(uint64(i+1), 0, []Entry{e}, e.CreatedAt, false))
	}
	c := NewCompactor(false, 100)
	c.Step(lv, 1000)
	merged := lv.At(1)[0]
	entry, found := merged.Lookup("a", 1000)
	if !found || string(entry.Value.Bytes) != "new" {
		t.Fatalf("merged entry = %+v, want the newest value 'new'", entry)
	}
}

func TestMergeRunsDropsTombstoneAtBottomLevel(t *testing.T) {
	lv := NewLevels()
	for i := 0; i < 5; i++ {
		lv.Append(LMax-1, NewRun(uint64(i+1), LMax-1, []Entry{{Key: "a", Value: Tombstone(), CreatedAt: int64(i), Version: 1}}, int64(i), false))
	}
	out, _, dropped := mergeRuns(lv.At(LMax-1), LMax, 1000)
	if len(out) != 0 {
		t.Fatalf("merging a tombstone into the bottom level should drop it, got %d output entries", len(out))
	}
	if dropped != 5 {
		t.Fatalf("dropped = %d, want 5 (4 shadowed duplicates + 1 bottom tombstone)", dropped)
	}
}

func TestMergeRunsKeepsTombstoneAboveBottomLevel(t *testing.T) {
	lv := NewLevels()
	lv.Append(1, NewRun(1, 1, []Entry{{Key: "a", Value: Tombstone(), CreatedAt: 0, Version: 1}}, 0, false))
	out, _, dropped := mergeRuns(lv.At(1), 2, 1000)
	if len(out) != 1 || !out[0].Value.IsTombstone() {
		t.Fatalf("a tombstone merged into a non-bottom level must survive to shadow deeper runs")
	}
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
}

func TestStepInProgressPreventsReentry(t *testing.T) {
	c := &Compactor{inProgress: true}
	lv := NewLevels()
	if stats := c.Step(lv, 0); stats != nil {
		t.Fatalf("Step while inProgress should return nil")
	}
}

func TestHistoryBoundedByMaxHistory(t *testing.T) {
	c := NewCompactor(false, 1)
	for i := 0; i < maxHistory+10; i++ {
		c.record(Stats{Level: 0})
	}
	if got := len(c.History()); got != maxHistory {
		t.Fatalf("History length = %d, want %d", got, maxHistory)
	}
}
