package store

import "testing"

func TestLevelsAppendAndAt(t *testing.T) {
	lv := NewLevels()
	r := NewRun(1, 0, entries("a"), 0, false)
	lv.Append(0, r)
	if got := lv.At(0); len(got) != 1 || got[0] != r {
		t.Fatalf("At(0) = %v, want [r]", got)
	}
	if got := lv.At(1); len(got) != 0 {
		t.Fatalf("At(1) should start empty, got %v", got)
	}
}

func TestLevelsReplace(t *testing.T) {
	lv := NewLevels()
	lv.Append(0, NewRun(1, 0, entries("a"), 0, false))
	r2 := NewRun(2, 0, entries("b"), 0, false)
	lv.Replace(0, []*Run{r2})
	if got := lv.At(0); len(got) != 1 || got[0] != r2 {
		t.Fatalf("Replace did not swap contents: %v", got)
	}
}

func TestLevelsRemoveByID(t *testing.T) {
	lv := NewLevels()
	r1 := NewRun(1, 0, entries("a"), 0, false)
	r2 := NewRun(2, 0, entries("b"), 0, false)
	lv.Append(0, r1)
	lv.Append(0, r2)
	lv.RemoveByID(0, r1.ID)
	got := lv.At(0)
	if len(got) != 1 || got[0] != r2 {
		t.Fatalf("RemoveByID left %v, want [r2]", got)
	}
}

func TestLevelsTotalRunsAndAll(t *testing.T) {
	lv := NewLevels()
	lv.Append(0, NewRun(1, 0, entries("a"), 0, false))
	lv.Append(1, NewRun(2, 1, entries("b"), 0, false))
	if got := lv.TotalRuns(); got != 2 {
		t.Fatalf("TotalRuns() = %d, want 2", got)
	}
	if got := lv.All(); len(got) != 2 {
		t.Fatalf("All() length = %d, want 2", len(got))
	}
}
