package store

import "testing"

func TestWALAppendAndLen(t *testing.T) {
	w := NewWAL()
	if got := w.Len(); got != 0 {
		t.Fatalf("Len() on new WAL = %d, want 0", got)
	}
	w.Append(Record{Op: OpSet, Key: "a", Value: []byte("v"), HasValue: true})
	w.Append(Record{Op: OpDel, Key: "a"})
	if got := w.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestWALReplayPreservesOrder(t *testing.T) {
	w := NewWAL()
	w.Append(Record{Op: OpSet, Key: "a", Value: []byte("1"), HasValue: true})
	w.Append(Record{Op: OpSet, Key: "b", Value: []byte("2"), HasValue: true})
	w.Append(Record{Op: OpExpire, Key: "a", TTLMs: 1000, HasTTL: true})

	recs := w.Replay()
	if len(recs) != 3 {
		t.Fatalf("Replay length = %d, want 3", len(recs))
	}
	if recs[0].Key != "a" || recs[1].Key != "b" || recs[2].Op != OpExpire {
		t.Fatalf("Replay order not preserved: %+v", recs)
	}
}

func TestWALTruncateTail(t *testing.T) {
	w := NewWAL()
	w.Append(Record{Op: OpSet, Key: "a", HasValue: true})
	w.Append(Record{Op: OpSet, Key: "b", HasValue: true})
	w.Append(Record{Op: OpSet, Key: "c", HasValue: true})
	w.TruncateTail(2)
	if got := w.Len(); got != 1 {
		t.Fatalf("Len() after TruncateTail(2) = %d, want 1", got)
	}
	recs := w.Replay()
	if len(recs) != 1 || recs[0].Key != "a" {
		t.Fatalf("TruncateTail kept the wrong records: %+v", recs)
	}
}

func TestWALTruncateTailClampsToLength(t *testing.T) {
	w := NewWAL()
	w.Append(Record{Op: OpSet, Key: "a"})
	w.TruncateTail(10)
	if got := w.Len(); got != 0 {
		t.Fatalf("Len() after over-truncating = %d, want 0", got)
	}
}

func TestWALClear(t *testing.T) {
	w := NewWAL()
	w.Append(Record{Op: OpSet, Key: "a"})
	w.Clear()
	if got := w.Len(); got != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", got)
	}
}

func TestWALFlushIsNoop(t *testing.T) {
	w := NewWAL()
	w.Append(Record{Op: OpSet, Key: "a"})
	w.Flush()
	if got := w.Len(); got != 1 {
		t.Fatalf("Flush mutated the log: Len() = %d, want 1", got)
	}
}
