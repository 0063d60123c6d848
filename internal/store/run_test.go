package store

import "testing"

func entries(keys ...string) []Entry {
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Value: Present([]byte(k + "-val")), Version: 1}
	}
	return out
}

func TestNewRunSetsKeyRange(t *testing.T) {
	r := NewRun(1, 0, entries("a", "b", "c"), 1000, false)
	if r.minKey != "a" || r.maxKey != "c" {
		t.Fatalf("key range = [%q,%q], want [a,c]", r.minKey, r.maxKey)
	}
	if r.EntryCount() != 3 {
		t.Fatalf("EntryCount() = %d, want 3", r.EntryCount())
	}
}

func TestRunLookupFindsExistingKey(t *testing.T) {
	r := NewRun(1, 0, entries("a", "b", "c"), 1000, false)
	entry, found := r.Lookup("b", 1000)
	if !found {
		t.Fatalf("Lookup(b) found = false, want true")
	}
	if string(entry.Value.Bytes) != "b-val" {
		t.Fatalf("Lookup(b) value = %q, want b-val", entry.Value.Bytes)
	}
}

func TestRunLookupMissingKey(t *testing.T) {
	r := NewRun(1, 0, entries("a", "c"), 1000, false)
	if _, found := r.Lookup("b", 1000); found {
		t.Fatalf("Lookup(b) found = true, want false")
	}
}

func TestRunLookupReturnsExpiredEntryRegardlessOfExpiry(t *testing.T) {
	// Lookup has no basis for deciding whether an expired entry here
	// shadows an older live copy in a deeper run, so it always returns
	// what is structurally stored; the caller's merged read path is
	// responsible for resolving expiry into absence.
	e := Entry{Key: "a", Value: Present([]byte("v")), CreatedAt: 0, HasExpiry: true, ExpiresAt: 100}
	r := NewRun(1, 0, []Entry{e}, 0, false)
	if _, found := r.Lookup("a", 50); !found {
		t.Fatalf("Lookup before expiry should find the entry")
	}
	entry, found := r.Lookup("a", 100)
	if !found {
		t.Fatalf("Lookup at/after expiry should still find the entry; the caller decides absence")
	}
	if !entry.Expired(100) {
		t.Fatalf("returned entry should report itself as expired at nowMs=100")
	}
}

func TestRunMayContainKeyWithoutFilterAlwaysTrue(t *testing.T) {
	r := NewRun(1, 0, entries("a"), 0, false)
	if !r.MayContainKey("anything") {
		t.Fatalf("MayContainKey without a bloom filter should always be true")
	}
}

func TestRunMayContainKeyWithFilterRejectsAbsentKey(t *testing.T) {
	r := NewRun(1, 0, entries("a", "b", "c"), 0, true)
	if !r.MayContainKey("a") {
		t.Fatalf("MayContainKey(a) should be true for a present key")
	}
	if r.MayContainKey("definitely-absent-key-xyz") {
		t.Fatalf("MayContainKey reported true for an absent key on a sparse filter")
	}
}

func TestRunOverlaps(t *testing.T) {
	r1 := NewRun(1, 1, entries("a", "m"), 0, false)
	r2 := NewRun(2, 1, entries("k", "z"), 0, false)
	r3 := NewRun(3, 1, entries("n", "z"), 0, false)

	if !r1.Overlaps(r2) {
		t.Fatalf("r1 [a,m] and r2 [k,z] should overlap")
	}
	if r1.Overlaps(r3) {
		t.Fatalf("r1 [a,m] and r3 [n,z] should not overlap")
	}
}

func TestRunMetadata(t *testing.T) {
	r := NewRun(7, 2, entries("a", "b"), 1234, false)
	md := r.Metadata()
	if md.ID != 7 || md.Level != 2 || md.MinKey != "a" || md.MaxKey != "b" || md.EntryCount != 2 || md.CreatedAt != 1234 {
		t.Fatalf("Metadata() = %+v, unexpected", md)
	}
}
