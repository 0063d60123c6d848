package bloom

import "testing"

func TestNewForEntriesSizing(t *testing.T) {
	f := NewForEntries(10)
	if got := f.M(); got != 100 {
		t.Fatalf("M() = %d, want 100 (10*DefaultBitsPerEntry)", got)
	}
	if got := f.K(); got != DefaultK {
		t.Fatalf("K() = %d, want %d", got, DefaultK)
	}
}

func TestNewForEntriesZeroFloorsToOne(t *testing.T) {
	f := NewForEntries(0)
	if got := f.M(); got != DefaultBitsPerEntry {
		t.Fatalf("M() = %d, want %d for zero entries", got, DefaultBitsPerEntry)
	}
}

func TestAddThenContains(t *testing.T) {
	f := NewForEntries(5)
	keys := []string{"alpha", "beta", "gamma"}
	for _, k := range keys {
		f.Add(k)
	}
	for _, k := range keys {
		if !f.Contains(k) {
			t.Errorf("Contains(%q) = false, want true after Add", k)
		}
	}
}

func TestContainsAbsentKeyCanBeFalse(t *testing.T) {
	f := NewForEntries(1000)
	f.Add("present")
	if f.Contains("definitely-not-present-xyz") {
		// Bloom filters may false-positive but with m=10000,k=3 and a
		// single added key this should not happen in practice.
		t.Fatalf("Contains reported true for a key that was never added and the filter is far from saturated")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	f := NewForEntries(4)
	f.Add("one")
	f.Add("two")
	snap := f.Export()
	if len(snap.Bits) != int(f.M()) {
		t.Fatalf("Export Bits length = %d, want %d", len(snap.Bits), f.M())
	}

	imported := Import(snap)
	if imported.M() != f.M() || imported.K() != f.K() {
		t.Fatalf("Import produced (m=%d,k=%d), want (m=%d,k=%d)", imported.M(), imported.K(), f.M(), f.K())
	}
	for _, k := range []string{"one", "two"} {
		if !imported.Contains(k) {
			t.Errorf("imported filter lost membership of %q", k)
		}
	}
}

func TestProbesAreDeterministic(t *testing.T) {
	f := New(1000, 3)
	a := f.probes("same-key")
	b := f.probes("same-key")
	if len(a) != len(b) {
		t.Fatalf("probes length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("probes(%q) not deterministic at index %d: %d vs %d", "same-key", i, a[i], b[i])
		}
	}
}
