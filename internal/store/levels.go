package store

// LMax is the deepest level a run can occupy.
const LMax = 6

// NumLevels is the total number of levels, 0..LMax inclusive.
const NumLevels = LMax + 1

// Levels is the level-indexed collection of runs: [[Run]; L_MAX+1]. L0
// is ordered by creation time (oldest first); L1+ are ordered by
// min_key once the overlap-free invariant holds after compaction.
type Levels struct {
	runs [NumLevels][]*Run
}

// NewLevels constructs an empty level set.
func NewLevels() *Levels {
	return &Levels{}
}

// At returns the runs currently stored at level l.
func (lv *Levels) At(l int) []*Run { return lv.runs[l] }

// Append adds a run to the end of level l's slice.
func (lv *Levels) Append(l int, r *Run) {
	lv.runs[l] = append(lv.runs[l], r)
}

// Replace swaps level l's contents wholesale, used after a compaction
// step removes consumed inputs.
func (lv *Levels) Replace(l int, rs []*Run) {
	lv.runs[l] = rs
}

// RemoveByID drops a run by identity from level l.
func (lv *Levels) RemoveByID(l int, id uint64) {
	out := lv.runs[l][:0:0]
	for _, r := range lv.runs[l] {
		if r.ID != id {
			out = append(out, r)
		}
	}
	lv.runs[l] = out
}

// TotalRuns counts runs across all levels.
func (lv *Levels) TotalRuns() int {
	n := 0
	for l := 0; l < NumLevels; l++ {
		n += len(lv.runs[l])
	}
	return n
}

// All returns every run across every level, L0 first.
func (lv *Levels) All() []*Run {
	var out []*Run
	for l := 0; l < NumLevels; l++ {
		out = append(out, lv.runs[l]...)
	}
	return out
}
