package engine

// MemtableInfo summarizes the active memtable for INFO.
type MemtableInfo struct {
	SizeBytes       int64
	EntryCount      int
	OldestCreatedAt int64
	NewestCreatedAt int64
}

// RunInfo summarizes a single run for INFO.
type RunInfo struct {
	ID         uint64
	Level      int
	MinKey     string
	MaxKey     string
	SizeBytes  int64
	EntryCount int
	CreatedAt  int64
}

// CompactionRecord is one entry of INFO's compaction_history.
type CompactionRecord struct {
	Level          int
	InputFiles     int
	OutputFiles    int
	InputBytes     int64
	OutputBytes    int64
	DurationMs     int64
	EntriesIn      int
	EntriesDropped int
}

// Stats is the canonical INFO shape described by the engine's external
// interface.
type Stats struct {
	Memtable          MemtableInfo
	Runs              []RunInfo
	TotalSizeBytes    int64
	TotalEntries      int
	CompactionHistory []CompactionRecord
}

func (e *Engine) buildInfo() Stats {
	oldest, newest, _ := e.memtable.OldestNewestCreatedAt()
	info := Stats{
		Memtable: MemtableInfo{
			SizeBytes:       e.memtable.SizeBytes(),
			EntryCount:      e.memtable.EntryCount(),
			OldestCreatedAt: oldest,
			NewestCreatedAt: newest,
		},
		TotalSizeBytes: e.memtable.SizeBytes(),
	}

	for _, r := range e.levels.All() {
		md := r.Metadata()
		info.Runs = append(info.Runs, RunInfo{
			ID:         md.ID,
			Level:      md.Level,
			MinKey:     md.MinKey,
			MaxKey:     md.MaxKey,
			SizeBytes:  md.SizeBytes,
			EntryCount: md.EntryCount,
			CreatedAt:  md.CreatedAt,
		})
		info.TotalSizeBytes += md.SizeBytes
	}

	info.TotalEntries = e.liveKeyCount()

	for _, s := range e.compactor.History() {
		info.CompactionHistory = append(info.CompactionHistory, CompactionRecord{
			Level:          s.Level,
			InputFiles:     s.InputRunCount,
			OutputFiles:    s.OutputRunCount,
			InputBytes:     s.InputBytes,
			OutputBytes:    s.OutputBytes,
			DurationMs:     s.DurationMs,
			EntriesIn:      s.EntriesIn,
			EntriesDropped: s.EntriesDropped,
		})
	}
	return info
}

// liveKeyCount returns the deduplicated count of live keys across the
// memtable and all runs, via the same structural precedence Get uses.
func (e *Engine) liveKeyCount() int {
	return len(e.collectKeys(nil))
}
