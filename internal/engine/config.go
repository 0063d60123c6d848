package engine

// Config holds the tunables the core recognizes, following the
// teacher's plain-struct-plus-defaults config style (no config-loading
// library appears anywhere in the retrieval pack).
type Config struct {
	// MaxMemtableSizeMB is the flush threshold in megabytes.
	MaxMemtableSizeMB int64
	// CompactionIntervalMs is the period of the background compaction
	// tick.
	CompactionIntervalMs int64
	// EnableBloomFilter controls whether flushed/compacted runs build a
	// bloom filter over their keys.
	EnableBloomFilter bool
	// LogLevel is an observer concern (debug/info/warn/error); the core
	// itself does not read it and writes no log lines of its own.
	LogLevel string
	// TTLSweepIntervalMs is the period of the background random-sample
	// expiry sweep.
	TTLSweepIntervalMs int64
	// TTLSweepSampleSize is the number of keys sampled per sweep tick.
	TTLSweepSampleSize int
}

// DefaultConfig returns the production defaults from the spec.
func DefaultConfig() Config {
	return Config{
		MaxMemtableSizeMB:    64,
		CompactionIntervalMs: 60000,
		EnableBloomFilter:    true,
		LogLevel:             "info",
		TTLSweepIntervalMs:   1000,
		TTLSweepSampleSize:   20,
	}
}

// MemtableThresholdBytes converts MaxMemtableSizeMB to bytes for the
// memtable's ShouldFlush check.
func (c Config) MemtableThresholdBytes() int64 {
	return c.MaxMemtableSizeMB * 1024 * 1024
}
