package engine

import "example.com/lsmkv/internal/store"

// Observer receives lifecycle events published by the engine, the way
// jeremytregunna-kevo's WALEntryObserver lets replication/metrics
// collectors watch the WAL without the WAL knowing about them.
// Observers receive copies of event payloads; they never hold
// references into live engine state.
type Observer interface {
	OnSet(key string, value []byte, ttlMs int64, hasTTL bool)
	OnGet(key string, found bool)
	OnDel(key string, deleted bool)
	OnExpire(key string, ttlMs int64)
	OnFlush(runsAfterL0 int)
	OnCompactionStart(level int)
	OnCompactionEnd(level int, stats store.Stats)
	OnError(code ErrorCode, message string)
}

// NoopObserver implements Observer with no-op methods so callers can
// embed it and override only the events they care about.
type NoopObserver struct{}

func (NoopObserver) OnSet(string, []byte, int64, bool)       {}
func (NoopObserver) OnGet(string, bool)                      {}
func (NoopObserver) OnDel(string, bool)                       {}
func (NoopObserver) OnExpire(string, int64)                   {}
func (NoopObserver) OnFlush(int)                               {}
func (NoopObserver) OnCompactionStart(int)                     {}
func (NoopObserver) OnCompactionEnd(int, store.Stats)          {}
func (NoopObserver) OnError(ErrorCode, string)                 {}

func (e *Engine) publishSet(key string, value []byte, ttlMs int64, hasTTL bool) {
	for _, o := range e.observers {
		o.OnSet(key, value, ttlMs, hasTTL)
	}
}

func (e *Engine) publishGet(key string, found bool) {
	for _, o := range e.observers {
		o.OnGet(key, found)
	}
}

func (e *Engine) publishDel(key string, deleted bool) {
	for _, o := range e.observers {
		o.OnDel(key, deleted)
	}
}

func (e *Engine) publishExpire(key string, ttlMs int64) {
	for _, o := range e.observers {
		o.OnExpire(key, ttlMs)
	}
}

func (e *Engine) publishFlush(runsAfterL0 int) {
	for _, o := range e.observers {
		o.OnFlush(runsAfterL0)
	}
}

func (e *Engine) publishCompactionStart(level int) {
	for _, o := range e.observers {
		o.OnCompactionStart(level)
	}
}

func (e *Engine) publishCompactionEnd(level int, stats store.Stats) {
	for _, o := range e.observers {
		o.OnCompactionEnd(level, stats)
	}
}

func (e *Engine) publishError(code ErrorCode, message string) {
	for _, o := range e.observers {
		o.OnError(code, message)
	}
}
