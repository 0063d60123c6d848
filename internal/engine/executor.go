package engine

import (
	"context"
	"math/rand"
	"time"
)

// request pairs a Command with the channel its Response is delivered
// on, the way a single-writer actor hands work back to its caller
// without exposing any lock.
type request struct {
	cmd    Command
	result chan Response
}

// Start launches the command executor's goroutine. It must be called
// exactly once, before any Submit. Compaction ticks and the TTL sweep
// are interleaved cooperatively with command processing on the same
// goroutine, so neither ever races a command.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.started = true
	go e.run()
}

// Close stops the executor goroutine. Submit calls made after Close
// returns an error.
func (e *Engine) Close() {
	if !e.started {
		return
	}
	close(e.closeCh)
}

// Submit hands a command to the executor and waits for its response or
// ctx's cancellation, whichever comes first. The command itself always
// runs to completion even if ctx is cancelled while waiting; there is
// no partial execution.
func (e *Engine) Submit(ctx context.Context, cmd Command) (Response, error) {
	result := make(chan Response, 1)
	select {
	case e.reqCh <- request{cmd: cmd, result: result}:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-e.closeCh:
		return Response{}, context.Canceled
	}
	select {
	case resp := <-result:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (e *Engine) run() {
	compactionTick := time.NewTicker(time.Duration(e.cfg.CompactionIntervalMs) * time.Millisecond)
	sweepTick := time.NewTicker(time.Duration(e.cfg.TTLSweepIntervalMs) * time.Millisecond)
	defer compactionTick.Stop()
	defer sweepTick.Stop()

	for {
		select {
		case <-e.closeCh:
			return
		case req := <-e.reqCh:
			resp := e.execute(req.cmd)
			req.result <- resp
		case <-compactionTick.C:
			e.maybeCompact()
		case <-sweepTick.C:
			e.sweepExpired()
		}
	}
}

// execute validates cmd, dispatches to the engine's business logic, and
// publishes the matching lifecycle event before returning a Response.
func (e *Engine) execute(cmd Command) Response {
	if err := validate(cmd); err != nil {
		e.publishError(err.Code, err.Message)
		return Response{ID: cmd.ID, Err: err}
	}

	switch cmd.Name {
	case CmdSet:
		e.doSet(cmd.Args.Key, cmd.Args.Value, cmd.Args.TTLMs, cmd.Args.HasTTL)
		return Response{ID: cmd.ID, Result: "OK"}

	case CmdGet:
		val, found := e.get(cmd.Args.Key)
		e.publishGet(cmd.Args.Key, found)
		if !found {
			return Response{ID: cmd.ID, Result: nil}
		}
		return Response{ID: cmd.ID, Result: val}

	case CmdDel:
		deleted := e.doDel(cmd.Args.Key)
		return Response{ID: cmd.ID, Result: deleted}

	case CmdExists:
		return Response{ID: cmd.ID, Result: e.exists(cmd.Args.Key)}

	case CmdExpire:
		ok := e.doExpire(cmd.Args.Key, cmd.Args.TTLMs)
		return Response{ID: cmd.ID, Result: ok}

	case CmdTTL:
		return Response{ID: cmd.ID, Result: e.ttl(cmd.Args.Key)}

	case CmdIncr:
		val, cerr := e.incrDecr(cmd.Args.Key, 1)
		if cerr != nil {
			e.publishError(cerr.Code, cerr.Message)
			return Response{ID: cmd.ID, Err: cerr}
		}
		return Response{ID: cmd.ID, Result: val}

	case CmdDecr:
		val, cerr := e.incrDecr(cmd.Args.Key, -1)
		if cerr != nil {
			e.publishError(cerr.Code, cerr.Message)
			return Response{ID: cmd.ID, Err: cerr}
		}
		return Response{ID: cmd.ID, Result: val}

	case CmdKeys:
		matcher, cerr := compilePattern(cmd.Args.Pattern, cmd.Args.HasPattern)
		if cerr != nil {
			e.publishError(cerr.Code, cerr.Message)
			return Response{ID: cmd.ID, Err: cerr}
		}
		return Response{ID: cmd.ID, Result: e.collectKeys(matcher)}

	case CmdMGet:
		out := make([]interface{}, len(cmd.Args.Keys))
		for i, k := range cmd.Args.Keys {
			if val, found := e.get(k); found {
				out[i] = val
			} else {
				out[i] = nil
			}
		}
		return Response{ID: cmd.ID, Result: out}

	case CmdMSet:
		for _, it := range cmd.Args.Items {
			e.doSet(it.Key, it.Value, it.TTLMs, it.HasTTL)
		}
		return Response{ID: cmd.ID, Result: "OK"}

	case CmdFlushAll:
		e.flushAll()
		return Response{ID: cmd.ID, Result: "OK"}

	case CmdInfo:
		return Response{ID: cmd.ID, Result: e.buildInfo()}

	default:
		err := validationError("unknown command %q", cmd.Name)
		e.publishError(err.Code, err.Message)
		return Response{ID: cmd.ID, Err: err}
	}
}

// sweepExpired proactively reclaims expired memtable entries, so idle
// keys do not wait for a lookup to be evicted. Listing the live keys
// with MemTable.Keys already evicts every expired entry it passes; a
// random sample of up to TTLSweepSampleSize of the remaining keys (with
// or without a TTL) is then looked up with MemTable.Get, which evicts
// lazily on access. It never touches runs: a run's expired entries
// resolve to absent at read time and are dropped only during
// compaction.
func (e *Engine) sweepExpired() {
	now := e.clock.NowMs()
	all := e.memtable.Keys(nil, now)
	if len(all) == 0 {
		return
	}
	n := e.cfg.TTLSweepSampleSize
	if n <= 0 || n >= len(all) {
		for _, k := range all {
			e.memtable.Get(k, now)
		}
		return
	}
	for _, i := range rand.Perm(len(all))[:n] {
		e.memtable.Get(all[i], now)
	}
}
