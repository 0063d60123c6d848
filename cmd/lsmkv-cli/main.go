// Command lsmkv-cli is an interactive shell driving an engine in the
// same process: no network hop, one readline loop submitting commands
// to the executor and printing its responses.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"example.com/lsmkv/internal/clock"
	"example.com/lsmkv/internal/engine"
)

var verbs = []string{
	"SET", "GET", "DEL", "EXISTS", "EXPIRE", "TTL",
	"INCR", "DECR", "KEYS", "MGET", "MSET", "FLUSHALL", "INFO", "HELP", "QUIT",
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lsmkv_history")
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(verbs))
	for _, v := range verbs {
		items = append(items, readline.PcItem(v))
	}
	return readline.NewPrefixCompleter(items...)
}

func main() {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, clock.System{})
	eng.RegisterObserver(&logObserver{logger: log.New(os.Stderr, "lsmkv: ", log.LstdFlags)})
	eng.Start()
	defer eng.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lsmkv> ",
		HistoryFile:     historyFilePath(),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	fmt.Println("lsmkv interactive shell. Type HELP for the command list, QUIT to exit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("read error: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if upper == "QUIT" || upper == "EXIT" {
			return
		}
		if upper == "HELP" {
			printHelp()
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		resp, err := eng.Submit(ctx, cmd)
		cancel()
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		if resp.Err != nil {
			fmt.Printf("(error) %s: %s\n", resp.Err.Code, resp.Err.Message)
			continue
		}
		printResult(resp.Result)
	}
}

var cmdCounter int

func nextID() string {
	cmdCounter++
	return strconv.Itoa(cmdCounter)
}

// parseLine tokenizes a single REPL line into a Command. Values and
// keys are taken as whitespace-separated tokens; there is no quoting
// syntax, matching the plain space-separated surface the engine's
// external interface describes.
func parseLine(line string) (engine.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return engine.Command{}, fmt.Errorf("empty command")
	}
	name := engine.Name(strings.ToUpper(fields[0]))
	args := fields[1:]
	cmd := engine.Command{ID: nextID(), Name: name}

	switch name {
	case engine.CmdSet:
		if len(args) < 2 {
			return cmd, fmt.Errorf("usage: SET key value [ttl_ms]")
		}
		cmd.Args.HasKey, cmd.Args.Key = true, args[0]
		cmd.Args.HasValue, cmd.Args.Value = true, []byte(args[1])
		if len(args) >= 3 {
			ttl, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return cmd, fmt.Errorf("invalid ttl_ms: %v", err)
			}
			cmd.Args.HasTTL, cmd.Args.TTLMs = true, ttl
		}
	case engine.CmdGet, engine.CmdDel, engine.CmdExists, engine.CmdTTL, engine.CmdIncr, engine.CmdDecr:
		if len(args) != 1 {
			return cmd, fmt.Errorf("usage: %s key", name)
		}
		cmd.Args.HasKey, cmd.Args.Key = true, args[0]
	case engine.CmdExpire:
		if len(args) != 2 {
			return cmd, fmt.Errorf("usage: EXPIRE key ttl_ms")
		}
		ttl, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return cmd, fmt.Errorf("invalid ttl_ms: %v", err)
		}
		cmd.Args.HasKey, cmd.Args.Key = true, args[0]
		cmd.Args.HasTTL, cmd.Args.TTLMs = true, ttl
	case engine.CmdKeys:
		if len(args) > 1 {
			return cmd, fmt.Errorf("usage: KEYS [pattern]")
		}
		if len(args) == 1 {
			cmd.Args.HasPattern, cmd.Args.Pattern = true, args[0]
		}
	case engine.CmdMGet:
		if len(args) == 0 {
			return cmd, fmt.Errorf("usage: MGET key [key...]")
		}
		cmd.Args.Keys = args
	case engine.CmdMSet:
		if len(args) == 0 || len(args)%2 != 0 {
			return cmd, fmt.Errorf("usage: MSET key value [key value...]")
		}
		for i := 0; i < len(args); i += 2 {
			cmd.Args.Items = append(cmd.Args.Items, engine.SetItem{Key: args[i], Value: []byte(args[i+1])})
		}
	case engine.CmdFlushAll, engine.CmdInfo:
		// no arguments
	default:
		return cmd, fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd, nil
}

func printResult(result interface{}) {
	switch v := result.(type) {
	case nil:
		fmt.Println("(nil)")
	case []byte:
		fmt.Printf("%q\n", string(v))
	case string:
		fmt.Println(v)
	case bool:
		fmt.Println(v)
	case int64:
		fmt.Println(v)
	case []string:
		if len(v) == 0 {
			fmt.Println("(empty)")
			return
		}
		for i, k := range v {
			fmt.Printf("%d) %q\n", i+1, k)
		}
	case []interface{}:
		for i, item := range v {
			if item == nil {
				fmt.Printf("%d) (nil)\n", i+1)
				continue
			}
			if b, ok := item.([]byte); ok {
				fmt.Printf("%d) %q\n", i+1, string(b))
				continue
			}
			fmt.Printf("%d) %v\n", i+1, item)
		}
	case engine.Stats:
		printStats(v)
	default:
		fmt.Printf("%v\n", v)
	}
}

func printStats(s engine.Stats) {
	fmt.Printf("memtable: size_bytes=%d entries=%d\n", s.Memtable.SizeBytes, s.Memtable.EntryCount)
	fmt.Printf("total_size_bytes=%d total_entries=%d\n", s.TotalSizeBytes, s.TotalEntries)
	fmt.Printf("runs: %d\n", len(s.Runs))
	for _, r := range s.Runs {
		fmt.Printf("  L%d run#%d [%q,%q] entries=%d size=%d\n", r.Level, r.ID, r.MinKey, r.MaxKey, r.EntryCount, r.SizeBytes)
	}
	fmt.Printf("compaction_history: %d records\n", len(s.CompactionHistory))
}

func printHelp() {
	fmt.Println("commands:")
	fmt.Println("  SET key value [ttl_ms]")
	fmt.Println("  GET key")
	fmt.Println("  DEL key")
	fmt.Println("  EXISTS key")
	fmt.Println("  EXPIRE key ttl_ms")
	fmt.Println("  TTL key")
	fmt.Println("  INCR key / DECR key")
	fmt.Println("  KEYS [pattern]")
	fmt.Println("  MGET key [key...]")
	fmt.Println("  MSET key value [key value...]")
	fmt.Println("  FLUSHALL")
	fmt.Println("  INFO")
	fmt.Println("  QUIT")
}

// logObserver prints one line per error event to a logger, the way the
// engine's ambient stack wires observability in without involving the
// storage path itself. All other lifecycle events fall through to
// NoopObserver and are not logged.
type logObserver struct {
	engine.NoopObserver
	logger *log.Logger
}

func (o *logObserver) OnError(code engine.ErrorCode, message string) {
	o.logger.Printf("error code=%s message=%q", code, message)
}
