package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/a4lang/a4/host"
	"github.com/a4lang/a4/internal/flushio"
	"github.com/a4lang/a4/internal/runeio"
)

// replCmd starts an interactive session, reading one line at a time and
// evaluating it against a single Host+Runtime pair that persists across
// lines, the same shape as informatter-nilan's own repl() loop generalized
// from bufio.Scanner to github.com/chzyer/readline for history and editing.
type replCmd struct {
	memLimit int
	trace    bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive session" }
func (*replCmd) Usage() string {
	return `repl [-mem-limit N] [-trace]:
  Start an interactive read-eval-print loop.
`
}

func (c *replCmd) SetFlags(f *flag.FlagSet) {
	cfg := loadConfig()
	f.IntVar(&c.memLimit, "mem-limit", cfg.MemLimit, "bound data/return/flow stacks to N elements (0 = unbounded)")
	f.BoolVar(&c.trace, "trace", cfg.Trace, "attach a TRACE logger on stderr to the host (no compiler or evaluation trace is written to it)")
}

func (c *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts := []host.Option{}
	if c.memLimit > 0 {
		opts = append(opts, host.WithMemLimit(c.memLimit))
	}
	log := newLogger()
	if c.trace {
		opts = append(opts, host.WithLogf(log.Leveledf("TRACE")))
	}
	h, err := host.New(opts...)
	if err != nil {
		return fatalf("failed to start host: %v", err)
	}
	rt := h.NewRuntime()

	rl, err := readline.NewEx(&readline.Config{Prompt: "a4> "})
	if err != nil {
		return fatalf("failed to start readline: %v", err)
	}
	defer rl.Close()

	// emit can push any Unicode scalar value, including C1 controls; route
	// it through the same ANSI-safe writer gothird's own terminal I/O used,
	// rather than a bare fmt.Print that would pass raw control bytes through.
	out := flushio.NewWriteFlusher(os.Stdout)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			return fatalf("%v", err)
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		result, err := h.Eval(ctx, rt, tokens)
		if result != "" {
			runeio.WriteANSIString(out, result)
			out.Flush()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		h.Purge()
	}
}
