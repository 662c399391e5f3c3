package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/a4lang/a4/host"
	"github.com/a4lang/a4/internal/fileinput"
	"github.com/a4lang/a4/internal/flushio"
	"github.com/a4lang/a4/internal/logio"
	"github.com/a4lang/a4/internal/runeio"
)

// runCmd executes one or more source files non-interactively, generalizing
// informatter-nilan's own runCmd (cmd_run.go: read file, compile, execute,
// report a non-zero exit on the first error) from a single file to however
// many are given, each running concurrently against its own Host and
// Runtime via golang.org/x/sync/errgroup, matching the concurrent-evaluation
// expansion of §5. A -timeout bounds the context every file's evaluation
// loop checks between steps, the same cooperative cancellation the teacher's
// own VM.Run(ctx) already honored. Line scanning goes through
// internal/fileinput.Input, the teacher's own sequential rune reader, so a
// compile error reports the file:line location it occurred at.
type runCmd struct {
	memLimit int
	timeout  time.Duration
	trace    bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute one or more source files" }
func (*runCmd) Usage() string {
	return `run [-mem-limit N] [-timeout D] [-trace] file.a4 [file.a4 ...]:
  Compile and execute each file against its own runtime, concurrently.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	cfg := loadConfig()
	f.IntVar(&c.memLimit, "mem-limit", cfg.MemLimit, "bound data/return/flow stacks to N elements (0 = unbounded)")
	f.DurationVar(&c.timeout, "timeout", cfg.Timeout, "cancel evaluation after this long (0 = unbounded)")
	f.BoolVar(&c.trace, "trace", cfg.Trace, "attach a TRACE logger on stderr to the host (no compiler or evaluation trace is written to it)")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	paths := f.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no files given\n")
		return subcommands.ExitUsageError
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := newLogger()
	group, gctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		group.Go(func() error { return c.runFile(gctx, log, path) })
	}
	if err := group.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *runCmd) runFile(ctx context.Context, log *logio.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	opts := []host.Option{}
	if c.memLimit > 0 {
		opts = append(opts, host.WithMemLimit(c.memLimit))
	}
	if c.trace {
		opts = append(opts, host.WithLogf(log.Leveledf("TRACE["+path+"]")))
	}
	h, err := host.New(opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	rt := h.NewRuntime()

	in := &fileinput.Input{Queue: []io.Reader{f}}
	var out strings.Builder
	evalLine := func() error {
		line := strings.TrimSpace(in.Last.Buffer.String())
		if line == "" {
			return nil
		}
		got, err := h.Eval(ctx, rt, strings.Fields(line))
		out.WriteString(got)
		h.Purge()
		if err != nil {
			return fmt.Errorf("%s: %w", in.Last.Location, err)
		}
		return nil
	}

	for {
		r, _, rerr := in.ReadRune()
		if r == '\n' {
			if err := evalLine(); err != nil {
				flushOutput(out.String())
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			flushOutput(out.String())
			return fmt.Errorf("%s: %w", path, rerr)
		}
	}
	// at EOF, Input rolls a trailing line with no final newline over into
	// Last, followed by the NUL rune it records for the end of input.
	if trailing := strings.TrimSpace(strings.TrimRight(in.Last.Buffer.String(), "\x00")); trailing != "" {
		got, err := h.Eval(ctx, rt, strings.Fields(trailing))
		out.WriteString(got)
		h.Purge()
		if err != nil {
			flushOutput(out.String())
			return fmt.Errorf("%s: %w", in.Last.Location, err)
		}
	}
	flushOutput(out.String())
	return nil
}

// flushOutput writes s to stdout through the ANSI-safe rune writer (emit can
// push any Unicode scalar value, including C1 controls) buffered by
// flushio.WriteFlusher, the same pairing repl.go uses for interactive
// output. No-op on an empty string, since concurrent files otherwise
// contend for stdout on every empty write.
func flushOutput(s string) {
	if s == "" {
		return
	}
	w := flushio.NewWriteFlusher(os.Stdout)
	runeio.WriteANSIString(w, s)
	w.Flush()
}
