package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/a4lang/a4/host"
	"github.com/a4lang/a4/internal/fileinput"
	"github.com/a4lang/a4/vm"
)

// compileCmd compiles one or more source files into a single dictionary
// (each file's definitions accumulate into the same Host, so a later file
// may call an earlier one's words) and writes out either the framed wire
// form of §6 or, with -dump, a structured YAML listing of the resulting
// definitions -- the expansion's replacement for dumper.go's flat-memory
// text dump, walking the same definitions but rendering operands by name
// instead of by raw code offset.
type compileCmd struct {
	out  string
	dump bool
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "compile source files to the wire format or a YAML dump" }
func (*compileCmd) Usage() string {
	return `compile [-o out] [-dump] file.a4 [file.a4 ...]:
  Compile each file's definitions into one dictionary and emit it.
`
}

func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output path (default: stdout)")
	f.BoolVar(&c.dump, "dump", false, "emit a YAML listing of the compiled dictionary instead of wire bytes")
}

func (c *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	paths := f.Args()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no files given\n")
		return subcommands.ExitUsageError
	}

	h, err := host.New()
	if err != nil {
		return fatalf("%v", err)
	}
	rt := h.NewRuntime()

	for _, path := range paths {
		if err := compileFile(ctx, h, rt, path); err != nil {
			return fatalf("error: %v", err)
		}
	}

	var payload []byte
	if c.dump {
		payload, err = dumpDictionary(h.Dict, h.Prims)
	} else {
		payload, err = h.Save()
	}
	if err != nil {
		return fatalf("%v", err)
	}

	w := io.Writer(os.Stdout)
	if c.out != "" {
		file, ferr := os.Create(c.out)
		if ferr != nil {
			return fatalf("%v", ferr)
		}
		defer file.Close()
		w = file
	}
	if _, err := w.Write(payload); err != nil {
		return fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// compileFile feeds path to h line by line, using the same
// internal/fileinput scanning run.go's non-interactive evaluation uses, so a
// bad definition reports the file:line location it occurred at. Unlike run,
// only the side effect on h's dictionary matters here -- any output a
// top-level expression produces is discarded, since compile's job is to
// produce a dictionary snapshot, not to execute a program.
func compileFile(ctx context.Context, h *host.Host, rt *vm.Runtime, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	in := &fileinput.Input{Queue: []io.Reader{f}}
	evalLine := func() error {
		line := strings.TrimSpace(in.Last.Buffer.String())
		if line == "" {
			return nil
		}
		_, err := h.Eval(ctx, rt, strings.Fields(line))
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
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("%s: %w", path, rerr)
		}
	}
	// at EOF, Input rolls a trailing line with no final newline over into
	// Last, followed by the NUL rune it records for the end of input.
	if trailing := strings.TrimSpace(strings.TrimRight(in.Last.Buffer.String(), "\x00")); trailing != "" {
		_, err := h.Eval(ctx, rt, strings.Fields(trailing))
		h.Purge()
		if err != nil {
			return fmt.Errorf("%s: %w", in.Last.Location, err)
		}
	}
	return nil
}
