// Command a4 is the CLI frontend onto the host package: an interactive repl,
// a non-interactive run over one or more source files, and a compile command
// that serializes a dictionary to the wire format of §6 (optionally as a
// -dump YAML listing instead of framed bytes). The subcommand shape is
// grounded on informatter-nilan's own cmd_repl.go/cmd_run.go, registered
// here through github.com/google/subcommands the way that package expects
// -- informatter-nilan defines the same xCmd methods but never actually
// calls subcommands.Register in its main, so the registration glue below is
// written fresh from the subcommands package's own documented usage rather
// than copied from a non-existent call site.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/a4lang/a4/internal/logio"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&compileCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// nopWriteCloser adapts an io.Writer that outlives the CLI invocation (such
// as os.Stderr) to the io.WriteCloser logio.Logger.SetOutput requires.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newLogger builds a logio.Logger writing to stderr, matching the teacher's
// own -trace destination in main.go.
func newLogger() *logio.Logger {
	log := &logio.Logger{}
	log.SetOutput(nopWriteCloser{os.Stderr})
	return log
}

func fatalf(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
