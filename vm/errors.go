// Package vm implements the stepwise bytecode interpreter: the three value
// stacks, the primitive registry's calling convention, and the Runtime that
// steps a frame at a time, yielding back to its host at every primitive call
// and sub-definition entry.
//
// The design is generic over the stack implementation (vm.Stack) so that the
// same Runtime logic runs unmodified against a host's dynamically growing
// stacks or an embedded caller's fixed-capacity ones; see ArrayStack and
// SliceStack.
package vm

import "fmt"

// Kind enumerates the error conditions a Runtime, Stack, or compiler can
// report. These match §7 of the language specification exactly; no other
// error kinds exist.
type Kind int

const (
	_ Kind = iota

	// OutputFormat indicates a write to the output sink failed.
	OutputFormat
	// Input indicates a read from the driver's input failed.
	Input

	// DataStackUnderflow indicates a pop from an empty data stack.
	DataStackUnderflow
	// DataStackEmpty indicates a peek of an empty data stack.
	DataStackEmpty
	// RetStackEmpty indicates a pop or peek of an empty return stack.
	RetStackEmpty
	// FlowStackEmpty indicates a pop or peek of an empty flow stack.
	FlowStackEmpty

	// StackOverflow indicates a bounded stack was full on push.
	StackOverflow

	// BadMath indicates a checked arithmetic operation failed (loop-counter
	// overflow, cursor overflow).
	BadMath

	// MissingIfPair indicates an "if" without a matching "then", or a
	// "then"/"else" without a matching "if".
	MissingIfPair
	// MissingElsePair indicates an "else" without a matching "then".
	MissingElsePair
	// MissingLoopPair indicates a "do" without a matching "loop".
	MissingLoopPair
	// MissingDoPair indicates a "loop" without a matching "do".
	MissingDoPair

	// InternalError indicates an unreachable code path was reached; the
	// compiler and codec also report it for an unknown token, a definition
	// with no name, a missing required primitive, and malformed wire data.
	InternalError
)

var kindNames = [...]string{
	"",
	"OutputFormat",
	"Input",
	"DataStackUnderflow",
	"DataStackEmpty",
	"RetStackEmpty",
	"FlowStackEmpty",
	"StackOverflow",
	"BadMath",
	"MissingIfPair",
	"MissingElsePair",
	"MissingLoopPair",
	"MissingDoPair",
	"InternalError",
}

func (k Kind) String() string {
	if i := int(k); i >= 0 && i < len(kindNames) {
		return kindNames[i]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error wraps a Kind with optional context, matching the `Error` enum of the
// specification's §7. It is deliberately a flat value type: the interpreter
// never needs to chain errors, only classify and reset on them.
type Error struct {
	Kind Kind
	Mess string
}

func (err Error) Error() string {
	if err.Mess == "" {
		return err.Kind.String()
	}
	return fmt.Sprintf("%v: %v", err.Kind, err.Mess)
}

// Is reports whether target is an Error with the same Kind, so that callers
// may use errors.Is(err, vm.Err(vm.BadMath)).
func (err Error) Is(target error) bool {
	other, ok := target.(Error)
	return ok && other.Kind == err.Kind
}

// Err builds a bare Error of the given kind.
func Err(k Kind) error { return Error{Kind: k} }

// Errf builds an Error of the given kind with a formatted message.
func Errf(k Kind, format string, args ...interface{}) error {
	return Error{Kind: k, Mess: fmt.Sprintf(format, args...)}
}
