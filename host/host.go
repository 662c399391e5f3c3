// Package host implements the driving loop a4's CLI and embedders share: the
// resolution of vm.Runtime's yields against a dict.Dictionary and
// vm.Primitives, wired to a compiler.Compiler and a codec-backed save/load
// path. It generalizes Context in the anachro-forth compiler
// (original_source/core/src/compiler.rs), which plays the identical role of
// gluing Dict+Runtime+Compiler together behind a single evaluate/run entry
// point.
package host

import (
	"context"

	"github.com/a4lang/a4/builtins"
	"github.com/a4lang/a4/codec"
	"github.com/a4lang/a4/compiler"
	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/internal/panicerr"
	"github.com/a4lang/a4/vm"
)

// Host owns the dictionary, primitive registry, and compiler a running
// session shares across however many lines or files it evaluates.
// MemLimit, when non-zero, bounds each value stack it builds to an
// ArrayStack of that capacity, giving the embedded-variant resource
// ceiling of spec.md §5 to a host that wants it without recompiling.
type Host struct {
	Dict     *dict.Dictionary
	Prims    *vm.Primitives
	Compiler *compiler.Compiler
	MemLimit int
	Logf     func(mess string, args ...interface{})
}

// Option configures a Host at construction.
type Option func(*Host)

// WithMemLimit bounds every Runtime this Host builds to fixed-capacity
// stacks of the given size (0 means unbounded).
func WithMemLimit(n int) Option { return func(h *Host) { h.MemLimit = n } }

// WithLogf stores a trace function in Host.Logf. Nothing in this package or
// the compiler calls it: no muncher transitions or evaluation steps are
// logged through it.
func WithLogf(logf func(mess string, args ...interface{})) Option {
	return func(h *Host) { h.Logf = logf }
}

// WithPrimitives overrides the primitive registry instead of the default
// builtins.Register, for embedders that want a narrower or additional set.
func WithPrimitives(prims *vm.Primitives) Option {
	return func(h *Host) { h.Prims = prims }
}

// New builds a Host with a fresh Dictionary and, unless overridden by
// WithPrimitives, the full builtins.Register primitive set.
func New(opts ...Option) (*Host, error) {
	h := &Host{Dict: dict.New()}
	for _, opt := range opts {
		opt(h)
	}
	if h.Prims == nil {
		h.Prims = vm.NewPrimitives()
		builtins.Register(h.Prims)
	}
	c, err := compiler.New(h.Dict, h.Prims)
	if err != nil {
		return nil, err
	}
	h.Compiler = c
	return h, nil
}

// NewRuntime builds a Runtime over this Host's configured resource ceiling:
// dynamic SliceStacks when MemLimit is zero, capacity-bounded ArrayStacks
// otherwise.
func (h *Host) NewRuntime() *vm.Runtime {
	if h.MemLimit <= 0 {
		return vm.NewRuntime(
			vm.NewSliceStack[int32](vm.DataStackUnderflow, vm.DataStackEmpty),
			vm.NewSliceStack[int32](vm.RetStackEmpty, vm.RetStackEmpty),
			vm.NewSliceFlowStack(),
		)
	}
	return vm.NewRuntime(
		vm.NewArrayStack[int32](h.MemLimit, vm.DataStackUnderflow, vm.DataStackEmpty),
		vm.NewArrayStack[int32](h.MemLimit, vm.RetStackEmpty, vm.RetStackEmpty),
		vm.NewArrayFlowStack(h.MemLimit),
	)
}

// Eval tokenizes and evaluates one source line against rt: a `: name ... ;`
// form is compiled and bound in the dictionary with nothing executed; any
// other non-blank line is compiled, bound under a synthesized anonymous
// name, and driven to completion. It returns everything the run wrote to
// rt's sink. A failed compile leaves the dictionary untouched, per §4.1.
//
// Eval recovers a panic raised while compiling or stepping (such as a
// panicking primitive) via internal/panicerr.Recover, surfacing it as
// vm.Error{Kind: InternalError}
// rather than letting it cross into the caller's goroutine, matching the
// teacher's own VM.Run boundary.
func (h *Host) Eval(ctx context.Context, rt *vm.Runtime, tokens []string) (string, error) {
	var out string
	err := panicerr.Recover("host.Eval", func() error {
		res, err := h.Compiler.Evaluate(tokens)
		if err != nil {
			return err
		}
		if res.Empty || res.Named {
			return nil
		}
		out, err = h.drive(ctx, rt, vm.CallWord(res.Ref))
		return err
	})
	if err != nil && !panicerr.IsPanic(err) {
		return out, err
	}
	if err != nil {
		return out, vm.Errf(vm.InternalError, "%v", err)
	}
	return out, nil
}

// drive steps rt to completion, resolving YieldPrimitive against h.Prims and
// YieldCall by fetching from h.Dict, exactly as the specification's §4.3
// yield contract requires. ctx is checked between steps so a -timeout
// budget (or any other cancellation) can interrupt a runaway script.
func (h *Host) drive(ctx context.Context, rt *vm.Runtime, entry vm.Word) (string, error) {
	if err := rt.PushExec(entry); err != nil {
		return "", err
	}
	for {
		if err := ctx.Err(); err != nil {
			return rt.Sink.Exchange(), err
		}
		sres, err := rt.Step()
		if err != nil {
			return rt.Sink.Exchange(), err
		}
		switch sres.Outcome {
		case vm.Done:
			return rt.Sink.Exchange(), nil
		case vm.YieldPrimitive:
			if err := h.Prims.Call(rt, sres.Prim); err != nil {
				return rt.Sink.Exchange(), err
			}
		case vm.YieldCall:
			def := h.Dict.Get(sres.Def)
			var words []vm.Word
			if def != nil {
				words = def.Words
			}
			if sres.Cursor < len(words) {
				w := words[sres.Cursor]
				if err := rt.ProvideSequence(&w); err != nil {
					return rt.Sink.Exchange(), err
				}
			} else if err := rt.ProvideSequence(nil); err != nil {
				return rt.Sink.Exchange(), err
			}
		}
	}
}

// Purge deletes every anonymous one-shot definition from the dictionary,
// matching the host purge policy described in spec.md §3 ("Lifecycle").
func (h *Host) Purge() { h.Dict.Prune() }

// Save serializes the current dictionary to framed wire bytes, including
// definition names so a later Load can restore them.
func (h *Host) Save() ([]byte, error) {
	sd, err := codec.Serialize(h.Dict, h.Prims, true)
	if err != nil {
		return nil, err
	}
	return codec.Frame(codec.Encode(sd)), nil
}

// Load replaces this Host's dictionary with the one encoded in frame,
// failing closed (leaving the current dictionary untouched) if frame is
// malformed or its primitive table doesn't match h.Prims.
func (h *Host) Load(frame []byte) error {
	unframed, err := codec.Unframe(frame)
	if err != nil {
		return err
	}
	sd, err := codec.Decode(unframed)
	if err != nil {
		return err
	}
	d, err := codec.Deserialize(sd, h.Prims)
	if err != nil {
		return err
	}
	c, err := compiler.New(d, h.Prims)
	if err != nil {
		return err
	}
	h.Dict = d
	h.Compiler = c
	return nil
}
