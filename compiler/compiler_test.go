package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

// harness wires a Compiler, Dictionary, and Primitives together with a
// driving loop for Runtime.Step, standing in for the host the specification
// describes, so this package's tests can compile-and-run a line exactly
// the way the CLI will.
type harness struct {
	dict  *dict.Dictionary
	prims *vm.Primitives
	c     *Compiler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	prims := vm.NewPrimitives()
	prims.Register("emit", func(rt *vm.Runtime) error {
		n, err := rt.Data.Pop()
		if err != nil {
			return err
		}
		if n < 0 || n > 0x10FFFF {
			return rt.Sink.WriteRune('‽')
		}
		return rt.Sink.WriteRune(rune(n))
	})
	prims.Register(">r", func(rt *vm.Runtime) error {
		v, err := rt.Data.Pop()
		if err != nil {
			return err
		}
		return rt.Ret.Push(v)
	})
	prims.Register("loop_step", func(rt *vm.Runtime) error {
		limit, err := rt.Ret.Pop()
		if err != nil {
			return err
		}
		idx, err := rt.Ret.Pop()
		if err != nil {
			return err
		}
		next := idx + 1
		if next == limit {
			return rt.Data.Push(-1)
		}
		if err := rt.Ret.Push(next); err != nil {
			return err
		}
		if err := rt.Ret.Push(limit); err != nil {
			return err
		}
		return rt.Data.Push(0)
	})

	d := dict.New()
	c, err := New(d, prims)
	require.NoError(t, err)
	return &harness{dict: d, prims: prims, c: c}
}

func (h *harness) newRuntime() *vm.Runtime {
	return vm.NewRuntime(
		vm.NewSliceStack[int32](vm.DataStackUnderflow, vm.DataStackEmpty),
		vm.NewSliceStack[int32](vm.RetStackEmpty, vm.RetStackEmpty),
		vm.NewSliceFlowStack(),
	)
}

// runLine tokenizes, evaluates (compiling a definition or an anonymous
// sequence), and -- for an anonymous sequence -- drives it to completion,
// returning everything written to the sink.
func (h *harness) runLine(t *testing.T, rt *vm.Runtime, line string) (string, error) {
	t.Helper()
	res, err := h.c.Evaluate(strings.Fields(line))
	if err != nil {
		return "", err
	}
	if res.Empty || res.Named {
		return "", nil
	}
	return h.drive(rt, vm.CallWord(res.Ref))
}

func (h *harness) drive(rt *vm.Runtime, entry vm.Word) (string, error) {
	if err := rt.PushExec(entry); err != nil {
		return "", err
	}
	for {
		sres, err := rt.Step()
		if err != nil {
			return rt.Sink.Exchange(), err
		}
		switch sres.Outcome {
		case vm.Done:
			return rt.Sink.Exchange(), nil
		case vm.YieldPrimitive:
			if err := h.prims.Call(rt, sres.Prim); err != nil {
				return rt.Sink.Exchange(), err
			}
		case vm.YieldCall:
			def := h.dict.Get(sres.Def)
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

func TestCompiler_LiteralEmit(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime()
	out, err := h.runLine(t, rt, "42 emit")
	require.NoError(t, err)
	assert.Equal(t, "*", out)
}

func TestCompiler_DefineAndCallThreeTimes(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime()
	_, err := h.runLine(t, rt, ": star 42 emit ;")
	require.NoError(t, err)
	out, err := h.runLine(t, rt, "star star star")
	require.NoError(t, err)
	assert.Equal(t, "***", out)
}

func TestCompiler_IfThen(t *testing.T) {
	h := newHarness(t)

	rt0 := h.newRuntime()
	out0, err := h.runLine(t, rt0, "0 if 42 emit then")
	require.NoError(t, err)
	assert.Equal(t, "", out0)

	rt1 := h.newRuntime()
	out1, err := h.runLine(t, rt1, "1 if 42 emit then")
	require.NoError(t, err)
	assert.Equal(t, "*", out1)
}

func TestCompiler_IfElseThen(t *testing.T) {
	h := newHarness(t)

	rt0 := h.newRuntime()
	out0, err := h.runLine(t, rt0, "0 if 42 emit else 42 emit 42 emit then")
	require.NoError(t, err)
	assert.Equal(t, "**", out0)

	rt1 := h.newRuntime()
	out1, err := h.runLine(t, rt1, "1 if 42 emit else 42 emit 42 emit then")
	require.NoError(t, err)
	assert.Equal(t, "*", out1)
}

func TestCompiler_DoLoop(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime()
	_, err := h.runLine(t, rt, ": test 10 0 do 42 emit loop ;")
	require.NoError(t, err)
	out, err := h.runLine(t, rt, "test")
	require.NoError(t, err)
	assert.Equal(t, "**********", out)
}

func TestCompiler_DoLoopCallsSubDefinition(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime()
	_, err := h.runLine(t, rt, ": star 42 emit ;")
	require.NoError(t, err)
	_, err = h.runLine(t, rt, ": test star 10 0 do star loop star ;")
	require.NoError(t, err)
	out, err := h.runLine(t, rt, "test")
	require.NoError(t, err)
	assert.Equal(t, "************", out)
}

func TestCompiler_MissingIfPair(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Evaluate(strings.Fields("0 if 42 emit"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.Err(vm.MissingIfPair))
}

func TestCompiler_DoWithoutLoopIsMissingLoopPair(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Evaluate(strings.Fields("10 0 do 42 emit"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.Err(vm.MissingLoopPair))
}

func TestCompiler_LoopWithoutDoIsMissingDoPair(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Evaluate(strings.Fields("42 emit loop"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.Err(vm.MissingDoPair))
}

func TestCompiler_FailedCompileLeavesDictionaryUnchanged(t *testing.T) {
	h := newHarness(t)
	before := h.dict.Len()
	_, err := h.c.Evaluate(strings.Fields(": broken 42 emit"))
	require.Error(t, err)
	assert.Equal(t, before, h.dict.Len())
}

func TestCompiler_UnknownTokenFails(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Evaluate(strings.Fields("frobnicate"))
	require.Error(t, err)
}

func TestCompiler_NumericOverflowIsBadMath(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Evaluate(strings.Fields("99999999999999999999 emit"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.Err(vm.BadMath))
}
