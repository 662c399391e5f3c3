package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4lang/a4/compiler"
	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

func newTestPrimitives() *vm.Primitives {
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
	return prims
}

func newTestRuntime() *vm.Runtime {
	return vm.NewRuntime(
		vm.NewSliceStack[int32](vm.DataStackUnderflow, vm.DataStackEmpty),
		vm.NewSliceStack[int32](vm.RetStackEmpty, vm.RetStackEmpty),
		vm.NewSliceFlowStack(),
	)
}

// drive runs entry to completion against d and prims, resolving each yield
// exactly the way compiler_test.go's harness.drive does, and returns
// everything written to the sink.
func drive(rt *vm.Runtime, d *dict.Dictionary, prims *vm.Primitives, entry vm.Word) (string, error) {
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
			if err := prims.Call(rt, sres.Prim); err != nil {
				return rt.Sink.Exchange(), err
			}
		case vm.YieldCall:
			def := d.Get(sres.Def)
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

// TestRoundTrip_StarMstar mirrors the round-trip seed scenario: compile
// `star`/`mstar`, serialize, reload into a fresh dictionary and runtime, and
// confirm invoking `mstar` with data-stack top 0 then -1 behaves exactly as
// it did before the round trip.
func TestRoundTrip_StarMstar(t *testing.T) {
	prims := newTestPrimitives()
	d := dict.New()
	c, err := compiler.New(d, prims)
	require.NoError(t, err)

	_, err = c.Evaluate([]string{":", "star", "42", "emit", ";"})
	require.NoError(t, err)
	_, err = c.Evaluate([]string{":", "mstar", "if", "star", "else", "star", "star", "then", ";"})
	require.NoError(t, err)

	sd, err := Serialize(d, prims, true)
	require.NoError(t, err)

	wire := Frame(Encode(sd))
	assert.NotContains(t, wire[:len(wire)-1], byte(0))

	unframed, err := Unframe(wire)
	require.NoError(t, err)
	decoded, err := Decode(unframed)
	require.NoError(t, err)

	loaded, err := Deserialize(decoded, prims)
	require.NoError(t, err)

	mstarRef, ok := loaded.Lookup("mstar")
	require.True(t, ok)

	rt0 := newTestRuntime()
	require.NoError(t, rt0.Data.Push(0))
	out0, err := drive(rt0, loaded, prims, vm.CallWord(mstarRef))
	require.NoError(t, err)
	assert.Equal(t, "**", out0)

	rt1 := newTestRuntime()
	require.NoError(t, rt1.Data.Push(-1))
	out1, err := drive(rt1, loaded, prims, vm.CallWord(mstarRef))
	require.NoError(t, err)
	assert.Equal(t, "*", out1)
}

func TestDeserialize_UnknownPrimitiveFailsClosed(t *testing.T) {
	prims := newTestPrimitives()
	d := dict.New()
	c, err := compiler.New(d, prims)
	require.NoError(t, err)
	_, err = c.Evaluate([]string{":", "star", "42", "emit", ";"})
	require.NoError(t, err)

	sd, err := Serialize(d, prims, true)
	require.NoError(t, err)
	sd.Bis = append(sd.Bis, "nonexistent_primitive")

	_, err = Deserialize(sd, prims)
	require.Error(t, err)
}

func TestDeserialize_DataMapLengthMismatchFailsClosed(t *testing.T) {
	prims := newTestPrimitives()
	d := dict.New()
	c, err := compiler.New(d, prims)
	require.NoError(t, err)
	_, err = c.Evaluate([]string{":", "star", "42", "emit", ";"})
	require.NoError(t, err)

	sd, err := Serialize(d, prims, true)
	require.NoError(t, err)
	sd.DataMap = sd.DataMap[:len(sd.DataMap)-1]

	_, err = Deserialize(sd, prims)
	require.Error(t, err)
}

func TestEncodeDecode_RoundTripsBytes(t *testing.T) {
	prims := newTestPrimitives()
	d := dict.New()
	c, err := compiler.New(d, prims)
	require.NoError(t, err)
	_, err = c.Evaluate([]string{":", "test", "10", "0", "do", "42", "emit", "loop", ";"})
	require.NoError(t, err)

	sd, err := Serialize(d, prims, true)
	require.NoError(t, err)

	decoded, err := Decode(Encode(sd))
	require.NoError(t, err)
	assert.Equal(t, sd, decoded)
}
