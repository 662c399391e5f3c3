package builtins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4lang/a4/vm"
)

func newRuntime() *vm.Runtime {
	return vm.NewRuntime(
		vm.NewSliceStack[int32](vm.DataStackUnderflow, vm.DataStackEmpty),
		vm.NewSliceStack[int32](vm.RetStackEmpty, vm.RetStackEmpty),
		vm.NewSliceFlowStack(),
	)
}

func newPrims(t *testing.T) (*vm.Primitives, *vm.Runtime) {
	t.Helper()
	prims := vm.NewPrimitives()
	Register(prims)
	return prims, newRuntime()
}

func call(t *testing.T, prims *vm.Primitives, rt *vm.Runtime, name string) error {
	t.Helper()
	ref, ok := prims.Lookup(name)
	require.True(t, ok, "primitive %q not registered", name)
	return prims.Call(rt, ref)
}

func TestEmit_PrintableAndOutOfRange(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Data.Push(42))
	require.NoError(t, call(t, prims, rt, "emit"))
	assert.Equal(t, "*", rt.Sink.Exchange())

	require.NoError(t, rt.Data.Push(-1))
	require.NoError(t, call(t, prims, rt, "emit"))
	assert.Equal(t, "‽", rt.Sink.Exchange())
}

func TestDot(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Data.Push(-7))
	require.NoError(t, call(t, prims, rt, "."))
	assert.Equal(t, "-7\n", rt.Sink.Exchange())
}

func TestComparisons(t *testing.T) {
	prims, rt := newPrims(t)

	require.NoError(t, rt.Data.Push(1))
	require.NoError(t, rt.Data.Push(2))
	require.NoError(t, call(t, prims, rt, "<"))
	v, err := rt.Data.Pop()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)

	require.NoError(t, rt.Data.Push(2))
	require.NoError(t, rt.Data.Push(2))
	require.NoError(t, call(t, prims, rt, "="))
	v, err = rt.Data.Pop()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
}

func TestStackShuffle(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Data.Push(1))
	require.NoError(t, rt.Data.Push(2))
	require.NoError(t, rt.Data.Push(3))

	require.NoError(t, call(t, prims, rt, "rot"))
	assertStack(t, rt, 2, 3, 1)

	require.NoError(t, call(t, prims, rt, "swap"))
	assertStack(t, rt, 2, 1, 3)

	require.NoError(t, call(t, prims, rt, "drop"))
	assertStack(t, rt, 2, 1)

	require.NoError(t, call(t, prims, rt, "dup"))
	assertStack(t, rt, 2, 1, 1)
}

func TestPick_OutOfRangePushesZero(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Data.Push(1))
	require.NoError(t, rt.Data.Push(99))
	require.NoError(t, call(t, prims, rt, "pick"))
	v, err := rt.Data.Pop()
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)
}

func TestRoll_BringsItemToTop(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Data.Push(10))
	require.NoError(t, rt.Data.Push(20))
	require.NoError(t, rt.Data.Push(30))
	require.NoError(t, rt.Data.Push(2))
	require.NoError(t, call(t, prims, rt, "roll"))
	assertStack(t, rt, 20, 30, 10)
}

func TestLoopStep_FinishesAtLimit(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Ret.Push(9))
	require.NoError(t, rt.Ret.Push(10))
	require.NoError(t, call(t, prims, rt, "loop_step"))
	top, err := rt.Data.Pop()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), top)
}

func TestLoopStep_OverflowIsBadMath(t *testing.T) {
	prims, rt := newPrims(t)
	require.NoError(t, rt.Ret.Push(math.MaxInt32))
	require.NoError(t, rt.Ret.Push(math.MaxInt32))
	err := call(t, prims, rt, "loop_step")
	assert.ErrorIs(t, err, vm.Err(vm.BadMath))
}

func assertStack(t *testing.T, rt *vm.Runtime, wantBottomToTop ...int32) {
	t.Helper()
	got := make([]int32, len(wantBottomToTop))
	for i := range got {
		v, err := rt.Data.Pop()
		require.NoError(t, err)
		got[len(got)-1-i] = v
	}
	assert.Equal(t, wantBottomToTop, got)
}
