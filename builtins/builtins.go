// Package builtins registers the minimal primitive set of the
// specification against a vm.Primitives table. Arithmetic and comparison
// words are grounded directly on original_source/core/src/builtins.rs's
// bi_* functions; the stack-shuffle words the specification adds beyond
// that minimal set (drop, swap, rot, pick, roll) are grounded on gothird's
// own pick (first.go), generalized from a flat memory stack to
// vm.Stack[int32].
package builtins

import (
	"math"
	"strconv"

	"github.com/a4lang/a4/vm"
)

// Register installs every primitive of §4.4 into prims, including the two
// internal ones (">r" and "loop_step") the compiler's do/loop lowering
// depends on by name (see compiler.New).
func Register(prims *vm.Primitives) {
	prims.Register("emit", emit)
	prims.Register(".", dot)
	prims.Register("cr", cr)
	prims.Register(">r", toR)
	prims.Register("r>", fromR)
	prims.Register("=", eq)
	prims.Register("<", lt)
	prims.Register(">", gt)
	prims.Register("dup", dup)
	prims.Register("drop", drop)
	prims.Register("swap", swap)
	prims.Register("rot", rot)
	prims.Register("pick", pick)
	prims.Register("roll", roll)
	prims.Register("+", add)
	prims.Register("loop_step", loopStep)
}

// emit pops the top of the data stack and writes it to the sink as a
// Unicode scalar value, or '‽' if it's out of range. Grounded on bi_emit.
func emit(rt *vm.Runtime) error {
	v, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	if v < 0 || v > 0x10FFFF || (v >= 0xD800 && v <= 0xDFFF) {
		return rt.Sink.WriteRune('‽')
	}
	return rt.Sink.WriteRune(rune(v))
}

// dot pops and writes the top of the data stack as a decimal number
// followed by a newline. Grounded on bi_pop.
func dot(rt *vm.Runtime) error {
	v, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Sink.WriteString(strconv.FormatInt(int64(v), 10) + "\n")
}

// cr writes a newline. Grounded on bi_cr.
func cr(rt *vm.Runtime) error {
	return rt.Sink.WriteString("\n")
}

// toR pops the data stack and pushes onto the return stack. Grounded on
// bi_retstk_push.
func toR(rt *vm.Runtime) error {
	v, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Ret.Push(v)
}

// fromR pops the return stack and pushes onto the data stack. Grounded on
// bi_retstk_pop.
func fromR(rt *vm.Runtime) error {
	v, err := rt.Ret.Pop()
	if err != nil {
		return err
	}
	return rt.Data.Push(v)
}

// eq pops two values and pushes -1 if equal, 0 otherwise. Grounded on bi_eq.
func eq(rt *vm.Runtime) error {
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Data.Push(flag(a == b))
}

// lt pops two values (b then a) and pushes -1 if a < b, 0 otherwise.
// Grounded on bi_lt.
func lt(rt *vm.Runtime) error {
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Data.Push(flag(a < b))
}

// gt pops two values (b then a) and pushes -1 if a > b, 0 otherwise.
// Grounded on bi_gt.
func gt(rt *vm.Runtime) error {
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Data.Push(flag(a > b))
}

// dup duplicates the top of the data stack. Grounded on bi_dup.
func dup(rt *vm.Runtime) error {
	v, err := rt.Data.Peek(0)
	if err != nil {
		return err
	}
	return rt.Data.Push(v)
}

// drop discards the top of the data stack.
func drop(rt *vm.Runtime) error {
	_, err := rt.Data.Pop()
	return err
}

// swap exchanges the top two values of the data stack.
func swap(rt *vm.Runtime) error {
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	if err := rt.Data.Push(b); err != nil {
		return err
	}
	return rt.Data.Push(a)
}

// rot rotates the top three values of the data stack, bringing the third
// one to the top.
func rot(rt *vm.Runtime) error {
	c, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	if err := rt.Data.Push(b); err != nil {
		return err
	}
	if err := rt.Data.Push(c); err != nil {
		return err
	}
	return rt.Data.Push(a)
}

// pick pops an index n and pushes a copy of the nth item down the data
// stack (0 = current top, after the index itself is popped). An
// out-of-range index pushes 0, matching gothird's own pick (first.go) in
// preferring a defined degenerate result over a stack fault for this one
// word.
func pick(rt *vm.Runtime) error {
	n, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	v, perr := rt.Data.Peek(int(n))
	if perr != nil {
		return rt.Data.Push(0)
	}
	return rt.Data.Push(v)
}

// roll pops an index n and moves the nth item down the data stack (0 =
// current top, after the index itself is popped) to the top, shifting the
// items above it down by one. An out-of-range index is a no-op.
func roll(rt *vm.Runtime) error {
	n, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	v, perr := rt.Data.PopAt(int(n))
	if perr != nil {
		return nil
	}
	return rt.Data.Push(v)
}

// add pops two values and pushes their wrapping sum. Grounded on bi_add.
func add(rt *vm.Runtime) error {
	b, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	a, err := rt.Data.Pop()
	if err != nil {
		return err
	}
	return rt.Data.Push(a + b)
}

// loopStep advances a do/loop's hidden index/limit pair on the return
// stack, pushing -1 when the loop is finished or 0 (with the pair restored)
// otherwise. Grounded on bi_priv_loop, including its checked increment --
// an index that would overflow int32 reports BadMath rather than wrapping
// silently into an infinite or corrupted loop.
func loopStep(rt *vm.Runtime) error {
	limit, err := rt.Ret.Pop()
	if err != nil {
		return err
	}
	idx, err := rt.Ret.Pop()
	if err != nil {
		return err
	}
	next64 := int64(idx) + 1
	if next64 > math.MaxInt32 {
		return vm.Err(vm.BadMath)
	}
	next := int32(next64)
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
}

func flag(b bool) int32 {
	if b {
		return -1
	}
	return 0
}
