package compiler

import "github.com/a4lang/a4/vm"

// chunk is a node of the structured-control-flow AST the muncher builds,
// mirroring Chunk in the anachro-forth compiler (compiler.rs): a plain
// token, or one of the three structured forms the grammar recognizes.
type chunk interface {
	lower(c *Compiler) ([]vm.Word, error)
}

// tokenChunk resolves to exactly one bytecode word: a primitive call, a
// sub-definition call, or a literal, per §4.1's token resolution order.
type tokenChunk struct {
	tok string
}

func (t tokenChunk) lower(c *Compiler) ([]vm.Word, error) {
	if ref, ok := c.prims.Lookup(t.tok); ok {
		return []vm.Word{vm.Prim(ref)}, nil
	}
	if ref, ok := c.dict.Lookup(t.tok); ok {
		return []vm.Word{vm.CallWord(ref)}, nil
	}
	n, numeric, err := parseLiteral(t.tok)
	if err != nil {
		return nil, err
	}
	if numeric {
		return []vm.Word{vm.Lit(n)}, nil
	}
	return nil, vm.Errf(vm.InternalError, "unknown token %q", t.tok)
}

// ifThenChunk is `if body then`: COND_JUMP(offset=len(body), jump_on=false)
// followed by body. A zero top skips the body entirely.
type ifThenChunk struct {
	body []chunk
}

func (ch ifThenChunk) lower(c *Compiler) ([]vm.Word, error) {
	body, err := lowerAll(c, ch.body)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Word, 0, len(body)+1)
	out = append(out, vm.BranchIfZero(int32(len(body))))
	out = append(out, body...)
	return out, nil
}

// ifElseThenChunk is `if thenBody else elseBody then`:
// COND_JUMP(offset=len(thenBody)+1) ++ thenBody ++ UNCOND_JUMP(len(elseBody))
// ++ elseBody. A zero top jumps into the else arm; a non-zero top runs the
// then arm and then jumps clear over the else arm.
type ifElseThenChunk struct {
	thenBody []chunk
	elseBody []chunk
}

func (ch ifElseThenChunk) lower(c *Compiler) ([]vm.Word, error) {
	thenWords, err := lowerAll(c, ch.thenBody)
	if err != nil {
		return nil, err
	}
	elseWords, err := lowerAll(c, ch.elseBody)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Word, 0, len(thenWords)+len(elseWords)+2)
	out = append(out, vm.BranchIfZero(int32(len(thenWords)+1)))
	out = append(out, thenWords...)
	out = append(out, vm.Jump(int32(len(elseWords))))
	out = append(out, elseWords...)
	return out, nil
}

// doLoopChunk is `do body loop`:
//
//	[ >r, >r ] ++ body ++ [ LOOP_STEP, COND_JUMP(offset = -(len(body)+2)) ]
//
// `limit start do` leaves the starting index on top of the data stack, so
// the first >r moves the starting index and the second moves the limit,
// leaving the limit on top of the return stack where LOOP_STEP pops it
// first. The trailing COND_JUMP's offset of -(len(body)+2), not the naively
// expected -(len(body)+1), is taken from the original implementation's jump
// construction: the extra one accounts for the COND_JUMP instruction
// having already advanced the enclosing cursor past itself by the time the
// jump is applied, landing exactly back on the first body word rather than
// one word past it.
type doLoopChunk struct {
	body []chunk
}

func (ch doLoopChunk) lower(c *Compiler) ([]vm.Word, error) {
	body, err := lowerAll(c, ch.body)
	if err != nil {
		return nil, err
	}
	out := make([]vm.Word, 0, len(body)+4)
	out = append(out, vm.Prim(c.toR), vm.Prim(c.toR))
	out = append(out, body...)
	out = append(out, vm.Prim(c.loopStep))
	out = append(out, vm.BranchIfZero(-int32(len(body)+2)))
	return out, nil
}

func lowerAll(c *Compiler, chunks []chunk) ([]vm.Word, error) {
	var out []vm.Word
	for _, ch := range chunks {
		words, err := ch.lower(c)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return out, nil
}
