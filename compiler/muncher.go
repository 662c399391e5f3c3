package compiler

import "github.com/a4lang/a4/vm"

// tokenQueue is the recursive-descent muncher's input: an ordered queue of
// already-lowercased tokens, consumed front to back. It mirrors the
// VecDeque<String> driven by muncher/munch_do/munch_if/munch_else in the
// anachro-forth compiler (compiler.rs), translated from pop-or-break loops
// with unreachable todo!()/panic!() tails into explicit balancing errors,
// since a compiler is a boundary the specification requires to fail
// cleanly on malformed input (§4.1, "Error conditions").
type tokenQueue struct {
	toks []string
	pos  int
}

func (q *tokenQueue) next() (string, bool) {
	if q.pos >= len(q.toks) {
		return "", false
	}
	t := q.toks[q.pos]
	q.pos++
	return t, true
}

// munch parses a flat token queue into a sequence of chunks, recursing into
// munchDo/munchIf whenever it sees the literal words "do" or "if".
func munch(q *tokenQueue) ([]chunk, error) {
	var chunks []chunk
	for {
		tok, ok := q.next()
		if !ok {
			return chunks, nil
		}
		switch tok {
		case "do":
			ch, err := munchDo(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "if":
			ch, err := munchIf(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "loop":
			return nil, vm.Err(vm.MissingDoPair)
		case "then", "else":
			return nil, vm.Err(vm.MissingIfPair)
		default:
			chunks = append(chunks, tokenChunk{tok: tok})
		}
	}
}

// munchDo parses the body of a `do ... loop` after the opening `do` has
// already been consumed.
func munchDo(q *tokenQueue) (chunk, error) {
	var chunks []chunk
	for {
		tok, ok := q.next()
		if !ok {
			return nil, vm.Err(vm.MissingLoopPair)
		}
		switch tok {
		case "do":
			ch, err := munchDo(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "if":
			ch, err := munchIf(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "loop":
			return doLoopChunk{body: chunks}, nil
		case "then", "else":
			return nil, vm.Err(vm.MissingIfPair)
		default:
			chunks = append(chunks, tokenChunk{tok: tok})
		}
	}
}

// munchIf parses the body of an `if ... then` or `if ... else ... then`
// after the opening `if` has already been consumed.
func munchIf(q *tokenQueue) (chunk, error) {
	var chunks []chunk
	for {
		tok, ok := q.next()
		if !ok {
			return nil, vm.Err(vm.MissingIfPair)
		}
		switch tok {
		case "do":
			ch, err := munchDo(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "if":
			ch, err := munchIf(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "then":
			return ifThenChunk{body: chunks}, nil
		case "else":
			return munchElse(q, chunks)
		case "loop":
			return nil, vm.Err(vm.MissingDoPair)
		default:
			chunks = append(chunks, tokenChunk{tok: tok})
		}
	}
}

// munchElse parses the else-arm of an `if ... else ... then` after the
// `else` has already been consumed, given the already-parsed then-arm.
func munchElse(q *tokenQueue, thenBody []chunk) (chunk, error) {
	var chunks []chunk
	for {
		tok, ok := q.next()
		if !ok {
			return nil, vm.Err(vm.MissingElsePair)
		}
		switch tok {
		case "do":
			ch, err := munchDo(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "if":
			ch, err := munchIf(q)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ch)
		case "then":
			return ifElseThenChunk{thenBody: thenBody, elseBody: chunks}, nil
		case "loop":
			return nil, vm.Err(vm.MissingDoPair)
		case "else":
			return nil, vm.Err(vm.MissingIfPair)
		default:
			chunks = append(chunks, tokenChunk{tok: tok})
		}
	}
}
