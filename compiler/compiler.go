// Package compiler lowers whitespace-tokenized source lines into bytecode
// stored in a dict.Dictionary, grounded on Context::compile/evaluate in the
// anachro-forth compiler (compiler.rs). Tokenization itself is the host's
// job (§4.1, "Tokenization is performed by the host"); this package only
// ever sees already-split tokens.
package compiler

import (
	"strconv"
	"strings"

	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

// Compiler converts token sequences into dictionary entries. It holds the
// two internal primitive refs the do/loop lowering emits directly so that
// chunk.lower never has to re-resolve them by name on every loop it
// compiles.
type Compiler struct {
	dict  *dict.Dictionary
	prims *vm.Primitives

	toR      vm.PrimRef
	loopStep vm.PrimRef
}

// New builds a Compiler over d and prims. prims must already have ">r" and
// "loop_step" registered (the internal primitive do/loop lowering depends
// on, per §4.1); New fails otherwise because a Compiler that can't lower
// do/loop is not usable at all.
func New(d *dict.Dictionary, prims *vm.Primitives) (*Compiler, error) {
	toR, ok := prims.Lookup(">r")
	if !ok {
		return nil, vm.Errf(vm.InternalError, "primitive registry missing required \">r\"")
	}
	loopStep, ok := prims.Lookup("loop_step")
	if !ok {
		return nil, vm.Errf(vm.InternalError, "primitive registry missing required \"loop_step\"")
	}
	return &Compiler{dict: d, prims: prims, toR: toR, loopStep: loopStep}, nil
}

// Compile lowers tokens (a single body, with no surrounding `:`/`;` or
// definition name) to bytecode, balancing if/then/else and do/loop via the
// recursive-descent muncher of §4.1.
func (c *Compiler) Compile(tokens []string) ([]vm.Word, error) {
	toks := make([]string, len(tokens))
	for i, t := range tokens {
		toks[i] = strings.ToLower(t)
	}
	chunks, err := munch(&tokenQueue{toks: toks})
	if err != nil {
		return nil, err
	}
	return lowerAll(c, chunks)
}

// Result describes what Evaluate did with a line: whether it bound a named
// definition or compiled and returned an anonymous one ready for immediate
// execution.
type Result struct {
	// Named is true when tokens were a `: NAME ... ;` definition.
	Named bool
	// Name is the lowercased name the definition was stored under --
	// either the explicit NAME, or a synthesized "__N" for an anonymous
	// line.
	Name string
	// Ref is the DefRef the definition was stored at.
	Ref vm.DefRef
	// Empty is true when tokens had nothing to compile (a blank line),
	// in which case Named, Name, and Ref are all zero-valued and the
	// host has nothing further to do.
	Empty bool
}

// Evaluate implements §4.1's two top-level forms. A line beginning with `:`
// and ending with `;` is stored under its given name; any other non-empty
// line is compiled and stored under a synthesized anonymous name, ready for
// the host to push as a fresh execution frame (`vm.CallWord(result.Ref)`).
// The dictionary is left unchanged if compilation fails.
func (c *Compiler) Evaluate(tokens []string) (Result, error) {
	if len(tokens) == 0 {
		return Result{Empty: true}, nil
	}

	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t)
	}

	if lowered[0] == ":" && lowered[len(lowered)-1] == ";" {
		if len(lowered) < 3 {
			return Result{}, vm.Errf(vm.InternalError, "definition has no name")
		}
		name := lowered[1]
		if name == "" {
			return Result{}, vm.Errf(vm.InternalError, "definition has no name")
		}
		body := lowered[2 : len(lowered)-1]
		words, err := c.Compile(body)
		if err != nil {
			return Result{}, err
		}
		ref := c.dict.Define(name, words)
		return Result{Named: true, Name: name, Ref: ref}, nil
	}

	words, err := c.Compile(lowered)
	if err != nil {
		return Result{}, err
	}
	name := c.dict.AnonymousName()
	ref := c.dict.Define(name, words)
	return Result{Name: name, Ref: ref}, nil
}

// parseLiteral parses tok as a signed 32-bit decimal integer. The second
// return value is false when tok isn't syntactically a decimal integer at
// all (so the caller should report "unknown token" rather than a numeric
// error); a value that looks numeric but doesn't fit in 32 bits reports
// vm.BadMath, per §4.1's "numeric overflow on a literal".
func parseLiteral(tok string) (int32, bool, error) {
	if !looksNumeric(tok) {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, true, vm.Errf(vm.BadMath, "literal %q out of range", tok)
	}
	return int32(n), true, nil
}

func looksNumeric(tok string) bool {
	s := tok
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
