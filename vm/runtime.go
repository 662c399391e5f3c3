package vm

// StepOutcome tells the host what to do after a call to Runtime.Step.
type StepOutcome int

const (
	// Done means the flow stack is empty: nothing left to run.
	Done StepOutcome = iota
	// YieldPrimitive means the host must invoke the named primitive against
	// this Runtime (see Primitives.Call) and then call Step again.
	YieldPrimitive
	// YieldCall means the host must resolve the named Definition, fetch the
	// word at Cursor (if any), and hand it to ProvideSequence -- or call
	// ProvideSequence(nil) once Cursor runs past the end of the Definition.
	YieldCall
)

// StepResult is the return value of Runtime.Step.
type StepResult struct {
	Outcome StepOutcome
	Prim    PrimRef
	Def     DefRef
	// Cursor is the index into Def's word list the host should fetch next,
	// valid only when Outcome is YieldCall. The frame's own cursor has
	// already moved past this position by the time Step returns.
	Cursor int
}

// Runtime is the stepwise interpreter: three stacks plus an output sink. It
// never yields between LITERAL, UNCOND_JUMP, or COND_JUMP instructions --
// only immediately before dispatching a PRIMITIVE or entering a CALL, per
// §4.3 of the specification. It holds no reference to a Dictionary or
// Primitives table; the host resolves those per yield, which is what lets
// Call carry a bare DefRef instead of an owning pointer (§9, "self
// referential bytecode").
type Runtime struct {
	Data Stack[int32]
	Ret  Stack[int32]
	Flow FlowStack
	Sink Sink
}

// NewRuntime builds a Runtime over the given stacks.
func NewRuntime(data, ret Stack[int32], flow FlowStack) *Runtime {
	return &Runtime{Data: data, Ret: ret, Flow: flow}
}

// Step runs the interpreter's inner loop until it must yield or the flow
// stack is empty, then performs the atomic reset described in §4.3 on any
// error: all three stacks are cleared before the error is returned to the
// caller.
func (rt *Runtime) Step() (StepResult, error) {
	res, err := rt.stepInner()
	if err != nil {
		for {
			if _, ferr := rt.Flow.Pop(); ferr != nil {
				break
			}
		}
		for {
			if _, derr := rt.Data.Pop(); derr != nil {
				break
			}
		}
		for {
			if _, rerr := rt.Ret.Pop(); rerr != nil {
				break
			}
		}
		return StepResult{}, err
	}
	return res, nil
}

// stepInner implements the seven-step dispatch of §4.3. A CALL frame is the
// only kind that persists on the flow stack across a yield: every other
// word (LITERAL, PRIMITIVE, the two jump kinds) is a one-shot frame that
// ProvideSequence pushed on the enclosing CALL's behalf, and is popped the
// instant it is processed, which is what reveals that enclosing CALL frame
// again for jump application or for the next fetch.
func (rt *Runtime) stepInner() (StepResult, error) {
	for {
		frame, err := rt.Flow.LastMut()
		if err != nil {
			return StepResult{Outcome: Done}, nil
		}

		switch frame.Tag {
		case Literal:
			v := frame.Int
			if _, err := rt.Flow.Pop(); err != nil {
				return StepResult{}, err
			}
			if err := rt.Data.Push(v); err != nil {
				return StepResult{}, err
			}

		case Primitive:
			ref := frame.PrimRef
			if _, err := rt.Flow.Pop(); err != nil {
				return StepResult{}, err
			}
			return StepResult{Outcome: YieldPrimitive, Prim: ref}, nil

		case Call:
			at := frame.Cursor
			frame.Cursor++
			return StepResult{Outcome: YieldCall, Def: frame.DefRef, Cursor: at}, nil

		case UncondJump:
			off := frame.Offset
			if _, err := rt.Flow.Pop(); err != nil {
				return StepResult{}, err
			}
			if err := rt.applyJump(off); err != nil {
				return StepResult{}, err
			}

		case CondJump:
			top, err := rt.Data.Pop()
			if err != nil {
				return StepResult{}, err
			}
			doJump := (top == 0) != frame.JumpOn
			off := frame.Offset
			if _, err := rt.Flow.Pop(); err != nil {
				return StepResult{}, err
			}
			if doJump {
				if err := rt.applyJump(off); err != nil {
					return StepResult{}, err
				}
			}

		default:
			return StepResult{}, Err(InternalError)
		}
	}
}

// applyJump adjusts the cursor of the flow stack's current top frame (which
// must be a Call frame acting as the enclosing sequence) by offset. Negative
// offsets must not send the cursor below zero; non-negative offsets must
// not overflow, both enforced per §4.3's "Jump application".
func (rt *Runtime) applyJump(offset int32) error {
	frame, err := rt.Flow.LastMut()
	if err != nil {
		return err
	}
	if frame.Tag != Call {
		return Err(InternalError)
	}
	if offset < 0 {
		abs := int(-offset)
		if abs > frame.Cursor {
			return Err(BadMath)
		}
		frame.Cursor -= abs
	} else {
		next := frame.Cursor + int(offset)
		if next < frame.Cursor {
			return Err(BadMath)
		}
		frame.Cursor = next
	}
	return nil
}

// ProvideSequence supplies the word fetched at a YieldCall's Cursor. Passing
// a non-nil word pushes it as a fresh one-shot frame with cursor zero (or,
// if word itself is a Call, as the new enclosing sequence); passing nil
// signals "Cursor ran past the end of the Definition" and pops the CALL
// frame that was waiting on it, matching `provide_seq_tok` in the Rust
// original.
func (rt *Runtime) ProvideSequence(word *Word) error {
	if word == nil {
		_, err := rt.Flow.Pop()
		return err
	}
	w := *word
	w.Cursor = 0
	return rt.Flow.Push(w)
}

// PushExec pushes word as a fresh top-level execution frame, used both to
// kick off evaluation of a freshly compiled anonymous sequence and by tests
// that want to drive the Runtime directly.
func (rt *Runtime) PushExec(word Word) error {
	word.Cursor = 0
	return rt.Flow.Push(word)
}
