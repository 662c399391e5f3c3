package codec

import (
	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

// SerWord is the wire form of a vm.Word: CALL and PRIMITIVE carry an index
// into SerDict.Data/SerDict.Bis (resolved through an intern table) instead
// of a live vm.DefRef/vm.PrimRef, exactly as SerWord does in
// original_source/core/src/ser_de.rs. Tag values match spec.md §6.2.
type SerWord struct {
	Tag vm.Tag

	Int int32 // Literal

	Ref uint16 // Primitive: index into Bis. Call: index into Data.

	Offset int32 // UncondJump / CondJump
	JumpOn bool  // CondJump
}

func serializeWord(w vm.Word, d *dict.Dictionary, prims *vm.Primitives, defs, bis *internTable) (SerWord, error) {
	switch w.Tag {
	case vm.Literal:
		return SerWord{Tag: vm.Literal, Int: w.Int}, nil
	case vm.Primitive:
		name := prims.Name(w.PrimRef)
		if name == "" {
			return SerWord{}, vm.Errf(vm.InternalError, "primitive ref %d has no registered name", w.PrimRef)
		}
		return SerWord{Tag: vm.Primitive, Ref: bis.intern(name)}, nil
	case vm.Call:
		def := d.Get(w.DefRef)
		if def == nil {
			return SerWord{}, vm.Errf(vm.InternalError, "call ref %d has no definition", w.DefRef)
		}
		return SerWord{Tag: vm.Call, Ref: defs.intern(def.Name)}, nil
	case vm.UncondJump:
		return SerWord{Tag: vm.UncondJump, Offset: w.Offset}, nil
	case vm.CondJump:
		return SerWord{Tag: vm.CondJump, Offset: w.Offset, JumpOn: w.JumpOn}, nil
	default:
		return SerWord{}, vm.Err(vm.InternalError)
	}
}

// toWord reconstructs a vm.Word given the primitive refs resolved from Bis
// and the total definition count (for range-checking a Call's Ref). Failing
// closed on an out-of-range index matches spec.md §4.2's "Fail-closed"
// requirement: a malformed wire dictionary must never load partially.
func (sw SerWord) toWord(primRefs []vm.PrimRef, numDefs int) (vm.Word, error) {
	switch sw.Tag {
	case vm.Literal:
		return vm.Lit(sw.Int), nil
	case vm.Primitive:
		if int(sw.Ref) >= len(primRefs) {
			return vm.Word{}, vm.Errf(vm.InternalError, "primitive index %d out of range", sw.Ref)
		}
		return vm.Prim(primRefs[sw.Ref]), nil
	case vm.Call:
		if int(sw.Ref) >= numDefs {
			return vm.Word{}, vm.Errf(vm.InternalError, "call index %d out of range", sw.Ref)
		}
		return vm.CallWord(vm.DefRef(sw.Ref)), nil
	case vm.UncondJump:
		return vm.Jump(sw.Offset), nil
	case vm.CondJump:
		return vm.CondBranch(sw.Offset, sw.JumpOn), nil
	default:
		return vm.Word{}, vm.Errf(vm.InternalError, "unknown wire tag %d", sw.Tag)
	}
}
