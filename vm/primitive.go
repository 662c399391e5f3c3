package vm

import "strings"

// Primitive is a host-provided native operation: it may read and write the
// data stack, return stack, and output sink of the Runtime it is called
// against. Primitives never touch the flow stack directly -- that is the
// Runtime's job -- which is what lets Runtime.Step guarantee a primitive
// runs atomically with respect to stepping (§5 of the specification).
type Primitive func(rt *Runtime) error

// Primitives is the name -> Primitive table a host populates before
// compilation (§2's "Primitive Registry"). Lookups are by lowercase name;
// Register lowercases for the caller so every other component can assume
// registry keys are already normalized.
type Primitives struct {
	byName map[string]PrimRef
	fns    []Primitive
	names  []string
}

// NewPrimitives returns an empty registry.
func NewPrimitives() *Primitives {
	return &Primitives{byName: make(map[string]PrimRef)}
}

// Register adds a primitive under the given name, lowercased, returning its
// stable PrimRef. Registering the same name twice replaces the function but
// keeps the original PrimRef, matching the "names are case-insensitive"
// invariant without allowing registry order to perturb already-compiled
// references.
func (p *Primitives) Register(name string, fn Primitive) PrimRef {
	name = strings.ToLower(name)
	if ref, ok := p.byName[name]; ok {
		p.fns[ref] = fn
		return ref
	}
	ref := PrimRef(len(p.fns))
	p.fns = append(p.fns, fn)
	p.names = append(p.names, name)
	p.byName[name] = ref
	return ref
}

// Lookup returns the PrimRef registered under name, lowercased, and whether
// it was found.
func (p *Primitives) Lookup(name string) (PrimRef, bool) {
	ref, ok := p.byName[strings.ToLower(name)]
	return ref, ok
}

// Name returns the registered name for a PrimRef.
func (p *Primitives) Name(ref PrimRef) string {
	if i := int(ref); i >= 0 && i < len(p.names) {
		return p.names[i]
	}
	return ""
}

// Call invokes the primitive named ref against rt.
func (p *Primitives) Call(rt *Runtime, ref PrimRef) error {
	if i := int(ref); i >= 0 && i < len(p.fns) {
		return p.fns[i](rt)
	}
	return Err(InternalError)
}

