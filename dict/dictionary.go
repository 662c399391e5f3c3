// Package dict implements the Dictionary: the compiler's output and the
// runtime's source of truth for CALL resolution. It is grounded on Dict and
// Context in the anachro-forth compiler (compiler.rs), adapted from
// BTreeMap-backed name tables to a swiss.Map-backed one keyed by the same
// lowercased names, with definitions additionally addressed by a stable
// zero-based index once inserted (the spec's "post-serialization" addressing
// mode).
package dict

import (
	"strconv"

	"github.com/dolthub/swiss"

	"github.com/a4lang/a4/vm"
)

// Definition is an ordered sequence of bytecode words addressed by name
// before serialization, and by its Index after. A definition's length is
// fixed at creation.
type Definition struct {
	Name  string
	Index vm.DefRef
	Words []vm.Word
}

// Dictionary maps lowercase name to Definition and holds the
// monotonically increasing anonymous-definition counter described in §3 of
// the specification. Definitions are additionally indexed by their stable
// DefRef, assigned in insertion order and never reused, so that CALL words
// already compiled against an index remain valid even if a later
// redefinition (a repeated `: NAME ... ;`) changes what a name maps to.
type Dictionary struct {
	byName *swiss.Map[string, vm.DefRef]
	defs   []*Definition

	anon int
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{byName: swiss.NewMap[string, vm.DefRef](16)}
}

// AnonymousName returns the next synthesized name for a one-shot inline
// sequence and advances the counter. Names are generated as "__N"; the host
// purge policy described in §3 ("Lifecycle") identifies these by the "__"
// prefix.
func (d *Dictionary) AnonymousName() string {
	name := "__" + strconv.Itoa(d.anon)
	d.anon++
	return name
}

// Lookup returns the DefRef registered under name (already lowercased by
// the caller) and whether it was found.
func (d *Dictionary) Lookup(name string) (vm.DefRef, bool) {
	return d.byName.Get(name)
}

// Get returns the Definition at ref, or nil if ref is out of range.
func (d *Dictionary) Get(ref vm.DefRef) *Definition {
	if i := int(ref); i >= 0 && i < len(d.defs) {
		return d.defs[i]
	}
	return nil
}

// GetNamed returns the Definition stored under name, or nil if absent.
func (d *Dictionary) GetNamed(name string) *Definition {
	ref, ok := d.byName.Get(name)
	if !ok {
		return nil
	}
	return d.Get(ref)
}

// Define inserts or replaces the definition stored under name, returning
// its stable DefRef. Redefining an existing name keeps its original DefRef
// (so already-compiled CALLs into it keep working) and replaces its word
// list in place.
func (d *Dictionary) Define(name string, words []vm.Word) vm.DefRef {
	if ref, ok := d.byName.Get(name); ok {
		d.defs[int(ref)] = &Definition{Name: name, Index: ref, Words: words}
		return ref
	}
	ref := vm.DefRef(len(d.defs))
	d.defs = append(d.defs, &Definition{Name: name, Index: ref, Words: words})
	d.byName.Put(name, ref)
	return ref
}

// Len returns the number of DefRef slots assigned so far, including the
// nil holes Prune leaves behind.
func (d *Dictionary) Len() int { return len(d.defs) }

// Names returns every defined name in insertion (and therefore DefRef)
// order, the order serialization walks as its default topological fallback.
func (d *Dictionary) Names() []string {
	out := make([]string, 0, len(d.defs))
	for _, def := range d.defs {
		if def == nil {
			continue
		}
		out = append(out, def.Name)
	}
	return out
}

// Prune deletes every definition whose name begins with the anonymous
// prefix, matching the host purge policy of §3 ("Lifecycle"). Surviving
// DefRefs are never renumbered: a pruned slot is left as a nil hole at its
// original position rather than compacted away, because any definition
// compiled before the prune may still hold a CALL word addressing another
// definition by that stable index.
func (d *Dictionary) Prune() {
	for i, def := range d.defs {
		if def == nil || len(def.Name) < 2 || def.Name[:2] != "__" {
			continue
		}
		d.byName.Delete(def.Name)
		d.defs[i] = nil
	}
}
