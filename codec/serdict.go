package codec

import (
	"fmt"

	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

// SerDict is the wire form of a dict.Dictionary: definitions addressed
// purely by index (matching the "index-based variant" §6.3 describes),
// with DataMap carried alongside only as an optional name table for
// reloading back into a name-addressable Dictionary. Shape follows
// Dict::serialize in original_source/core/src/compiler.rs -- the
// data_map-carrying form -- rather than the older, name-table-less shape in
// ser_de.rs's own SerDict, because compiler.rs's is what the original's own
// Dict::serialize/Context::load_ser_dict actually produce and consume.
type SerDict struct {
	Data [][]SerWord
	// DataMap holds the definition name originally stored at each index of
	// Data, or nil when names were omitted. Optional per §4.2: purely
	// index-addressed runtimes don't need it to execute, only to re-offer
	// names after a reload.
	DataMap []string
	Bis     []string
}

// Serialize walks every definition in d in dictionary order, interning each
// definition's own name before its body (so a forward self-reference inside
// the body resolves to the same index), and each primitive name on first
// use. The resulting Data/DataMap/Bis arrays are materialized in interned
// order once the walk completes, exactly as Dict::serialize does.
func Serialize(d *dict.Dictionary, prims *vm.Primitives, includeNames bool) (*SerDict, error) {
	defs := newInternTable()
	bis := newInternTable()

	byName := make(map[string][]SerWord, d.Len())
	for _, name := range d.Names() {
		def := d.GetNamed(name)
		if def == nil {
			continue
		}
		defs.intern(def.Name)

		words := make([]SerWord, 0, len(def.Words))
		for _, w := range def.Words {
			sw, err := serializeWord(w, d, prims, defs, bis)
			if err != nil {
				return nil, err
			}
			words = append(words, sw)
		}
		byName[def.Name] = words
	}

	data := make([][]SerWord, len(defs.names))
	for i, name := range defs.names {
		words, ok := byName[name]
		if !ok {
			return nil, vm.Errf(vm.InternalError, "definition %q referenced but never defined", name)
		}
		data[i] = words
	}

	out := &SerDict{Data: data, Bis: bis.names}
	if includeNames {
		out.DataMap = append([]string(nil), defs.names...)
	}
	return out, nil
}

// Deserialize rebuilds a Dictionary from a SerDict, failing closed (per
// §4.2) rather than loading anything partial: every name in Bis must
// resolve against prims, DataMap's length (if present) must match Data's,
// and every CALL/PRIMITIVE index inside Data must be in range.
func Deserialize(sd *SerDict, prims *vm.Primitives) (*dict.Dictionary, error) {
	if sd.DataMap != nil && len(sd.DataMap) != len(sd.Data) {
		return nil, vm.Errf(vm.InternalError, "data_map length %d does not match data length %d", len(sd.DataMap), len(sd.Data))
	}

	primRefs := make([]vm.PrimRef, len(sd.Bis))
	for i, name := range sd.Bis {
		ref, ok := prims.Lookup(name)
		if !ok {
			return nil, vm.Errf(vm.InternalError, "unknown primitive %q in bis table", name)
		}
		primRefs[i] = ref
	}

	names := make([]string, len(sd.Data))
	for i := range sd.Data {
		if sd.DataMap != nil {
			names[i] = sd.DataMap[i]
		} else {
			names[i] = fmt.Sprintf("#%d", i)
		}
	}

	d := dict.New()
	for _, name := range names {
		d.Define(name, nil)
	}
	for i, serWords := range sd.Data {
		words := make([]vm.Word, len(serWords))
		for j, sw := range serWords {
			w, err := sw.toWord(primRefs, len(sd.Data))
			if err != nil {
				return nil, err
			}
			words[j] = w
		}
		d.Define(names[i], words)
	}
	return d, nil
}
