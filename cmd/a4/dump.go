package main

import (
	"gopkg.in/yaml.v3"

	"github.com/a4lang/a4/dict"
	"github.com/a4lang/a4/vm"
)

// dumpWord is the YAML rendering of a single vm.Word, grounded on dumper.go's
// formatCode: every case names its operation and the one field that matters
// for it, rather than dumper.go's flat hex/mnemonic line, since a structured
// document is what -dump is meant to produce here.
type dumpWord struct {
	Op     string `yaml:"op"`
	Int    int32  `yaml:"int,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Offset int32  `yaml:"offset,omitempty"`
	JumpOn bool   `yaml:"jump_on,omitempty"`
}

// dumpDefinition is the YAML rendering of one dict.Definition.
type dumpDefinition struct {
	Name  string     `yaml:"name"`
	Words []dumpWord `yaml:"words"`
}

// dumpDictionary renders d's live (non-pruned) definitions as a YAML
// document, walking them in the same DefRef order dumper.go's scanWords
// walks flat memory, but addressing each Word's Call/Primitive operand by
// name instead of by raw offset.
func dumpDictionary(d *dict.Dictionary, prims *vm.Primitives) ([]byte, error) {
	var out []dumpDefinition
	for _, name := range d.Names() {
		def := d.GetNamed(name)
		if def == nil {
			continue
		}
		words := make([]dumpWord, len(def.Words))
		for i, w := range def.Words {
			words[i] = dumpOneWord(w, d, prims)
		}
		out = append(out, dumpDefinition{Name: def.Name, Words: words})
	}
	return yaml.Marshal(out)
}

func dumpOneWord(w vm.Word, d *dict.Dictionary, prims *vm.Primitives) dumpWord {
	switch w.Tag {
	case vm.Literal:
		return dumpWord{Op: "literal", Int: w.Int}
	case vm.Primitive:
		return dumpWord{Op: "primitive", Name: prims.Name(w.PrimRef)}
	case vm.Call:
		name := ""
		if target := d.Get(w.DefRef); target != nil {
			name = target.Name
		}
		return dumpWord{Op: "call", Name: name}
	case vm.UncondJump:
		return dumpWord{Op: "jump", Offset: w.Offset}
	case vm.CondJump:
		return dumpWord{Op: "cond_jump", Offset: w.Offset, JumpOn: w.JumpOn}
	default:
		return dumpWord{Op: "unknown"}
	}
}
