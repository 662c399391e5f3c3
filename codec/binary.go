// Package codec implements the serialization wire format of §6: a
// varint/tag binary encoding of a dictionary (mirroring postcard's
// enum-tag-plus-varint-int encoding used by
// original_source/core/src/ser_de.rs), framed with COBS-style zero
// elimination (mirroring the rzcobs/kolben::rlercobs framing
// original_source/host/src/main.rs applies on top of postcard's bytes).
//
// No example repository in the retrieval pack imports a serialization
// library (msgpack, cbor, protobuf, gob) or a COBS implementation, so both
// the tagged encoding and the byte-stuffing framer here are hand-rolled
// against the standard library; the specification itself says the exact
// byte-stuffing scheme is not normative, only that a round trip through it
// is stable.
package codec

import (
	"encoding/binary"
	"io"

	"github.com/a4lang/a4/vm"
)

// Encode serializes sd to its tagged binary form (unframed).
func Encode(sd *SerDict) []byte {
	var buf []byte

	if sd.DataMap != nil {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	buf = appendUvarint(buf, uint64(len(sd.Data)))
	for _, words := range sd.Data {
		buf = appendUvarint(buf, uint64(len(words)))
		for _, w := range words {
			buf = appendSerWord(buf, w)
		}
	}

	if sd.DataMap != nil {
		for _, name := range sd.DataMap {
			buf = appendString(buf, name)
		}
	}

	buf = appendUvarint(buf, uint64(len(sd.Bis)))
	for _, name := range sd.Bis {
		buf = appendString(buf, name)
	}

	return buf
}

// Decode parses the tagged binary form Encode produces. It never trusts a
// length prefix past the buffer's actual length, reporting truncated or
// malformed input as a vm.InternalError, per §4.2's fail-closed loading
// requirement.
func Decode(buf []byte) (*SerDict, error) {
	d := &decoder{buf: buf}

	hasMap, err := d.byte()
	if err != nil {
		return nil, err
	}

	numDefs, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	// every definition, word, and string takes at least one byte, so a count
	// larger than the buffer itself can only come from truncated input.
	if numDefs > uint64(len(buf)) {
		return nil, vm.Errf(vm.InternalError, "definition count %d exceeds wire data", numDefs)
	}

	data := make([][]SerWord, numDefs)
	for i := range data {
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(buf)) {
			return nil, vm.Errf(vm.InternalError, "word count %d exceeds wire data", n)
		}
		words := make([]SerWord, n)
		for j := range words {
			w, err := d.serWord()
			if err != nil {
				return nil, err
			}
			words[j] = w
		}
		data[i] = words
	}

	var dataMap []string
	if hasMap == 1 {
		dataMap = make([]string, numDefs)
		for i := range dataMap {
			s, err := d.string()
			if err != nil {
				return nil, err
			}
			dataMap[i] = s
		}
	}

	numBis, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if numBis > uint64(len(buf)) {
		return nil, vm.Errf(vm.InternalError, "bis count %d exceeds wire data", numBis)
	}
	bis := make([]string, numBis)
	for i := range bis {
		s, err := d.string()
		if err != nil {
			return nil, err
		}
		bis[i] = s
	}

	return &SerDict{Data: data, DataMap: dataMap, Bis: bis}, nil
}

func appendSerWord(buf []byte, w SerWord) []byte {
	buf = append(buf, byte(w.Tag))
	switch w.Tag {
	case vm.Literal:
		buf = appendVarint(buf, int64(w.Int))
	case vm.Primitive, vm.Call:
		buf = appendUvarint(buf, uint64(w.Ref))
	case vm.UncondJump:
		buf = appendVarint(buf, int64(w.Offset))
	case vm.CondJump:
		buf = appendVarint(buf, int64(w.Offset))
		if w.JumpOn {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func (d *decoder) serWord() (SerWord, error) {
	tb, err := d.byte()
	if err != nil {
		return SerWord{}, err
	}
	tag := vm.Tag(tb)
	switch tag {
	case vm.Literal:
		n, err := d.varint()
		if err != nil {
			return SerWord{}, err
		}
		return SerWord{Tag: tag, Int: int32(n)}, nil
	case vm.Primitive, vm.Call:
		n, err := d.uvarint()
		if err != nil {
			return SerWord{}, err
		}
		return SerWord{Tag: tag, Ref: uint16(n)}, nil
	case vm.UncondJump:
		n, err := d.varint()
		if err != nil {
			return SerWord{}, err
		}
		return SerWord{Tag: tag, Offset: int32(n)}, nil
	case vm.CondJump:
		n, err := d.varint()
		if err != nil {
			return SerWord{}, err
		}
		on, err := d.byte()
		if err != nil {
			return SerWord{}, err
		}
		return SerWord{Tag: tag, Offset: int32(n), JumpOn: on == 1}, nil
	default:
		return SerWord{}, vm.Errf(vm.InternalError, "unknown wire tag %d", tb)
	}
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendVarint(buf []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, vm.Errf(vm.InternalError, "truncated wire data: %v", io.ErrUnexpectedEOF)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return 0, vm.Errf(vm.InternalError, "truncated or invalid varint at offset %d", d.pos)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) varint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	if n <= 0 {
		return 0, vm.Errf(vm.InternalError, "truncated or invalid varint at offset %d", d.pos)
	}
	d.pos += n
	return v, nil
}

func (d *decoder) string() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(len(d.buf)-d.pos) {
		return "", vm.Errf(vm.InternalError, "truncated string at offset %d", d.pos)
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}
