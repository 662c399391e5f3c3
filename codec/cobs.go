package codec

import "github.com/a4lang/a4/vm"

// cobsEncode applies Consistent Overhead Byte Stuffing to data, producing a
// buffer containing no zero bytes. This is the same transform rzcobs and
// kolben::rlercobs perform in original_source/host/src/main.rs, reimplemented
// directly since nothing in the retrieval pack brings in a COBS library.
func cobsEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+2)
	out = append(out, 0) // placeholder for the first code byte
	codeIdx := 0
	code := byte(1)

	flush := func() {
		out[codeIdx] = code
		codeIdx = len(out)
		out = append(out, 0) // placeholder for the next code byte
		code = 1
	}

	for _, b := range data {
		if b == 0 {
			flush()
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			flush()
		}
	}
	out[codeIdx] = code
	return out
}

// cobsDecode reverses cobsEncode. It rejects a code byte that would read
// past the buffer, per §4.2's fail-closed requirement on malformed wire
// data.
func cobsDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		code := int(data[i])
		if code == 0 {
			return nil, vm.Errf(vm.InternalError, "cobs: zero code byte at offset %d", i)
		}
		i++
		run := code - 1
		if i+run > len(data) {
			return nil, vm.Errf(vm.InternalError, "cobs: run at offset %d overruns buffer", i)
		}
		out = append(out, data[i:i+run]...)
		i += run
		if code != 0xFF && i < len(data) {
			out = append(out, 0)
		}
	}
	return out, nil
}

// Frame wraps data (already COBS-encoded internally) with a trailing zero
// terminator, so a stream of frames can be split on 0x00 the way the
// original's serial transport does.
func Frame(data []byte) []byte {
	return append(cobsEncode(data), 0)
}

// Unframe strips exactly one trailing zero terminator and COBS-decodes the
// rest. It fails closed if frame is empty or doesn't end in the terminator.
func Unframe(frame []byte) ([]byte, error) {
	if len(frame) == 0 || frame[len(frame)-1] != 0 {
		return nil, vm.Errf(vm.InternalError, "frame missing zero terminator")
	}
	return cobsDecode(frame[:len(frame)-1])
}
