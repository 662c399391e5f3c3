package vm

import "strings"

// Sink is the monotonic text buffer the Runtime writes to. Its only
// contract is Exchange: it returns everything written since the previous
// call and leaves the Sink empty, mirroring `exchange_output` in the
// Rust original (anachro-forth core/src/lib.rs) exactly -- the runtime owns
// the buffer between exchanges, and ownership of the drained text transfers
// to the caller.
type Sink struct {
	buf strings.Builder
}

// WriteRune appends a single rune to the sink.
func (s *Sink) WriteRune(r rune) error {
	_, err := s.buf.WriteRune(r)
	if err != nil {
		return Err(OutputFormat)
	}
	return nil
}

// WriteString appends a string to the sink.
func (s *Sink) WriteString(str string) error {
	_, err := s.buf.WriteString(str)
	if err != nil {
		return Err(OutputFormat)
	}
	return nil
}

// Exchange atomically swaps the internal buffer with a fresh one, returning
// everything written since the previous Exchange call.
func (s *Sink) Exchange() string {
	out := s.buf.String()
	s.buf.Reset()
	return out
}
