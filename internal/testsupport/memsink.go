package testsupport

import (
	"errors"
	"io"
)

// MemSink is an in-memory Sink (growable buffer with seek/write/flush/close)
// for tests that don't want to touch disk.
type MemSink struct {
	buf    []byte
	pos    int64
	Closed bool
}

// NewMemSink returns an empty MemSink.
func NewMemSink() *MemSink { return &MemSink{} }

// Write writes p at the current position, growing the buffer as needed.
func (s *MemSink) Write(p []byte) (int, error) {
	if s.Closed {
		return 0, errors.New("testsupport: write to closed MemSink")
	}
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	n := copy(s.buf[s.pos:end], p)
	s.pos = end
	return n, nil
}

// Seek implements io.Seeker.
func (s *MemSink) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = int64(len(s.buf)) + offset
	default:
		return 0, errors.New("testsupport: invalid whence")
	}
	if newPos < 0 {
		return 0, errors.New("testsupport: negative seek")
	}
	s.pos = newPos
	return newPos, nil
}

// Flush is a no-op; MemSink has no backing store to sync.
func (s *MemSink) Flush() error { return nil }

// Close marks the sink closed; further writes fail.
func (s *MemSink) Close() error {
	s.Closed = true
	return nil
}

// Bytes returns a copy of the buffer's current contents.
func (s *MemSink) Bytes() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}
