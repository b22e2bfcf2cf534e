package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/yamaru/welllog-tool/internal/types"
)

// Stream is the facade over the outermost byte source that the record
// framers drive. Reads return a short count only at true logical EOF; the
// caller decides whether that EOF was legitimate or a truncation.
type Stream struct {
	src ByteSource
}

// NewStream wraps the outermost source of a stack.
func NewStream(src ByteSource) *Stream {
	return &Stream{src: src}
}

// Read fills p as far as the stream allows and returns the count. A short
// count with a nil error means logical EOF was reached; a failure of the
// underlying source returns the bytes read so far together with the error.
func (s *Stream) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		n, err := s.src.Read(p[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return read, nil
			}
			return read, err
		}
		if n == 0 {
			break
		}
	}
	return read, nil
}

// ReadFull fills p completely or fails: a short read is reported as
// ErrTruncated, so callers inside a declared record need no count checks.
func (s *Stream) ReadFull(p []byte) error {
	n, err := s.Read(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return fmt.Errorf("%w: wanted %d bytes, got %d",
			types.ErrTruncated, len(p), n)
	}
	return nil
}

// Seek repositions the stream in the outer (logical) coordinate.
func (s *Stream) Seek(offset int64) error {
	return s.src.Seek(offset)
}

// Tell returns the outer (logical) position.
func (s *Stream) Tell() int64 {
	return s.src.Tell()
}

// AbsoluteTell walks the adapter chain down to the leaf and returns the
// physical position. The leaf is recognized by its nil Inner.
func (s *Stream) AbsoluteTell() int64 {
	outer := s.src
	for {
		inner := outer.Inner()
		if inner == nil {
			return outer.Tell()
		}
		outer = inner
	}
}

// EOF reports whether the last read hit logical end-of-stream.
func (s *Stream) EOF() bool {
	return s.src.EOF()
}

// Close releases the stack top-down.
func (s *Stream) Close() error {
	return s.src.Close()
}
