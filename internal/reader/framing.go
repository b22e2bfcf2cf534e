package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/yamaru/welllog-tool/internal/types"
)

// frame is one framed run of payload bytes: where it starts in the outer
// (logical) coordinate, where its payload starts in the inner coordinate,
// and how long it is.
type frame struct {
	logical  int64
	physical int64
	size     int64
}

// errEndOfFrames is the internal signal that a header read found the end of
// the framed stream (tape mark, end-of-medium, or clean EOF).
var errEndOfFrames = errors.New("end of frames")

// headerFunc reads the next framing header from inner, which is positioned
// at the byte following the previous frame's payload. It returns the
// payload size, or errEndOfFrames at the logical end of the stream.
type headerFunc func(inner ByteSource) (int64, error)

// framedSource translates between a logical byte stream and its framed
// on-disk form. The frame table grows lazily as reads and seeks move
// forward; frames are never discovered twice.
type framedSource struct {
	inner      ByteSource
	readHeader headerFunc
	physBase   int64
	frames     []frame
	exhausted  bool
	cur        int
	pos        int64
	eof        bool
}

func newFramedSource(inner ByteSource, h headerFunc) (*framedSource, error) {
	// Frames begin wherever the inner source is positioned right now, so a
	// framing can sit past a prologue the caller has already skipped.
	f := &framedSource{inner: inner, readHeader: h, physBase: inner.Tell()}
	// Probe the first header so that wrapping a source positioned at its
	// end fails at construction.
	if err := f.discover(); err != nil {
		if errors.Is(err, errEndOfFrames) {
			return nil, fmt.Errorf("%w: cannot open framing past end of stream",
				types.ErrEOF)
		}
		return nil, err
	}
	return f, nil
}

// discover reads one more framing header and appends its frame.
func (f *framedSource) discover() error {
	if f.exhausted {
		return errEndOfFrames
	}
	var logical int64
	physEnd := f.physBase
	if n := len(f.frames); n > 0 {
		last := f.frames[n-1]
		logical = last.logical + last.size
		physEnd = last.physical + last.size
	}
	if f.inner.Tell() != physEnd {
		if err := f.inner.Seek(physEnd); err != nil {
			return err
		}
	}
	size, err := f.readHeader(f.inner)
	if err != nil {
		if errors.Is(err, errEndOfFrames) {
			f.exhausted = true
		}
		return err
	}
	f.frames = append(f.frames, frame{
		logical:  logical,
		physical: f.inner.Tell(),
		size:     size,
	})
	return nil
}

// locate grows the frame table until it covers the logical offset and
// returns the index of the covering frame. At the exact end of the framed
// stream it returns len(frames).
func (f *framedSource) locate(offset int64) (int, error) {
	for {
		if n := len(f.frames); n > 0 {
			last := f.frames[n-1]
			if offset < last.logical+last.size {
				// Frames are in order; binary search is not worth it for
				// the handful of frames a record spans.
				for i := n - 1; i >= 0; i-- {
					if offset >= f.frames[i].logical {
						return i, nil
					}
				}
			}
			if f.exhausted && offset == last.logical+last.size {
				return n, nil
			}
		}
		if err := f.discover(); err != nil {
			if errors.Is(err, errEndOfFrames) {
				return len(f.frames), nil
			}
			return 0, err
		}
	}
}

func (f *framedSource) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if f.cur >= len(f.frames) {
			if err := f.discover(); err != nil {
				if errors.Is(err, errEndOfFrames) {
					f.eof = true
					return read, io.EOF
				}
				return read, err
			}
		}
		fr := f.frames[f.cur]
		delta := f.pos - fr.logical
		if delta >= fr.size {
			f.cur++
			continue
		}
		if want := fr.physical + delta; f.inner.Tell() != want {
			if err := f.inner.Seek(want); err != nil {
				return read, err
			}
		}
		chunk := int64(len(p) - read)
		if left := fr.size - delta; chunk > left {
			chunk = left
		}
		got := 0
		var readErr error
		for got < int(chunk) {
			n, err := f.inner.Read(p[read+got : read+int(chunk)])
			got += n
			if err != nil {
				readErr = err
				break
			}
			if n == 0 {
				break
			}
		}
		read += got
		f.pos += int64(got)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return read, readErr
		}
		if got < int(chunk) {
			// The framing promised more payload than the file holds.
			return read, fmt.Errorf("%w: frame payload cut short at tell %d",
				types.ErrTruncated, f.pos)
		}
	}
	return read, nil
}

func (f *framedSource) Seek(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative seek offset %d",
			types.ErrInvalidArgument, offset)
	}
	i, err := f.locate(offset)
	if err != nil {
		return err
	}
	if i >= len(f.frames) {
		if n := len(f.frames); n > 0 {
			end := f.frames[n-1].logical + f.frames[n-1].size
			if offset > end {
				return fmt.Errorf("%w: seek offset %d past end of framed stream (%d)",
					types.ErrInvalidArgument, offset, end)
			}
		} else if offset > 0 {
			return fmt.Errorf("%w: seek offset %d in empty framed stream",
				types.ErrInvalidArgument, offset)
		}
		i = len(f.frames) - 1
		if i < 0 {
			i = 0
		}
	}
	f.cur = i
	f.pos = offset
	f.eof = false
	if i < len(f.frames) {
		fr := f.frames[i]
		return f.inner.Seek(fr.physical + (offset - fr.logical))
	}
	return nil
}

func (f *framedSource) Tell() int64 {
	return f.pos
}

func (f *framedSource) EOF() bool {
	return f.eof
}

func (f *framedSource) Inner() ByteSource {
	return f.inner
}

func (f *framedSource) Close() error {
	return f.inner.Close()
}

// readFull pulls exactly n header bytes, mapping a clean EOF at the first
// byte to errEndOfFrames and a mid-header EOF to a truncation error.
func readFull(inner ByteSource, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := inner.Read(buf[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				if read == 0 {
					return errEndOfFrames
				}
				return fmt.Errorf("%w: framing header cut short (%d of %d bytes)",
					types.ErrTruncated, read, len(buf))
			}
			return err
		}
	}
	return nil
}
