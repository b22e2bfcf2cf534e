package reader

import (
	"encoding/binary"
	"fmt"

	"github.com/yamaru/welllog-tool/internal/types"
)

// Tape image framing: every record is preceded by a 12-byte little-endian
// header (kind, previous-header offset, next-header offset). Kind 0 is a
// data record, kind 1 a tape mark. A tape mark terminates the logical
// stream of the current file; end-of-medium does too.
const (
	tifHeaderSize = 12

	tifKindData     = 0
	tifKindTapeMark = 1
	tifKindEOM      = 0xFFFFFFFF
)

// WrapTapeImage composes tape-image framing over inner. Wrapping a source
// positioned at its end fails with ErrEOF.
func WrapTapeImage(inner ByteSource) (ByteSource, error) {
	return newFramedSource(inner, tapeImageHeader)
}

func tapeImageHeader(inner ByteSource) (int64, error) {
	head := inner.Tell()
	var buf [tifHeaderSize]byte
	if err := readFull(inner, buf[:]); err != nil {
		return 0, err
	}
	kind := binary.LittleEndian.Uint32(buf[0:4])
	next := binary.LittleEndian.Uint32(buf[8:12])

	switch kind {
	case tifKindData:
		size := int64(next) - (head + tifHeaderSize)
		if size < 0 {
			return 0, fmt.Errorf("%w: tape image header at tell %d points backwards (next = %d)",
				types.ErrIO, head, next)
		}
		return size, nil
	case tifKindTapeMark, tifKindEOM:
		return 0, errEndOfFrames
	default:
		return 0, fmt.Errorf("%w: unknown tape image record kind %d at tell %d",
			types.ErrIO, kind, head)
	}
}
