package reader

import (
	"encoding/binary"
	"fmt"

	"github.com/yamaru/welllog-tool/internal/types"
)

// RP66 visible-record framing: each visible record opens with a 4-byte
// envelope - a big-endian length that includes the envelope itself, the
// padding byte 0xFF, and the format version 0x01.
const (
	vrHeaderSize = 4
	vrPadByte    = 0xFF
	vrVersion    = 0x01
)

// VRMinLength is the smallest well-formed visible record: the envelope plus
// one logical record segment header.
const VRMinLength = vrHeaderSize + 4

// WrapRP66 composes visible-record framing over inner. Wrapping a source
// positioned at its end fails with ErrEOF.
func WrapRP66(inner ByteSource) (ByteSource, error) {
	return newFramedSource(inner, visibleRecordHeader)
}

func visibleRecordHeader(inner ByteSource) (int64, error) {
	head := inner.Tell()
	var buf [vrHeaderSize]byte
	if err := readFull(inner, buf[:]); err != nil {
		return 0, err
	}
	length := binary.BigEndian.Uint16(buf[0:2])
	if buf[2] != vrPadByte || buf[3] != vrVersion {
		return 0, fmt.Errorf("%w: broken visible record envelope at tell %d: [0x%02X 0x%02X]",
			types.ErrIO, head, buf[2], buf[3])
	}
	if length < vrHeaderSize {
		return 0, fmt.Errorf("%w: visible record length %d shorter than its envelope",
			types.ErrIO, length)
	}
	return int64(length) - vrHeaderSize, nil
}
