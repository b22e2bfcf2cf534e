package lis

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yamaru/welllog-tool/internal/codec"
	"github.com/yamaru/welllog-tool/internal/types"
)

// Buffer is the caller-supplied output allocation for packed frame rows.
// Resize may move the underlying memory, so Bytes must be re-fetched after
// every resize.
type Buffer interface {
	Bytes() []byte
	Resize(rows int)
}

// SliceBuffer is the plain in-memory Buffer.
type SliceBuffer struct {
	itemsize int
	data     []byte
}

// NewSliceBuffer makes a buffer with the given destination row width.
func NewSliceBuffer(itemsize int) *SliceBuffer {
	return &SliceBuffer{itemsize: itemsize}
}

// Bytes returns the current backing slice.
func (b *SliceBuffer) Bytes() []byte {
	return b.data
}

// Resize grows or shrinks the buffer to rows rows.
func (b *SliceBuffer) Resize(rows int) {
	want := rows * b.itemsize
	if want <= cap(b.data) {
		b.data = b.data[:want]
		return
	}
	grown := make([]byte, want)
	copy(grown, b.data)
	b.data = grown
}

// frameSizes gives the source (on-disk) and destination (packed) byte
// widths of one format character. Floats widen to 4 destination bytes.
func frameSizes(c byte) (src, dst int, err error) {
	switch c {
	case FmtI8:
		return 1, 1, nil
	case FmtI16:
		return 2, 2, nil
	case FmtI32:
		return 4, 4, nil
	case FmtF16:
		return 2, 4, nil
	case FmtF32, FmtF32Low, FmtF32Fix:
		return 4, 4, nil
	case FmtByte:
		return 1, 1, nil
	default:
		return 0, 0, fmt.Errorf("%w: invalid format character %q",
			types.ErrParse, c)
	}
}

// PackFLen returns the source and destination bytes one frame of fmtstr
// occupies.
func PackFLen(fmtstr string) (src, dst int, err error) {
	for i := 0; i < len(fmtstr); i++ {
		s, d, err := frameSizes(fmtstr[i])
		if err != nil {
			return 0, 0, err
		}
		src += s
		dst += d
	}
	return src, dst, nil
}

// PackFrame decodes one frame from src and writes the entries
// little-endian and naturally aligned into dst, returning the bytes
// consumed and produced.
func PackFrame(fmtstr string, src, dst []byte) (int, int, error) {
	read, wrote := 0, 0
	for i := 0; i < len(fmtstr); i++ {
		switch fmtstr[i] {
		case FmtI8:
			v, n, err := codec.LisI8(src[read:])
			if err != nil {
				return read, wrote, err
			}
			dst[wrote] = byte(v)
			read += n
			wrote++
		case FmtI16:
			v, n, err := codec.LisI16(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint16(dst[wrote:], uint16(v))
			read += n
			wrote += 2
		case FmtI32:
			v, n, err := codec.LisI32(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint32(dst[wrote:], uint32(v))
			read += n
			wrote += 4
		case FmtF16:
			v, n, err := codec.LisF16(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint32(dst[wrote:], math.Float32bits(v))
			read += n
			wrote += 4
		case FmtF32:
			v, n, err := codec.LisF32(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint32(dst[wrote:], math.Float32bits(v))
			read += n
			wrote += 4
		case FmtF32Low:
			v, n, err := codec.LisF32Low(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint32(dst[wrote:], math.Float32bits(v))
			read += n
			wrote += 4
		case FmtF32Fix:
			v, n, err := codec.LisF32Fix(src[read:])
			if err != nil {
				return read, wrote, err
			}
			binary.LittleEndian.PutUint32(dst[wrote:], math.Float32bits(v))
			read += n
			wrote += 4
		case FmtByte:
			v, n, err := codec.LisByte(src[read:])
			if err != nil {
				return read, wrote, err
			}
			dst[wrote] = v
			read += n
			wrote++
		default:
			return read, wrote, fmt.Errorf("%w: invalid format character %q",
				types.ErrParse, fmtstr[i])
		}
	}
	return read, wrote, nil
}

// ReadFData packs every frame of the implicit records belonging to the
// DFSR at dfsr.LTell into buf. The row count per record is not assumed;
// frames are discovered by walking each record's payload with the frame's
// source size. The buffer doubles when the initial one-row-per-record
// guess runs out and shrinks to the final frame count before returning.
func ReadFData(fmtstr string, dev *IODevice, index *RecordIndex,
	dfsr RecordInfo, itemsize int, buf Buffer) (int, error) {

	srcSkip, dstSkip, err := PackFLen(fmtstr)
	if err != nil {
		return 0, err
	}
	if srcSkip == 0 {
		return 0, fmt.Errorf("%w: empty frame format", types.ErrInvalidArgument)
	}
	if itemsize < dstSkip {
		return 0, fmt.Errorf("%w: itemsize (%d) smaller than destination frame "+
			"size (%d)", types.ErrInvalidArgument, itemsize, dstSkip)
	}

	implicits, err := index.ImplicitsOf(dfsr.LTell)
	if err != nil {
		return 0, err
	}

	allocated := len(implicits)
	buf.Resize(allocated)

	frames := 0
	for _, head := range implicits {
		rec, err := dev.ReadRecord(head)
		if err != nil {
			return frames, err
		}

		ptr := 0
		for ptr < len(rec.Data) {
			if frames == allocated {
				allocated = frames * 2
				buf.Resize(allocated)
			}
			if ptr+srcSkip > len(rec.Data) {
				return frames, fmt.Errorf("%w: corrupted record: fmtstr would "+
					"read past end", types.ErrParse)
			}
			dst := buf.Bytes()[frames*itemsize:]
			if _, _, err := PackFrame(fmtstr, rec.Data[ptr:], dst); err != nil {
				return frames, err
			}
			ptr += srcSkip
			frames++
		}
	}

	if allocated > frames {
		buf.Resize(frames)
	}
	return frames, nil
}
