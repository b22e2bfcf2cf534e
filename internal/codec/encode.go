package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yamaru/welllog-tool/internal/types"
)

func room(buf []byte, n int, code string) error {
	if len(buf) < n {
		return fmt.Errorf("%w: %s needs %d bytes of output, have %d",
			types.ErrInvalidArgument, code, n, len(buf))
	}
	return nil
}

// PutSshort writes an 8-bit signed integer, returning bytes written.
func PutSshort(buf []byte, v int8) (int, error) {
	if err := room(buf, 1, "sshort"); err != nil {
		return 0, err
	}
	buf[0] = byte(v)
	return 1, nil
}

// PutSnorm writes a 16-bit signed integer.
func PutSnorm(buf []byte, v int16) (int, error) {
	return PutUnorm(buf, uint16(v))
}

// PutSlong writes a 32-bit signed integer.
func PutSlong(buf []byte, v int32) (int, error) {
	return PutUlong(buf, uint32(v))
}

// PutUshort writes an 8-bit unsigned integer.
func PutUshort(buf []byte, v uint8) (int, error) {
	if err := room(buf, 1, "ushort"); err != nil {
		return 0, err
	}
	buf[0] = v
	return 1, nil
}

// PutUnorm writes a 16-bit unsigned integer.
func PutUnorm(buf []byte, v uint16) (int, error) {
	if err := room(buf, 2, "unorm"); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(buf, v)
	return 2, nil
}

// PutUlong writes a 32-bit unsigned integer.
func PutUlong(buf []byte, v uint32) (int, error) {
	if err := room(buf, 4, "ulong"); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf, v)
	return 4, nil
}

// PutUvari writes a variable-length unsigned integer using the smallest
// width that both fits the value and satisfies the minimum width (1, 2 or
// 4).
func PutUvari(buf []byte, v int32, width int) (int, error) {
	switch {
	case v <= 0x7F && width <= 1:
		return PutUshort(buf, uint8(v))
	case v <= 0x3FFF && width <= 2:
		return PutUnorm(buf, uint16(v)|0x8000)
	default:
		return PutUlong(buf, uint32(v)|0xC0000000)
	}
}

// PutIdent writes a length-prefixed identifier.
func PutIdent(buf []byte, v types.Ident) (int, error) {
	if len(v) > 255 {
		return 0, fmt.Errorf("%w: ident longer than 255 bytes (%d)",
			types.ErrInvalidArgument, len(v))
	}
	if err := room(buf, 1+len(v), "ident"); err != nil {
		return 0, err
	}
	buf[0] = byte(len(v))
	copy(buf[1:], v)
	return 1 + len(v), nil
}

// PutUnits writes an ident-like units expression.
func PutUnits(buf []byte, v types.Units) (int, error) {
	return PutIdent(buf, types.Ident(v))
}

// PutAscii writes a uvari-length-prefixed string; width picks the minimum
// length-prefix width.
func PutAscii(buf []byte, v types.Ascii, width int) (int, error) {
	n, err := PutUvari(buf, int32(len(v)), width)
	if err != nil {
		return 0, err
	}
	if err := room(buf, n+len(v), "ascii"); err != nil {
		return 0, err
	}
	copy(buf[n:], v)
	return n + len(v), nil
}

// PutOrigin writes an origin reference at full uvari width.
func PutOrigin(buf []byte, v types.Origin) (int, error) {
	return PutUvari(buf, int32(v), 4)
}

// PutStatus writes the 1-byte boolean.
func PutStatus(buf []byte, v types.Status) (int, error) {
	return PutUshort(buf, uint8(v))
}

// PutDtime writes the 8-byte date-time.
func PutDtime(buf []byte, dt types.DTime) (int, error) {
	if err := room(buf, 8, "dtime"); err != nil {
		return 0, err
	}
	buf[0] = byte(dt.Y - 1900)
	buf[1] = byte(dt.TZ)<<4 | byte(dt.M)&0x0F
	buf[2] = byte(dt.D)
	buf[3] = byte(dt.H)
	buf[4] = byte(dt.MN)
	buf[5] = byte(dt.S)
	binary.BigEndian.PutUint16(buf[6:], uint16(dt.MS))
	return 8, nil
}

// PutObname writes (origin, copy, ident).
func PutObname(buf []byte, v types.Obname) (int, error) {
	n, err := PutOrigin(buf, v.Origin)
	if err != nil {
		return 0, err
	}
	m, err := PutUshort(buf[n:], v.Copy)
	if err != nil {
		return 0, err
	}
	n += m
	m, err = PutIdent(buf[n:], v.ID)
	if err != nil {
		return 0, err
	}
	return n + m, nil
}

// PutObjref writes (ident, obname).
func PutObjref(buf []byte, v types.Objref) (int, error) {
	n, err := PutIdent(buf, v.Type)
	if err != nil {
		return 0, err
	}
	m, err := PutObname(buf[n:], v.Name)
	if err != nil {
		return 0, err
	}
	return n + m, nil
}

// PutAttref writes (ident, obname, ident).
func PutAttref(buf []byte, v types.Attref) (int, error) {
	n, err := PutObjref(buf, types.Objref{Type: v.Type, Name: v.Name})
	if err != nil {
		return 0, err
	}
	m, err := PutIdent(buf[n:], v.Label)
	if err != nil {
		return 0, err
	}
	return n + m, nil
}

// PutFsingl writes an IEEE 754 single.
func PutFsingl(buf []byte, v float32) (int, error) {
	return PutUlong(buf, math.Float32bits(v))
}

// PutFdoubl writes an IEEE 754 double.
func PutFdoubl(buf []byte, v float64) (int, error) {
	if err := room(buf, 8, "fdoubl"); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return 8, nil
}

// IBM single output tables, the inverse of the decode normalization.
var (
	isinglOutIT = [4]uint32{0x21200000, 0x21400000, 0x21800000, 0x22100000}
	isinglOutMT = [4]uint32{2, 4, 8, 1}
)

// PutIsingl writes an IEEE single as an IBM 32-bit hex-base-16 float.
func PutIsingl(buf []byte, v float32) (int, error) {
	u := math.Float32bits(v)

	ix := (u & 0x01800000) >> 23
	iexp := ((u & 0x7E000000) >> 1) + isinglOutIT[ix]
	manthi := (isinglOutMT[ix] * (u & 0x007FFFFF)) >> 3
	manthi = (manthi + iexp) | (u & 0x80000000)
	if u&0x7FFFFFFF == 0 {
		manthi = 0
	}
	return PutUlong(buf, manthi)
}

// PutVsingl writes an IEEE single as a word-swapped VAX float.
func PutVsingl(buf []byte, v float32) (int, error) {
	if err := room(buf, 4, "vsingl"); err != nil {
		return 0, err
	}
	u := math.Float32bits(v)

	signBit := u & 0x80000000
	expBits := (u & 0x7F800000) >> 23
	fracBits := u & 0x007FFFFF

	if expBits == 0 {
		binary.BigEndian.PutUint32(buf, 0)
		return 4, nil
	}

	// IEEE's 1.m hidden bit becomes VAX's 0.1m, shifting the exponent by 2.
	expBits += 2
	w := signBit | expBits<<23 | fracBits

	z := (w&0x00FF0000)<<8 | (w&0xFF000000)>>8 | (w&0x000000FF)<<8 | (w&0x0000FF00)>>8
	binary.BigEndian.PutUint32(buf, z)
	return 4, nil
}

// PutFshort writes a float as the 16-bit floating point code. Values
// outside the representable range are clamped; precision loss follows from
// the 11-bit mantissa.
func PutFshort(buf []byte, v float32) (int, error) {
	if err := room(buf, 2, "fshort"); err != nil {
		return 0, err
	}
	if v == 0 {
		binary.BigEndian.PutUint16(buf, 0)
		return 2, nil
	}

	neg := v < 0
	mag := float64(v)
	if neg {
		mag = -mag
	}

	// The sign is the top bit of the 12-bit mantissa field, so positive
	// mantissas stop at 2047 while negative ones reach 2048.
	limit := 2047.0
	if neg {
		limit = 2048.0
	}

	exp := 0
	frac := math.Round(mag * 2048)
	for frac > limit && exp < 15 {
		exp++
		frac = math.Round(mag * 2048 / math.Pow(2, float64(exp)))
	}
	if frac > limit {
		frac = limit
	}

	var out uint16
	if neg {
		out = uint16((4096-int(frac))&0xFFF)<<4 | uint16(exp)
	} else {
		out = uint16(frac)<<4 | uint16(exp)
	}
	binary.BigEndian.PutUint16(buf, out)
	return 2, nil
}
