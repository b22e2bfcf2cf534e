// Package codec implements the pure byte<->value conversions for every RP66
// and LIS-79 primitive representation code. All multi-byte integers and IEEE
// floats are big-endian on disk; IBM and VAX floats carry their own custom
// layouts. Decoders return the value and the number of bytes consumed.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yamaru/welllog-tool/internal/types"
)

func need(b []byte, n int, code string) error {
	if len(b) < n {
		return fmt.Errorf("%w: %s needs %d bytes, have %d",
			types.ErrInvalidArgument, code, n, len(b))
	}
	return nil
}

// Sshort decodes an 8-bit signed integer.
func Sshort(b []byte) (int8, int, error) {
	if err := need(b, 1, "sshort"); err != nil {
		return 0, 0, err
	}
	return int8(b[0]), 1, nil
}

// Snorm decodes a 16-bit signed integer.
func Snorm(b []byte) (int16, int, error) {
	if err := need(b, 2, "snorm"); err != nil {
		return 0, 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), 2, nil
}

// Slong decodes a 32-bit signed integer.
func Slong(b []byte) (int32, int, error) {
	if err := need(b, 4, "slong"); err != nil {
		return 0, 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), 4, nil
}

// Ushort decodes an 8-bit unsigned integer.
func Ushort(b []byte) (uint8, int, error) {
	if err := need(b, 1, "ushort"); err != nil {
		return 0, 0, err
	}
	return b[0], 1, nil
}

// Unorm decodes a 16-bit unsigned integer.
func Unorm(b []byte) (uint16, int, error) {
	if err := need(b, 2, "unorm"); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint16(b), 2, nil
}

// Ulong decodes a 32-bit unsigned integer.
func Ulong(b []byte) (uint32, int, error) {
	if err := need(b, 4, "ulong"); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(b), 4, nil
}

// Uvari decodes a variable-length unsigned integer. The top two bits of the
// first byte tag the width: 0x -> 1 byte, 10 -> 2 bytes, 11 -> 4 bytes. The
// length-encoding bits are blanked out, so values always fit in [0, 2^30).
func Uvari(b []byte) (int32, int, error) {
	if err := need(b, 1, "uvari"); err != nil {
		return 0, 0, err
	}
	switch b[0] & 0xC0 {
	case 0xC0:
		if err := need(b, 4, "uvari"); err != nil {
			return 0, 0, err
		}
		return int32(binary.BigEndian.Uint32(b) & 0x3FFFFFFF), 4, nil
	case 0x80:
		if err := need(b, 2, "uvari"); err != nil {
			return 0, 0, err
		}
		return int32(binary.BigEndian.Uint16(b) & 0x3FFF), 2, nil
	default:
		return int32(b[0]), 1, nil
	}
}

// IdentDec decodes a length-prefixed identifier of at most 255 bytes. The
// value carries its own length; it is never null-terminated.
func IdentDec(b []byte) (types.Ident, int, error) {
	ln, n, err := Ushort(b)
	if err != nil {
		return "", 0, err
	}
	if err := need(b, n+int(ln), "ident"); err != nil {
		return "", 0, err
	}
	return types.Ident(b[n : n+int(ln)]), n + int(ln), nil
}

// UnitsDec decodes an ident-like units expression.
func UnitsDec(b []byte) (types.Units, int, error) {
	v, n, err := IdentDec(b)
	return types.Units(v), n, err
}

// AsciiDec decodes a uvari-length-prefixed string of up to 2^30 bytes.
func AsciiDec(b []byte) (types.Ascii, int, error) {
	ln, n, err := Uvari(b)
	if err != nil {
		return "", 0, err
	}
	if err := need(b, n+int(ln), "ascii"); err != nil {
		return "", 0, err
	}
	return types.Ascii(b[n : n+int(ln)]), n + int(ln), nil
}

// OriginDec decodes an origin reference (uvari on disk).
func OriginDec(b []byte) (types.Origin, int, error) {
	v, n, err := Uvari(b)
	return types.Origin(v), n, err
}

// StatusDec decodes the 1-byte boolean.
func StatusDec(b []byte) (types.Status, int, error) {
	v, n, err := Ushort(b)
	return types.Status(v), n, err
}

// DtimeDec decodes the 8-byte date-time: year offset from 1900, timezone
// nibble + month nibble, day, hour, minute, second, and big-endian
// milliseconds.
func DtimeDec(b []byte) (types.DTime, int, error) {
	if err := need(b, 8, "dtime"); err != nil {
		return types.DTime{}, 0, err
	}
	dt := types.DTime{
		Y:  1900 + int(b[0]),
		TZ: int(b[1]&0xF0) >> 4,
		M:  int(b[1] & 0x0F),
		D:  int(b[2]),
		H:  int(b[3]),
		MN: int(b[4]),
		S:  int(b[5]),
		MS: int(binary.BigEndian.Uint16(b[6:8])),
	}
	return dt, 8, nil
}

// ObnameDec decodes (origin, copy, ident).
func ObnameDec(b []byte) (types.Obname, int, error) {
	origin, n, err := OriginDec(b)
	if err != nil {
		return types.Obname{}, 0, err
	}
	copyNr, m, err := Ushort(b[n:])
	if err != nil {
		return types.Obname{}, 0, err
	}
	n += m
	id, m, err := IdentDec(b[n:])
	if err != nil {
		return types.Obname{}, 0, err
	}
	return types.Obname{Origin: origin, Copy: copyNr, ID: id}, n + m, nil
}

// ObjrefDec decodes (ident, obname).
func ObjrefDec(b []byte) (types.Objref, int, error) {
	typ, n, err := IdentDec(b)
	if err != nil {
		return types.Objref{}, 0, err
	}
	name, m, err := ObnameDec(b[n:])
	if err != nil {
		return types.Objref{}, 0, err
	}
	return types.Objref{Type: typ, Name: name}, n + m, nil
}

// AttrefDec decodes (ident, obname, ident).
func AttrefDec(b []byte) (types.Attref, int, error) {
	typ, n, err := IdentDec(b)
	if err != nil {
		return types.Attref{}, 0, err
	}
	name, m, err := ObnameDec(b[n:])
	if err != nil {
		return types.Attref{}, 0, err
	}
	n += m
	label, m, err := IdentDec(b[n:])
	if err != nil {
		return types.Attref{}, 0, err
	}
	return types.Attref{Type: typ, Name: name, Label: label}, n + m, nil
}

// Fshort decodes the 16-bit floating point: 1 sign bit, 11-bit mantissa in
// bits 4-14, 4-bit exponent in bits 0-3. Negative values two's-complement
// the mantissa.
func Fshort(b []byte) (float32, int, error) {
	v, n, err := Unorm(b)
	if err != nil {
		return 0, 0, err
	}
	signBit := v & 0x8000
	expBits := v & 0x000F
	fracBits := (v & 0xFFF0) >> 4
	if signBit != 0 {
		fracBits = (^fracBits & 0x0FFF) + 1
	}
	sign := float64(1)
	if signBit != 0 {
		sign = -1
	}
	out := sign * float64(fracBits) / 2048 * math.Pow(2, float64(expBits))
	return float32(out), n, nil
}

// Fsingl decodes an IEEE 754 single.
func Fsingl(b []byte) (float32, int, error) {
	v, n, err := Ulong(b)
	if err != nil {
		return 0, 0, err
	}
	return math.Float32frombits(v), n, nil
}

// Fdoubl decodes an IEEE 754 double.
func Fdoubl(b []byte) (float64, int, error) {
	if err := need(b, 8, "fdoubl"); err != nil {
		return 0, 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), 8, nil
}

// IBM single normalization tables: the offsets and multipliers keyed by the
// top three mantissa bits turn the hex-base-16 characteristic into an IEEE
// exponent.
var (
	isinglIT = [8]uint32{
		0x21800000, 0x21400000, 0x21000000, 0x21000000,
		0x20c00000, 0x20c00000, 0x20c00000, 0x20c00000,
	}
	isinglMT = [8]uint32{8, 4, 2, 2, 1, 1, 1, 1}
)

// Isingl decodes the IBM 32-bit hex-base-16 float into IEEE. Clamps at max
// on overflow, zeros on underflow.
func Isingl(b []byte) (float32, int, error) {
	u, n, err := Ulong(b)
	if err != nil {
		return 0, 0, err
	}
	const (
		ieeemax = 0x7FFFFFFF
		iemaxib = 0x611FFFFF
		ieminib = 0x21200000
	)
	manthi := u & 0x00FFFFFF
	ix := manthi >> 21
	iexp := ((u & 0x7F000000) - isinglIT[ix]) << 1
	manthi = manthi*isinglMT[ix] + iexp
	inabs := u & 0x7FFFFFFF
	if inabs > iemaxib {
		manthi = ieeemax
	}
	manthi |= u & 0x80000000
	if inabs < ieminib {
		manthi = 0
	}
	return math.Float32frombits(manthi), n, nil
}

// Vsingl decodes the VAX 32-bit float: word-swapped on disk, hidden bit of
// the 24-bit normalized mantissa before the point (0.1m), exponent biased by
// 128. exp=0 with positive sign is zero; exp=0 with negative sign has no
// defined value and decodes to NaN.
func Vsingl(b []byte) (float32, int, error) {
	if err := need(b, 4, "vsingl"); err != nil {
		return 0, 0, err
	}
	v := uint32(b[1])<<24 | uint32(b[0])<<16 | uint32(b[3])<<8 | uint32(b[2])
	signBit := v & 0x80000000
	fracBits := v & 0x007FFFFF
	expBits := (v & 0x7F800000) >> 23

	sign := float64(1)
	if signBit != 0 {
		sign = -1
	}
	significand := float64(fracBits|0x00800000) / float64(1<<24)

	var out float32
	switch {
	case expBits != 0:
		out = float32(sign * significand * math.Pow(2, float64(expBits)-128))
	case signBit == 0:
		out = 0
	default:
		out = float32(math.NaN())
	}
	return out, 4, nil
}

// Fsing1Dec decodes a validated single: value plus one bound.
func Fsing1Dec(b []byte) (types.Fsing1, int, error) {
	v, n, err := Fsingl(b)
	if err != nil {
		return types.Fsing1{}, 0, err
	}
	a, m, err := Fsingl(b[n:])
	if err != nil {
		return types.Fsing1{}, 0, err
	}
	return types.Fsing1{V: v, A: a}, n + m, nil
}

// Fsing2Dec decodes a validated single: value plus two bounds.
func Fsing2Dec(b []byte) (types.Fsing2, int, error) {
	v, n, err := Fsing1Dec(b)
	if err != nil {
		return types.Fsing2{}, 0, err
	}
	bv, m, err := Fsingl(b[n:])
	if err != nil {
		return types.Fsing2{}, 0, err
	}
	return types.Fsing2{V: v.V, A: v.A, B: bv}, n + m, nil
}

// Fdoub1Dec decodes a validated double: value plus one bound.
func Fdoub1Dec(b []byte) (types.Fdoub1, int, error) {
	v, n, err := Fdoubl(b)
	if err != nil {
		return types.Fdoub1{}, 0, err
	}
	a, m, err := Fdoubl(b[n:])
	if err != nil {
		return types.Fdoub1{}, 0, err
	}
	return types.Fdoub1{V: v, A: a}, n + m, nil
}

// Fdoub2Dec decodes a validated double: value plus two bounds.
func Fdoub2Dec(b []byte) (types.Fdoub2, int, error) {
	v, n, err := Fdoub1Dec(b)
	if err != nil {
		return types.Fdoub2{}, 0, err
	}
	bv, m, err := Fdoubl(b[n:])
	if err != nil {
		return types.Fdoub2{}, 0, err
	}
	return types.Fdoub2{V: v.V, A: v.A, B: bv}, n + m, nil
}

// CsinglDec decodes a single precision complex.
func CsinglDec(b []byte) (complex64, int, error) {
	re, n, err := Fsingl(b)
	if err != nil {
		return 0, 0, err
	}
	im, m, err := Fsingl(b[n:])
	if err != nil {
		return 0, 0, err
	}
	return complex(re, im), n + m, nil
}

// CdoublDec decodes a double precision complex.
func CdoublDec(b []byte) (complex128, int, error) {
	re, n, err := Fdoubl(b)
	if err != nil {
		return 0, 0, err
	}
	im, m, err := Fdoubl(b[n:])
	if err != nil {
		return 0, 0, err
	}
	return complex(re, im), n + m, nil
}

// Decode reads one value of the given representation code from b. It is the
// single dispatch point used by the object-set parser.
func Decode(rc types.RepCode, b []byte) (types.Value, int, error) {
	switch rc {
	case types.RcFshort:
		v, n, err := Fshort(b)
		return v, n, err
	case types.RcFsingl:
		v, n, err := Fsingl(b)
		return v, n, err
	case types.RcFsing1:
		v, n, err := Fsing1Dec(b)
		return v, n, err
	case types.RcFsing2:
		v, n, err := Fsing2Dec(b)
		return v, n, err
	case types.RcIsingl:
		v, n, err := Isingl(b)
		return v, n, err
	case types.RcVsingl:
		v, n, err := Vsingl(b)
		return v, n, err
	case types.RcFdoubl:
		v, n, err := Fdoubl(b)
		return v, n, err
	case types.RcFdoub1:
		v, n, err := Fdoub1Dec(b)
		return v, n, err
	case types.RcFdoub2:
		v, n, err := Fdoub2Dec(b)
		return v, n, err
	case types.RcCsingl:
		v, n, err := CsinglDec(b)
		return v, n, err
	case types.RcCdoubl:
		v, n, err := CdoublDec(b)
		return v, n, err
	case types.RcSshort:
		v, n, err := Sshort(b)
		return v, n, err
	case types.RcSnorm:
		v, n, err := Snorm(b)
		return v, n, err
	case types.RcSlong:
		v, n, err := Slong(b)
		return v, n, err
	case types.RcUshort:
		v, n, err := Ushort(b)
		return v, n, err
	case types.RcUnorm:
		v, n, err := Unorm(b)
		return v, n, err
	case types.RcUlong:
		v, n, err := Ulong(b)
		return v, n, err
	case types.RcUvari:
		v, n, err := Uvari(b)
		return types.UVari(v), n, err
	case types.RcIdent:
		v, n, err := IdentDec(b)
		return v, n, err
	case types.RcAscii:
		v, n, err := AsciiDec(b)
		return v, n, err
	case types.RcDtime:
		v, n, err := DtimeDec(b)
		return v, n, err
	case types.RcOrigin:
		v, n, err := OriginDec(b)
		return v, n, err
	case types.RcObname:
		v, n, err := ObnameDec(b)
		return v, n, err
	case types.RcObjref:
		v, n, err := ObjrefDec(b)
		return v, n, err
	case types.RcAttref:
		v, n, err := AttrefDec(b)
		return v, n, err
	case types.RcStatus:
		v, n, err := StatusDec(b)
		return v, n, err
	case types.RcUnits:
		v, n, err := UnitsDec(b)
		return v, n, err
	default:
		return nil, 0, fmt.Errorf("%w: unknown representation code %d",
			types.ErrParse, uint8(rc))
	}
}
