package codec

import (
	"encoding/binary"
	"math"
)

// LIS-79 primitive codecs. Headers and integers are big-endian; the float
// layouts follow Appendix B of the standard.

// LisI8 decodes an 8-bit two's complement integer.
func LisI8(b []byte) (int8, int, error) {
	return Sshort(b)
}

// LisI16 decodes a 16-bit two's complement integer.
func LisI16(b []byte) (int16, int, error) {
	return Snorm(b)
}

// LisI32 decodes a 32-bit two's complement integer.
func LisI32(b []byte) (int32, int, error) {
	return Slong(b)
}

// LisF16 decodes the 16-bit floating point: the same mini-float layout as
// the RP66 fshort code (sign, 11-bit mantissa, 4-bit exponent).
func LisF16(b []byte) (float32, int, error) {
	return Fshort(b)
}

// LisF32 decodes the 32-bit floating point: sign, 8-bit excess-128
// exponent, 23-bit fraction. Negative values two's-complement the fraction.
func LisF32(b []byte) (float32, int, error) {
	v, n, err := Ulong(b)
	if err != nil {
		return 0, 0, err
	}
	signBit := v & 0x80000000
	expBits := (v & 0x7F800000) >> 23
	fracBits := v & 0x007FFFFF
	if signBit != 0 {
		fracBits = (^fracBits & 0x007FFFFF) + 1
	}
	sign := float64(1)
	if signBit != 0 {
		sign = -1
	}
	out := sign * float64(fracBits) / float64(1<<23) * math.Pow(2, float64(expBits)-128)
	return float32(out), n, nil
}

// LisF32Low decodes the 32-bit low resolution floating point: a 16-bit
// two's complement exponent followed by a 16-bit two's complement fraction
// with the binary point left of the most significant bit.
func LisF32Low(b []byte) (float32, int, error) {
	exp, n, err := Snorm(b)
	if err != nil {
		return 0, 0, err
	}
	frac, m, err := Snorm(b[n:])
	if err != nil {
		return 0, 0, err
	}
	out := float64(frac) * math.Pow(2, float64(exp)-15)
	return float32(out), n + m, nil
}

// LisF32Fix decodes the 32-bit fixed point: two's complement with the
// binary point in the middle.
func LisF32Fix(b []byte) (float32, int, error) {
	v, n, err := Slong(b)
	if err != nil {
		return 0, 0, err
	}
	return float32(float64(v) / 65536), n, nil
}

// LisByte decodes an unsigned byte.
func LisByte(b []byte) (uint8, int, error) {
	return Ushort(b)
}

// LisString copies an externally-sized alphanumeric. The type does not
// carry its own length; it comes from an entry block or spec block.
func LisString(b []byte, size int) (string, int, error) {
	if err := need(b, size, "string"); err != nil {
		return "", 0, err
	}
	return string(b[:size]), size, nil
}

// LisMask copies an externally-sized bitmask.
func LisMask(b []byte, size int) ([]byte, int, error) {
	if err := need(b, size, "mask"); err != nil {
		return nil, 0, err
	}
	out := make([]byte, size)
	copy(out, b)
	return out, size, nil
}

// PutLisF16 writes a float as the 16-bit floating point code.
func PutLisF16(buf []byte, v float32) (int, error) {
	return PutFshort(buf, v)
}

// PutLisF32 writes a float as the LIS 32-bit floating point code.
func PutLisF32(buf []byte, v float32) (int, error) {
	if err := room(buf, 4, "f32"); err != nil {
		return 0, err
	}
	if v == 0 {
		binary.BigEndian.PutUint32(buf, 0)
		return 4, nil
	}

	neg := v < 0
	mag := float64(v)
	if neg {
		mag = -mag
	}

	frac, exp := math.Frexp(mag)
	fracBits := uint32(math.Round(frac * float64(1<<23)))
	if fracBits == 1<<23 {
		// Rounding carried past the fraction width.
		fracBits >>= 1
		exp++
	}
	expBits := uint32(exp + 128)

	var out uint32
	if neg {
		out = 0x80000000 | expBits<<23 | ((^fracBits + 1) & 0x007FFFFF)
	} else {
		out = expBits<<23 | fracBits
	}
	binary.BigEndian.PutUint32(buf, out)
	return 4, nil
}
