package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/welllog-tool/internal/types"
)

func TestLisIntegers(t *testing.T) {
	i8, n, err := LisI8([]byte{0xFF})
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)
	assert.Equal(t, 1, n)

	i16, n, err := LisI16([]byte{0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, int16(256), i16)
	assert.Equal(t, 2, n)

	i32, n, err := LisI32([]byte{0xFF, 0xFF, 0xFF, 0xFE})
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)
	assert.Equal(t, 4, n)

	b, n, err := LisByte([]byte{0xAB})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), b)
	assert.Equal(t, 1, n)
}

func TestLisF16(t *testing.T) {
	v, n, err := LisF16([]byte{0x4C, 0x88})
	require.NoError(t, err)
	assert.Equal(t, float32(153.0), v)
	assert.Equal(t, 2, n)
}

func TestLisF32(t *testing.T) {
	v, n, err := LisF32([]byte{0x44, 0x4C, 0x80, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(153.0), v)
	assert.Equal(t, 4, n)

	v, _, err = LisF32([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(0), v)
}

func TestLisF32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	for _, want := range []float32{0, 1, 153, -0.5} {
		_, err := PutLisF32(buf, want)
		require.NoError(t, err)
		got, _, err := LisF32(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLisF32Low(t *testing.T) {
	// exponent 15, fraction 16384 -> 16384 * 2^0
	v, n, err := LisF32Low([]byte{0x00, 0x0F, 0x40, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(16384), v)
	assert.Equal(t, 4, n)

	// negative fraction
	v, _, err = LisF32Low([]byte{0x00, 0x0F, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, float32(-1), v)
}

func TestLisF32Fix(t *testing.T) {
	v, n, err := LisF32Fix([]byte{0x00, 0x01, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), v)
	assert.Equal(t, 4, n)

	v, _, err = LisF32Fix([]byte{0x00, 0x00, 0x80, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), v)
}

func TestLisStringAndMask(t *testing.T) {
	s, n, err := LisString([]byte("CALIPER "), 7)
	require.NoError(t, err)
	assert.Equal(t, "CALIPER", s)
	assert.Equal(t, 7, n)

	m, n, err := LisMask([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, m)
	assert.Equal(t, 4, n)

	_, _, err = LisString([]byte("AB"), 4)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
