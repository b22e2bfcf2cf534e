package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/welllog-tool/internal/types"
)

func TestUvariWidths(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		value    int32
		consumed int
	}{
		{"one byte max", []byte{0x7F}, 127, 1},
		{"one byte zero", []byte{0x00}, 0, 1},
		{"two bytes", []byte{0x80, 0x01}, 1, 2},
		{"two bytes max", []byte{0xBF, 0xFF}, 0x3FFF, 2},
		{"four bytes", []byte{0xC0, 0x00, 0x00, 0x01}, 1, 4},
		{"four bytes max", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0x3FFFFFFF, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, n, err := Uvari(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.consumed, n)
			assert.GreaterOrEqual(t, v, int32(0))
			assert.Less(t, v, int32(1<<30))
		})
	}
}

func TestUvariShortBuffer(t *testing.T) {
	_, _, err := Uvari([]byte{0xC0, 0x00})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestFshort(t *testing.T) {
	tests := []struct {
		input []byte
		want  float32
	}{
		{[]byte{0x4C, 0x88}, 153.0},
		{[]byte{0x80, 0x00}, -1.0},
		{[]byte{0x00, 0x00}, 0.0},
	}
	for _, tt := range tests {
		v, n, err := Fshort(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v)
		assert.Equal(t, 2, n)
	}
}

func TestFshortRoundTrip(t *testing.T) {
	for _, want := range []float32{0, -1, 153} {
		buf := make([]byte, 2)
		n, err := PutFshort(buf, want)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		got, _, err := Fshort(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDtime(t *testing.T) {
	input := []byte{71, 0x21, 7, 12, 30, 45, 0x00, 0x50}
	dt, n, err := DtimeDec(input)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, types.DTime{
		Y: 1971, TZ: 2, M: 1, D: 7, H: 12, MN: 30, S: 45, MS: 80,
	}, dt)
}

func TestDtimeRoundTrip(t *testing.T) {
	want := types.DTime{Y: 2004, TZ: 1, M: 12, D: 31, H: 23, MN: 59, S: 58, MS: 999}
	buf := make([]byte, 8)
	_, err := PutDtime(buf, want)
	require.NoError(t, err)

	got, _, err := DtimeDec(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIdent(t *testing.T) {
	v, n, err := IdentDec([]byte{4, 'T', 'I', 'M', 'E'})
	require.NoError(t, err)
	assert.Equal(t, types.Ident("TIME"), v)
	assert.Equal(t, 5, n)
	assert.LessOrEqual(t, len(v), 255)
}

func TestIdentEmbeddedNull(t *testing.T) {
	// Decoding must not null-terminate; the value carries its own length.
	v, n, err := IdentDec([]byte{3, 'A', 0, 'B'})
	require.NoError(t, err)
	assert.Equal(t, types.Ident("A\x00B"), v)
	assert.Equal(t, 4, n)
}

func TestAscii(t *testing.T) {
	v, n, err := AsciiDec([]byte{5, 'h', 'e', 'l', 'l', 'o'})
	require.NoError(t, err)
	assert.Equal(t, types.Ascii("hello"), v)
	assert.Equal(t, 6, n)
}

func TestAsciiTwoByteLength(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = 'x'
	}
	input := append([]byte{0x81, 0x2C}, payload...) // uvari(300) in 2 bytes
	v, n, err := AsciiDec(input)
	require.NoError(t, err)
	assert.Len(t, string(v), 300)
	assert.Equal(t, 302, n)
}

func TestObname(t *testing.T) {
	input := []byte{0x0A, 2, 4, '8', '0', '0', 'T'}
	v, n, err := ObnameDec(input)
	require.NoError(t, err)
	assert.Equal(t, types.Obname{Origin: 10, Copy: 2, ID: "800T"}, v)
	assert.Equal(t, 7, n)
}

func TestObnameRoundTrip(t *testing.T) {
	want := types.Obname{Origin: 1024, Copy: 3, ID: "CHANNEL-1"}
	buf := make([]byte, 32)
	n, err := PutObname(buf, want)
	require.NoError(t, err)

	got, m, err := ObnameDec(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, want, got)
}

func TestObjrefAttref(t *testing.T) {
	objref := types.Objref{
		Type: "FRAME",
		Name: types.Obname{Origin: 1, Copy: 0, ID: "60B"},
	}
	buf := make([]byte, 64)
	n, err := PutObjref(buf, objref)
	require.NoError(t, err)
	gotRef, _, err := ObjrefDec(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, objref, gotRef)

	attref := types.Attref{Type: "TOOL", Name: objref.Name, Label: "STATUS"}
	n, err = PutAttref(buf, attref)
	require.NoError(t, err)
	gotAtt, _, err := AttrefDec(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, attref, gotAtt)
}

func TestIntegerRoundTrips(t *testing.T) {
	buf := make([]byte, 8)

	_, err := PutSshort(buf, -100)
	require.NoError(t, err)
	i8, _, err := Sshort(buf)
	require.NoError(t, err)
	assert.Equal(t, int8(-100), i8)

	_, err = PutSnorm(buf, -30000)
	require.NoError(t, err)
	i16, _, err := Snorm(buf)
	require.NoError(t, err)
	assert.Equal(t, int16(-30000), i16)

	_, err = PutSlong(buf, -2000000000)
	require.NoError(t, err)
	i32, _, err := Slong(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-2000000000), i32)

	_, err = PutUnorm(buf, 60000)
	require.NoError(t, err)
	u16, _, err := Unorm(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(60000), u16)

	_, err = PutUlong(buf, 4000000000)
	require.NoError(t, err)
	u32, _, err := Ulong(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(4000000000), u32)
}

func TestUvariRoundTripWidths(t *testing.T) {
	tests := []struct {
		value int32
		width int
		bytes int
	}{
		{127, 1, 1},
		{127, 2, 2},
		{128, 1, 2},
		{16383, 2, 2},
		{16384, 1, 4},
		{1 << 29, 1, 4},
	}
	for _, tt := range tests {
		buf := make([]byte, 4)
		n, err := PutUvari(buf, tt.value, tt.width)
		require.NoError(t, err)
		assert.Equal(t, tt.bytes, n)

		got, m, err := Uvari(buf[:n])
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
		assert.Equal(t, n, m)
	}
}

func TestFloatRoundTrips(t *testing.T) {
	buf := make([]byte, 8)

	for _, want := range []float32{0, 1, -2.5, 1532.25} {
		_, err := PutFsingl(buf, want)
		require.NoError(t, err)
		got, _, err := Fsingl(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, want := range []float64{0, -1, 0.00152587890625} {
		_, err := PutFdoubl(buf, want)
		require.NoError(t, err)
		got, _, err := Fdoubl(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIsingl(t *testing.T) {
	// IBM 0x41100000: characteristic 0x41, fraction 1/16 -> 1.0
	v, _, err := Isingl([]byte{0x41, 0x10, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), v)

	// IBM 0x42640000: characteristic 0x42, fraction 100/256 -> 100.0
	v, _, err = Isingl([]byte{0x42, 0x64, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(100.0), v)
}

func TestIsinglRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	for _, want := range []float32{1, -1, 100, 0.25} {
		_, err := PutIsingl(buf, want)
		require.NoError(t, err)
		got, _, err := Isingl(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestVsinglZeroAndNaN(t *testing.T) {
	// exp=0, sign=0 -> 0. Word-swapped zero is just zeros.
	v, _, err := Vsingl([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, float32(0), v)

	// exp=0, sign=1 -> NaN. The sign bit lives in byte 1 of the
	// word-swapped layout.
	v, _, err = Vsingl([]byte{0x00, 0x80, 0x00, 0x00})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(v)))
}

func TestVsinglRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	for _, want := range []float32{1, -2.5, 0.125} {
		_, err := PutVsingl(buf, want)
		require.NoError(t, err)
		got, _, err := Vsingl(buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCompositeFloats(t *testing.T) {
	buf := make([]byte, 24)

	n, err := PutFsingl(buf, 1.5)
	require.NoError(t, err)
	_, err = PutFsingl(buf[n:], 0.25)
	require.NoError(t, err)
	v1, consumed, err := Fsing1Dec(buf)
	require.NoError(t, err)
	assert.Equal(t, types.Fsing1{V: 1.5, A: 0.25}, v1)
	assert.Equal(t, 8, consumed)

	PutFsingl(buf[8:], -3)
	v2, consumed, err := Fsing2Dec(buf)
	require.NoError(t, err)
	assert.Equal(t, types.Fsing2{V: 1.5, A: 0.25, B: -3}, v2)
	assert.Equal(t, 12, consumed)

	c, consumed, err := CsinglDec(buf)
	require.NoError(t, err)
	assert.Equal(t, complex(float32(1.5), float32(0.25)), c)
	assert.Equal(t, 8, consumed)
}

func TestDecodeDispatch(t *testing.T) {
	v, n, err := Decode(types.RcUshort, []byte{42})
	require.NoError(t, err)
	assert.Equal(t, uint8(42), v)
	assert.Equal(t, 1, n)

	v, n, err = Decode(types.RcIdent, []byte{2, 'O', 'K'})
	require.NoError(t, err)
	assert.Equal(t, types.Ident("OK"), v)
	assert.Equal(t, 3, n)

	_, _, err = Decode(types.RcUndef, []byte{0})
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestStatusUnits(t *testing.T) {
	s, _, err := StatusDec([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, types.Status(1), s)

	u, n, err := UnitsDec([]byte{3, 'f', '/', 's'})
	require.NoError(t, err)
	assert.Equal(t, types.Units("f/s"), u)
	assert.Equal(t, 4, n)
}
