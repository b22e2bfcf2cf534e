package lis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/welllog-tool/internal/types"
	"github.com/yamaru/welllog-tool/test/fixtures"
)

func TestParsePRH(t *testing.T) {
	head := ParsePRH([]byte{0x00, 0x40, 0x40, 0x03})
	assert.Equal(t, uint16(64), head.Length)
	assert.Equal(t, uint16(0x4003), head.Attributes)
	assert.Equal(t, 2, head.TrailerSize())
}

func TestParseLRH(t *testing.T) {
	head := ParseLRH([]byte{64, 0})
	assert.Equal(t, uint8(64), head.Type)
	assert.Equal(t, RecordType(64), RecordType(head.Type))
}

func TestIsPadBytes(t *testing.T) {
	assert.True(t, IsPadBytes([]byte{0, 0, 0, 0}))
	assert.True(t, IsPadBytes([]byte{0x20, 0x20}))
	assert.False(t, IsPadBytes([]byte{0, 0x20}))
	assert.False(t, IsPadBytes([]byte{0x00, 0x01}))
	assert.False(t, IsPadBytes(nil))
}

func TestValidRecordType(t *testing.T) {
	assert.True(t, ValidRecordType(TypeNormalData))
	assert.True(t, ValidRecordType(TypeFormatSpec))
	assert.True(t, ValidRecordType(TypeReelTrailer))
	assert.False(t, ValidRecordType(RecordType(2)))
	assert.False(t, ValidRecordType(RecordType(255)))
}

func sampleDFSRRecord(t *testing.T, body []byte) *Record {
	t.Helper()
	return &Record{
		Info: RecordInfo{LRH: LRHeader{Type: uint8(TypeFormatSpec)}},
		Data: body,
	}
}

func TestParseDFSR(t *testing.T) {
	rec := sampleDFSRRecord(t, fixtures.SampleDFSRBody())
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)

	assert.Equal(t, 0, dfs.Subtype)
	require.Len(t, dfs.Entries, 1)
	assert.Equal(t, EntryTerminator, dfs.Entries[0].Type)

	require.Len(t, dfs.Specs, 2)
	assert.Equal(t, "CH01", dfs.Specs[0].Mnemonic)
	assert.Equal(t, RcF32, dfs.Specs[0].Reprc)
	assert.Equal(t, int16(4), dfs.Specs[0].Size)
	assert.Equal(t, uint8(1), dfs.Specs[0].Samples)
	assert.Equal(t, "CH02", dfs.Specs[1].Mnemonic)
	assert.Equal(t, RcI16, dfs.Specs[1].Reprc)
	assert.Equal(t, int16(2), dfs.Specs[1].Size)
}

func TestParseDFSRSubtypeEntry(t *testing.T) {
	var body []byte
	body = append(body, fixtures.SubtypeEntry(1)...)
	body = append(body, fixtures.TerminatorEntry()...)

	rec := sampleDFSRRecord(t, body)
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)
	assert.Equal(t, 1, dfs.Subtype)
	assert.Empty(t, dfs.Specs)
}

func TestFmtStr(t *testing.T) {
	rec := sampleDFSRRecord(t, fixtures.SampleDFSRBody())
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)

	fmtstr, err := FmtStr(&dfs)
	require.NoError(t, err)
	assert.Equal(t, "fi", fmtstr)

	src, dst, err := PackFLen(fmtstr)
	require.NoError(t, err)
	assert.Equal(t, 6, src)
	assert.Equal(t, 6, dst)
}

func TestFmtStrMultiEntryChannel(t *testing.T) {
	var body []byte
	body = append(body, fixtures.TerminatorEntry()...)
	// A 12-byte f32 channel contributes three entries.
	body = append(body, fixtures.BinarySpecBlock("CH01", "M   ", 12, 3, 68)...)

	rec := sampleDFSRRecord(t, body)
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)

	fmtstr, err := FmtStr(&dfs)
	require.NoError(t, err)
	assert.Equal(t, "fff", fmtstr)
}

func TestFmtStrRejectsVariableLength(t *testing.T) {
	var body []byte
	body = append(body, fixtures.TerminatorEntry()...)
	body = append(body, fixtures.BinarySpecBlock("CH01", "M   ", 4, 1, 65)...)

	rec := sampleDFSRRecord(t, body)
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)

	_, err = FmtStr(&dfs)
	require.ErrorIs(t, err, types.ErrParse)
	assert.Contains(t, err.Error(), "CH01")
}

func TestFmtStrRejectsIndivisibleSize(t *testing.T) {
	var body []byte
	body = append(body, fixtures.TerminatorEntry()...)
	// Size 6 does not divide by the 4-byte f32 element size.
	body = append(body, fixtures.BinarySpecBlock("BADC", "M   ", 6, 1, 68)...)

	rec := sampleDFSRRecord(t, body)
	dfs, err := ParseDFSR(rec)
	require.NoError(t, err)

	_, err = FmtStr(&dfs)
	require.ErrorIs(t, err, types.ErrParse)
	assert.Contains(t, err.Error(), "BADC")
}

func TestReadEntryBlockTruncated(t *testing.T) {
	_, err := ReadEntryBlock([]byte{0, 4}, 0)
	assert.ErrorIs(t, err, types.ErrTruncated)

	_, err = ReadEntryBlock([]byte{1, 4, 66, 0}, 0)
	assert.ErrorIs(t, err, types.ErrTruncated)
}
