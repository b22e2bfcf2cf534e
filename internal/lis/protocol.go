// Package lis implements the LIS-79 side of the reader: physical-record
// framing over tape-era padding, the record index, the Data Format
// Specification parser and the frame packer.
package lis

import (
	"encoding/binary"
	"fmt"

	"github.com/yamaru/welllog-tool/internal/codec"
	"github.com/yamaru/welllog-tool/internal/types"
)

// On-disk header sizes.
const (
	PRHSize = 4 // physical record header
	LRHSize = 2 // logical record header
)

// Physical record attribute bits. The trailer carries two bytes for each
// enabled presence bit, in record-number, file-number, checksum order.
const (
	PRAttrSuccessor    = 1 << 0  // another PR continues this LR
	PRAttrPredecessor  = 1 << 1  // this PR continues an earlier one
	PRAttrChecksum     = 1 << 11 // 2-byte checksum in the trailer
	PRAttrFileNumber   = 1 << 13 // 2-byte file number in the trailer
	PRAttrRecordNumber = 1 << 14 // 2-byte record number in the trailer
)

// PRHeader is the 4-byte big-endian physical record header.
type PRHeader struct {
	Length     uint16
	Attributes uint16
}

// TrailerSize returns the number of trailer bytes this PR declares.
func (h PRHeader) TrailerSize() int {
	n := 0
	if h.Attributes&PRAttrRecordNumber != 0 {
		n += 2
	}
	if h.Attributes&PRAttrFileNumber != 0 {
		n += 2
	}
	if h.Attributes&PRAttrChecksum != 0 {
		n += 2
	}
	return n
}

// ParsePRH splits a physical record header.
func ParsePRH(b []byte) PRHeader {
	return PRHeader{
		Length:     binary.BigEndian.Uint16(b[0:2]),
		Attributes: binary.BigEndian.Uint16(b[2:4]),
	}
}

// LRHeader is the 2-byte logical record header, present only in the first
// PR of a chain.
type LRHeader struct {
	Type       uint8
	Attributes uint8
}

// ParseLRH splits a logical record header.
func ParseLRH(b []byte) LRHeader {
	return LRHeader{Type: b[0], Attributes: b[1]}
}

// Pad bytes between physical records are runs of nulls or spaces.
const (
	padByteNull  = 0x00
	padByteSpace = 0x20
)

// IsPadBytes reports whether b is a uniform run of one pad byte. An empty
// buffer holds no pad bytes.
func IsPadBytes(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	padfmt := b[0]
	if padfmt != padByteNull && padfmt != padByteSpace {
		return false
	}
	for _, c := range b[1:] {
		if c != padfmt {
			return false
		}
	}
	return true
}

// RecordType enumerates the logical record types of LIS-79.
type RecordType uint8

const (
	TypeNormalData     RecordType = 0
	TypeAlternateData  RecordType = 1
	TypeJobID          RecordType = 32
	TypeWellsiteData   RecordType = 34
	TypeToolString     RecordType = 39
	TypeEncTableDump   RecordType = 42
	TypeTableDump      RecordType = 47
	TypeFormatSpec     RecordType = 64
	TypeDescriptor     RecordType = 65
	TypePicture        RecordType = 85
	TypeImage          RecordType = 86
	TypeSoftwareBoot   RecordType = 95
	TypeBootstrap      RecordType = 96
	TypeCPKernel       RecordType = 97
	TypeProgramFH      RecordType = 100
	TypeProgramOH      RecordType = 101
	TypeProgramOL      RecordType = 102
	TypeFileHeader     RecordType = 128
	TypeFileTrailer    RecordType = 129
	TypeTapeHeader     RecordType = 130
	TypeTapeTrailer    RecordType = 131
	TypeReelHeader     RecordType = 132
	TypeReelTrailer    RecordType = 133
	TypeLogicalEOF     RecordType = 137
	TypeLogicalBOT     RecordType = 138
	TypeLogicalEOT     RecordType = 139
	TypeLogicalEOM     RecordType = 141
	TypeOpCommand      RecordType = 224
	TypeOpResponse     RecordType = 225
	TypeSystemOutput   RecordType = 227
	TypeFLICComment    RecordType = 232
	TypeBlankRecord    RecordType = 234
)

// ValidRecordType reports whether t is one of the defined record types.
// There is no way of telling a zero'd out LRH apart from normal data, as 0
// is a valid type and the second byte is undefined; fully zero'd records
// are caught elsewhere.
func ValidRecordType(t RecordType) bool {
	switch t {
	case TypeNormalData, TypeAlternateData, TypeJobID, TypeWellsiteData,
		TypeToolString, TypeEncTableDump, TypeTableDump, TypeFormatSpec,
		TypeDescriptor, TypePicture, TypeImage, TypeSoftwareBoot,
		TypeBootstrap, TypeCPKernel, TypeProgramFH, TypeProgramOH,
		TypeProgramOL, TypeFileHeader, TypeFileTrailer, TypeTapeHeader,
		TypeTapeTrailer, TypeReelHeader, TypeReelTrailer, TypeLogicalEOF,
		TypeLogicalBOT, TypeLogicalEOT, TypeLogicalEOM, TypeOpCommand,
		TypeOpResponse, TypeSystemOutput, TypeFLICComment, TypeBlankRecord:
		return true
	default:
		return false
	}
}

// RepCode enumerates the LIS-79 representation codes.
type RepCode uint8

const (
	RcF16    RepCode = 49 // 16-bit floating point
	RcF32Low RepCode = 50 // 32-bit low resolution floating point
	RcI8     RepCode = 56 // 8-bit two's complement integer
	RcString RepCode = 65 // alphanumeric, externally sized
	RcByte   RepCode = 66 // byte
	RcF32    RepCode = 68 // 32-bit floating point
	RcF32Fix RepCode = 70 // 32-bit fixed point
	RcI32    RepCode = 73 // 32-bit two's complement integer
	RcMask   RepCode = 77 // bitmask, externally sized
	RcI16    RepCode = 79 // 16-bit two's complement integer
)

// Format string characters, one per frame entry.
const (
	FmtI8     = 's'
	FmtI16    = 'i'
	FmtI32    = 'l'
	FmtF16    = 'e'
	FmtF32    = 'f'
	FmtF32Low = 'r'
	FmtF32Fix = 'p'
	FmtString = 'a'
	FmtByte   = 'b'
	FmtMask   = 'm'
)

// decodeValue reads one value of the given code. String and mask do not
// carry their own length; size supplies it.
func decodeValue(rc RepCode, size int, b []byte) (any, int, error) {
	switch rc {
	case RcI8:
		v, n, err := codec.LisI8(b)
		return v, n, err
	case RcI16:
		v, n, err := codec.LisI16(b)
		return v, n, err
	case RcI32:
		v, n, err := codec.LisI32(b)
		return v, n, err
	case RcF16:
		v, n, err := codec.LisF16(b)
		return v, n, err
	case RcF32:
		v, n, err := codec.LisF32(b)
		return v, n, err
	case RcF32Low:
		v, n, err := codec.LisF32Low(b)
		return v, n, err
	case RcF32Fix:
		v, n, err := codec.LisF32Fix(b)
		return v, n, err
	case RcByte:
		v, n, err := codec.LisByte(b)
		return v, n, err
	case RcString:
		v, n, err := codec.LisString(b, size)
		return v, n, err
	case RcMask:
		v, n, err := codec.LisMask(b, size)
		return v, n, err
	default:
		return nil, 0, fmt.Errorf("%w: unable to interpret attribute: unknown "+
			"representation code %d", types.ErrParse, uint8(rc))
	}
}

// EntryType enumerates the DFSR entry block types.
type EntryType uint8

const (
	EntryTerminator     EntryType = 0
	EntryDataRecType    EntryType = 1
	EntrySpecBlockType  EntryType = 2
	EntryFrameSize      EntryType = 3
	EntryUpDownFlag     EntryType = 4
	EntryDepthScale     EntryType = 5
	EntryRefPoint       EntryType = 6
	EntryRefPointUnits  EntryType = 7
	EntrySpacing        EntryType = 8
	EntrySpacingUnits   EntryType = 9
	EntryUndefined      EntryType = 10
	EntryMaxFramesPerPR EntryType = 11
	EntryAbsentValue    EntryType = 12
	EntryDepthMode      EntryType = 13
	EntryDepthUnits     EntryType = 14
	EntryDepthRepCode   EntryType = 15
	EntrySpecBlockSub   EntryType = 16
)

// entryBlockFixedSize covers the type, size and repcode bytes.
const entryBlockFixedSize = 3

// EntryBlock is one DFSR entry: three fixed bytes plus a variable value.
type EntryBlock struct {
	Type  EntryType
	Size  uint8
	Reprc RepCode
	Value any
}

// ReadEntryBlock parses the entry block at offset.
func ReadEntryBlock(data []byte, offset int) (EntryBlock, error) {
	left := len(data) - offset
	if left < entryBlockFixedSize {
		return EntryBlock{}, fmt.Errorf("%w: entry block: %d bytes left in "+
			"record, expected at least %d more",
			types.ErrTruncated, left, entryBlockFixedSize)
	}
	b := data[offset:]
	entry := EntryBlock{
		Type:  EntryType(b[0]),
		Size:  b[1],
		Reprc: RepCode(b[2]),
	}
	if left-entryBlockFixedSize < int(entry.Size) {
		return EntryBlock{}, fmt.Errorf("%w: entry block: %d bytes left in "+
			"record, expected at least %d more",
			types.ErrTruncated, left-entryBlockFixedSize, entry.Size)
	}
	if entry.Size > 0 {
		v, _, err := decodeValue(entry.Reprc, int(entry.Size), b[entryBlockFixedSize:])
		if err != nil {
			return EntryBlock{}, err
		}
		entry.Value = v
	}
	return entry, nil
}

// Spec block sizes by subtype.
const (
	SpecBlock0Size = 40
	SpecBlock1Size = 44
)

// SpecBlock declares the layout of one channel in subsequent frame-data
// records.
type SpecBlock struct {
	Mnemonic     string
	ServiceID    string
	ServiceOrder string
	Units        string
	FileNr       int16
	Size         int16
	Samples      uint8
	Reprc        RepCode
}

// readSpecBlock parses the common fields of a spec block of the given
// total size (40 for subtype 0, 44 for subtype 1; the subtypes differ only
// in their trailing process indicators, which are skipped).
func readSpecBlock(data []byte, offset, size int) (SpecBlock, error) {
	if len(data)-offset < size {
		return SpecBlock{}, fmt.Errorf("%w: spec block: %d bytes left in "+
			"record, expected at least %d more",
			types.ErrTruncated, len(data)-offset, size)
	}
	b := data[offset:]
	spec := SpecBlock{
		Mnemonic:     string(b[0:4]),
		ServiceID:    string(b[4:10]),
		ServiceOrder: string(b[10:18]),
		Units:        string(b[18:22]),
		// 4 API code bytes skipped
		FileNr: int16(binary.BigEndian.Uint16(b[26:28])),
		Size:   int16(binary.BigEndian.Uint16(b[28:30])),
		// 2 pad bytes and the process level skipped
		Samples: b[33],
		Reprc:   RepCode(b[34]),
		// trailing pad and process indicators skipped
	}
	return spec, nil
}

// DFSR is a parsed Data Format Specification Record: its entry blocks, the
// spec block per channel, and the spec block subtype in effect.
type DFSR struct {
	Info    RecordInfo
	Entries []EntryBlock
	Specs   []SpecBlock
	Subtype int
}

// ParseDFSR walks the entry blocks until the terminator, then reads spec
// blocks to the end of the record. Entry type 2 (datum spec block type)
// selects the spec block layout.
func ParseDFSR(rec *Record) (DFSR, error) {
	dfs := DFSR{Info: rec.Info}
	offset := 0

	for {
		entry, err := ReadEntryBlock(rec.Data, offset)
		if err != nil {
			return dfs, err
		}
		offset += entryBlockFixedSize + int(entry.Size)
		dfs.Entries = append(dfs.Entries, entry)

		if entry.Type == EntrySpecBlockType {
			if sub, ok := intValue(entry.Value); ok && (sub == 0 || sub == 1) {
				dfs.Subtype = sub
			}
		}
		if entry.Type == EntryTerminator {
			break
		}
	}

	size := SpecBlock0Size
	if dfs.Subtype == 1 {
		size = SpecBlock1Size
	}
	for offset < len(rec.Data) {
		spec, err := readSpecBlock(rec.Data, offset, size)
		if err != nil {
			return dfs, err
		}
		dfs.Specs = append(dfs.Specs, spec)
		offset += size
	}
	return dfs, nil
}

func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case uint8:
		return int(x), true
	default:
		return 0, false
	}
}

// FmtStr compiles the spec blocks into the compact per-channel format
// string consumed by the frame packer. Each channel contributes size /
// element-size characters; variable-length codes cannot appear in frames.
func FmtStr(dfs *DFSR) (string, error) {
	var fmtstr []byte

	for _, spec := range dfs.Specs {
		var f byte
		var s int

		switch spec.Reprc {
		case RcI8:
			f, s = FmtI8, 1
		case RcI16:
			f, s = FmtI16, 2
		case RcI32:
			f, s = FmtI32, 4
		case RcF16:
			f, s = FmtF16, 2
		case RcF32:
			f, s = FmtF32, 4
		case RcF32Low:
			f, s = FmtF32Low, 4
		case RcF32Fix:
			f, s = FmtF32Fix, 4
		case RcByte:
			f, s = FmtByte, 1
		default:
			// String and mask are variable length, but the length is not
			// encoded in the type itself, and the DFSR and IFLR have no
			// mechanism for specifying it.
			return "", fmt.Errorf("%w: cannot create formatstring: invalid "+
				"repcode (%d) in channel (%s)",
				types.ErrParse, uint8(spec.Reprc), spec.Mnemonic)
		}

		size := int(spec.Size)
		if size%s != 0 {
			return "", fmt.Errorf("%w: cannot compute an integral number of "+
				"entries from size (%d) / repcode (%d) for channel %s",
				types.ErrParse, size, uint8(spec.Reprc), spec.Mnemonic)
		}
		for i := 0; i < size/s; i++ {
			fmtstr = append(fmtstr, f)
		}
	}
	return string(fmtstr), nil
}
