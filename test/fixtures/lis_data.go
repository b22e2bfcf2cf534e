package fixtures

import "encoding/binary"

// Physical record attribute bits, mirrored from the reader.
const (
	PRSuccessor    = 1 << 0
	PRPredecessor  = 1 << 1
	PRChecksum     = 1 << 11
	PRFileNumber   = 1 << 13
	PRRecordNumber = 1 << 14
)

// BinaryPRH builds a 4-byte physical record header.
func BinaryPRH(length int, attrs uint16) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(length))
	binary.BigEndian.PutUint16(b[2:4], attrs)
	return b
}

// BinaryLRH builds a 2-byte logical record header.
func BinaryLRH(typ uint8) []byte {
	return []byte{typ, 0}
}

// BinaryLisRecord builds one single-PR logical record.
func BinaryLisRecord(typ uint8, body []byte) []byte {
	out := BinaryPRH(4+2+len(body), 0)
	out = append(out, BinaryLRH(typ)...)
	return append(out, body...)
}

// BinaryEntryBlock builds a DFSR entry block.
func BinaryEntryBlock(typ, size, reprc uint8, value []byte) []byte {
	out := []byte{typ, size, reprc}
	return append(out, value...)
}

// TerminatorEntry ends the entry block list.
func TerminatorEntry() []byte {
	return BinaryEntryBlock(0, 0, 66, nil)
}

// SubtypeEntry declares the datum spec block type (entry type 2).
func SubtypeEntry(subtype uint8) []byte {
	return BinaryEntryBlock(2, 1, 66, []byte{subtype})
}

// BinarySpecBlock builds a 40-byte subtype-0 datum spec block.
func BinarySpecBlock(mnemonic, units string, ssize int16, samples, reprc uint8) []byte {
	b := make([]byte, 40)
	copy(b[0:4], pad(mnemonic, 4))
	copy(b[4:10], pad("SRVC", 6))
	copy(b[10:18], pad("ORDER", 8))
	copy(b[18:22], pad(units, 4))
	// API codes b[22:26] left zero
	binary.BigEndian.PutUint16(b[26:28], 1) // file number
	binary.BigEndian.PutUint16(b[28:30], uint16(ssize))
	b[33] = samples
	b[34] = reprc
	return b
}

func pad(s string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

// SampleDFSRBody builds the body of a DFSR with two channels: a 4-byte f32
// channel and a 2-byte i16 channel, one sample each.
func SampleDFSRBody() []byte {
	var body []byte
	body = append(body, TerminatorEntry()...)
	body = append(body, BinarySpecBlock("CH01", "M   ", 4, 1, 68)...)
	body = append(body, BinarySpecBlock("CH02", "MV  ", 2, 1, 79)...)
	return body
}

// SampleFrame is one frame matching SampleDFSRBody: f32 153.0 and i16 256.
func SampleFrame() []byte {
	return []byte{0x44, 0x4C, 0x80, 0x00, 0x01, 0x00}
}
