// Package dlis implements the RP66 side of the reader: logical record
// reassembly from segment chains, the one-shot offset index, and the typed
// object-set parser for explicitly formatted logical records.
package dlis

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yamaru/welllog-tool/internal/diag"
	"github.com/yamaru/welllog-tool/internal/reader"
	"github.com/yamaru/welllog-tool/internal/types"
)

// LRSHSize is the size of a logical record segment header.
const LRSHSize = 4

// Logical record segment attribute bits.
const (
	SegAttrExplicit    = 1 << 7 // explicitly formatted logical record
	SegAttrPredecessor = 1 << 6 // segment continues an earlier one
	SegAttrSuccessor   = 1 << 5 // another segment follows
	SegAttrEncrypted   = 1 << 4 // record is encrypted
	SegAttrEncryptPkt  = 1 << 3 // encryption packet present
	SegAttrChecksum    = 1 << 2 // 2-byte checksum trailer
	SegAttrTrailingLen = 1 << 1 // 2-byte trailing length
	SegAttrPadding     = 1 << 0 // pad bytes with a trailing pad count
)

// Record is a reassembled logical record. The attribute byte keeps only the
// bits that describe the record as a whole (explicit format, encryption);
// everything else is per-segment plumbing.
type Record struct {
	Type       int
	Attributes uint8
	Consistent bool
	Data       []byte
}

// IsExplicit reports whether the record is an EFLR.
func (r *Record) IsExplicit() bool {
	return r.Attributes&SegAttrExplicit != 0
}

// IsEncrypted reports whether the record is encrypted.
func (r *Record) IsEncrypted() bool {
	return r.Attributes&SegAttrEncrypted != 0
}

// parseLRSH splits the 4-byte segment header.
func parseLRSH(b []byte) (length int, attrs uint8, typ int) {
	return int(binary.BigEndian.Uint16(b[0:2])), b[2], int(b[3])
}

// trimSegment computes how many trailing bytes of a segment payload are
// trailer rather than data. dropWhole is set when the declared trailer,
// pad count included, is longer than the segment payload.
func trimSegment(attrs uint8, payload []byte) (trim int, dropWhole bool, err error) {
	if attrs&SegAttrTrailingLen != 0 {
		trim += 2
	}
	if attrs&SegAttrChecksum != 0 {
		trim += 2
	}
	if attrs&SegAttrPadding != 0 {
		if len(payload)-trim-1 < 0 {
			return 0, false, fmt.Errorf("%w: segment too short for pad count",
				types.ErrParse)
		}
		trim += int(payload[len(payload)-trim-1])
	}
	if trim > len(payload) {
		return trim, true, nil
	}
	return trim, false, nil
}

// Extract reassembles the logical record starting at tell.
func Extract(s *reader.Stream, tell int64) (Record, error) {
	return ExtractCapped(s, tell, math.MaxInt64)
}

// ExtractCapped reassembles at most maxBytes of record payload. When the
// cap is hit the remaining segments are not read; a partial final segment
// is only read when none of its trailer flags are set, since trimming needs
// the segment tail.
func ExtractCapped(s *reader.Stream, tell int64, maxBytes int64) (Record, error) {
	rec := Record{Consistent: true}
	var attrsSeen []uint8
	var typesSeen []int

	if err := s.Seek(tell); err != nil {
		return rec, err
	}

	complete := false
	for {
		var hdr [LRSHSize]byte
		if err := s.ReadFull(hdr[:]); err != nil {
			return rec, fmt.Errorf("extract: unable to read LRSH: %w", err)
		}
		length, attrs, typ := parseLRSH(hdr[:])
		length -= LRSHSize
		if length < 0 {
			return rec, fmt.Errorf("%w: logical record segment length < %d",
				types.ErrParse, LRSHSize)
		}

		attrsSeen = append(attrsSeen, attrs)
		typesSeen = append(typesSeen, typ)

		prevsize := int64(len(rec.Data))
		remaining := maxBytes - prevsize

		toRead := int64(length)
		hasTrailer := attrs&(SegAttrPadding|SegAttrTrailingLen|SegAttrChecksum) != 0
		if !hasTrailer && remaining < toRead {
			toRead = remaining
		}

		rec.Data = append(rec.Data, make([]byte, toRead)...)
		if err := s.ReadFull(rec.Data[prevsize:]); err != nil {
			return rec, fmt.Errorf("extract: unable to read LRS: %w", err)
		}

		if toRead == int64(length) {
			trim, dropWhole, err := trimSegment(attrs, rec.Data[prevsize:])
			switch {
			case err != nil:
				return rec, err
			case dropWhole:
				problem := diag.Problem{
					Severity: diag.Info,
					Problem:  "padbytes size exceeds logical record segment payload",
					Specification: "2.2.2.1 Logical Record Segment Header (LRSH): " +
						"Pad Count is a single byte that contains a count of " +
						"Pad Bytes present in the LRST",
					Action: "skip the segment altogether",
				}
				if err := diag.Report([]diag.Problem{problem}, "extract: bad padbytes"); err != nil {
					return rec, err
				}
				rec.Data = rec.Data[:prevsize]
			default:
				rec.Data = rec.Data[:int64(len(rec.Data))-int64(trim)]
			}
		}

		hasSuccessor := attrs&SegAttrSuccessor != 0
		bytesLeft := maxBytes - int64(len(rec.Data))
		if hasSuccessor && bytesLeft > 0 {
			continue
		}
		complete = !hasSuccessor

		// The record as a whole only cares about format and encryption;
		// the rest of the bits describe individual segments.
		rec.Attributes = attrsSeen[0] & (SegAttrExplicit | SegAttrEncrypted)
		rec.Type = typesSeen[0]
		if !segmentsConsistent(attrsSeen, typesSeen, complete) {
			rec.Consistent = false
		}
		if bytesLeft < 0 {
			rec.Data = rec.Data[:maxBytes]
		}
		return rec, nil
	}
}

// segmentsConsistent checks the chain rules: the first segment carries no
// predecessor flag, the last no successor flag, interior segments both; the
// explicit and encryption bits and the type must agree across segments.
// complete is false when the extraction stopped on a byte cap, in which
// case the final successor flag is still legitimate.
func segmentsConsistent(attrs []uint8, segTypes []int, complete bool) bool {
	for i, a := range attrs {
		pred := a&SegAttrPredecessor != 0
		succ := a&SegAttrSuccessor != 0
		switch {
		case i == 0 && pred:
			return false
		case i > 0 && !pred:
			return false
		case i == len(attrs)-1 && complete && succ:
			return false
		case i < len(attrs)-1 && !succ:
			return false
		}
		if (a^attrs[0])&(SegAttrExplicit|SegAttrEncrypted) != 0 {
			return false
		}
		if segTypes[i] != segTypes[0] {
			return false
		}
	}
	return true
}
