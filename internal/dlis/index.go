package dlis

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/yamaru/welllog-tool/internal/codec"
	"github.com/yamaru/welllog-tool/internal/diag"
	"github.com/yamaru/welllog-tool/internal/reader"
	"github.com/yamaru/welllog-tool/internal/types"
)

// searchWindow is how far signature searches look into the stream.
const searchWindow = 200

// sulRecordOffset is where the "RECORD" structure field sits inside a
// storage unit label: after the 4-byte sequence number and 5-byte version.
const sulRecordOffset = 9

// FindSUL scans the first 200 bytes for the storage unit label signature
// and returns its offset. A partial match fails with ErrInconsistent.
func FindSUL(s *reader.Stream) (int64, error) {
	if err := s.Seek(0); err != nil {
		return 0, err
	}
	buf := make([]byte, searchWindow)
	n, err := s.Read(buf)
	if err != nil {
		return 0, err
	}
	buf = buf[:n]

	idx := bytes.Index(buf, []byte("RECORD"))
	if idx < 0 {
		return 0, fmt.Errorf("%w: searched %d bytes, but could not find storage label",
			types.ErrNotFound, n)
	}
	offset := idx - sulRecordOffset
	if offset < 0 || !bytes.Equal(buf[offset+4:offset+7], []byte("V1.")) {
		return 0, fmt.Errorf("%w: found something that could be parts of a SUL, "+
			"file may be corrupted", types.ErrInconsistent)
	}
	return int64(offset), nil
}

// FindVRL searches for the visible record envelope pattern [0xFF 0x01] with
// an intact length field, starting at from, window 200 bytes.
func FindVRL(s *reader.Stream, from int64) (int64, error) {
	if from < 0 {
		return 0, fmt.Errorf("%w: expected from (which is %d) >= 0",
			types.ErrInvalidArgument, from)
	}
	if err := s.Seek(from); err != nil {
		return 0, err
	}
	buf := make([]byte, searchWindow)
	n, err := s.Read(buf)
	if err != nil {
		return 0, err
	}
	buf = buf[:n]

	idx := bytes.Index(buf, []byte{0xFF, 0x01})
	if idx < 0 {
		return 0, fmt.Errorf("%w: searched %d bytes, but could not find visible "+
			"record envelope pattern [0xFF 0x01]", types.ErrNotFound, n)
	}
	if idx < 2 {
		return 0, fmt.Errorf("%w: found [0xFF 0x01] but len field not intact, "+
			"file may be corrupted", types.ErrInconsistent)
	}
	length := binary.BigEndian.Uint16(buf[idx-2 : idx])
	if length < reader.VRMinLength {
		return 0, fmt.Errorf("%w: found [0xFF 0x01] but len field not intact, "+
			"file may be corrupted", types.ErrInconsistent)
	}
	return from + int64(idx) - 2, nil
}

// HasTapeMark reads 12 bytes at offset 0 and reports whether they form a
// tape image header: little-endian kind 0, previous offset 0, and a next
// offset past the header itself.
func HasTapeMark(s *reader.Stream) (bool, error) {
	if err := s.Seek(0); err != nil {
		return false, err
	}
	var buf [12]byte
	if err := s.ReadFull(buf[:]); err != nil {
		return false, fmt.Errorf("hastapemark: unable to read full tapemark: %w", err)
	}
	kind := binary.LittleEndian.Uint32(buf[0:4])
	prev := binary.LittleEndian.Uint32(buf[4:8])
	next := binary.LittleEndian.Uint32(buf[8:12])
	return kind == 0 && prev == 0 && next >= 12, nil
}

// StreamOffsets is the record index: logical offsets of explicit and
// implicit records, in file order, plus records broken by truncation.
type StreamOffsets struct {
	Explicits []int64
	Implicits []int64
	Broken    []int64
}

// FindOffsets scans the stream start-to-end once, classifying each logical
// record by the explicit bit of its head segment. The first record is
// expected to be a FILE-HEADER; a later FILE-HEADER terminates the scan
// just before it. Scan errors terminate cleanly and the already-indexed
// portion stays usable.
func FindOffsets(s *reader.Stream) (StreamOffsets, error) {
	var ofs StreamOffsets

	var lrOffset, lrsOffset int64
	hasSuccessor := false
	headExplicit := false

	handle := func(problem string) error {
		p := diag.Problem{
			Severity: diag.Error,
			Problem:  problem,
			Action:   "Stopped file processing",
		}
		return diag.Report([]diag.Problem{p}, "findoffsets: error on file load")
	}

	if err := s.Seek(lrsOffset); err != nil {
		return ofs, err
	}

	for {
		var buf [LRSHSize]byte
		n, err := s.Read(buf[:])
		if err != nil {
			if rerr := handle(err.Error()); rerr != nil {
				return ofs, rerr
			}
			break
		}
		if n < LRSHSize {
			if hasSuccessor {
				msg := "File is over, but last logical record segment expects successor"
				if rerr := handle(msg); rerr != nil {
					return ofs, rerr
				}
				ofs.Broken = append(ofs.Broken, lrOffset)
			}
			break
		}

		length, attrs, typ := parseLRSH(buf[:])
		if length < LRSHSize {
			msg := fmt.Sprintf("Too short logical record. Length can't be less "+
				"than %d, but was %d", LRSHSize, length)
			if rerr := handle(msg); rerr != nil {
				return ofs, rerr
			}
			ofs.Broken = append(ofs.Broken, lrOffset)
			break
		}

		isExplicit := attrs&SegAttrExplicit != 0
		if attrs&SegAttrPredecessor == 0 {
			if isExplicit && typ == 0 && len(ofs.Explicits) > 0 {
				// A FILE-HEADER that is not the first logical record opens
				// the next logical file; wrap up just before it.
				if hasSuccessor {
					msg := "File is over, but last logical record segment expects successor"
					if rerr := handle(msg); rerr != nil {
						return ofs, rerr
					}
					ofs.Broken = append(ofs.Broken, lrOffset)
				}
				if err := s.Seek(lrsOffset); err != nil {
					return ofs, err
				}
				break
			}
		}

		if lrsOffset == lrOffset {
			headExplicit = isExplicit
		}
		hasSuccessor = attrs&SegAttrSuccessor != 0
		lrsOffset += int64(length)

		// Probe the last byte of the segment to catch truncation early. A
		// seek past the framed end means the segment length lies beyond
		// the file, which is the same truncation.
		if err := s.Seek(lrsOffset - 1); err != nil {
			if rerr := handle("findoffsets: file truncated"); rerr != nil {
				return ofs, rerr
			}
			ofs.Broken = append(ofs.Broken, lrOffset)
			break
		}
		var tmp [1]byte
		if m, err := s.Read(tmp[:]); err != nil || m < 1 {
			if rerr := handle("findoffsets: file truncated"); rerr != nil {
				return ofs, rerr
			}
			ofs.Broken = append(ofs.Broken, lrOffset)
			break
		}

		if !hasSuccessor {
			if headExplicit {
				ofs.Explicits = append(ofs.Explicits, lrOffset)
			} else {
				ofs.Implicits = append(ofs.Implicits, lrOffset)
			}
			lrOffset = lrsOffset
		}
	}
	return ofs, nil
}

// obnameSizeMax bounds the peek at the leading obname of a frame-data
// record. The largest obname takes 261 bytes (4-byte origin, the copy byte,
// the length byte, 255 identifier bytes); the cap is one byte above that.
const obnameSizeMax = 262

// FindFdata pre-extracts the leading obname of every implicit record in
// tells and groups the offsets by FRAME fingerprint. Encrypted, empty and
// non-FDATA records are skipped; parse errors are logged and skipped.
func FindFdata(s *reader.Stream, tells []int64) (map[types.Ident][]int64, error) {
	xs := make(map[types.Ident][]int64)

	skip := func(cause error) error {
		p := diag.Problem{
			Severity: diag.Error,
			Problem:  cause.Error(),
			Action:   "Skipped the record",
		}
		return diag.Report([]diag.Problem{p}, "findfdata: error on processing the record")
	}

	for _, tell := range tells {
		rec, err := ExtractCapped(s, tell, obnameSizeMax)
		if err != nil {
			if rerr := skip(err); rerr != nil {
				return xs, rerr
			}
			continue
		}
		if rec.IsEncrypted() || rec.Type != 0 || len(rec.Data) == 0 {
			continue
		}
		name, _, err := codec.ObnameDec(rec.Data)
		if err != nil {
			if rerr := skip(fmt.Errorf("file corrupted, error on reading fdata obname: %w", err)); rerr != nil {
				return xs, rerr
			}
			continue
		}
		fp := name.Fingerprint("FRAME")
		xs[fp] = append(xs[fp], tell)
	}
	return xs, nil
}
