package lis

import (
	"errors"
	"fmt"

	"github.com/yamaru/welllog-tool/internal/reader"
	"github.com/yamaru/welllog-tool/internal/types"
)

// RecordInfo is one entry of the record index: the logical tell of the
// first PRH, the headers, and the total size across all chained PRs.
type RecordInfo struct {
	LTell int64
	PRH   PRHeader
	LRH   LRHeader
	Size  int64
}

// Type returns the logical record type.
func (ri RecordInfo) Type() RecordType {
	return RecordType(ri.LRH.Type)
}

// Record is a reassembled logical record: the index entry plus the payload
// with physical headers and trailers stripped.
type Record struct {
	Info RecordInfo
	Data []byte
}

// RecordIndex partitions the indexed records into explicits (metadata) and
// implicits (frame data), each in file order.
type RecordIndex struct {
	expls []RecordInfo
	impls []RecordInfo
}

// Size returns the total number of indexed records.
func (ix *RecordIndex) Size() int {
	return len(ix.expls) + len(ix.impls)
}

// Explicits returns the metadata records in file order.
func (ix *RecordIndex) Explicits() []RecordInfo {
	return ix.expls
}

// Implicits returns the frame-data records in file order.
func (ix *RecordIndex) Implicits() []RecordInfo {
	return ix.impls
}

// ImplicitsOf returns the implicit records belonging to the DFSR at
// dfsrTell: those after it and before the next DFSR, if any.
func (ix *RecordIndex) ImplicitsOf(dfsrTell int64) ([]RecordInfo, error) {
	curr := -1
	for i, info := range ix.expls {
		if info.LTell == dfsrTell {
			curr = i
			break
		}
	}
	if curr < 0 {
		return nil, fmt.Errorf("%w: could not find DFS record at tell %d",
			types.ErrInvalidArgument, dfsrTell)
	}

	nextTell := int64(-1)
	for _, info := range ix.expls[curr+1:] {
		if info.Type() == TypeFormatSpec {
			nextTell = info.LTell
			break
		}
	}

	var out []RecordInfo
	for _, info := range ix.impls {
		if info.LTell <= dfsrTell {
			continue
		}
		if nextTell >= 0 && info.LTell > nextTell {
			break
		}
		out = append(out, info)
	}
	return out, nil
}

// IODevice drives a stream stack with LIS framing semantics: pad-byte
// scanning between physical records, record indexing, and record reads.
type IODevice struct {
	stream *reader.Stream

	poffset     int64
	plength     int64
	isIndexed   bool
	isTruncated bool
	truncMsg    string
}

// Open opens path as a LIS device with its logical zero at offset,
// optionally with tape-image framing, and verifies the device is not
// positioned at end of data.
func Open(path string, offset int64, tapeimage bool) (*IODevice, error) {
	src, err := reader.Open(path, offset)
	if err != nil {
		return nil, err
	}
	if tapeimage {
		wrapped, err := reader.WrapTapeImage(src)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("open: unable to apply tapeimage framing: %w", err)
		}
		src = wrapped
	}

	dev := &IODevice{stream: reader.NewStream(src), poffset: offset}

	// Verify the device is not opened at EOF by probing one byte.
	var tmp [1]byte
	n, err := dev.stream.Read(tmp[:])
	if err != nil {
		dev.stream.Close()
		return nil, fmt.Errorf("open: cannot read device at ptell %d: %w", offset, err)
	}
	if n == 0 {
		dev.stream.Close()
		return nil, fmt.Errorf("%w: open: handle is opened at EOF (ptell=%d)",
			types.ErrEOF, offset)
	}
	if err := dev.stream.Seek(0); err != nil {
		dev.stream.Close()
		return nil, fmt.Errorf("open: could not rewind device to ptell %d: %w",
			offset, err)
	}
	return dev, nil
}

// Close releases the device's stream stack.
func (d *IODevice) Close() error {
	return d.stream.Close()
}

// POffset returns the physical offset of the device's logical zero.
func (d *IODevice) POffset() int64 {
	return d.poffset
}

// PSize returns the physical length of the device. It is only known after
// indexing, and unknown for truncated files.
func (d *IODevice) PSize() (int64, error) {
	if !d.isIndexed {
		return 0, fmt.Errorf("%w: filesize unknown before file is indexed",
			types.ErrInvalidArgument)
	}
	if d.isTruncated {
		return 0, fmt.Errorf("%w: filesize unknown, file is truncated (%s)",
			types.ErrTruncated, d.truncMsg)
	}
	return d.plength, nil
}

// Indexed reports whether IndexRecords has run.
func (d *IODevice) Indexed() bool {
	return d.isIndexed
}

// Truncated reports whether indexing hit a truncation. Only meaningful
// after indexing.
func (d *IODevice) Truncated() (bool, error) {
	if !d.isIndexed {
		return false, fmt.Errorf("%w: cannot tell if un-indexed file is truncated",
			types.ErrInvalidArgument)
	}
	return d.isTruncated, nil
}

// headerError classifies a short physical-header read: a clean EOF (or one
// reached through trailing pad bytes) is a legitimate end of file,
// anything else at EOF is truncation, and the rest are io failures.
func (d *IODevice) headerError(buf []byte) error {
	const where = "read_physical_header"
	if d.stream.EOF() && (len(buf) == 0 || IsPadBytes(buf)) {
		return fmt.Errorf("%w: %s: end-of-file", types.ErrEOF, where)
	}
	if d.stream.EOF() {
		return fmt.Errorf("%w: %s: unexpected end-of-file", types.ErrTruncated, where)
	}
	return fmt.Errorf("%w: %s: unable to read from file", types.ErrIO, where)
}

// readPhysicalHeader finds and reads the next PRH. LIS allows arbitrary
// null or space padding between physical records without declaring it; the
// one key assumption is that the next header after padding always starts
// on a physical tell divisible by 4. When the first two header bytes turn
// out to be pad bytes, the buffer is first shifted onto that alignment and
// then scanned 4 bytes at a time.
func (d *IODevice) readPhysicalHeader() (PRHeader, error) {
	buf := make([]byte, PRHSize)

	n, err := d.stream.Read(buf)
	if err != nil {
		return PRHeader{}, fmt.Errorf("%w: read_physical_header: %v", types.ErrIO, err)
	}
	if n < PRHSize {
		return PRHeader{}, d.headerError(buf[:n])
	}

	if IsPadBytes(buf[:2]) {
		alignment := int(d.stream.AbsoluteTell() % PRHSize)

		// Reposition the buffer if the padding started on an uneven tell.
		if alignment != 0 {
			padbytes := PRHSize - alignment
			tmp := make([]byte, PRHSize)
			copy(tmp, buf[padbytes:])

			n, err := d.stream.Read(tmp[alignment:])
			if err != nil {
				return PRHeader{}, fmt.Errorf("%w: read_physical_header: %v",
					types.ErrIO, err)
			}
			if n < padbytes {
				return PRHeader{}, d.headerError(tmp[:alignment+n])
			}
			copy(buf, tmp)
		}

		// Read 4 bytes at a time until a new PRH is found or EOF is hit.
		for IsPadBytes(buf) {
			n, err := d.stream.Read(buf)
			if err != nil {
				return PRHeader{}, fmt.Errorf("%w: read_physical_header: %v",
					types.ErrIO, err)
			}
			if n < PRHSize {
				return PRHeader{}, d.headerError(buf[:n])
			}
		}
	}

	head := ParsePRH(buf)

	// The first PR of a chain must also fit a LRH; continuations only need
	// their own header.
	mvl := uint16(PRHSize + LRHSize)
	if head.Attributes&PRAttrPredecessor != 0 {
		mvl = PRHSize
	}
	if head.Length < mvl {
		return PRHeader{}, fmt.Errorf("%w: read_physical_header: too short "+
			"record length (was %d bytes) (ptell = %d)",
			types.ErrParse, head.Length, d.stream.AbsoluteTell())
	}
	return head, nil
}

// readLogicalHeader reads the LRH that follows the first PRH of a chain.
func (d *IODevice) readLogicalHeader() (LRHeader, error) {
	buf := make([]byte, LRHSize)
	n, err := d.stream.Read(buf)
	if err != nil {
		return LRHeader{}, fmt.Errorf("%w: read_logical_header: %v", types.ErrIO, err)
	}
	if n == 0 && d.stream.EOF() {
		return LRHeader{}, fmt.Errorf("%w: read_logical_header: unexpected end-of-file",
			types.ErrEOF)
	}
	if n < LRHSize {
		return LRHeader{}, fmt.Errorf("%w: read_logical_header: could not read "+
			"full header from disk", types.ErrIO)
	}
	return ParseLRH(buf), nil
}

// IndexRecord reads the headers of the next logical record and walks its
// physical record chain without reading payloads. The logical tell is
// recorded after the pad scan, so it names the PRH itself and never the
// padding before it.
func (d *IODevice) IndexRecord() (RecordInfo, error) {
	var info RecordInfo

	prh, err := d.readPhysicalHeader()
	if err != nil {
		return info, err
	}
	info.PRH = prh
	info.LTell = d.stream.Tell() - PRHSize

	length := int64(prh.Length)

	lrh, err := d.readLogicalHeader()
	if err != nil {
		if errors.Is(err, types.ErrEOF) || errors.Is(err, types.ErrIO) {
			return info, fmt.Errorf("%w: index_record: %v", types.ErrTruncated, err)
		}
		return info, err
	}
	info.LRH = lrh

	if !ValidRecordType(RecordType(lrh.Type)) {
		return info, fmt.Errorf("%w: index_record: found invalid record type "+
			"(%d) when reading header at ptell (%d)",
			types.ErrParse, lrh.Type, d.stream.AbsoluteTell()-LRHSize)
	}

	for {
		if prh.Attributes&PRAttrSuccessor == 0 {
			// Verify the record is not truncated by probing its last byte.
			if err := d.stream.Seek(info.LTell + length - 1); err != nil {
				return info, err
			}
			var tmp [1]byte
			if n, err := d.stream.Read(tmp[:]); err != nil || n < 1 {
				return info, fmt.Errorf("%w: index_record: physical record truncated",
					types.ErrTruncated)
			}
			break
		}

		if err := d.stream.Seek(info.LTell + length); err != nil {
			return info, err
		}
		prh, err = d.readPhysicalHeader()
		if err != nil {
			if errors.Is(err, types.ErrEOF) {
				return info, fmt.Errorf("%w: index_record: missing next PRH (%v)",
					types.ErrTruncated, err)
			}
			return info, err
		}
		length += int64(prh.Length)
	}

	info.Size = length
	return info, nil
}

// IndexRecords scans the device start-to-end once. A well-formatted file
// ends with a clean EOF between records; any other failure marks the
// device truncated and terminates the scan cleanly, leaving the indexed
// portion usable.
func (d *IODevice) IndexRecords() *RecordIndex {
	var ex, im []RecordInfo

	d.stream.Seek(0)
	for {
		info, err := d.IndexRecord()
		if err != nil {
			if !errors.Is(err, types.ErrEOF) {
				d.isTruncated = true
				d.truncMsg = err.Error()
			}
			break
		}
		if info.Type() == TypeNormalData || info.Type() == TypeAlternateData {
			im = append(im, info)
		} else {
			ex = append(ex, info)
		}
	}

	d.plength = d.stream.AbsoluteTell()
	d.isIndexed = true

	return &RecordIndex{expls: ex, impls: im}
}

// ReadRecord concatenates the payloads of every PR in the record's chain,
// skipping the LRH in the first PR and the declared trailer in each.
func (d *IODevice) ReadRecord(info RecordInfo) (Record, error) {
	rec := Record{Info: info}

	if err := d.stream.Seek(info.LTell); err != nil {
		return rec, err
	}

	for {
		prh, err := d.readPhysicalHeader()
		if err != nil {
			return rec, err
		}
		trlen := prh.TrailerSize()

		toread := int64(prh.Length) - PRHSize - int64(trlen)
		if prh.Attributes&PRAttrPredecessor == 0 {
			if err := d.stream.Seek(d.stream.Tell() + LRHSize); err != nil {
				return rec, err
			}
			toread -= LRHSize
		}
		if toread < 0 {
			return rec, fmt.Errorf("%w: read_record: physical record too short "+
				"for its trailer", types.ErrParse)
		}

		prevlen := int64(len(rec.Data))
		rec.Data = append(rec.Data, make([]byte, toread)...)

		n, err := d.stream.Read(rec.Data[prevlen:])
		if err != nil {
			return rec, err
		}
		if int64(n) < toread {
			return rec, fmt.Errorf("%w: read_record: record truncated", types.ErrIO)
		}

		if trlen > 0 {
			if err := d.stream.Seek(d.stream.Tell() + int64(trlen)); err != nil {
				return rec, err
			}
		}

		if prh.Attributes&PRAttrSuccessor == 0 {
			break
		}
	}
	return rec, nil
}
