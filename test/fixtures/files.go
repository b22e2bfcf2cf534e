package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
)

func writeFile(dir, name string, chunks ...[]byte) (string, error) {
	filename := filepath.Join(dir, name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create sample file: %w", err)
	}
	defer file.Close()

	for _, chunk := range chunks {
		if _, err := file.Write(chunk); err != nil {
			return "", fmt.Errorf("failed to write sample file: %w", err)
		}
	}
	return filename, nil
}

// CreateSampleDlisFile creates a minimal DLIS file: a storage unit label
// followed by visible records holding a FILE-HEADER EFLR and two FDATA
// records of the same frame.
func CreateSampleDlisFile(dir string) (string, error) {
	fileHeader := BinaryVisibleRecord(
		BinarySegment(SegExplicit, 0, SampleFileHeaderSet()))
	fdata1 := BinaryVisibleRecord(
		BinarySegment(0, 0, SampleFdataBody("800T", []byte{1, 2, 3, 4})))
	fdata2 := BinaryVisibleRecord(
		BinarySegment(0, 0, SampleFdataBody("800T", []byte{5, 6, 7, 8})))

	return writeFile(dir, "sample.dlis", BinarySUL(), fileHeader, fdata1, fdata2)
}

// CreateTapeImageDlisFile wraps the same DLIS content in tape image
// framing, one record per logical chunk, terminated by a tape mark.
func CreateTapeImageDlisFile(dir string) (string, error) {
	sul := BinarySUL()
	fileHeader := BinaryVisibleRecord(
		BinarySegment(SegExplicit, 0, SampleFileHeaderSet()))
	fdata := BinaryVisibleRecord(
		BinarySegment(0, 0, SampleFdataBody("800T", []byte{1, 2, 3, 4})))

	head := 0
	rec1 := BinaryTapeImageRecord(head, sul)
	head += len(rec1)
	rec2 := BinaryTapeImageRecord(head, fileHeader)
	head += len(rec2)
	rec3 := BinaryTapeImageRecord(head, fdata)
	head += len(rec3)
	mark := BinaryTapeMark(head, head-len(rec3))

	return writeFile(dir, "sample_tif.dlis", rec1, rec2, rec3, mark)
}

// CreateSampleLisFile creates a minimal LIS file: a DFSR with two channels
// and two normal data records carrying two frames each.
func CreateSampleLisFile(dir string) (string, error) {
	dfsr := BinaryLisRecord(64, SampleDFSRBody())
	frames := append(SampleFrame(), SampleFrame()...)
	data1 := BinaryLisRecord(0, frames)
	data2 := BinaryLisRecord(0, frames)

	return writeFile(dir, "sample.lis", dfsr, data1, data2)
}

// CreatePaddedLisFile creates a LIS file whose first record ends on an
// unaligned tell, followed by null padding up to the next 4-aligned offset
// where the second record begins.
func CreatePaddedLisFile(dir string) (string, int64, error) {
	// First record: 4-byte PRH, 2-byte LRH, 4 payload bytes; ends at 10.
	rec1 := BinaryLisRecord(34, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	padding := make([]byte, 10)
	// Second record starts at 20, the first 4-aligned tell past the pad.
	rec2 := BinaryLisRecord(34, []byte{0x01, 0x02, 0x03, 0x04})

	name, err := writeFile(dir, "padded.lis", rec1, padding, rec2)
	return name, int64(len(rec1) + len(padding)), err
}

// CreateTruncatedLisFile creates a LIS file whose last record declares
// more bytes than the file holds.
func CreateTruncatedLisFile(dir string) (string, error) {
	good := BinaryLisRecord(34, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	bad := BinaryPRH(64, 0)
	bad = append(bad, BinaryLRH(0)...)
	bad = append(bad, []byte{1, 2, 3, 4}...) // 54 bytes short

	return writeFile(dir, "truncated.lis", good, bad)
}

// CreateTraileredLisFile creates a LIS record split across two physical
// records, each carrying a record-number trailer.
func CreateTraileredLisFile(dir string) (string, error) {
	// First PR: header + LRH + 4 payload bytes + 2 trailer bytes.
	pr1 := BinaryPRH(4+2+4+2, PRSuccessor|PRRecordNumber)
	pr1 = append(pr1, BinaryLRH(34)...)
	pr1 = append(pr1, []byte{0x10, 0x11, 0x12, 0x13}...)
	pr1 = append(pr1, []byte{0x00, 0x01}...)

	// Second PR: header + 4 payload bytes + 2 trailer bytes.
	pr2 := BinaryPRH(4+4+2, PRPredecessor|PRRecordNumber)
	pr2 = append(pr2, []byte{0x14, 0x15, 0x16, 0x17}...)
	pr2 = append(pr2, []byte{0x00, 0x02}...)

	return writeFile(dir, "trailered.lis", pr1, pr2)
}
