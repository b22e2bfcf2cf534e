package reader

import (
	"fmt"
	"io"
	"os"

	"github.com/yamaru/welllog-tool/internal/types"
)

// fileSource is the leaf of the stream stack: a raw file with its logical
// zero at a caller-chosen offset.
type fileSource struct {
	file *os.File
	base int64
	pos  int64
	eof  bool
}

// Open opens path as the leaf byte source with its logical zero at offset.
func Open(path string, offset int64) (ByteSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open file for path %s: %v",
			types.ErrIO, path, err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: seek to offset %d: %v",
			types.ErrIO, offset, err)
	}
	return &fileSource{file: file, base: offset}, nil
}

func (f *fileSource) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	f.pos += int64(n)
	if err == io.EOF {
		f.eof = true
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", types.ErrIO, err)
	}
	return n, nil
}

func (f *fileSource) Seek(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative seek offset %d",
			types.ErrInvalidArgument, offset)
	}
	if _, err := f.file.Seek(f.base+offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIO, err)
	}
	f.pos = offset
	f.eof = false
	return nil
}

func (f *fileSource) Tell() int64 {
	return f.pos
}

func (f *fileSource) EOF() bool {
	return f.eof
}

// Inner returns nil: the file is the leaf protocol.
func (f *fileSource) Inner() ByteSource {
	return nil
}

func (f *fileSource) Close() error {
	return f.file.Close()
}
