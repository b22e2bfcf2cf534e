package types

import "errors"

// Error kinds shared by every layer of the reader. Callers match with
// errors.Is; the wrapped message carries the context.
var (
	// ErrIO signals a failure in the underlying byte source.
	ErrIO = errors.New("io error")
	// ErrEOF is a legitimate end-of-stream. It is only an error when a
	// header or record promised more data.
	ErrEOF = errors.New("end of file")
	// ErrTruncated is a short read inside a declared record or header.
	ErrTruncated = errors.New("file truncated")
	// ErrNotFound means a signature search did not locate its pattern.
	ErrNotFound = errors.New("not found")
	// ErrInconsistent is a partial signature match suggesting corruption.
	ErrInconsistent = errors.New("inconsistent")
	// ErrInvalidArgument is a caller-supplied offset or size out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParse is a semantically invalid field given the standard.
	ErrParse = errors.New("parse error")
)
