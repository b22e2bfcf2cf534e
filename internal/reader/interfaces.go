// Package reader provides the layered byte-stream stack: a raw file source
// and the optional framings composed over it (tape-image framing, RP66
// visible-record framing). Each layer exposes the same seek/tell/read
// surface; seeks are always issued on the outermost layer and translated
// down through per-layer framing tables.
package reader

//go:generate mockgen -source=interfaces.go -destination=mocks/reader_mock.go

// ByteSource is the capability every layer of the stream stack consumes and
// provides. A source is positioned: Read advances the position, Seek moves
// it in the source's own (logical) coordinate system.
type ByteSource interface {
	// Read fills p with up to len(p) bytes. It returns io.EOF together
	// with the final (possibly zero) count at end-of-stream.
	Read(p []byte) (int, error)

	// Seek repositions the source at offset, in this source's logical
	// coordinates.
	Seek(offset int64) error

	// Tell returns the current position in this source's logical
	// coordinates.
	Tell() int64

	// EOF reports whether the source has hit end-of-stream.
	EOF() bool

	// Inner returns the next inner source, or nil for the leaf. It is
	// the peek capability used to walk down to the physical tell.
	Inner() ByteSource

	// Close releases the source and everything below it.
	Close() error
}
