// Package bitreader provides a small buffered-reader wrapper used by the
// container codec to sniff signatures and walk fixed-size header structures.
//
// Grounded on retroio's storage.Reader (amstrad/dsk/disk_info.go,
// spectrum/tzx/tzx.go, spectrum/tap/headers/numeric_data.go), which is
// referenced throughout the teacher's decoders but not itself present in the
// retrieved pack — this package re-derives that call surface (Peek, ReadByte,
// ReadBytes, ReadShort, PeekShort, BytesToLong) from its usage sites.
package bitreader

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader wraps an in-memory byte slice with the small helper surface the
// codec layer needs. The whole image is held in memory per the core's
// resource model; there is no streaming.
type Reader struct {
	data []byte
	pos  int
}

// New wraps data for reading from the start.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Pos returns the current byte offset, useful for CorruptContainer(where) errors.
func (r *Reader) Pos() int {
	return r.pos
}

// Seek moves the read position to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return errors.Errorf("seek offset %d out of range [0,%d]", offset, len(r.data))
	}
	r.pos = offset
	return nil
}

// Read implements io.Reader, so *Reader can be passed to binary.Read.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// Peek returns the next n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, io.EOF
	}
	return r.data[r.pos : r.pos+n], nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes and advances the position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, io.EOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadShort reads a little-endian uint16 and advances the position.
func (r *Reader) ReadShort() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// PeekShort peeks a little-endian uint16 without advancing the position.
func (r *Reader) PeekShort() (uint16, error) {
	b, err := r.Peek(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadStruct decodes a fixed-size little-endian struct at the current position,
// advancing past it. This is the teacher's idiom (DiskInformation.Read) applied
// uniformly to every header/table structure in the codec.
func (r *Reader) ReadStruct(v interface{}) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// BytesToLong packs up to 4 little-endian bytes into a uint32, as used by the
// teacher's tape block-length fields (24-bit lengths padded to a 4th byte).
func BytesToLong(b []byte) uint32 {
	buf := make([]byte, 4)
	copy(buf, b)
	return binary.LittleEndian.Uint32(buf)
}

// Bytes returns the full underlying buffer the Reader was constructed from.
func (r *Reader) Bytes() []byte {
	return r.data
}

// NewFromReader drains an io.Reader into memory and wraps it, mirroring the
// teacher's whole-file-in-memory approach (magneato's ParseDSK, retroio's
// cmd package opening a file then wrapping it with storage.NewReader).
func NewFromReader(rd io.Reader) (*Reader, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(rd); err != nil {
		return nil, errors.Wrap(err, "reading image into memory")
	}
	return New(buf.Bytes()), nil
}
