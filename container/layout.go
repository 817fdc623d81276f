// Package container implements the Container Codec (§4.B): parsing and
// serialising Standard DSK, Extended DSK, and MGT raw images into and out of
// the geometry model.
//
// The fixed-size wire structs below are decoded with encoding/binary against
// plain Go structs, the teacher's idiom throughout amstrad/dsk/disk_info.go
// and grounded concretely on damieng-magneato's DiskHeader/TrackHeader/
// SectorInfo triad (dsk.go, types.go) — itself an almost-literal prior
// implementation of this exact byte layout.
package container

// diskHeader is the 256-byte "Disc Information block" shared by Standard DSK
// and Extended DSK (§4.B), differing only in the Signature prefix and in
// whether TrackSizeTable is authoritative (Extended) or ignored (Standard,
// which instead uses the single TrackSize field for every track).
type diskHeader struct {
	Signature      [34]byte
	Creator        [14]byte
	Tracks         uint8
	Sides          uint8
	TrackSize      uint16
	TrackSizeTable [204]byte
}

const headerSize = 256 // 0x100

const (
	standardSignaturePrefix = "MV - CPC"
	extendedSignaturePrefix = "EXTENDED"
)

// trackInfoBlock is the 24-byte (0x18) fixed portion at the start of every
// non-empty track's 256-byte Track Information Block (§4.B "TIB").
type trackInfoBlock struct {
	Signature      [12]byte // "Track-Info\r\n" + pad
	Unused         [4]byte
	Cylinder       uint8
	Side           uint8
	Unused2        [2]byte
	SectorSizeCode uint8
	SectorCount    uint8
	Gap3Length     uint8
	FillerByte     uint8
}

const tibHeaderSize = 24 // 0x18
const tibTotalSize = 256
const maxSectorsInSIL = 29

// sectorInfoEntry is the 8-byte Sector Information List entry (§4.B "SIL").
// The DataLength field is reserved (0) for Standard DSK and the actual data
// length for Extended DSK.
type sectorInfoEntry struct {
	Cylinder   uint8
	Head       uint8
	Record     uint8
	SizeCode   uint8
	ST1        uint8
	ST2        uint8
	DataLength uint16
}

const sectorInfoEntrySize = 8

var trackInfoSignature = []byte("Track-Info\r\n")

// mgtRawSize is the fixed MGT raw container size: 2 sides × 80 tracks × 10
// sectors × 512 bytes (§4.B "MGT raw").
const mgtRawSize = 2 * 80 * 10 * 512
const mgtSectorsPerTrack = 10
const mgtTracks = 80
const mgtSides = 2
const mgtSectorSize = 512
