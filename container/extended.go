package container

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/internal/bitreader"
)

// decodeExtended parses an Extended DSK image (§4.B "Extended DSK layout").
// Per-track sizes come from the byte-per-track table at offset 0x34, indexed
// side-major within each track: byte i is for side i%sides, track i/sides.
// A table value of 0 means the track is unformatted and occupies no space.
func decodeExtended(data []byte) (*geometry.DiskImage, []Warning, error) {
	r := bitreader.New(data)

	var hdr diskHeader
	if err := r.ReadStruct(&hdr); err != nil {
		return nil, nil, geometry.Wrap(geometry.KindCorruptContainer, err, "reading Extended DSK header")
	}
	if !bytes.HasPrefix(hdr.Signature[:], []byte(extendedSignaturePrefix)) {
		return nil, nil, geometry.At(geometry.KindCorruptContainer, "0x00", "missing 'EXTENDED' signature")
	}

	img := &geometry.DiskImage{Format: geometry.ExtendedDSK, Creator: hdr.Creator}
	for s := 0; s < int(hdr.Sides); s++ {
		img.Disks = append(img.Disks, &geometry.Disk{Tracks: make([]*geometry.Track, hdr.Tracks)})
	}

	totalBlocks := int(hdr.Tracks) * int(hdr.Sides)
	if totalBlocks > len(hdr.TrackSizeTable) {
		return nil, nil, geometry.At(geometry.KindCorruptContainer, "0x34", "track/side count exceeds track size table")
	}

	var warnings []Warning
	offset := headerSize
	for i := 0; i < totalBlocks; i++ {
		track := i / int(hdr.Sides)
		side := i % int(hdr.Sides)
		trackSize := int(hdr.TrackSizeTable[i]) * 256

		if trackSize == 0 {
			img.Disks[side].Tracks[track] = &geometry.Track{Cylinder: uint8(track), Side: uint8(side)}
			continue
		}

		if offset+trackSize > len(data) {
			return nil, nil, geometry.At(geometry.KindCorruptContainer, itoaHex(offset), "truncated track data")
		}
		trackBytes := data[offset : offset+trackSize]
		decoded, err := decodeTrackBlock(trackBytes, true)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "decoding track %d side %d", track, side)
		}
		img.Disks[side].Tracks[track] = decoded
		offset += trackSize
	}

	if offset < len(data) {
		warnings = append(warnings, Warning{Where: itoaHex(offset), Message: "trailing data beyond declared tracks ignored"})
	}

	return img, warnings, nil
}

// encodeExtended serialises img as an Extended DSK image. Per-track byte
// budgets are recomputed on demand from the sum of each track's sector
// payload lengths, rounded up to 256-byte blocks (§3 "Invariant", §9
// "Variable track lengths").
func encodeExtended(img *geometry.DiskImage) ([]byte, error) {
	var hdr diskHeader
	copy(hdr.Signature[:], []byte("EXTENDED CPC DSK File\r\nDisk-Info\r\n"))
	hdr.Creator = img.Creator
	hdr.Tracks = uint8(img.Tracks())
	hdr.Sides = uint8(img.Sides())

	totalBlocks := img.Tracks() * img.Sides()
	if totalBlocks > len(hdr.TrackSizeTable) {
		return nil, geometry.Newf(geometry.KindInvalidParameters, "track/side count %d exceeds table capacity %d", totalBlocks, len(hdr.TrackSizeTable))
	}

	blocks := make([][]byte, totalBlocks)
	for i := 0; i < totalBlocks; i++ {
		track := i / img.Sides()
		side := i % img.Sides()
		t := img.Disks[side].Tracks[track]

		if t.IsUnformatted() {
			hdr.TrackSizeTable[i] = 0
			continue
		}

		budget := trackByteBudget(t)
		hdr.TrackSizeTable[i] = uint8(budget / 256)

		block, err := encodeTrackBlock(t, budget, true)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding track %d side %d", track, side)
		}
		blocks[i] = block
	}

	buf := new(bytes.Buffer)
	if err := writeStruct(buf, &hdr); err != nil {
		return nil, errors.Wrap(err, "writing Extended DSK header")
	}
	for _, b := range blocks {
		buf.Write(b)
	}

	return buf.Bytes(), nil
}

// trackByteBudget computes the §3 invariant for Extended DSK: the fixed
// 256-byte TIB plus the sum of actual sector data lengths, rounded up to the
// next 256-byte block (§4.B "TIB — 256 bytes at the start of every non-empty
// track").
func trackByteBudget(t *geometry.Track) int {
	size := tibTotalSize
	for _, s := range t.Sectors {
		size += len(s.Data)
	}
	return roundUp256(size)
}

func roundUp256(n int) int {
	return (n + 255) &^ 255
}
