package container

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/internal/bitreader"
)

// decodeStandard parses a Standard DSK image (§4.B "Standard DSK layout").
// Every track is exactly header.TrackSize bytes, laid out in
// (track 0 side 0), (track 0 side 1), (track 1 side 0), ... order.
func decodeStandard(data []byte) (*geometry.DiskImage, []Warning, error) {
	r := bitreader.New(data)

	var hdr diskHeader
	if err := r.ReadStruct(&hdr); err != nil {
		return nil, nil, geometry.Wrap(geometry.KindCorruptContainer, err, "reading Standard DSK header")
	}
	if !bytes.HasPrefix(hdr.Signature[:], []byte(standardSignaturePrefix)) {
		return nil, nil, geometry.At(geometry.KindCorruptContainer, "0x00", "missing 'MV - CPC' signature")
	}

	img := &geometry.DiskImage{Format: geometry.StandardDSK, Creator: hdr.Creator}
	for s := 0; s < int(hdr.Sides); s++ {
		img.Disks = append(img.Disks, &geometry.Disk{})
	}

	var warnings []Warning
	offset := headerSize
	for t := 0; t < int(hdr.Tracks); t++ {
		for s := 0; s < int(hdr.Sides); s++ {
			if offset+int(hdr.TrackSize) > len(data) {
				return nil, nil, geometry.At(geometry.KindCorruptContainer, itoaHex(offset), "truncated track data")
			}
			trackBytes := data[offset : offset+int(hdr.TrackSize)]
			track, err := decodeTrackBlock(trackBytes, false)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "decoding track %d side %d", t, s)
			}
			img.Disks[s].Tracks = append(img.Disks[s].Tracks, track)
			offset += int(hdr.TrackSize)
		}
	}

	if offset < len(data) {
		warnings = append(warnings, Warning{Where: itoaHex(offset), Message: "trailing data beyond declared tracks ignored"})
	}

	return img, warnings, nil
}

// decodeTrackBlock parses one fixed-size (Standard) or packed (Extended)
// track block: the 24-byte TIB header, the Sector Information List, then
// sector data in SIL order. extended toggles whether SIL bytes 6..7 are the
// actual data length (Extended) or reserved zero (Standard).
func decodeTrackBlock(trackBytes []byte, extended bool) (*geometry.Track, error) {
	if len(trackBytes) == 0 {
		return &geometry.Track{}, nil // unformatted track (Extended DSK length-0 case)
	}

	r := bitreader.New(trackBytes)

	var tib trackInfoBlock
	if err := r.ReadStruct(&tib); err != nil {
		return nil, geometry.Wrap(geometry.KindCorruptContainer, err, "reading track info block")
	}
	if !bytes.HasPrefix(tib.Signature[:], trackInfoSignature[:12]) {
		return nil, geometry.New(geometry.KindCorruptContainer, "missing 'Track-Info' signature")
	}

	track := &geometry.Track{
		Cylinder:   tib.Cylinder,
		Side:       tib.Side,
		SizeCode:   geometry.SizeCode(tib.SectorSizeCode),
		NominalSPT: int(tib.SectorCount),
		Gap3Length: tib.Gap3Length,
		Filler:     tib.FillerByte,
	}

	infos := make([]sectorInfoEntry, tib.SectorCount)
	for i := range infos {
		if err := r.ReadStruct(&infos[i]); err != nil {
			return nil, geometry.Wrap(geometry.KindCorruptContainer, err, "reading sector info list")
		}
	}

	// Sector data begins after the full 256-byte TIB (header + up to 29
	// reserved SIL slots), never immediately after the actual SIL count.
	if err := r.Seek(tibTotalSize); err != nil {
		// Short track dumps: no more than the actual SIL was present to
		// begin with; data follows right after what we did read.
		if seekErr := r.Seek(tibHeaderSize + len(infos)*sectorInfoEntrySize); seekErr != nil {
			return nil, geometry.Wrap(geometry.KindCorruptContainer, err, "seeking to sector data")
		}
	}

	for _, info := range infos {
		size := int(info.DataLength)
		nominal := geometry.SizeCode(info.SizeCode).Bytes()
		if !extended || size == 0 {
			size = nominal
		}

		data, err := r.ReadBytes(size)
		if err != nil {
			return nil, geometry.Wrap(geometry.KindCorruptContainer, err, "reading sector data")
		}
		buf := make([]byte, len(data))
		copy(buf, data)

		copies := 1
		if extended && nominal > 0 && size > nominal {
			copies = size / nominal
		}

		track.Sectors = append(track.Sectors, &geometry.Sector{
			Address: geometry.CHRN{
				Cylinder: info.Cylinder,
				Head:     info.Head,
				Record:   info.Record,
				Size:     geometry.SizeCode(info.SizeCode),
			},
			ST1:    info.ST1,
			ST2:    info.ST2,
			Data:   buf,
			Copies: copies,
		})
	}

	return track, nil
}

// encodeStandard serialises img as a Standard DSK image (§4.B, §8 invariant
// 2 "byte-exact re-serialisation"). Every track is padded to the image's
// single TrackSize with its filler byte.
func encodeStandard(img *geometry.DiskImage) ([]byte, error) {
	trackSize := standardTrackSize(img)

	var hdr diskHeader
	copy(hdr.Signature[:], []byte("MV - CPCEMU Disk-File\r\nDisk-Info\r\n"))
	hdr.Creator = img.Creator
	hdr.Tracks = uint8(img.Tracks())
	hdr.Sides = uint8(img.Sides())
	hdr.TrackSize = uint16(trackSize)

	buf := new(bytes.Buffer)
	if err := writeStruct(buf, &hdr); err != nil {
		return nil, errors.Wrap(err, "writing Standard DSK header")
	}

	for t := 0; t < img.Tracks(); t++ {
		for s := 0; s < img.Sides(); s++ {
			track := img.Disks[s].Tracks[t]
			block, err := encodeTrackBlock(track, trackSize, false)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding track %d side %d", t, s)
			}
			buf.Write(block)
		}
	}

	return buf.Bytes(), nil
}

// standardTrackSize computes the single track size every track in a Standard
// DSK image must share: the 256-byte TIB plus the largest track's nominal
// sector payload.
func standardTrackSize(img *geometry.DiskImage) int {
	max := 0
	img.WalkTracks(func(_, _ int, t *geometry.Track) bool {
		size := tibTotalSize
		for _, s := range t.Sectors {
			size += s.NominalSize()
		}
		if size > max {
			max = size
		}
		return true
	})
	return max
}

// encodeTrackBlock serialises one track's TIB, SIL, and sector data, padded
// to blockSize with the track's filler byte. Standard DSK passes the
// image-wide track size; Extended DSK passes the track's own 256-rounded
// byte budget. A blockSize of 0 leaves the block unpadded.
func encodeTrackBlock(track *geometry.Track, blockSize int, extended bool) ([]byte, error) {
	if track.IsUnformatted() {
		return nil, nil
	}

	buf := new(bytes.Buffer)

	var tib trackInfoBlock
	copy(tib.Signature[:], trackInfoSignature[:12])
	tib.Cylinder = track.Cylinder
	tib.Side = track.Side
	tib.SectorSizeCode = uint8(track.SizeCode)
	tib.SectorCount = uint8(len(track.Sectors))
	tib.Gap3Length = track.Gap3Length
	tib.FillerByte = track.Filler
	if err := writeStruct(buf, &tib); err != nil {
		return nil, err
	}

	if len(track.Sectors) > maxSectorsInSIL {
		return nil, geometry.Newf(geometry.KindInvalidParameters, "track has %d sectors, maximum %d", len(track.Sectors), maxSectorsInSIL)
	}

	for _, s := range track.Sectors {
		entry := sectorInfoEntry{
			Cylinder: s.Address.Cylinder,
			Head:     s.Address.Head,
			Record:   s.Address.Record,
			SizeCode: uint8(s.Address.Size),
			ST1:      s.ST1,
			ST2:      s.ST2,
		}
		if extended {
			entry.DataLength = uint16(len(s.Data))
		}
		if err := writeStruct(buf, &entry); err != nil {
			return nil, err
		}
	}

	// The TIB is always a full 256 bytes — header plus SIL padded out to its
	// 29-entry allotment — for both Standard and Extended DSK; only the
	// sector data that follows differs in padding behaviour (§4.B "TIB").
	pad := tibTotalSize - tibHeaderSize - len(track.Sectors)*sectorInfoEntrySize
	if pad > 0 {
		buf.Write(make([]byte, pad))
	}

	for _, s := range track.Sectors {
		buf.Write(s.Data)
	}

	if blockSize > 0 {
		if buf.Len() > blockSize {
			return nil, geometry.Newf(geometry.KindInvalidParameters, "track data %d bytes exceeds block size %d", buf.Len(), blockSize)
		}
		if pad := blockSize - buf.Len(); pad > 0 {
			padding := make([]byte, pad)
			for i := range padding {
				padding[i] = track.Filler
			}
			buf.Write(padding)
		}
	}

	return buf.Bytes(), nil
}
