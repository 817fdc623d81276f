package container

import (
	"bytes"

	"github.com/retrofloppy/floppycore/geometry"
)

// decodeMGT parses an MGT raw container: no header, fixed geometry of
// 2 sides × 80 tracks × 10 sectors × 512 bytes (§4.B "MGT raw"). CHRN is
// synthesised (C=track, H=side, R=1..10, N=2); ST1=ST2=0.
func decodeMGT(data []byte) (*geometry.DiskImage, []Warning, error) {
	if len(data) != mgtRawSize {
		return nil, nil, geometry.Newf(geometry.KindCorruptContainer, "MGT raw image must be exactly %d bytes, got %d", mgtRawSize, len(data))
	}

	img := &geometry.DiskImage{Format: geometry.MGTRaw}
	sizeCode, _ := geometry.SizeCodeForBytes(mgtSectorSize)

	offset := 0
	for side := 0; side < mgtSides; side++ {
		disk := &geometry.Disk{}
		for cyl := 0; cyl < mgtTracks; cyl++ {
			track := &geometry.Track{
				Cylinder:   uint8(cyl),
				Side:       uint8(side),
				SizeCode:   sizeCode,
				NominalSPT: mgtSectorsPerTrack,
			}
			for sec := 1; sec <= mgtSectorsPerTrack; sec++ {
				buf := make([]byte, mgtSectorSize)
				copy(buf, data[offset:offset+mgtSectorSize])
				offset += mgtSectorSize

				track.Sectors = append(track.Sectors, &geometry.Sector{
					Address: geometry.CHRN{Cylinder: uint8(cyl), Head: uint8(side), Record: uint8(sec), Size: sizeCode},
					Data:    buf,
					Copies:  1,
				})
			}
			disk.Tracks = append(disk.Tracks, track)
		}
		img.Disks = append(img.Disks, disk)
	}

	return img, nil, nil
}

// encodeMGT serialises img as an MGT raw container, emitting sectors in
// physical order 1..10 on write (§4.B "MGT raw").
func encodeMGT(img *geometry.DiskImage) ([]byte, error) {
	if img.Sides() != mgtSides || img.Tracks() != mgtTracks {
		return nil, geometry.Newf(geometry.KindInvalidParameters, "MGT raw requires %d sides and %d tracks, got %d/%d", mgtSides, mgtTracks, img.Sides(), img.Tracks())
	}

	buf := new(bytes.Buffer)
	for side := 0; side < mgtSides; side++ {
		for cyl := 0; cyl < mgtTracks; cyl++ {
			track := img.Disks[side].Tracks[cyl]
			for sec := uint8(1); sec <= mgtSectorsPerTrack; sec++ {
				s := track.FindSectorByRecord(sec)
				if s == nil {
					return nil, geometry.Newf(geometry.KindInvalidParameters, "MGT raw track %d side %d missing sector %d", cyl, side, sec)
				}
				if len(s.Data) != mgtSectorSize {
					return nil, geometry.Newf(geometry.KindDataLengthMismatch, "MGT raw sector must be %d bytes, got %d", mgtSectorSize, len(s.Data))
				}
				buf.Write(s.Data)
			}
		}
	}

	return buf.Bytes(), nil
}
