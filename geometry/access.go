package geometry

import "fmt"

// Side returns the Disk for the given side index, or an OutOfRange error.
func (img *DiskImage) Side(side int) (*Disk, error) {
	if side < 0 || side >= len(img.Disks) {
		return nil, Newf(KindOutOfRange, "side %d out of range [0,%d)", side, len(img.Disks))
	}
	return img.Disks[side], nil
}

// TrackAt returns the Track at (side, track), or an OutOfRange error.
func (img *DiskImage) TrackAt(side, track int) (*Track, error) {
	d, err := img.Side(side)
	if err != nil {
		return nil, err
	}
	t := d.Track(track)
	if t == nil {
		return nil, Newf(KindOutOfRange, "track %d out of range [0,%d) on side %d", track, len(d.Tracks), side)
	}
	return t, nil
}

// ReadSector returns the data of the first sector in physical order on
// (side, track) whose Record ID equals sectorID (§4.A, §8 invariant 4).
func (img *DiskImage) ReadSector(side, track int, sectorID uint8) ([]byte, error) {
	t, err := img.TrackAt(side, track)
	if err != nil {
		return nil, err
	}
	s := t.FindSectorByRecord(sectorID)
	if s == nil {
		return nil, Newf(KindSectorNotFound, "sector %#02x not found on side %d track %d", sectorID, side, track)
	}
	out := make([]byte, len(s.Data))
	copy(out, s.Data)
	return out, nil
}

// WriteSector replaces the data of the first sector in physical order on
// (side, track) whose Record ID equals sectorID (§4.A, §8 invariant 4).
//
// For StandardDSK images a length mismatch against the sector's nominal size
// fails DataLengthMismatch; Extended DSK accepts any length and updates the
// sector's actual length and copy-count (a full-length rewrite always clears
// any pre-existing weak-sector repetition).
func (img *DiskImage) WriteSector(side, track int, sectorID uint8, data []byte) error {
	t, err := img.TrackAt(side, track)
	if err != nil {
		return err
	}
	s := t.FindSectorByRecord(sectorID)
	if s == nil {
		return Newf(KindSectorNotFound, "sector %#02x not found on side %d track %d", sectorID, side, track)
	}

	if img.Format == StandardDSK && len(data) != s.NominalSize() {
		return Newf(
			KindDataLengthMismatch,
			"sector %#02x on side %d track %d expects %d bytes, got %d",
			sectorID, side, track, s.NominalSize(), len(data),
		)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	s.Data = buf
	s.Copies = 1
	return nil
}

// CapacityKB returns the total nominal capacity of the image in kilobytes:
// the sum over every track of nominal sectors × nominal size, divided by 1024
// (§4.A, §8 invariant 3).
func (img *DiskImage) CapacityKB() int {
	total := 0
	for _, d := range img.Disks {
		for _, t := range d.Tracks {
			total += t.CapacityBytes()
		}
	}
	return total / 1024
}

// SectorRef identifies a sector by its physical location, yielded by
// iterators below.
type SectorRef struct {
	Side    int
	Track   int
	Sector  *Sector
	Index   int // position within the track's physical sector order
}

// WalkDisks calls fn for each Disk in side order. Iteration stops early if fn
// returns false.
func (img *DiskImage) WalkDisks(fn func(side int, d *Disk) bool) {
	for i, d := range img.Disks {
		if !fn(i, d) {
			return
		}
	}
}

// WalkTracks calls fn for each Track across every side, in (side, cylinder)
// order. Iteration stops early if fn returns false.
func (img *DiskImage) WalkTracks(fn func(side, cylinder int, t *Track) bool) {
	for side, d := range img.Disks {
		for cyl, t := range d.Tracks {
			if !fn(side, cyl, t) {
				return
			}
		}
	}
}

// WalkSectors calls fn for each sector across every track and side, in
// physical order. Iteration stops early if fn returns false.
func (img *DiskImage) WalkSectors(fn func(ref SectorRef) bool) {
	for side, d := range img.Disks {
		for cyl, t := range d.Tracks {
			for idx, s := range t.Sectors {
				if !fn(SectorRef{Side: side, Track: cyl, Sector: s, Index: idx}) {
					return
				}
			}
		}
	}
}

// String renders a one-line geometry summary, in the spirit of the teacher's
// DiskInformation.String (amstrad/dsk/disk_info.go).
func (img *DiskImage) String() string {
	return fmt.Sprintf("%s: %d side(s), %d track(s), %dKB", img.Format, img.Sides(), img.Tracks(), img.CapacityKB())
}
