// Package geometry implements the in-memory side→track→sector tree shared by
// every other component (§3, §4.A). It is the sole data substrate for the
// filesystem decoders and the protection detector; the container codec is the
// only component that builds or serialises it from bytes.
package geometry

// ContainerFormat tags the on-disk container an image was decoded from, or
// will be serialised as.
type ContainerFormat int

const (
	StandardDSK ContainerFormat = iota
	ExtendedDSK
	MGTRaw
)

func (f ContainerFormat) String() string {
	switch f {
	case StandardDSK:
		return "StandardDSK"
	case ExtendedDSK:
		return "ExtendedDSK"
	case MGTRaw:
		return "MGTRaw"
	default:
		return "Unknown"
	}
}

// SizeCode is the FDC "N" code recorded in a sector's CHRN: the sector size
// in bytes is 128 << N.
type SizeCode uint8

// Bytes returns the nominal sector size in bytes for this size code.
func (n SizeCode) Bytes() int {
	return 128 << uint(n)
}

// SizeCodeForBytes returns the smallest size code whose nominal size is size,
// or false if size is not an exact 128<<N value.
func SizeCodeForBytes(size int) (SizeCode, bool) {
	for n := SizeCode(0); n <= 6; n++ {
		if n.Bytes() == size {
			return n, true
		}
	}
	return 0, false
}

// CHRN is the four-byte address field an FDC writes into every sector,
// independent of the physical track/side it lives on (§3, §GLOSSARY).
type CHRN struct {
	Cylinder uint8
	Head     uint8
	Record   uint8
	Size     SizeCode
}

// Sector is the atomic unit of the geometry model (§3).
type Sector struct {
	Address CHRN

	// FDC result registers, 8 bits each (§3, §4.G signal 3).
	ST1 uint8
	ST2 uint8

	// Data is the sector's payload. Its length is the "actual data length"
	// of §3, which may exceed Address.Size.Bytes() (weak/long sectors) or be
	// zero.
	Data []byte

	// Copies records the Extended DSK V5 weak-sector copy-count: if > 1, Data
	// holds that many successive nominal-sized copies concatenated (§3).
	Copies int
}

// NominalSize is the sector size implied by Address.Size, ignoring any weak
// sector repetition.
func (s *Sector) NominalSize() int {
	return s.Address.Size.Bytes()
}

// IsWeak reports whether this sector carries more than one copy of its
// nominal-sized payload (Extended DSK V5 extension).
func (s *Sector) IsWeak() bool {
	return s.Copies > 1
}

// Track is a physical track on one side (§3). Sectors are stored in physical
// order — the order encountered during a revolution — never sorted by ID.
type Track struct {
	Cylinder   uint8
	Side       uint8
	SizeCode   SizeCode // recorded sector size code for this track
	NominalSPT int      // nominal sectors-per-track
	Gap3Length uint8
	Filler     byte

	Sectors []*Sector
}

// IsUnformatted reports whether the track carries no sectors (Extended DSK
// track-length-0 case).
func (t *Track) IsUnformatted() bool {
	return len(t.Sectors) == 0
}

// FindSector returns the first Sector in physical order whose CHRN fully
// matches chrn, per the §3 "first match in physical order wins" invariant.
func (t *Track) FindSector(chrn CHRN) *Sector {
	for _, s := range t.Sectors {
		if s.Address == chrn {
			return s
		}
	}
	return nil
}

// FindSectorByRecord returns the first Sector in physical order whose Record
// ID equals r, ignoring cylinder/head/size (§3 "lookup by R alone").
func (t *Track) FindSectorByRecord(r uint8) *Sector {
	for _, s := range t.Sectors {
		if s.Address.Record == r {
			return s
		}
	}
	return nil
}

// CapacityBytes is the nominal capacity of this track: nominal sectors ×
// nominal size (§4.A).
func (t *Track) CapacityBytes() int {
	return t.NominalSPT * t.SizeCode.Bytes()
}

// Disk represents one physical side (§3): an ordered sequence of Tracks
// indexed by cylinder, track index == position in sequence.
type Disk struct {
	Tracks []*Track
}

// Track returns the track at the given cylinder index, or nil if out of range.
func (d *Disk) Track(cylinder int) *Track {
	if cylinder < 0 || cylinder >= len(d.Tracks) {
		return nil
	}
	return d.Tracks[cylinder]
}

// DiskImage is the top-level entity (§3): the original container format tag,
// an optional creator/tool identifier, and an ordered sequence of Disks (one
// per side). All Disks share the same side count and contiguous track
// indices from 0 upward.
type DiskImage struct {
	Format  ContainerFormat
	Creator [14]byte // optional 14-byte creator/tool identifier, zero if absent

	Disks []*Disk
}

// Sides returns the number of sides (1 or 2).
func (img *DiskImage) Sides() int {
	return len(img.Disks)
}

// Tracks returns the number of tracks per side (0 if no disks).
func (img *DiskImage) Tracks() int {
	if len(img.Disks) == 0 {
		return 0
	}
	return len(img.Disks[0].Tracks)
}

// CreatorString returns the creator identifier with trailing NULs trimmed.
func (img *DiskImage) CreatorString() string {
	n := len(img.Creator)
	for n > 0 && img.Creator[n-1] == 0 {
		n--
	}
	return string(img.Creator[:n])
}

// SetCreator stores s (truncated to 14 bytes) as the creator identifier.
func (img *DiskImage) SetCreator(s string) {
	var buf [14]byte
	copy(buf[:], s)
	img.Creator = buf
}
