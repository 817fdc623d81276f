// Package mgt implements the MGT Decoder (§4.F): directory parsing and file
// reconstruction for the MGT DISCiPLE/+D and SAM Coupé filesystems.
//
// No teacher or pack repo carries an MGT/DISCiPLE decoder; the directory and
// chain-pointer layout below are built directly from spec.md §4.F, following
// the teacher's encoding/binary struct-decode idiom (amstrad/dsk/disk_info.go)
// and its bitmap representation choice generalized from go-bitmap's use
// elsewhere in the pack (dargueta-disko's FAT allocation bitmap).
package mgt

import (
	"bytes"
	"encoding/binary"

	"github.com/boljen/go-bitmap"

	"github.com/retrofloppy/floppycore/filesystem"
	"github.com/retrofloppy/floppycore/geometry"
)

func init() {
	filesystem.Register("mgt", CanMount, func(img *geometry.DiskImage) (filesystem.Filesystem, error) {
		return Mount(img, DiscipleVariant)
	})
}

// Variant resolves the §9 Open Question: directory byte 11..12 (sector
// count) is big-endian on DISCiPLE/+D and little-endian on SAM Coupé. The
// caller selects the variant; this decoder does not guess.
type Variant int

const (
	DiscipleVariant Variant = iota
	SamVariant
)

// FileType is the directory entry's type byte (§4.F).
type FileType uint8

const (
	TypeErased        FileType = 0
	TypeBasic         FileType = 1
	TypeNumericArray  FileType = 2
	TypeStringArray   FileType = 3
	TypeCode          FileType = 4
	TypeSnapshot48K   FileType = 5
	TypeMicrodrive    FileType = 6
	TypeScreen        FileType = 7
	TypeSpecial       FileType = 8
	TypeSnapshot128K  FileType = 9
	TypeOpenType      FileType = 10
	TypeExecute       FileType = 11
	// SAM Coupé-specific types, 16..20.
	TypeSAMBasic   FileType = 16
	TypeSAMNumeric FileType = 17
	TypeSAMString  FileType = 18
	TypeSAMCode    FileType = 19
	TypeSAMScreen  FileType = 20
)

const (
	directoryEntrySize = 256
	sectorsPerTrackMGT = 10
	bytesPerSector     = 512
)

// rawEntry mirrors the 256-byte directory entry layout of §4.F; fields after
// the sector-address bitmap are left as an opaque type-specific header since
// spec §4.F only fully specifies load/length/exec for file reconstruction,
// which is read ad hoc below rather than via a fixed struct (the header's
// shape depends on FileType).
type rawEntry struct {
	Type           uint8
	Name           [10]byte
	SectorCount    [2]byte // endianness resolved by Variant
	StartTrack     uint8   // bit 0x80 set => side 1
	StartSector    uint8
	SectorBitmap   [195]byte
	TypeHeader     [46]byte
}

// Entry is a decoded MGT directory entry (§4.F).
type Entry struct {
	Type        FileType
	Name        string
	SectorCount int
	StartTrack  int
	StartSide   int
	StartSector int
	Bitmap      bitmap.Bitmap
	TypeHeader  []byte
}

// length returns the declared file length from the type-specific header when
// one is present (offsets 210..255 map to TypeHeader[0..45]; bytes 2..3 hold
// a 16-bit little-endian length for every type this decoder reconstructs), or -1 if the
// header carries no usable length (§4.F "File reconstruction").
func (e Entry) length() int {
	switch e.Type {
	case TypeBasic, TypeNumericArray, TypeStringArray, TypeCode, TypeScreen, TypeSAMCode, TypeSAMScreen, TypeSAMBasic:
		if len(e.TypeHeader) >= 4 {
			return int(binary.LittleEndian.Uint16(e.TypeHeader[2:4]))
		}
	}
	return -1
}

// Filesystem is a mounted MGT directory (§4.D, §4.F).
type Filesystem struct {
	img     *geometry.DiskImage
	variant Variant
	entries []Entry
}

// CanMount reports whether img has the fixed 2-sided, 80-track, 10-sector
// MGT geometry (§4.D "can_mount").
func CanMount(img *geometry.DiskImage) bool {
	return img.Sides() == 2 && img.Tracks() == 80
}

// Mount parses img's MGT directory: track 0, sectors 1..4 on side 0 then
// sectors 1..4 on side 1, 256-byte entries packed two per 512-byte sector
// (§4.F).
func Mount(img *geometry.DiskImage, variant Variant) (*Filesystem, error) {
	if !CanMount(img) {
		return nil, geometry.New(geometry.KindUnsupportedVariant, "disk geometry does not match MGT +D/DISCiPLE/SAM layout")
	}

	var raw []byte
	for side := 0; side < 2; side++ {
		for sec := uint8(1); sec <= 4; sec++ {
			data, err := img.ReadSector(side, 0, sec)
			if err != nil {
				return nil, geometry.Wrap(geometry.KindCorruptDirectory, err, "reading MGT directory")
			}
			raw = append(raw, data...)
		}
	}

	entries, err := decodeEntries(raw, variant)
	if err != nil {
		return nil, err
	}

	return &Filesystem{img: img, variant: variant, entries: entries}, nil
}

func decodeEntries(raw []byte, variant Variant) ([]Entry, error) {
	count := len(raw) / directoryEntrySize
	entries := make([]Entry, 0, count)

	for i := 0; i < count; i++ {
		chunk := raw[i*directoryEntrySize : (i+1)*directoryEntrySize]

		var re rawEntry
		if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, &re); err != nil {
			return nil, geometry.Wrap(geometry.KindCorruptDirectory, err, "decoding MGT directory entry")
		}

		if re.Type == uint8(TypeErased) {
			continue
		}

		sectorCount := 0
		if variant == SamVariant {
			sectorCount = int(re.SectorCount[0]) | int(re.SectorCount[1])<<8
		} else {
			sectorCount = int(re.SectorCount[0])<<8 | int(re.SectorCount[1])
		}

		entries = append(entries, Entry{
			Type:        FileType(re.Type),
			Name:        trimSpace(string(re.Name[:])),
			SectorCount: sectorCount,
			StartTrack:  int(re.StartTrack &^ 0x80),
			StartSide:   int(re.StartTrack >> 7),
			StartSector: int(re.StartSector),
			Bitmap:      bitmap.NewSlice(re.SectorBitmap[:]),
			TypeHeader:  append([]byte(nil), re.TypeHeader...),
		})
	}
	return entries, nil
}

// sectorBitmapIndex maps a (track, side, sector) data-sector position to its
// bit position in the directory entry's 195-byte sector-address bitmap
// (§4.F: "one bit per data sector", track-major, side within track, sector
// within side, numbered from the first data sector past the directory).
func sectorBitmapIndex(track, side, sector int) (int, bool) {
	if sector < 1 || sector > sectorsPerTrackMGT || side < 0 || side > 1 || track < 0 {
		return 0, false
	}
	idx := track*2*sectorsPerTrackMGT + side*sectorsPerTrackMGT + (sector - 1)
	if track == 0 {
		idx -= directorySectors
		if idx < 0 {
			return 0, false
		}
	}
	return idx, true
}

func trimSpace(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == ' ' {
		i--
	}
	return s[:i]
}

// directorySectors is the 8 sectors (track 0, sides 0+1, sectors 1..4 each)
// the directory itself occupies (§4.F), never available to file data.
const directorySectors = 8

// Info implements filesystem.Filesystem.
func (fs *Filesystem) Info() filesystem.Info {
	total := 2 * 80 * sectorsPerTrackMGT
	used := directorySectors
	for _, e := range fs.entries {
		used += e.SectorCount
	}
	free := total - used
	if free < 0 {
		free = 0
	}
	return filesystem.Info{
		FSType:         "MGT",
		TotalBlocks:    total,
		BlockSize:      bytesPerSector,
		FreeBlocks:     free,
		ReservedTracks: 1,
	}
}

// ReadDir implements filesystem.Filesystem.
func (fs *Filesystem) ReadDir() ([]filesystem.Entry, error) {
	out := make([]filesystem.Entry, 0, len(fs.entries))
	for _, e := range fs.entries {
		size := e.length()
		if size <= 0 {
			size = e.SectorCount * 510
		}
		out = append(out, filesystem.Entry{
			Name:       e.Name,
			Size:       size,
			Attributes: "",
			UserOrType: int(e.Type),
		})
	}
	return out, nil
}

// ReadFile implements filesystem.Filesystem: walks the (track, sector) chain
// pointer from the entry's start location, concatenating each sector's
// 510-byte payload, and truncates to the type header's declared length when
// present (§4.F "File reconstruction").
func (fs *Filesystem) ReadFile(name string) ([]byte, error) {
	for _, e := range fs.entries {
		if e.Name != name {
			continue
		}

		buf := new(bytes.Buffer)
		track, side, sector := e.StartTrack, e.StartSide, e.StartSector
		seen := map[[3]int]bool{}

		for track != 0 || sector != 0 {
			key := [3]int{side, track, sector}
			if seen[key] {
				return nil, geometry.New(geometry.KindCorruptDirectory, "chain pointer loop in "+name)
			}
			seen[key] = true

			if idx, ok := sectorBitmapIndex(track, side, sector); ok && idx < e.Bitmap.Len() && !e.Bitmap.Get(idx) {
				return nil, geometry.New(geometry.KindCorruptDirectory, "chain pointer leads to a sector outside "+name+"'s sector-address bitmap")
			}

			data, err := fs.img.ReadSector(side, track, uint8(sector))
			if err != nil {
				return nil, geometry.Wrap(geometry.KindCorruptDirectory, err, "following chain pointer for "+name)
			}
			if len(data) < 512 {
				return nil, geometry.New(geometry.KindCorruptDirectory, "short sector in chain for "+name)
			}
			buf.Write(data[:510])

			nextTrack := data[510]
			nextSector := data[511]
			track = int(nextTrack &^ 0x80)
			side = int(nextTrack >> 7)
			sector = int(nextSector)
		}

		out := buf.Bytes()
		if n := e.length(); n > 0 && n < len(out) {
			out = out[:n]
		}
		return out, nil
	}
	return nil, geometry.Newf(geometry.KindFileNotFound, "%s not found", name)
}
