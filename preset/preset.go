// Package preset enumerates the named geometries of §4.C, each a FormatSpec
// consumed by the Image Builder (builder.Builder).
package preset

import "github.com/retrofloppy/floppycore/geometry"

// Filesystem hints a preset carries. They are data only: neither the builder
// nor the filesystem package's mount auto-detection reads them.
type FilesystemHint int

const (
	FSNone FilesystemHint = iota
	FSCPM
	FSMGT
)

// FormatSpec is the desired geometry for the builder (§3 "FormatSpec").
type FormatSpec struct {
	Name string

	Sides             int
	Tracks            int
	SectorsPerTrack   int
	SectorSize        geometry.SizeCode
	FirstSectorID     uint8
	Filler            byte
	GapLength         uint8
	FilesystemHint    FilesystemHint
}

// Standard DSK/Extended DSK defaults for newly built images (§4.B "Round-trip
// invariant").
const (
	DefaultFiller    byte = 0xE5
	DefaultGapLength byte = 0x4E
)

// Named presets from §4.C's table, sides × tracks × sectors × size × first-ID × fs.
var (
	AmstradCPCSystem = FormatSpec{
		Name: "Amstrad CPC System", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x41,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	AmstradCPCData = FormatSpec{
		Name: "Amstrad CPC Data", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0xC1,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	AmstradCPCIBM = FormatSpec{
		Name: "Amstrad CPC IBM", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	ZXSpectrumPlus3 = FormatSpec{
		Name: "ZX Spectrum +3", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	AmstradPCW = FormatSpec{
		Name: "Amstrad PCW", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	TatungEinstein = FormatSpec{
		Name: "Tatung Einstein", Sides: 1, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSCPM,
	}
	IBMPC360K = FormatSpec{
		Name: "IBM PC 360K", Sides: 2, Tracks: 40, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSNone,
	}
	IBMPC720K = FormatSpec{
		Name: "IBM PC 720K", Sides: 2, Tracks: 80, SectorsPerTrack: 9,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSNone,
	}
	MGTDiscipleOrPlusD = FormatSpec{
		Name: "MGT +D/DISCiPLE", Sides: 2, Tracks: 80, SectorsPerTrack: 10,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSMGT,
	}
	SAMCoupe = FormatSpec{
		Name: "SAM Coupé", Sides: 2, Tracks: 80, SectorsPerTrack: 10,
		SectorSize: geometry.SizeCode(2), FirstSectorID: 0x01,
		Filler: DefaultFiller, GapLength: DefaultGapLength, FilesystemHint: FSMGT,
	}
)

// All lists every named preset, in table order, for lookup-by-name or
// enumeration (e.g. by a CLI's --preset flag).
var All = []FormatSpec{
	AmstradCPCSystem,
	AmstradCPCData,
	AmstradCPCIBM,
	ZXSpectrumPlus3,
	AmstradPCW,
	TatungEinstein,
	IBMPC360K,
	IBMPC720K,
	MGTDiscipleOrPlusD,
	SAMCoupe,
}

// ByName returns the preset with the given name, or false if not found.
func ByName(name string) (FormatSpec, bool) {
	for _, p := range All {
		if p.Name == name {
			return p, true
		}
	}
	return FormatSpec{}, false
}
