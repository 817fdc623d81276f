// Package builder implements the Image Builder (§4.H): fluent configuration
// that produces a fully populated geometry.DiskImage from a preset.FormatSpec
// or explicit parameters.
package builder

import (
	"github.com/hashicorp/go-multierror"

	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/preset"
)

// Builder accumulates fluent configuration before Build validates it and
// produces a geometry.DiskImage (§4.H).
type Builder struct {
	format geometry.ContainerFormat

	sides           int
	tracks          int
	sectorsPerTrack int
	sectorSize      geometry.SizeCode
	firstSectorID   uint8
	filler          byte
	gapLength       uint8
}

// New starts a Builder with the Standard DSK defaults (§4.B round-trip
// invariant: filler 0xE5, GAP#3 0x4E).
func New() *Builder {
	return &Builder{
		format:    geometry.StandardDSK,
		filler:    preset.DefaultFiller,
		gapLength: uint8(preset.DefaultGapLength),
	}
}

// FromPreset seeds the Builder from a named preset.FormatSpec.
func FromPreset(spec preset.FormatSpec) *Builder {
	b := New()
	b.sides = spec.Sides
	b.tracks = spec.Tracks
	b.sectorsPerTrack = spec.SectorsPerTrack
	b.sectorSize = spec.SectorSize
	b.firstSectorID = spec.FirstSectorID
	b.filler = spec.Filler
	b.gapLength = spec.GapLength
	return b
}

func (b *Builder) Format(f geometry.ContainerFormat) *Builder { b.format = f; return b }
func (b *Builder) Sides(n int) *Builder                       { b.sides = n; return b }
func (b *Builder) Tracks(n int) *Builder                      { b.tracks = n; return b }
func (b *Builder) SectorsPerTrack(n int) *Builder              { b.sectorsPerTrack = n; return b }
func (b *Builder) SectorSize(n geometry.SizeCode) *Builder     { b.sectorSize = n; return b }
func (b *Builder) FirstSectorID(id uint8) *Builder             { b.firstSectorID = id; return b }
func (b *Builder) Filler(f byte) *Builder                      { b.filler = f; return b }
func (b *Builder) GapLength(g uint8) *Builder                  { b.gapLength = g; return b }

// validate checks every §4.H constraint, aggregating all violations via
// go-multierror so a caller sees every problem at once rather than just the
// first (grounded on dargueta-disko's driver-validation style, generalized
// from its single-error-at-a-time FAT8 checks).
func (b *Builder) validate() error {
	var result *multierror.Error

	if b.tracks < 1 || b.tracks > 84 {
		result = multierror.Append(result, geometry.Newf(geometry.KindInvalidParameters, "tracks %d out of range [1,84]", b.tracks))
	}
	if b.sides != 1 && b.sides != 2 {
		result = multierror.Append(result, geometry.Newf(geometry.KindInvalidParameters, "sides %d must be 1 or 2", b.sides))
	}
	if b.sectorsPerTrack < 1 || b.sectorsPerTrack > 29 {
		result = multierror.Append(result, geometry.Newf(geometry.KindInvalidParameters, "sectors-per-track %d out of range [1,29]", b.sectorsPerTrack))
	}
	if b.sectorSize > 6 {
		result = multierror.Append(result, geometry.Newf(geometry.KindInvalidParameters, "sector size code %d out of range [0,6]", b.sectorSize))
	}

	if result != nil {
		return geometry.Wrap(geometry.KindInvalidParameters, result, "image builder validation failed: "+result.Error())
	}
	return nil
}

// Build validates the accumulated configuration and produces a fully
// populated geometry.DiskImage with filler-byte payloads and ST1=ST2=0
// (§4.H).
func (b *Builder) Build() (*geometry.DiskImage, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	img := &geometry.DiskImage{Format: b.format}

	for side := 0; side < b.sides; side++ {
		disk := &geometry.Disk{}
		for cyl := 0; cyl < b.tracks; cyl++ {
			track := &geometry.Track{
				Cylinder:   uint8(cyl),
				Side:       uint8(side),
				SizeCode:   b.sectorSize,
				NominalSPT: b.sectorsPerTrack,
				Gap3Length: b.gapLength,
				Filler:     b.filler,
			}
			for s := 0; s < b.sectorsPerTrack; s++ {
				recordID := b.firstSectorID + uint8(s)
				data := make([]byte, b.sectorSize.Bytes())
				for i := range data {
					data[i] = b.filler
				}
				track.Sectors = append(track.Sectors, &geometry.Sector{
					Address: geometry.CHRN{
						Cylinder: uint8(cyl),
						Head:     uint8(side),
						Record:   recordID,
						Size:     b.sectorSize,
					},
					Data:   data,
					Copies: 1,
				})
			}
			disk.Tracks = append(disk.Tracks, track)
		}
		img.Disks = append(img.Disks, disk)
	}

	return img, nil
}
