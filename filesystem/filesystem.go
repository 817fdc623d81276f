// Package filesystem implements the Filesystem Capability (§4.D): a small
// interface exposed over any backing geometry.DiskImage, plus a mount
// dispatcher that tries each known variant in turn.
package filesystem

import (
	"github.com/retrofloppy/floppycore/geometry"
)

// Info summarises a mounted filesystem's capacity, mirrored from the
// teacher's DiskParameterBlock-derived reporting in amstrad/dsk/amsdos.go.
type Info struct {
	FSType        string
	TotalBlocks   int
	BlockSize     int
	FreeBlocks    int
	ReservedTracks int
}

// Entry describes one file in a directory listing.
type Entry struct {
	Name       string
	Size       int
	Attributes string

	// Location hints: CP/M user number or MGT file type, implementation-specific.
	UserOrType int
}

// Filesystem is the capability exposed over a mounted disk (§4.D).
type Filesystem interface {
	Info() Info
	ReadDir() ([]Entry, error)
	ReadFile(name string) ([]byte, error)
}

// Mounter is implemented by each filesystem variant's package-level Mount
// entry point, registered in Registry below.
type Mounter func(img *geometry.DiskImage) (Filesystem, error)

// CanMounter is implemented by each variant's detection predicate, consumed
// by auto-mount (§4.D "can_mount").
type CanMounter func(img *geometry.DiskImage) bool

// variant pairs a filesystem's detection predicate with its mount function,
// tried in order by Mount(img, "auto").
type variant struct {
	name      string
	canMount  CanMounter
	mount     Mounter
}

// registry is populated by the cpm and mgt packages' init functions via
// Register, avoiding an import cycle (filesystem cannot import cpm/mgt
// directly since both already depend on filesystem's Entry/Info/Filesystem
// types).
var registry []variant

// Register adds a filesystem variant to the auto-mount search order. Called
// from cpm.init and mgt.init.
func Register(name string, canMount CanMounter, mount Mounter) {
	registry = append(registry, variant{name: name, canMount: canMount, mount: mount})
}

// Mount mounts img using the named variant ("cpm", "mgt") or, for "auto",
// the first registered variant whose CanMounter matches (§4.D, §6 "mount
// (auto, cpm, mgt)").
func Mount(img *geometry.DiskImage, name string) (Filesystem, error) {
	if name == "" || name == "auto" {
		for _, v := range registry {
			if v.canMount(img) {
				return v.mount(img)
			}
		}
		return nil, geometry.New(geometry.KindUnsupportedVariant, "no filesystem variant recognises this disk")
	}

	for _, v := range registry {
		if v.name == name {
			if !v.canMount(img) {
				return nil, geometry.Newf(geometry.KindUnsupportedVariant, "disk does not look like a %s filesystem", name)
			}
			return v.mount(img)
		}
	}
	return nil, geometry.Newf(geometry.KindUnsupportedVariant, "unknown filesystem variant %q", name)
}
