// Package protect implements the Protection Detector (§4.G): a fixed-priority
// catalogue of predicates over a Disk, each testing one named copy-protection
// scheme's geometry and byte-signature signals.
//
// Grounded on the teacher's tzx.newFromBlockID dispatch table (spectrum/tzx/
// tzx.go): a flat, ID-ordered lookup generalized here into a priority-ordered
// predicate scan, since protection schemes are distinguished by signal
// combinations rather than a single tag byte.
package protect

import (
	"bytes"
	"fmt"

	"github.com/retrofloppy/floppycore/geometry"
)

// Result is a positive detector match (§4.G).
type Result struct {
	Name       string
	Reason     string
	Confidence float64
}

// Detector is a named predicate evaluated against a Disk in priority order;
// the first positive match wins (§4.G).
type Detector struct {
	Name  string
	Match func(d *geometry.Disk) (reason string, ok bool)
}

// signal helpers, implementing §4.G's five signal kinds.

// findSignature scans every sector payload on d for pattern, returning
// the (track, sector) of the first match.
func findSignature(d *geometry.Disk, pattern []byte) (track int, sectorID uint8, ok bool) {
	for cyl, t := range d.Tracks {
		for _, s := range t.Sectors {
			if bytes.Contains(s.Data, pattern) {
				return cyl, s.Address.Record, true
			}
		}
	}
	return 0, 0, false
}

// sectorCountAnomaly reports a formatted track whose sector count is neither
// 9 nor 10; tracks with no sectors are not reported (§4.G signal 1).
func sectorCountAnomaly(d *geometry.Disk) (int, int, bool) {
	for cyl, t := range d.Tracks {
		n := len(t.Sectors)
		if n != 0 && n != 9 && n != 10 {
			return cyl, n, true
		}
	}
	return 0, 0, false
}

// track0CHRNAnomaly reports whether track 0 carries a CHRN tuple with a
// cylinder byte mismatched against its physical track, an N-code >= 6, or a
// duplicate record ID (§4.G signal 2).
func track0CHRNAnomaly(d *geometry.Disk) (string, bool) {
	if len(d.Tracks) == 0 {
		return "", false
	}
	t := d.Tracks[0]
	seen := map[uint8]int{}
	for _, s := range t.Sectors {
		if s.Address.Cylinder != t.Cylinder {
			return fmt.Sprintf("track 0 sector ID %#02x claims cylinder %d", s.Address.Record, s.Address.Cylinder), true
		}
		if s.Address.Size >= 6 {
			return fmt.Sprintf("track 0 sector ID %#02x has N-code %d", s.Address.Record, s.Address.Size), true
		}
		seen[s.Address.Record]++
		if seen[s.Address.Record] > 1 {
			return fmt.Sprintf("track 0 has duplicate sector ID %#02x", s.Address.Record), true
		}
	}
	return "", false
}

// fdcStatusAnomaly reports a sector flagged with one of §4.G signal 3's four
// ST1/ST2 bits.
func fdcStatusAnomaly(d *geometry.Disk) (int, uint8, string, bool) {
	for cyl, t := range d.Tracks {
		for _, s := range t.Sectors {
			switch {
			case s.ST1&0x20 != 0:
				return cyl, s.Address.Record, "CRC error in data (ST1 bit 5)", true
			case s.ST1&0x04 != 0:
				return cyl, s.Address.Record, "no data (ST1 bit 2)", true
			case s.ST2&0x20 != 0:
				return cyl, s.Address.Record, "CRC error in data field (ST2 bit 5)", true
			case s.ST2&0x01 != 0:
				return cyl, s.Address.Record, "missing address mark in data field (ST2 bit 0)", true
			}
		}
	}
	return 0, 0, "", false
}

// track41Plus reports whether a nominally 40-track disk carries data beyond
// track 40, i.e. a 41st track is present (§4.G signal 5).
func track41Plus(d *geometry.Disk) bool {
	return len(d.Tracks) > 40
}

// st1CRCError reports the first sector flagged with ST1 bit 5 (CRC error in
// data), the FDC-status signal Speedlock's worked scenario keys off (§4.G
// signal 3, §8 scenario S6).
func st1CRCError(d *geometry.Disk) (int, uint8, bool) {
	for cyl, t := range d.Tracks {
		for _, s := range t.Sectors {
			if s.ST1&0x20 != 0 {
				return cyl, s.Address.Record, true
			}
		}
	}
	return 0, 0, false
}

func sig(s string) []byte { return []byte(s) }

// Catalogue is the fixed priority order of every supported scheme (§4.G),
// most-specific byte signature first, geometry-only heuristics last.
var Catalogue = []Detector{
	{"Speedlock", func(d *geometry.Disk) (string, bool) {
		track, sector, ok := findSignature(d, sig("SPEEDLOCK"))
		if !ok {
			return "", false
		}
		crcTrack, crcSector, crcOK := st1CRCError(d)
		if !crcOK {
			return "", false
		}
		return fmt.Sprintf("\"SPEEDLOCK\" signature on track %d sector %#02x + CRC error (ST1 bit 5) on track %d sector %#02x",
			track, sector, crcTrack, crcSector), true
	}},

	{"Alkatraz +3", func(d *geometry.Disk) (string, bool) {
		if track, sector, ok := findSignature(d, sig("ALKATRAZ")); ok {
			if _, _, fok := sectorCountAnomaly(d); fok {
				return fmt.Sprintf("\"ALKATRAZ\" signature on track %d sector %#02x + anomalous sector count", track, sector), true
			}
		}
		return "", false
	}},
	{"Alkatraz", func(d *geometry.Disk) (string, bool) {
		track, sector, ok := findSignature(d, sig("ALKATRAZ"))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("\"ALKATRAZ\" signature on track %d sector %#02x", track, sector), true
	}},

	{"Hexagon", signatureDetector("HEXAGON")},
	{"Frontier", signatureDetector("FRONTIER")},
	{"Paul Owens", signatureDetector("PAUL OWENS")},

	{"Three Inch Loader type 3", signatureDetector("TRIL3")},
	{"Three Inch Loader type 2", signatureDetector("TRIL2")},
	{"Three Inch Loader type 1", signatureDetector("TRIL1")},

	{"P.M.S. 1987", func(d *geometry.Disk) (string, bool) {
		track, sector, ok := findSignature(d, sig("P.M.S.1987"))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("\"P.M.S.1987\" signature on track %d sector %#02x", track, sector), true
	}},
	{"P.M.S. 1986", func(d *geometry.Disk) (string, bool) {
		track, sector, ok := findSignature(d, sig("P.M.S."))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("\"P.M.S.\" signature on track %d sector %#02x", track, sector), true
	}},

	{"DiscSYS / Mean Protection System", signatureDetector("DISCSYS")},
	{"KBI-19", signatureDetector("KBI-19")},
	{"KBI-10", signatureDetector("KBI-10")},
	{"CAAV", signatureDetector("CAAV")},
	{"W.R.M. Disc Protection", signatureDetector("W.R.M.")},
	{"Players", signatureDetector("PLAYERS")},
	{"Rainbow Arts", signatureDetector("RAINBOW ARTS")},
	{"Infogrames/Logiciel", signatureDetector("LOGICIEL")},
	{"ERE/Remi Herbulot", signatureDetector("REMI HERBULOT")},
	{"Amsoft/EXOPAL", signatureDetector("EXOPAL")},
	{"ARMOURLOC", signatureDetector("ARMOURLOC")},
	{"Studio B / DiscLoc / Oddball", signatureDetector("DISCLOC")},
	{"Laser Load by C.J. Pink", func(d *geometry.Disk) (string, bool) {
		if track, sector, ok := findSignature(d, sig("LaserLoad")); ok {
			return fmt.Sprintf("\"LaserLoad\" signature on track %d sector %#02x", track, sector), true
		}
		track, sector, ok := findSignature(d, sig("CJPink"))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("\"CJPink\" signature on track %d sector %#02x", track, sector), true
	}},

	// Geometry-only fallbacks, least specific: named schemes above have no
	// stronger signal than an uncommon track/sector layout.
	{"Unidentified 40+ track anomaly", func(d *geometry.Disk) (string, bool) {
		if track41Plus(d) {
			return "data present beyond track 40 on a nominally 40-track disk", true
		}
		return "", false
	}},
	{"Unidentified FDC status anomaly", func(d *geometry.Disk) (string, bool) {
		cyl, sector, reason, ok := fdcStatusAnomaly(d)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("track %d sector %#02x: %s", cyl, sector, reason), true
	}},
}

// signatureDetector builds a Detector that matches on a single ASCII
// substring search across every sector payload (§4.G signal 4).
func signatureDetector(pattern string) func(d *geometry.Disk) (string, bool) {
	return func(d *geometry.Disk) (string, bool) {
		track, sector, ok := findSignature(d, sig(pattern))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%q signature on track %d sector %#02x", pattern, track, sector), true
	}
}

// Detect scans d against Catalogue in priority order and returns the first
// positive match (§4.G). A disk matching no detector returns ok == false;
// absence is never an error.
func Detect(d *geometry.Disk) (*Result, bool) {
	for _, det := range Catalogue {
		if reason, ok := det.Match(d); ok {
			return &Result{Name: det.Name, Reason: reason, Confidence: 1.0}, true
		}
	}
	return nil, false
}

// DetectImage runs Detect against every side of img, returning the first
// positive match across any side.
func DetectImage(img *geometry.DiskImage) (*Result, bool) {
	for _, d := range img.Disks {
		if r, ok := Detect(d); ok {
			return r, true
		}
	}
	return nil, false
}
