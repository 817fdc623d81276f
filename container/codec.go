package container

import (
	"os"
	"path/filepath"

	"github.com/retrofloppy/floppycore/geometry"
)

// Decode parses data into a geometry.DiskImage, auto-detecting the container
// format from its bytes; filenameExt is passed to Detect, which does not let
// it change the result (§4.B "Auto-detection", §6 "Image lifecycle").
func Decode(data []byte, filenameExt string) (*geometry.DiskImage, []Warning, error) {
	format, err := Detect(data, filenameExt)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case geometry.StandardDSK:
		return decodeStandard(data)
	case geometry.ExtendedDSK:
		return decodeExtended(data)
	case geometry.MGTRaw:
		return decodeMGT(data)
	default:
		return nil, nil, geometry.New(geometry.KindUnknownFormat, "unhandled container format")
	}
}

// Encode serialises img back to bytes using its own Format tag (§4.B
// "round-trip invariant").
func Encode(img *geometry.DiskImage) ([]byte, error) {
	switch img.Format {
	case geometry.StandardDSK:
		return encodeStandard(img)
	case geometry.ExtendedDSK:
		return encodeExtended(img)
	case geometry.MGTRaw:
		return encodeMGT(img)
	default:
		return nil, geometry.New(geometry.KindUnknownFormat, "unhandled container format")
	}
}

// OpenFromPath reads and decodes the image at path, passing its extension on
// to Detect (§6 "open-from-path").
func OpenFromPath(path string) (*geometry.DiskImage, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, geometry.Wrap(geometry.KindIO, err, "reading "+path)
	}
	return Decode(data, filepath.Ext(path))
}

// OpenFromBytes decodes data with no filename hint (§6 "open-from-bytes").
func OpenFromBytes(data []byte) (*geometry.DiskImage, []Warning, error) {
	return Decode(data, "")
}

// SaveToPath encodes img and writes it to path, with the file handle scoped
// to this call and released on every exit path (§5 "scoped acquisition").
func SaveToPath(img *geometry.DiskImage, path string) error {
	data, err := Encode(img)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return geometry.Wrap(geometry.KindIO, err, "creating "+path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return geometry.Wrap(geometry.KindIO, err, "writing "+path)
	}
	return nil
}

// SaveToBytes encodes img and returns the resulting bytes (§6
// "save-to-bytes").
func SaveToBytes(img *geometry.DiskImage) ([]byte, error) {
	return Encode(img)
}
