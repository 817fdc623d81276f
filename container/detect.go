package container

import (
	"bytes"
	"strings"

	"github.com/retrofloppy/floppycore/geometry"
)

// Detect sniffs data to determine its container format, per §4.B
// "Auto-detection". filenameExt (e.g. ".dsk", ".mgt", ".img", or "") is
// accepted but does not change the result: every format is recognised from
// the bytes alone, and data that matches no signature or size fails
// UnknownFormat whatever its extension (§6 "Auto-detect extensions").
func Detect(data []byte, filenameExt string) (geometry.ContainerFormat, error) {
	if len(data) >= headerSize && bytes.HasPrefix(data, []byte(extendedSignaturePrefix)) {
		return geometry.ExtendedDSK, nil
	}
	if len(data) >= 8 && bytes.HasPrefix(data, []byte(standardSignaturePrefix)) {
		return geometry.StandardDSK, nil
	}
	if len(data) == mgtRawSize {
		return geometry.MGTRaw, nil
	}

	// No signature or size matched. The extension check below can only
	// repeat the size test already made above, so it never succeeds here.
	switch strings.ToLower(filenameExt) {
	case ".mgt":
		if len(data) == mgtRawSize {
			return geometry.MGTRaw, nil
		}
	case ".dsk":
		// still ambiguous without a valid signature; fall through to error.
	}

	return 0, geometry.New(geometry.KindUnknownFormat, "unrecognised disk image format")
}
