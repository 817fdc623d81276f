package protect_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofloppy/floppycore/builder"
	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/preset"
	"github.com/retrofloppy/floppycore/protect"
)

func TestDetectNoMatchOnPlainDisk(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Format(geometry.StandardDSK).Build()
	require.NoError(t, err)

	_, ok := protect.DetectImage(img)
	assert.False(t, ok)
}

func TestDetectAlkatrazSignature(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Format(geometry.StandardDSK).Build()
	require.NoError(t, err)

	payload := make([]byte, 512)
	copy(payload, []byte("....ALKATRAZ...."))
	require.NoError(t, img.WriteSector(0, 3, 0xC5, payload))

	result, ok := protect.DetectImage(img)
	require.True(t, ok)
	assert.Equal(t, "Alkatraz", result.Name)
}

func TestDetectTrack41Plus(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Tracks(42).Format(geometry.StandardDSK).Build()
	require.NoError(t, err)

	result, ok := protect.DetectImage(img)
	require.True(t, ok)
	assert.Equal(t, "Unidentified 40+ track anomaly", result.Name)
}

// TestDetectSpeedlock exercises S6: a "SPEEDLOCK" signature on track 0
// together with an ST1 bit 5 (CRC error) sector on track 1.
func TestDetectSpeedlock(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Format(geometry.StandardDSK).Build()
	require.NoError(t, err)

	payload := make([]byte, 512)
	copy(payload, []byte("SPEEDLOCK"))
	require.NoError(t, img.WriteSector(0, 0, 0xC1, payload))

	track1, err := img.TrackAt(0, 1)
	require.NoError(t, err)
	sector := track1.FindSectorByRecord(0xC1)
	require.NotNil(t, sector)
	sector.ST1 |= 0x20

	result, ok := protect.DetectImage(img)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(result.Name, "Speedlock"))
	assert.Contains(t, result.Reason, "SPEEDLOCK")
	assert.Contains(t, result.Reason, "CRC error")
}
