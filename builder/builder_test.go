package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofloppy/floppycore/builder"
	"github.com/retrofloppy/floppycore/container"
	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/preset"
)

func TestBuildFromPresetAmstradCPCData(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Build()
	require.NoError(t, err)

	assert.Equal(t, 1, img.Sides())
	assert.Equal(t, 40, img.Tracks())

	data, err := img.ReadSector(0, 5, 0xC4)
	require.NoError(t, err)
	assert.Len(t, data, 512)
	for _, b := range data {
		assert.Equal(t, preset.DefaultFiller, b)
	}
}

func TestBuildInvalidParametersAggregatesAllViolations(t *testing.T) {
	_, err := builder.New().
		Sides(3).
		Tracks(200).
		SectorsPerTrack(99).
		SectorSize(geometry.SizeCode(9)).
		Build()

	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindInvalidParameters))
	// All four violations should be present in the aggregated message.
	msg := err.Error()
	assert.Contains(t, msg, "tracks")
	assert.Contains(t, msg, "sides")
	assert.Contains(t, msg, "sectors-per-track")
	assert.Contains(t, msg, "sector size code")
}

func TestBuildSavesLoadsRoundTripInvariant(t *testing.T) {
	img, err := builder.FromPreset(preset.SAMCoupe).Build()
	require.NoError(t, err)

	require.NoError(t, img.WriteSector(1, 79, 10, make([]byte, 512)))

	data, err := container.SaveToBytes(img)
	require.NoError(t, err)
	decoded, _, err := container.OpenFromBytes(data)
	require.NoError(t, err)

	got, err := decoded.ReadSector(1, 79, 10)
	require.NoError(t, err)
	assert.Len(t, got, 512)
	assert.Equal(t, make([]byte, 512), got)
}
