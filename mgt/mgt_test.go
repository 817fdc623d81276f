package mgt_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofloppy/floppycore/builder"
	"github.com/retrofloppy/floppycore/geometry"
	"github.com/retrofloppy/floppycore/mgt"
	"github.com/retrofloppy/floppycore/preset"
)

// buildDirEntry packs a 256-byte MGT directory entry. bitmapSectors lists the
// linear (track, side, sector) data-sector positions to mark allocated in the
// 195-byte sector-address bitmap at offset 15, LSB first (§4.F).
func buildDirEntry(fileType byte, name string, sectorCount int, startTrack, startSide, startSector int, bitmapSectors ...[3]int) []byte {
	e := make([]byte, 256)
	e[0] = fileType
	copy(e[1:11], []byte(name+"          ")[:10])
	e[11] = byte(sectorCount >> 8) // DISCiPLE: big-endian
	e[12] = byte(sectorCount)
	track := startTrack
	if startSide == 1 {
		track |= 0x80
	}
	e[13] = byte(track)
	e[14] = byte(startSector)

	for _, ts := range bitmapSectors {
		track, side, sector := ts[0], ts[1], ts[2]
		idx := track*2*10 + side*10 + (sector - 1)
		if track == 0 {
			idx -= 8 // directory sectors precede the data-sector bitmap
		}
		if idx >= 0 {
			e[15+idx/8] |= 1 << uint(idx%8)
		}
	}
	return e
}

func TestMGTMountAndReadFile(t *testing.T) {
	img, err := builder.FromPreset(preset.MGTDiscipleOrPlusD).Format(geometry.MGTRaw).Build()
	require.NoError(t, err)

	// Zero out every directory sector first: the builder's default filler
	// (0xE5) is not a valid "erased" type-0 entry, so left alone every other
	// directory slot would decode as a bogus file.
	zero := make([]byte, 512)
	for side := 0; side < 2; side++ {
		for sec := uint8(1); sec <= 4; sec++ {
			require.NoError(t, img.WriteSector(side, 0, sec, zero))
		}
	}

	// Directory sector 1, side 0, track 0: one CODE entry pointing at track 2
	// sector 1, plus a second, empty (type 0) entry filling out the sector.
	dirSector := make([]byte, 512)
	copy(dirSector[0:256], buildDirEntry(4, "PROGRAM", 1, 2, 0, 1, [3]int{2, 0, 1}))
	require.NoError(t, img.WriteSector(0, 0, 1, dirSector))

	payload := make([]byte, 512)
	copy(payload, []byte("this is the file body"))
	payload[510] = 0 // next track 0
	payload[511] = 0 // next sector 0 -> terminates the chain
	require.NoError(t, img.WriteSector(0, 2, 1, payload))

	fs, err := mgt.Mount(img, mgt.DiscipleVariant)
	require.NoError(t, err)

	entries, err := fs.ReadDir()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PROGRAM", entries[0].Name)

	data, err := fs.ReadFile("PROGRAM")
	require.NoError(t, err)
	require.Len(t, data, 510)
	assert.True(t, bytes.HasPrefix(data, []byte("this is the file body")))
}

func TestMGTReadFileNotFound(t *testing.T) {
	img, err := builder.FromPreset(preset.MGTDiscipleOrPlusD).Format(geometry.MGTRaw).Build()
	require.NoError(t, err)

	fs, err := mgt.Mount(img, mgt.DiscipleVariant)
	require.NoError(t, err)

	_, err = fs.ReadFile("NOPE")
	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindFileNotFound))
}

func TestMGTCanMountRejectsNonMGTGeometry(t *testing.T) {
	img, err := builder.FromPreset(preset.AmstradCPCData).Format(geometry.StandardDSK).Build()
	require.NoError(t, err)

	assert.False(t, mgt.CanMount(img))
}
