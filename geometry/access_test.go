package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofloppy/floppycore/geometry"
)

func newSingleSectorImage(sectorID uint8, size geometry.SizeCode, data []byte) *geometry.DiskImage {
	sector := &geometry.Sector{
		Address: geometry.CHRN{Cylinder: 0, Head: 0, Record: sectorID, Size: size},
		Data:    data,
		Copies:  1,
	}
	track := &geometry.Track{
		Cylinder:   0,
		Side:       0,
		SizeCode:   size,
		NominalSPT: 1,
		Sectors:    []*geometry.Sector{sector},
	}
	disk := &geometry.Disk{Tracks: []*geometry.Track{track}}
	return &geometry.DiskImage{Format: geometry.StandardDSK, Disks: []*geometry.Disk{disk}}
}

func TestReadWriteSectorRoundTrip(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))

	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, img.WriteSector(0, 0, 0xC1, payload))

	got, err := img.ReadSector(0, 0, 0xC1)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadSectorNotFound(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))

	_, err := img.ReadSector(0, 0, 0xC2)
	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindSectorNotFound))
}

func TestReadSectorOutOfRange(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))

	_, err := img.ReadSector(1, 0, 0xC1)
	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindOutOfRange))

	_, err = img.ReadSector(0, 5, 0xC1)
	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindOutOfRange))
}

func TestWriteSectorLengthMismatchStandardDSK(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))

	err := img.WriteSector(0, 0, 0xC1, make([]byte, 256))
	require.Error(t, err)
	assert.True(t, geometry.Is(err, geometry.KindDataLengthMismatch))
}

func TestWriteSectorLengthMismatchAllowedOnExtendedDSK(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))
	img.Format = geometry.ExtendedDSK

	data := make([]byte, 1024)
	require.NoError(t, img.WriteSector(0, 0, 0xC1, data))

	got, err := img.ReadSector(0, 0, 0xC1)
	require.NoError(t, err)
	assert.Len(t, got, 1024)
}

func TestCapacityKB(t *testing.T) {
	img := newSingleSectorImage(0xC1, geometry.SizeCode(2), make([]byte, 512))
	img.Disks[0].Tracks[0].NominalSPT = 9
	// one track, 9 sectors of 512 bytes each = 4608 bytes = 4.5KB -> 4 (integer KB division)
	assert.Equal(t, 4, img.CapacityKB())
}

func TestSizeCodeBytes(t *testing.T) {
	assert.Equal(t, 128, geometry.SizeCode(0).Bytes())
	assert.Equal(t, 512, geometry.SizeCode(2).Bytes())
	assert.Equal(t, 8192, geometry.SizeCode(6).Bytes())

	n, ok := geometry.SizeCodeForBytes(512)
	require.True(t, ok)
	assert.Equal(t, geometry.SizeCode(2), n)

	_, ok = geometry.SizeCodeForBytes(500)
	assert.False(t, ok)
}

func TestFindSectorByRecordPhysicalOrderWins(t *testing.T) {
	// Two sectors sharing the same Record ID: first physical match wins.
	first := &geometry.Sector{Address: geometry.CHRN{Record: 1}, Data: []byte("first")}
	second := &geometry.Sector{Address: geometry.CHRN{Record: 1}, Data: []byte("second")}
	track := &geometry.Track{Sectors: []*geometry.Sector{first, second}}

	got := track.FindSectorByRecord(1)
	assert.Equal(t, first, got)
}
