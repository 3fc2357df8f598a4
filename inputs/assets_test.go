package inputs

import (
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func volumeHeader(w, h, d uint32, channels byte, format uint16) []byte {
	hdr := make([]byte, 20)
	binary.LittleEndian.PutUint32(hdr[4:], w)
	binary.LittleEndian.PutUint32(hdr[8:], h)
	binary.LittleEndian.PutUint32(hdr[12:], d)
	hdr[16] = channels
	binary.LittleEndian.PutUint16(hdr[18:], format)
	return hdr
}

func TestParseVolumeUint8(t *testing.T) {
	payload := make([]byte, 2*2*2*1)
	for i := range payload {
		payload[i] = byte(i)
	}
	vol, err := ParseVolume(append(volumeHeader(2, 2, 2, 1, 0), payload...))
	require.NoError(t, err)

	assert.Equal(t, 2, vol.Width)
	assert.Equal(t, 2, vol.Height)
	assert.Equal(t, 2, vol.Depth)
	assert.Equal(t, 1, vol.Channels)
	assert.False(t, vol.Float)
	assert.Equal(t, payload, vol.Data)
}

func TestParseVolumeFloat32(t *testing.T) {
	payload := make([]byte, 2*1*1*4*4)
	vol, err := ParseVolume(append(volumeHeader(2, 1, 1, 4, 10), payload...))
	require.NoError(t, err)
	assert.True(t, vol.Float)
	assert.Equal(t, 4, vol.Channels)
}

func TestParseVolumeRejects(t *testing.T) {
	_, err := ParseVolume(nil)
	assert.Error(t, err, "short header")

	_, err = ParseVolume(append(volumeHeader(2, 2, 2, 1, 7), make([]byte, 8)...))
	assert.Error(t, err, "unknown format code")

	_, err = ParseVolume(append(volumeHeader(2, 2, 2, 5, 0), make([]byte, 40)...))
	assert.Error(t, err, "channel count")

	_, err = ParseVolume(append(volumeHeader(4, 4, 4, 1, 0), make([]byte, 10)...))
	assert.Error(t, err, "truncated payload")
}

func TestParseVolumeExtraBytesTrimmed(t *testing.T) {
	data := append(volumeHeader(2, 2, 2, 1, 0), make([]byte, 16)...)
	vol, err := ParseVolume(data)
	require.NoError(t, err)
	assert.Len(t, vol.Data, 8)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFileAssetsTexture(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "noise.png"))

	a := &FileAssets{Root: dir}
	img, err := a.Texture("noise.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Rect.Dx())

	_, err = a.Texture("missing.png")
	assert.Error(t, err)
}

func TestFileAssetsCubemapFaceNaming(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sky.png"))
	for i := 1; i < 6; i++ {
		writePNG(t, filepath.Join(dir, "sky_"+string(rune('0'+i))+".png"))
	}

	a := &FileAssets{Root: dir}
	faces, err := a.Cubemap("sky.png")
	require.NoError(t, err)
	for _, face := range faces {
		assert.NotNil(t, face)
	}
}

func TestFileAssetsCubemapMissingFace(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sky.png"))

	a := &FileAssets{Root: dir}
	_, err := a.Cubemap("sky.png")
	assert.Error(t, err)
}
