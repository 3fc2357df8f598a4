package inputs

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinsley/goshaderbg/graphics"
)

// Assets resolves predefined names or file paths to pixel data. Loading from
// disk (or a media cache) is the collaborator's concern; the render core
// only consumes the decoded data.
type Assets interface {
	Texture(name string) (*image.RGBA, error)
	Cubemap(name string) ([6]*image.RGBA, error)
	Volume(name string) (*graphics.VolumeData, error)
}

// FileAssets loads assets from a media directory. Names are resolved
// relative to the root unless they are absolute paths.
type FileAssets struct {
	Root string
}

func (a *FileAssets) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Root, name)
}

func decodeRGBA(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	return rgba, nil
}

func (a *FileAssets) Texture(name string) (*image.RGBA, error) {
	return decodeRGBA(a.resolve(name))
}

// Cubemap loads the six faces of a cubemap. Face 0 is the named file; faces
// 1-5 append "_1".."_5" before the extension, following the ShaderToy media
// naming convention.
func (a *FileAssets) Cubemap(name string) ([6]*image.RGBA, error) {
	var faces [6]*image.RGBA
	path := a.resolve(name)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i := 0; i < 6; i++ {
		facePath := path
		if i > 0 {
			facePath = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		face, err := decodeRGBA(facePath)
		if err != nil {
			return faces, fmt.Errorf("cubemap face %d: %w", i, err)
		}
		faces[i] = face
	}
	return faces, nil
}

// Volume loads a ShaderToy .bin volume asset.
func (a *FileAssets) Volume(name string) (*graphics.VolumeData, error) {
	data, err := os.ReadFile(a.resolve(name))
	if err != nil {
		return nil, err
	}
	return ParseVolume(data)
}

// ParseVolume decodes the ShaderToy .bin volume format: a 20-byte header
// (signature, width, height, depth, channel count, layout, pixel format)
// followed by raw voxel data.
func ParseVolume(data []byte) (*graphics.VolumeData, error) {
	const headerSize = 20
	if len(data) < headerSize {
		return nil, fmt.Errorf("volume data too short: %d bytes", len(data))
	}

	width := int(binary.LittleEndian.Uint32(data[4:]))
	height := int(binary.LittleEndian.Uint32(data[8:]))
	depth := int(binary.LittleEndian.Uint32(data[12:]))
	channels := int(data[16])
	format := binary.LittleEndian.Uint16(data[18:])

	var isFloat bool
	var bytesPerChannel int
	switch format {
	case 0:
		isFloat, bytesPerChannel = false, 1
	case 10:
		isFloat, bytesPerChannel = true, 4
	default:
		return nil, fmt.Errorf("unsupported volume binary format code: %d", format)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("unsupported volume channel count: %d", channels)
	}

	expected := width * height * depth * channels * bytesPerChannel
	payload := data[headerSize:]
	if len(payload) < expected {
		return nil, fmt.Errorf("volume data truncated: have %d bytes, want %d", len(payload), expected)
	}

	return &graphics.VolumeData{
		Width:    width,
		Height:   height,
		Depth:    depth,
		Channels: channels,
		Float:    isFloat,
		Data:     payload[:expected],
	}, nil
}
