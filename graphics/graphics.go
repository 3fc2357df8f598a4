// Package graphics defines the device abstraction the render core draws
// through. The core never talks to a GPU API directly; it describes draw and
// present operations against these interfaces and a backend (see package
// gldevice) carries them out. Tests substitute a fake device.
package graphics

import (
	"fmt"
	"image"
)

// TextureKind distinguishes the sampler dimensionality of a texture.
type TextureKind int

const (
	Tex2D TextureKind = iota
	TexCube
	Tex3D
)

// SamplerType returns the GLSL sampler keyword for the kind.
func (k TextureKind) SamplerType() string {
	switch k {
	case TexCube:
		return "samplerCube"
	case Tex3D:
		return "sampler3D"
	}
	return "sampler2D"
}

// TargetFormat selects the storage of a render target.
type TargetFormat int

const (
	// FormatRGBA8 is the standard presentation format.
	FormatRGBA8 TargetFormat = iota
	// FormatRGBA32F is the float format used by feedback buffers so high
	// dynamic range state survives between frames.
	FormatRGBA32F
	// FormatCube is a cubemap render target (six float faces).
	FormatCube
)

// Texture is a GPU-resident image of any dimensionality.
type Texture interface {
	// Size returns width, height and depth in pixels. Depth is 1 for 2D
	// textures and cubemaps.
	Size() (width, height, depth int)
	Kind() TextureKind
	Destroy()
}

// Target is a texture that can be rendered into.
type Target interface {
	Texture
	// Clear zeroes the target's contents.
	Clear()
}

// Program is a compiled and linked shader program.
type Program interface {
	Destroy()
}

// CompileError reports a shader compilation or link failure with the
// compiler's log. It is surfaced once at graph build time; the failing pass
// is substituted with a fallback program.
type CompileError struct {
	Pass string
	Log  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader compilation failed for pass %q: %s", e.Pass, e.Log)
}

// SamplerOptions carry the wrap/filter/flip configuration applied when a
// texture is bound, not baked into the asset.
type SamplerOptions struct {
	Wrap   string // "clamp", "repeat", "mirrored_repeat"
	Filter string // "linear", "nearest", "mipmap"
	VFlip  bool
	SRGB   bool
}

// VolumeData is raw 3D texture pixel data as loaded from a ShaderToy .bin
// volume asset.
type VolumeData struct {
	Width, Height, Depth int
	Channels             int
	Float                bool
	Data                 []byte
}

// Uniforms is the built-in uniform block passed to every pass draw.
type Uniforms struct {
	Resolution        [3]float32
	Time              float32
	TimeDelta         float32
	FrameRate         float32
	Frame             int32
	Mouse             [4]float32
	Date              [4]float32
	ChannelResolution [4][3]float32
}

// ChannelBinding binds one texture to an iChannelN slot for a draw.
type ChannelBinding struct {
	Texture Texture
	Sampler SamplerOptions
}

// DrawOp executes one pass program into a render target.
type DrawOp struct {
	Program  Program
	Target   Target
	Face     int // cubemap face index [0,6); -1 for 2D targets
	Viewport [2]int
	Channels [4]*ChannelBinding
	Uniforms Uniforms
}

// PresentOp maps a composited frame (optionally a crossfade pair) onto one
// monitor rectangle of the output surface.
type PresentOp struct {
	// To is the newest rendered frame; From is the prior one. Weight is the
	// blend weight of To; From may be nil when Weight is 1.
	From, To Texture
	Weight   float32

	// Dest is the monitor rectangle on the output surface: x, y, w, h.
	Dest [4]int

	// SrcUV is the source rectangle in canvas UV space: u0, v0, u1, v1.
	// Values outside [0,1] tile (wrap "repeat"/"mirrored_repeat") or
	// letterbox (wrap "clamp").
	SrcUV  [4]float32
	Wrap   string
	Filter string
}

// Device is the GPU backend consumed by the render core. All calls originate
// from the render thread.
type Device interface {
	// CompileProgram compiles and links a program from source text. A
	// failure returns a *CompileError.
	CompileProgram(name, vertexSrc, fragmentSrc string) (Program, error)

	NewTarget(width, height int, format TargetFormat) (Target, error)
	NewTexture2D(img *image.RGBA, opts SamplerOptions) (Texture, error)
	NewCubemap(faces [6]*image.RGBA, opts SamplerOptions) (Texture, error)
	NewVolume(vol *VolumeData, opts SamplerOptions) (Texture, error)

	// UpdateTexture2D replaces the contents of a 2D texture in place. Used
	// for the virtual keyboard texture, refreshed once per rendered frame.
	UpdateTexture2D(tex Texture, img *image.RGBA) error

	Draw(op *DrawOp) error
	Present(op *PresentOp) error
}
