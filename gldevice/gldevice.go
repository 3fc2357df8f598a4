// Package gldevice implements the graphics.Device abstraction on desktop
// OpenGL 4.1 core. All entry points must run on the thread that owns the GL
// context.
package gldevice

import (
	"fmt"
	"image"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderbg/graphics"
	"github.com/richinsley/goshaderbg/shader"
)

var quadVertices = []float32{
	-1.0, -1.0,
	1.0, -1.0,
	-1.0, 1.0,
	1.0, 1.0,
}

// Device is the OpenGL backend. It owns the shared fullscreen quad and the
// built-in blit programs used by Present.
type Device struct {
	quadVAO uint32
	quadVBO uint32

	blit      *program
	crossfade *program

	// surfaceH converts top-left monitor rectangles into GL's bottom-left
	// viewport space. Updated by SetSurfaceSize each frame.
	surfaceH int
}

// New initializes the backend. A current GL context is required.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initialize OpenGL: %w", err)
	}

	d := &Device{}
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, nil)
	gl.BindVertexArray(0)

	var err error
	if d.blit, err = newProgram(shader.BlitVertexShader(), shader.BlitFragmentShader(false)); err != nil {
		return nil, fmt.Errorf("blit program: %w", err)
	}
	if d.crossfade, err = newProgram(shader.BlitVertexShader(), shader.BlitFragmentShader(true)); err != nil {
		return nil, fmt.Errorf("crossfade program: %w", err)
	}
	return d, nil
}

// SetSurfaceSize records the output framebuffer height, needed to flip
// present rectangles into GL coordinates.
func (d *Device) SetSurfaceSize(_, height int) {
	d.surfaceH = height
}

func (d *Device) Destroy() {
	d.blit.Destroy()
	d.crossfade.Destroy()
	gl.DeleteBuffers(1, &d.quadVBO)
	gl.DeleteVertexArrays(1, &d.quadVAO)
}

// ─────────────────────────────── programs ───────────────────────────────

type program struct {
	id   uint32
	locs map[string]int32
}

func (p *program) Destroy() {
	if p != nil && p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

func (p *program) uniform(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = loc
	return loc
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(logText))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(logText, "\x00"))
	}
	return sh, nil
}

func newProgram(vertexSrc, fragmentSrc string) (*program, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, err
	}

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(logText))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link: %s", strings.TrimRight(logText, "\x00"))
	}
	return &program{id: id, locs: make(map[string]int32)}, nil
}

// CompileProgram compiles a pass program, wrapping failures in
// *graphics.CompileError so the caller can fall back.
func (d *Device) CompileProgram(name, vertexSrc, fragmentSrc string) (graphics.Program, error) {
	p, err := newProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, &graphics.CompileError{Pass: name, Log: err.Error()}
	}
	return p, nil
}

// ─────────────────────────────── textures ───────────────────────────────

type texture struct {
	id       uint32
	glTarget uint32
	kind     graphics.TextureKind
	w, h, d  int
}

func (t *texture) Size() (int, int, int)      { return t.w, t.h, t.d }
func (t *texture) Kind() graphics.TextureKind { return t.kind }
func (t *texture) Destroy()                   { gl.DeleteTextures(1, &t.id) }

func wrapMode(wrap string) int32 {
	switch wrap {
	case "repeat":
		return gl.REPEAT
	case "mirrored_repeat":
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func filterMode(filter string) (minFilter, magFilter int32) {
	switch filter {
	case "mipmap":
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case "nearest":
		return gl.NEAREST, gl.NEAREST
	default:
		return gl.LINEAR, gl.LINEAR
	}
}

func applySampler(glTarget uint32, opts graphics.SamplerOptions) {
	wm := wrapMode(opts.Wrap)
	gl.TexParameteri(glTarget, gl.TEXTURE_WRAP_S, wm)
	gl.TexParameteri(glTarget, gl.TEXTURE_WRAP_T, wm)
	if glTarget == gl.TEXTURE_CUBE_MAP || glTarget == gl.TEXTURE_3D {
		gl.TexParameteri(glTarget, gl.TEXTURE_WRAP_R, wm)
	}
	minF, magF := filterMode(opts.Filter)
	gl.TexParameteri(glTarget, gl.TEXTURE_MIN_FILTER, minF)
	gl.TexParameteri(glTarget, gl.TEXTURE_MAG_FILTER, magF)
}

// vflip flips an RGBA image in place row by row, returning a copy.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()
	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		copy(flipped.Pix[y*flipped.Stride:], srcRow[:rowSize])
	}
	return flipped
}

func (d *Device) NewTexture2D(img *image.RGBA, opts graphics.SamplerOptions) (graphics.Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if opts.VFlip {
		img = vflip(img)
	}
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	t := &texture{glTarget: gl.TEXTURE_2D, kind: graphics.Tex2D, w: w, h: h, d: 1}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	var internalFormat int32 = gl.RGBA8
	if opts.SRGB {
		internalFormat = gl.SRGB8_ALPHA8
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(w), int32(h), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if opts.Filter == "mipmap" {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	applySampler(gl.TEXTURE_2D, opts)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

func (d *Device) NewCubemap(faces [6]*image.RGBA, opts graphics.SamplerOptions) (graphics.Texture, error) {
	for i, face := range faces {
		if face == nil {
			return nil, fmt.Errorf("cube map face %d is nil", i)
		}
	}
	w := faces[0].Rect.Dx()
	h := faces[0].Rect.Dy()

	t := &texture{glTarget: gl.TEXTURE_CUBE_MAP, kind: graphics.TexCube, w: w, h: h, d: 1}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, t.id)

	var internalFormat int32 = gl.RGBA8
	if opts.SRGB {
		internalFormat = gl.SRGB8_ALPHA8
	}
	for i := 0; i < 6; i++ {
		face := vflip(faces[i])
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internalFormat,
			int32(face.Rect.Dx()), int32(face.Rect.Dy()), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(face.Pix))
	}
	if opts.Filter == "mipmap" {
		gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	}
	applySampler(gl.TEXTURE_CUBE_MAP, opts)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return t, nil
}

func (d *Device) NewVolume(vol *graphics.VolumeData, opts graphics.SamplerOptions) (graphics.Texture, error) {
	if vol == nil {
		return nil, fmt.Errorf("nil volume")
	}

	var internalFormat int32
	var format, xtype uint32
	switch vol.Channels {
	case 1:
		internalFormat, format = gl.R8, gl.RED
		if vol.Float {
			internalFormat = gl.R32F
		}
	case 4:
		internalFormat, format = gl.RGBA8, gl.RGBA
		if vol.Float {
			internalFormat = gl.RGBA32F
		}
	default:
		return nil, fmt.Errorf("unsupported volume channel count: %d", vol.Channels)
	}
	xtype = gl.UNSIGNED_BYTE
	if vol.Float {
		xtype = gl.FLOAT
	}

	t := &texture{glTarget: gl.TEXTURE_3D, kind: graphics.Tex3D, w: vol.Width, h: vol.Height, d: vol.Depth}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_3D, t.id)
	gl.TexImage3D(gl.TEXTURE_3D, 0, internalFormat,
		int32(vol.Width), int32(vol.Height), int32(vol.Depth), 0,
		format, xtype, gl.Ptr(vol.Data))
	applySampler(gl.TEXTURE_3D, opts)
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return t, nil
}

func (d *Device) UpdateTexture2D(tex graphics.Texture, img *image.RGBA) error {
	t, ok := tex.(*texture)
	if !ok || t.glTarget != gl.TEXTURE_2D {
		return fmt.Errorf("not a 2D texture")
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0,
		int32(img.Rect.Dx()), int32(img.Rect.Dy()),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}
