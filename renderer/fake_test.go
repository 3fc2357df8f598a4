package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/richinsley/goshaderbg/graphics"
)

// fakeDevice records every operation so tests can assert on pass order,
// channel wiring and present composition without a GPU.
type fakeDevice struct {
	compiles    []string
	failCompile map[string]bool

	draws    []graphics.DrawOp
	presents []graphics.PresentOp

	drawErr error

	keyboardWrites []*image.RGBA
	targetsMade    int
}

type fakeProgram struct {
	name      string
	destroyed bool
}

func (p *fakeProgram) Destroy() { p.destroyed = true }

type fakeTexture struct {
	w, h, d   int
	kind      graphics.TextureKind
	destroyed bool
}

func (t *fakeTexture) Size() (int, int, int)      { return t.w, t.h, t.d }
func (t *fakeTexture) Kind() graphics.TextureKind { return t.kind }
func (t *fakeTexture) Destroy()                   { t.destroyed = true }

type fakeTarget struct {
	fakeTexture
	id      int
	cleared int
}

func (t *fakeTarget) Clear() { t.cleared++ }

func (d *fakeDevice) CompileProgram(name, vertexSrc, fragmentSrc string) (graphics.Program, error) {
	if d.failCompile[name] {
		return nil, &graphics.CompileError{Pass: name, Log: "forced failure"}
	}
	d.compiles = append(d.compiles, name)
	return &fakeProgram{name: name}, nil
}

func (d *fakeDevice) NewTarget(width, height int, format graphics.TargetFormat) (graphics.Target, error) {
	d.targetsMade++
	kind := graphics.Tex2D
	if format == graphics.FormatCube {
		kind = graphics.TexCube
	}
	return &fakeTarget{
		fakeTexture: fakeTexture{w: width, h: height, d: 1, kind: kind},
		id:          d.targetsMade,
	}, nil
}

func (d *fakeDevice) NewTexture2D(img *image.RGBA, opts graphics.SamplerOptions) (graphics.Texture, error) {
	return &fakeTexture{w: img.Rect.Dx(), h: img.Rect.Dy(), d: 1, kind: graphics.Tex2D}, nil
}

func (d *fakeDevice) NewCubemap(faces [6]*image.RGBA, opts graphics.SamplerOptions) (graphics.Texture, error) {
	return &fakeTexture{w: faces[0].Rect.Dx(), h: faces[0].Rect.Dy(), d: 1, kind: graphics.TexCube}, nil
}

func (d *fakeDevice) NewVolume(vol *graphics.VolumeData, opts graphics.SamplerOptions) (graphics.Texture, error) {
	return &fakeTexture{w: vol.Width, h: vol.Height, d: vol.Depth, kind: graphics.Tex3D}, nil
}

func (d *fakeDevice) UpdateTexture2D(tex graphics.Texture, img *image.RGBA) error {
	d.keyboardWrites = append(d.keyboardWrites, img)
	return nil
}

func (d *fakeDevice) Draw(op *graphics.DrawOp) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	d.draws = append(d.draws, *op)
	return nil
}

func (d *fakeDevice) Present(op *graphics.PresentOp) error {
	d.presents = append(d.presents, *op)
	return nil
}

// passNames flattens the recorded draws into compiled program names.
func (d *fakeDevice) passNames() []string {
	var names []string
	for _, op := range d.draws {
		names = append(names, op.Program.(*fakeProgram).name)
	}
	return names
}

func (d *fakeDevice) reset() {
	d.draws = nil
	d.presents = nil
	d.keyboardWrites = nil
}

// fakeAssets serves canned pixel data by name.
type fakeAssets struct {
	textures map[string]*image.RGBA
}

func (a *fakeAssets) Texture(name string) (*image.RGBA, error) {
	if img, ok := a.textures[name]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("no such texture %q", name)
}

func (a *fakeAssets) Cubemap(name string) ([6]*image.RGBA, error) {
	var faces [6]*image.RGBA
	img, ok := a.textures[name]
	if !ok {
		return faces, errors.New("no such cubemap")
	}
	for i := range faces {
		faces[i] = img
	}
	return faces, nil
}

func (a *fakeAssets) Volume(name string) (*graphics.VolumeData, error) {
	return nil, errors.New("no such volume")
}
