package gldevice

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderbg/graphics"
)

// target is a texture with an FBO attached. Cubemap targets rebind the FBO
// attachment per face draw.
type target struct {
	texture
	fbo    uint32
	format graphics.TargetFormat
}

func (t *target) Destroy() {
	gl.DeleteFramebuffers(1, &t.fbo)
	gl.DeleteTextures(1, &t.id)
}

func (t *target) Clear() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	faces := 1
	if t.format == graphics.FormatCube {
		faces = 6
	}
	for face := 0; face < faces; face++ {
		if t.format == graphics.FormatCube {
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
				gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), t.id, 0)
		}
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *Device) NewTarget(width, height int, format graphics.TargetFormat) (graphics.Target, error) {
	t := &target{format: format}
	t.w, t.h, t.d = width, height, 1

	gl.GenTextures(1, &t.id)
	switch format {
	case graphics.FormatCube:
		t.glTarget = gl.TEXTURE_CUBE_MAP
		t.kind = graphics.TexCube
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, t.id)
		for i := 0; i < 6; i++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, gl.RGBA32F,
				int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
		}
	default:
		t.glTarget = gl.TEXTURE_2D
		t.kind = graphics.Tex2D
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		internalFormat := int32(gl.RGBA8)
		xtype := uint32(gl.UNSIGNED_BYTE)
		if format == graphics.FormatRGBA32F {
			internalFormat = gl.RGBA32F
			xtype = gl.FLOAT
		}
		gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat,
			int32(width), int32(height), 0, gl.RGBA, xtype, nil)
	}
	applySampler(t.glTarget, graphics.SamplerOptions{Wrap: "clamp", Filter: "linear"})
	gl.BindTexture(t.glTarget, 0)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	if format == graphics.FormatCube {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
			gl.TEXTURE_CUBE_MAP_POSITIVE_X, t.id, 0)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.id, 0)
	}
	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		t.Destroy()
		return nil, fmt.Errorf("framebuffer for %dx%d target is not complete", width, height)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return t, nil
}

// cubeFaceBasis orients each face draw: forward, up, right per
// GL_TEXTURE_CUBE_MAP_POSITIVE_X + face.
var cubeFaceBasis = [6][3][3]float32{
	{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, -1, 0}, {0, 0, -1}, {1, 0, 0}},
	{{0, 0, 1}, {0, -1, 0}, {1, 0, 0}},
	{{0, 0, -1}, {0, -1, 0}, {-1, 0, 0}},
}

func (d *Device) Draw(op *graphics.DrawOp) error {
	prog, ok := op.Program.(*program)
	if !ok {
		return fmt.Errorf("foreign program")
	}
	tgt, ok := op.Target.(*target)
	if !ok {
		return fmt.Errorf("foreign target")
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, tgt.fbo)
	if op.Face >= 0 {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
			gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(op.Face), tgt.id, 0)
	}
	gl.Viewport(0, 0, int32(op.Viewport[0]), int32(op.Viewport[1]))
	gl.UseProgram(prog.id)

	u := &op.Uniforms
	gl.Uniform3f(prog.uniform("iResolution"), u.Resolution[0], u.Resolution[1], u.Resolution[2])
	gl.Uniform1f(prog.uniform("iTime"), u.Time)
	gl.Uniform1f(prog.uniform("iTimeDelta"), u.TimeDelta)
	gl.Uniform1f(prog.uniform("iFrameRate"), u.FrameRate)
	gl.Uniform1i(prog.uniform("iFrame"), u.Frame)
	gl.Uniform4f(prog.uniform("iMouse"), u.Mouse[0], u.Mouse[1], u.Mouse[2], u.Mouse[3])
	gl.Uniform4f(prog.uniform("iDate"), u.Date[0], u.Date[1], u.Date[2], u.Date[3])
	gl.Uniform3fv(prog.uniform("iChannelResolution"), 4, &u.ChannelResolution[0][0])

	if op.Face >= 0 {
		basis := cubeFaceBasis[op.Face]
		gl.Uniform3f(prog.uniform("u_faceForward"), basis[0][0], basis[0][1], basis[0][2])
		gl.Uniform3f(prog.uniform("u_faceUp"), basis[1][0], basis[1][1], basis[1][2])
		gl.Uniform3f(prog.uniform("u_faceRight"), basis[2][0], basis[2][1], basis[2][2])
	}

	for slot, ch := range op.Channels {
		if ch == nil {
			continue
		}
		tex, ok := ch.Texture.(interface {
			bind(unit uint32, opts graphics.SamplerOptions)
		})
		if !ok {
			return fmt.Errorf("foreign texture in channel %d", slot)
		}
		tex.bind(uint32(slot), ch.Sampler)
		gl.Uniform1i(prog.uniform(fmt.Sprintf("iChannel%d", slot)), int32(slot))
	}

	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		return fmt.Errorf("draw failed with GL error 0x%04x", glErr)
	}
	return nil
}

// bind makes the texture current on the given unit and applies the
// per-binding sampler state. Wrap and filter live on the binding rather than
// the texture, so two passes can sample one asset differently.
func (t *texture) bind(unit uint32, opts graphics.SamplerOptions) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(t.glTarget, t.id)
	applySampler(t.glTarget, opts)
}

func (d *Device) Present(op *graphics.PresentOp) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	// Dest is top-left based; GL viewports are bottom-left based.
	y := d.surfaceH - op.Dest[1] - op.Dest[3]
	gl.Viewport(int32(op.Dest[0]), int32(y), int32(op.Dest[2]), int32(op.Dest[3]))

	prog := d.blit
	if op.From != nil && op.Weight < 1 {
		prog = d.crossfade
	}
	gl.UseProgram(prog.id)
	gl.Uniform4f(prog.uniform("u_srcRect"), op.SrcUV[0], op.SrcUV[1], op.SrcUV[2], op.SrcUV[3])

	sampler := graphics.SamplerOptions{Wrap: op.Wrap, Filter: op.Filter}
	to, ok := op.To.(*target)
	if !ok {
		return fmt.Errorf("foreign present source")
	}
	if prog == d.crossfade {
		from, ok := op.From.(*target)
		if !ok {
			return fmt.Errorf("foreign present source")
		}
		from.bind(0, sampler)
		to.bind(1, sampler)
		gl.Uniform1i(prog.uniform("u_from"), 0)
		gl.Uniform1i(prog.uniform("u_to"), 1)
		gl.Uniform1f(prog.uniform("u_weight"), op.Weight)
	} else {
		to.bind(0, sampler)
		gl.Uniform1i(prog.uniform("u_texture"), 0)
	}

	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)

	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		return fmt.Errorf("present failed with GL error 0x%04x", glErr)
	}
	return nil
}
