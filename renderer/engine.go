// Package renderer owns the frame loop: it builds GPU resources from a
// resolved graph, executes passes in order against ping-pong slots, and
// composes present operations for every mapped monitor, crossfading between
// throttled frames.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/richinsley/goshaderbg/frame"
	"github.com/richinsley/goshaderbg/graph"
	"github.com/richinsley/goshaderbg/graphics"
	"github.com/richinsley/goshaderbg/inputs"
	"github.com/richinsley/goshaderbg/layout"
	"github.com/richinsley/goshaderbg/preset"
	"github.com/richinsley/goshaderbg/shader"
)

const (
	// cubeFaceSize is the fixed face resolution of cubemap pass targets.
	cubeFaceSize = 1024

	// maxGPUErrorStreak is the number of consecutive failed frames tolerated
	// before the engine gives up. Isolated device errors drop a frame and
	// keep the last committed output on screen.
	maxGPUErrorStreak = 8

	// overlayDuration is how long a warning overlay stays visible.
	overlayDuration = 4 * time.Second
)

// ErrGPULost reports a run of consecutive device failures long enough that
// continuing is pointless.
var ErrGPULost = errors.New("too many consecutive GPU errors")

// PresentedFrame describes what one tick put on screen.
type PresentedFrame struct {
	// Rendered is false when the tick held (re-presented) the previous frame.
	Rendered bool
	Frame    int32
	Time     time.Duration
	Weight   float32
	Ops      []graphics.PresentOp
}

// compiledPass is one graph pass with its program and resolved channel
// sources.
type compiledPass struct {
	id       preset.PassID
	prog     graphics.Program
	cubemap  bool
	bindings []*graph.Binding
	fallback bool
}

// canvasState is the per-canvas GPU state: one slot per buffer-producing
// pass plus the image slot pair the crossfade reads.
type canvasState struct {
	size  layout.Canvas
	slots map[preset.PassID]*Slot
	image *Slot
}

func (c *canvasState) destroy() {
	for _, s := range c.slots {
		s.Destroy()
	}
	if c.image != nil {
		c.image.Destroy()
	}
}

func (c *canvasState) slotFor(id preset.PassID) *Slot {
	if id == preset.PassImage {
		return c.image
	}
	return c.slots[id]
}

// Engine drives the render core. All methods except NotifyPresetChanged must
// be called from the render thread.
type Engine struct {
	dev    graphics.Device
	assets inputs.Assets
	input  *inputs.State

	presetPath string
	pending    atomic.Pointer[string]

	preset   *preset.Preset
	graph    *graph.Graph
	layout   *layout.Layout
	monitors []layout.Monitor

	clock *frame.Clock
	sched *frame.Scheduler

	passes   []*compiledPass
	canvases []*canvasState
	textures map[string]graphics.Texture
	keyboard graphics.Texture

	warnings  []string
	errStreak int

	overlayMsg   string
	overlayUntil time.Time

	// now is stubbed in tests; iDate comes from it.
	now func() time.Time
}

// New creates an engine over the given device and asset catalog. Input may
// be nil when no window delivers events.
func New(dev graphics.Device, assets inputs.Assets, input *inputs.State) *Engine {
	if input == nil {
		input = &inputs.State{}
	}
	return &Engine{
		dev:    dev,
		assets: assets,
		input:  input,
		now:    time.Now,
	}
}

// Preset returns the currently loaded preset, or nil before the first Load.
func (e *Engine) Preset() *preset.Preset { return e.preset }

// Graph returns the active execution plan, or nil before the first Load.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Warnings returns the non-fatal problems of the last successful load, such
// as pass compile failures that were substituted with the fallback shader.
func (e *Engine) Warnings() []string { return e.warnings }

// SetMonitors installs the monitor set and recomputes the layout. Changed
// canvas dimensions reallocate the slot pairs and restart the frame counter.
func (e *Engine) SetMonitors(monitors []layout.Monitor) error {
	e.monitors = monitors
	if e.preset == nil {
		return nil
	}
	e.layout = layout.Resolve(monitors, e.preset)
	canvases, err := e.buildCanvases(e.layout)
	if err != nil {
		return err
	}
	for _, c := range e.canvases {
		c.destroy()
	}
	e.canvases = canvases
	e.clock.Reset()
	return nil
}

// Load reads, parses and activates a preset. On any failure the previously
// active state stays untouched and keeps rendering.
func (e *Engine) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read preset: %w", err)
	}
	p, err := preset.Parse(data)
	if err != nil {
		return fmt.Errorf("parse preset %s: %w", path, err)
	}
	g, err := graph.Build(p)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	l := layout.Resolve(e.monitors, p)

	staging := &Engine{dev: e.dev, assets: e.assets}
	staging.preset = p
	staging.graph = g
	staging.layout = l
	if err := staging.buildResources(g, l); err != nil {
		staging.destroyResources()
		return err
	}

	e.destroyResources()
	e.presetPath = path
	e.preset = p
	e.graph = g
	e.layout = l
	e.passes = staging.passes
	e.canvases = staging.canvases
	e.textures = staging.textures
	e.keyboard = staging.keyboard
	e.warnings = staging.warnings
	e.errStreak = 0

	e.clock = frame.NewClock(p.TimeScale, p.TimeOffset.Std())
	e.sched = frame.NewScheduler(p.IntervalBetweenFrames.Std(), p.CrossfadeOverlapRatio)

	for _, w := range e.warnings {
		log.Printf("preset warning: %s", w)
	}
	if title := presetTitle(p); title != "" {
		e.Overlay(title)
	}
	return nil
}

func presetTitle(p *preset.Preset) string {
	switch {
	case p.Name != "" && p.Author != "":
		return fmt.Sprintf("%s by %s", p.Name, p.Author)
	case p.Name != "":
		return p.Name
	}
	return ""
}

// NotifyPresetChanged requests a reload of the given preset file. Safe to
// call from any goroutine; the reload happens at the next frame boundary on
// the render thread, and repeated notifications before that boundary
// coalesce into one.
func (e *Engine) NotifyPresetChanged(path string) {
	e.pending.Store(&path)
}

// Overlay shows a transient on-screen message. The engine only tracks the
// text and deadline; the frontend decides how to draw it.
func (e *Engine) Overlay(msg string) {
	e.overlayMsg = msg
	e.overlayUntil = e.now().Add(overlayDuration)
}

// OverlayText returns the active overlay message, or "" once it has expired.
func (e *Engine) OverlayText() string {
	if e.now().Before(e.overlayUntil) {
		return e.overlayMsg
	}
	return ""
}

// Tick advances the engine by one presentation tick of the given wall-clock
// duration and executes the resulting draw and present operations. It never
// returns an error for an isolated device failure; only a persistent streak
// (or no loaded preset) is fatal.
func (e *Engine) Tick(wall time.Duration) (*PresentedFrame, error) {
	if e.graph == nil {
		return nil, errors.New("no preset loaded")
	}

	if path := e.pending.Swap(nil); path != nil {
		if err := e.Load(*path); err != nil {
			log.Printf("preset reload failed, keeping previous: %v", err)
			e.Overlay(fmt.Sprintf("preset reload failed: %v", err))
		}
	}

	render := e.sched.Tick(wall)
	pf := &PresentedFrame{Rendered: render}

	if render {
		stats := e.clock.Advance(wall)
		pf.Frame = stats.Frame
		pf.Time = stats.Time
		if err := e.renderFrame(stats); err != nil {
			e.errStreak++
			if e.errStreak > maxGPUErrorStreak {
				return nil, fmt.Errorf("%w: %v", ErrGPULost, err)
			}
			log.Printf("dropping frame %d: %v", stats.Frame, err)
			pf.Rendered = false
		} else {
			e.errStreak = 0
			for _, c := range e.canvases {
				for _, s := range c.slots {
					s.Commit()
				}
				c.image.Commit()
			}
		}
	} else {
		e.clock.Hold(wall)
		pf.Frame = e.clock.Frame() - 1
	}

	pf.Weight = e.sched.BlendWeight()
	if !pf.Rendered && render {
		// Dropped frame: the back buffers are unusable, re-present the last
		// committed output at full weight.
		pf.Weight = 1
	}
	pf.Ops = e.presentOps(pf.Weight)
	for i := range pf.Ops {
		if err := e.dev.Present(&pf.Ops[i]); err != nil {
			return nil, fmt.Errorf("present: %w", err)
		}
	}
	return pf, nil
}

// Close releases all GPU resources.
func (e *Engine) Close() {
	e.destroyResources()
	e.graph = nil
	e.preset = nil
}

// ───────────────────────────── frame execution ─────────────────────────────

func (e *Engine) renderFrame(stats frame.Stats) error {
	snap := e.input.Snapshot()
	if e.keyboard != nil {
		if err := e.dev.UpdateTexture2D(e.keyboard, snap.Keyboard); err != nil {
			return fmt.Errorf("keyboard texture: %w", err)
		}
	}

	scale := float32(e.preset.ResolutionScale)
	mouse := [4]float32{
		snap.Mouse[0] * scale, snap.Mouse[1] * scale,
		snap.Mouse[2] * scale, snap.Mouse[3] * scale,
	}
	date := dateUniform(e.now())

	for _, c := range e.canvases {
		for _, cp := range e.passes {
			if err := e.drawPass(c, cp, stats, mouse, date); err != nil {
				return fmt.Errorf("pass %s: %w", cp.id, err)
			}
		}
	}
	return nil
}

func (e *Engine) drawPass(c *canvasState, cp *compiledPass, stats frame.Stats, mouse, date [4]float32) error {
	target := c.slotFor(cp.id).WriteTarget()

	w, h := c.size.Width, c.size.Height
	if cp.cubemap {
		w, h = cubeFaceSize, cubeFaceSize
	}

	op := graphics.DrawOp{
		Program:  cp.prog,
		Target:   target,
		Face:     -1,
		Viewport: [2]int{w, h},
		Uniforms: graphics.Uniforms{
			Resolution: [3]float32{float32(w), float32(h), 1},
			Time:       float32(stats.Time.Seconds()),
			TimeDelta:  float32(stats.Delta.Seconds()),
			FrameRate:  float32(stats.FrameRate),
			Frame:      stats.Frame,
			Mouse:      mouse,
			Date:       date,
		},
	}

	for _, b := range cp.bindings {
		tex := e.channelTexture(c, b)
		if tex == nil {
			continue
		}
		tw, th, td := tex.Size()
		op.Uniforms.ChannelResolution[b.Slot] = [3]float32{float32(tw), float32(th), float32(td)}
		op.Channels[b.Slot] = &graphics.ChannelBinding{
			Texture: tex,
			Sampler: graphics.SamplerOptions{
				Wrap:   string(b.Wrap),
				Filter: string(b.Filter),
				VFlip:  b.VFlip,
			},
		}
	}

	if !cp.cubemap {
		return e.dev.Draw(&op)
	}
	for face := 0; face < 6; face++ {
		op.Face = face
		if err := e.dev.Draw(&op); err != nil {
			return err
		}
	}
	return nil
}

// channelTexture resolves a binding to the texture sampled this frame.
// Buffer bindings read the producer's committed front, or its in-flight back
// for declared same-frame reads.
func (e *Engine) channelTexture(c *canvasState, b *graph.Binding) graphics.Texture {
	switch b.Kind {
	case graph.KindBuffer:
		slot := c.slotFor(b.Target)
		if slot == nil {
			return nil
		}
		if b.Current {
			return slot.WriteTarget()
		}
		return slot.Current()
	case graph.KindKeyboard:
		return e.keyboard
	default:
		return e.textures[textureKey(b)]
	}
}

func (e *Engine) presentOps(weight float32) []graphics.PresentOp {
	if e.layout == nil {
		return nil
	}
	ops := make([]graphics.PresentOp, 0, len(e.layout.Monitors))
	filter := string(e.preset.FilterMode)
	for _, ml := range e.layout.Monitors {
		c := e.canvases[ml.Canvas]
		op := graphics.PresentOp{
			To:     c.image.Current(),
			Weight: weight,
			Dest:   [4]int{ml.Monitor.X, ml.Monitor.Y, ml.Monitor.Width, ml.Monitor.Height},
			SrcUV:  ml.SrcUV,
			Wrap:   ml.Wrap,
			Filter: filter,
		}
		if weight < 1 {
			op.From = c.image.Back()
		}
		ops = append(ops, op)
	}
	return ops
}

func dateUniform(t time.Time) [4]float32 {
	secs := float64(t.Hour()*3600+t.Minute()*60+t.Second()) +
		float64(t.Nanosecond())/1e9
	return [4]float32{
		float32(t.Year()),
		float32(int(t.Month()) - 1),
		float32(t.Day()),
		float32(secs),
	}
}

// ───────────────────────────── resource building ─────────────────────────────

func textureKey(b *graph.Binding) string {
	kind := "tex"
	switch b.Kind {
	case graph.KindCubemap:
		kind = "cube"
	case graph.KindVolume:
		kind = "vol"
	}
	return fmt.Sprintf("%s:%s:%v:%s", kind, b.Name, b.VFlip, b.Filter)
}

func (e *Engine) buildResources(g *graph.Graph, l *layout.Layout) error {
	e.textures = make(map[string]graphics.Texture)

	needKeyboard := false
	for _, node := range g.Passes {
		for _, b := range node.Bindings {
			switch b.Kind {
			case graph.KindKeyboard:
				needKeyboard = true
			case graph.KindTexture, graph.KindCubemap, graph.KindVolume:
				if err := e.loadAssetTexture(b); err != nil {
					return err
				}
			}
		}
	}
	if needKeyboard {
		blank := image.NewRGBA(image.Rect(0, 0, inputs.NumKeys, 1))
		tex, err := e.dev.NewTexture2D(blank, graphics.SamplerOptions{Wrap: "clamp", Filter: "nearest"})
		if err != nil {
			return fmt.Errorf("keyboard texture: %w", err)
		}
		e.keyboard = tex
	}

	for _, node := range g.Passes {
		cp, err := e.compilePass(g, node)
		if err != nil {
			return err
		}
		e.passes = append(e.passes, cp)
	}

	canvases, err := e.buildCanvases(l)
	if err != nil {
		return err
	}
	e.canvases = canvases
	return nil
}

// loadAssetTexture uploads one texture/cubemap/volume asset, deduplicated by
// name and sampler-relevant options.
func (e *Engine) loadAssetTexture(b *graph.Binding) error {
	key := textureKey(b)
	if _, ok := e.textures[key]; ok {
		return nil
	}
	opts := graphics.SamplerOptions{
		Wrap:   string(b.Wrap),
		Filter: string(b.Filter),
		VFlip:  b.VFlip,
	}

	var tex graphics.Texture
	var err error
	switch b.Kind {
	case graph.KindTexture:
		var img *image.RGBA
		if img, err = e.assets.Texture(b.Name); err == nil {
			tex, err = e.dev.NewTexture2D(img, opts)
		}
	case graph.KindCubemap:
		var faces [6]*image.RGBA
		if faces, err = e.assets.Cubemap(b.Name); err == nil {
			tex, err = e.dev.NewCubemap(faces, opts)
		}
	case graph.KindVolume:
		var vol *graphics.VolumeData
		if vol, err = e.assets.Volume(b.Name); err == nil {
			tex, err = e.dev.NewVolume(vol, opts)
		}
	}
	if err != nil {
		return fmt.Errorf("asset %q: %v: %w", b.Name, err, graph.ErrInvalidInputReference)
	}
	e.textures[key] = tex
	return nil
}

// compilePass builds the pass program. A compile failure is downgraded to a
// warning and the pass runs the fallback shader, so one broken pass does not
// take the whole preset down.
func (e *Engine) compilePass(g *graph.Graph, node *graph.Pass) (*compiledPass, error) {
	var samplers [4]string
	for _, b := range node.Bindings {
		samplers[b.Slot] = e.samplerType(g, b)
	}

	assemble := shader.ImageShader
	fallbackSrc := shader.FallbackImageSource
	if node.Cubemap {
		assemble = shader.CubemapShader
		fallbackSrc = shader.FallbackCubemapSource
	}

	cp := &compiledPass{id: node.ID, cubemap: node.Cubemap, bindings: node.Bindings}

	src := assemble(samplers, g.Common, node.Source)
	prog, err := e.dev.CompileProgram(string(node.ID), shader.PassVertexShader(), src)
	if err != nil {
		var cerr *graphics.CompileError
		if !errors.As(err, &cerr) {
			return nil, fmt.Errorf("pass %s: %w", node.ID, err)
		}
		e.warnings = append(e.warnings, cerr.Error())
		cp.fallback = true
		prog, err = e.dev.CompileProgram(string(node.ID)+"_fallback",
			shader.PassVertexShader(), assemble(samplers, "", fallbackSrc))
		if err != nil {
			return nil, fmt.Errorf("pass %s fallback: %w", node.ID, err)
		}
	}
	cp.prog = prog
	return cp, nil
}

func (e *Engine) samplerType(g *graph.Graph, b *graph.Binding) string {
	switch b.Kind {
	case graph.KindCubemap:
		return graphics.TexCube.SamplerType()
	case graph.KindVolume:
		return graphics.Tex3D.SamplerType()
	case graph.KindBuffer:
		if b.Target == preset.PassCubeA {
			return graphics.TexCube.SamplerType()
		}
	}
	return graphics.Tex2D.SamplerType()
}

func (e *Engine) buildCanvases(l *layout.Layout) ([]*canvasState, error) {
	var canvases []*canvasState
	fail := func(err error) ([]*canvasState, error) {
		for _, c := range canvases {
			c.destroy()
		}
		return nil, err
	}

	for _, size := range l.Canvases {
		c := &canvasState{size: size, slots: make(map[preset.PassID]*Slot)}
		canvases = append(canvases, c)

		for _, id := range e.graph.Producers() {
			w, h := size.Width, size.Height
			format := graphics.FormatRGBA32F
			if id == preset.PassCubeA {
				w, h = cubeFaceSize, cubeFaceSize
				format = graphics.FormatCube
			}
			s, err := newSlot(e.dev, w, h, format)
			if err != nil {
				return fail(fmt.Errorf("slot %s: %w", id, err))
			}
			c.slots[id] = s
		}

		img, err := newSlot(e.dev, size.Width, size.Height, graphics.FormatRGBA8)
		if err != nil {
			return fail(fmt.Errorf("image slot: %w", err))
		}
		c.image = img
	}
	return canvases, nil
}

func (e *Engine) destroyResources() {
	for _, cp := range e.passes {
		if cp.prog != nil {
			cp.prog.Destroy()
		}
	}
	e.passes = nil
	for _, c := range e.canvases {
		c.destroy()
	}
	e.canvases = nil
	for _, t := range e.textures {
		t.Destroy()
	}
	e.textures = nil
	if e.keyboard != nil {
		e.keyboard.Destroy()
		e.keyboard = nil
	}
}
