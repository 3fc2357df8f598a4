// Package preset defines the serialized shader preset format: render passes,
// per-pass inputs, timing behavior, and display configuration. Presets are
// stored as TOML and can be monitored for live reloading at runtime.
package preset

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// PassID identifies a render pass within a preset.
type PassID string

const (
	PassCommon  PassID = "common"
	PassBufferA PassID = "buffer_a"
	PassBufferB PassID = "buffer_b"
	PassBufferC PassID = "buffer_c"
	PassBufferD PassID = "buffer_d"
	PassCubeA   PassID = "cube_a"
	PassImage   PassID = "image"
)

// ExecutionOrder is the fixed pass execution order. Common never renders; it
// only contributes shared shader text, so it is not listed here.
var ExecutionOrder = []PassID{
	PassBufferA, PassBufferB, PassBufferC, PassBufferD, PassCubeA, PassImage,
}

// BufferPasses are the passes that own ping-pong render targets.
var BufferPasses = []PassID{
	PassBufferA, PassBufferB, PassBufferC, PassBufferD, PassCubeA,
}

// DisplayName returns the ShaderToy-style name of a pass ("Buffer A", "Image").
func (id PassID) DisplayName() string {
	switch id {
	case PassCommon:
		return "Common"
	case PassBufferA:
		return "Buffer A"
	case PassBufferB:
		return "Buffer B"
	case PassBufferC:
		return "Buffer C"
	case PassBufferD:
		return "Buffer D"
	case PassCubeA:
		return "Cubemap A"
	case PassImage:
		return "Image"
	}
	return string(id)
}

// InputType tags the variant of an input slot.
type InputType string

const (
	InputMisc     InputType = "misc"
	InputTexture  InputType = "texture"
	InputCubemap  InputType = "cubemap"
	InputVolume   InputType = "volume"
	InputKeyboard InputType = "keyboard"

	// Recognized in configuration but never producing GPU work.
	InputVideo       InputType = "video"
	InputMusic       InputType = "music"
	InputMusicStream InputType = "music_stream"
	InputWebcam      InputType = "webcam"
	InputMicrophone  InputType = "microphone"
)

// WrapMode specifies how texture coordinates outside [0,1] are handled.
type WrapMode string

const (
	WrapClamp  WrapMode = "clamp"
	WrapRepeat WrapMode = "repeat"
)

// FilterMode specifies the texture filtering method used for sampling.
type FilterMode string

const (
	FilterLinear  FilterMode = "linear"
	FilterNearest FilterMode = "nearest"
	FilterMipmap  FilterMode = "mipmap"
)

// FrameRef selects which frame of a referenced buffer pass an input reads.
// ShaderToy convention is previous-frame; current-frame is only satisfiable
// when the producer executes earlier in the fixed pass order.
type FrameRef string

const (
	FramePrevious FrameRef = "previous"
	FrameCurrent  FrameRef = "current"
)

// ScreenBoundsPolicy specifies how the virtual screen bounds are calculated.
type ScreenBoundsPolicy string

const (
	BoundsAllMonitors       ScreenBoundsPolicy = "all_monitors"
	BoundsSelectionMonitors ScreenBoundsPolicy = "selection_monitors"
	BoundsCloned            ScreenBoundsPolicy = "cloned"
)

// LayoutMode specifies how the rendered canvas is laid out on screen.
type LayoutMode string

const (
	LayoutStretch        LayoutMode = "stretch"
	LayoutCenter         LayoutMode = "center"
	LayoutRepeat         LayoutMode = "repeat"
	LayoutMirroredRepeat LayoutMode = "mirrored_repeat"
)

// Duration is a time.Duration that round-trips through TOML as a
// duration string ("2s", "1m30s").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Input describes one iChannel binding of a pass.
type Input struct {
	Type   InputType  `toml:"type"`
	Name   string     `toml:"name"`
	Wrap   WrapMode   `toml:"wrap"`
	Filter FilterMode `toml:"filter"`
	VFlip  bool       `toml:"vflip"`
	// Frame is a schema extension for same-frame buffer consumption.
	// Empty or "previous" keeps the ShaderToy one-frame-stale convention.
	Frame FrameRef `toml:"frame,omitempty"`
}

// Pass holds shader source text plus up to four input slots.
type Pass struct {
	Shader string `toml:"shader"`
	Input0 *Input `toml:"input_0,omitempty"`
	Input1 *Input `toml:"input_1,omitempty"`
	Input2 *Input `toml:"input_2,omitempty"`
	Input3 *Input `toml:"input_3,omitempty"`
}

// Inputs returns the input slots indexed by channel.
func (p *Pass) Inputs() [4]*Input {
	if p == nil {
		return [4]*Input{}
	}
	return [4]*Input{p.Input0, p.Input1, p.Input2, p.Input3}
}

// Preset is the user-facing configuration for one shader wallpaper.
type Preset struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Author      string `toml:"author"`
	Description string `toml:"description"`

	ResolutionScale       float64            `toml:"resolution_scale"`
	TimeScale             float64            `toml:"time_scale"`
	TimeOffset            Duration           `toml:"time_offset"`
	IntervalBetweenFrames Duration           `toml:"interval_between_frames"`
	ScreenBoundsPolicy    ScreenBoundsPolicy `toml:"screen_bounds_policy"`
	MonitorSelection      []string           `toml:"monitor_selection"`
	LayoutMode            LayoutMode         `toml:"layout_mode"`
	FilterMode            FilterMode         `toml:"filter_mode"`
	CrossfadeOverlapRatio float64            `toml:"crossfade_overlap_ratio"`

	Common  *Pass `toml:"common,omitempty"`
	BufferA *Pass `toml:"buffer_a,omitempty"`
	BufferB *Pass `toml:"buffer_b,omitempty"`
	BufferC *Pass `toml:"buffer_c,omitempty"`
	BufferD *Pass `toml:"buffer_d,omitempty"`
	CubeA   *Pass `toml:"cube_a,omitempty"`
	Image   *Pass `toml:"image"`
}

// DefaultImageShader is the built-in fallback fragment shader shown when a
// preset declares no image pass. It displays an animated color pattern.
const DefaultImageShader = `void mainImage(out vec4 fragColor, in vec2 fragCoord)
{
    vec2 uv = fragCoord / iResolution.xy;
    vec3 col = .5 + .5 * cos(iTime + uv.xyx + vec3(0, 2, 4));
    fragColor = vec4(col, 1);
}`

// Default returns a preset with all defaults applied: native resolution,
// real-time clock, all monitors, stretch layout, and the built-in image
// shader.
func Default() *Preset {
	return &Preset{
		ResolutionScale:    1.0,
		TimeScale:          1.0,
		ScreenBoundsPolicy: BoundsAllMonitors,
		MonitorSelection:   []string{"*"},
		LayoutMode:         LayoutStretch,
		FilterMode:         FilterLinear,
		Image:              &Pass{Shader: DefaultImageShader},
	}
}

// Pass returns the declared pass for the given identifier, or nil.
func (p *Preset) Pass(id PassID) *Pass {
	switch id {
	case PassCommon:
		return p.Common
	case PassBufferA:
		return p.BufferA
	case PassBufferB:
		return p.BufferB
	case PassBufferC:
		return p.BufferC
	case PassBufferD:
		return p.BufferD
	case PassCubeA:
		return p.CubeA
	case PassImage:
		return p.Image
	}
	return nil
}

// CommonCode returns the shared shader text contributed by the common pass.
func (p *Preset) CommonCode() string {
	if p.Common == nil {
		return ""
	}
	return p.Common.Shader
}

// ConfigError reports a malformed preset field. A preset with a ConfigError
// is rejected wholesale; a previously loaded preset keeps running.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("preset: invalid %s: %s", e.Field, e.Reason)
}

// Parse decodes a TOML preset, fills defaults, and validates it.
func Parse(data []byte) (*Preset, error) {
	p := Default()
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads and parses a preset TOML file.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the preset back to the TOML schema.
func (p *Preset) Marshal() ([]byte, error) {
	data, err := toml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}
	return data, nil
}

// normalize fills zero values left by partially specified TOML documents.
func (p *Preset) normalize() {
	if p.MonitorSelection == nil {
		p.MonitorSelection = []string{"*"}
	}
	if p.Image == nil || p.Image.Shader == "" {
		img := &Pass{Shader: DefaultImageShader}
		if p.Image != nil {
			img.Input0, img.Input1 = p.Image.Input0, p.Image.Input1
			img.Input2, img.Input3 = p.Image.Input2, p.Image.Input3
		}
		p.Image = img
	}
	for _, id := range ExecutionOrder {
		for _, in := range p.Pass(id).Inputs() {
			if in == nil {
				continue
			}
			if in.Type == "" {
				in.Type = InputMisc
			}
			if in.Wrap == "" {
				in.Wrap = WrapClamp
			}
			if in.Filter == "" {
				in.Filter = FilterLinear
			}
			if in.Frame == "" {
				in.Frame = FramePrevious
			}
		}
	}
}

// Validate checks enum values and numeric ranges.
func (p *Preset) Validate() error {
	if !(p.ResolutionScale > 0) {
		return &ConfigError{"resolution_scale", fmt.Sprintf("must be > 0, got %v", p.ResolutionScale)}
	}
	if p.TimeScale < 0 {
		return &ConfigError{"time_scale", fmt.Sprintf("must be >= 0, got %v", p.TimeScale)}
	}
	if p.CrossfadeOverlapRatio < 0 || p.CrossfadeOverlapRatio > 1 {
		return &ConfigError{"crossfade_overlap_ratio", fmt.Sprintf("must be in [0,1], got %v", p.CrossfadeOverlapRatio)}
	}
	if p.IntervalBetweenFrames < 0 {
		return &ConfigError{"interval_between_frames", "must not be negative"}
	}
	switch p.ScreenBoundsPolicy {
	case BoundsAllMonitors, BoundsSelectionMonitors, BoundsCloned:
	default:
		return &ConfigError{"screen_bounds_policy", string(p.ScreenBoundsPolicy)}
	}
	switch p.LayoutMode {
	case LayoutStretch, LayoutCenter, LayoutRepeat, LayoutMirroredRepeat:
	default:
		return &ConfigError{"layout_mode", string(p.LayoutMode)}
	}
	switch p.FilterMode {
	case FilterLinear, FilterNearest, FilterMipmap:
	default:
		return &ConfigError{"filter_mode", string(p.FilterMode)}
	}
	for _, id := range ExecutionOrder {
		for slot, in := range p.Pass(id).Inputs() {
			if in == nil {
				continue
			}
			if err := in.validate(id, slot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *Input) validate(pass PassID, slot int) error {
	field := fmt.Sprintf("%s.input_%d", pass, slot)
	switch in.Type {
	case InputMisc, InputTexture, InputCubemap, InputVolume, InputKeyboard,
		InputVideo, InputMusic, InputMusicStream, InputWebcam, InputMicrophone:
	default:
		return &ConfigError{field + ".type", string(in.Type)}
	}
	switch in.Wrap {
	case WrapClamp, WrapRepeat:
	default:
		return &ConfigError{field + ".wrap", string(in.Wrap)}
	}
	switch in.Filter {
	case FilterLinear, FilterNearest, FilterMipmap:
	default:
		return &ConfigError{field + ".filter", string(in.Filter)}
	}
	switch in.Frame {
	case FramePrevious, FrameCurrent:
	default:
		return &ConfigError{field + ".frame", string(in.Frame)}
	}
	return nil
}
