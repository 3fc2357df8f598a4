package preset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, p.ResolutionScale)
	assert.Equal(t, 1.0, p.TimeScale)
	assert.Equal(t, time.Duration(0), p.TimeOffset.Std())
	assert.Equal(t, time.Duration(0), p.IntervalBetweenFrames.Std())
	assert.Equal(t, BoundsAllMonitors, p.ScreenBoundsPolicy)
	assert.Equal(t, []string{"*"}, p.MonitorSelection)
	assert.Equal(t, LayoutStretch, p.LayoutMode)
	assert.Equal(t, FilterLinear, p.FilterMode)
	assert.Equal(t, 0.0, p.CrossfadeOverlapRatio)

	// A preset with no image pass gets the built-in shader.
	require.NotNil(t, p.Image)
	assert.Equal(t, DefaultImageShader, p.Image.Shader)
}

func TestParsePasses(t *testing.T) {
	doc := `
name = "plasma"
time_scale = 0.5
time_offset = "1m30s"
interval_between_frames = "2s"
crossfade_overlap_ratio = 0.5

[common]
shader = "float shared_fn(float x) { return x; }"

[buffer_a]
shader = "void mainImage(out vec4 c, in vec2 p) { c = vec4(0); }"

[buffer_a.input_0]
type = "misc"
name = "buffer_a"

[image]
shader = "void mainImage(out vec4 c, in vec2 p) { c = vec4(1); }"

[image.input_0]
type = "misc"
name = "buffer_a"
wrap = "repeat"
filter = "nearest"
`
	p, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "plasma", p.Name)
	assert.Equal(t, 0.5, p.TimeScale)
	assert.Equal(t, 90*time.Second, p.TimeOffset.Std())
	assert.Equal(t, 2*time.Second, p.IntervalBetweenFrames.Std())
	assert.Equal(t, 0.5, p.CrossfadeOverlapRatio)
	assert.Contains(t, p.CommonCode(), "shared_fn")

	require.NotNil(t, p.BufferA)
	in := p.BufferA.Input0
	require.NotNil(t, in)
	assert.Equal(t, InputMisc, in.Type)
	assert.Equal(t, WrapClamp, in.Wrap)
	assert.Equal(t, FilterLinear, in.Filter)
	assert.Equal(t, FramePrevious, in.Frame)

	in = p.Image.Input0
	require.NotNil(t, in)
	assert.Equal(t, WrapRepeat, in.Wrap)
	assert.Equal(t, FilterNearest, in.Filter)
}

func TestEmptyImageShaderGetsDefault(t *testing.T) {
	p, err := Parse([]byte("[image]\nshader = \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultImageShader, p.Image.Shader)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"zero resolution scale", "resolution_scale = 0.0", "resolution_scale"},
		{"negative resolution scale", "resolution_scale = -2.0", "resolution_scale"},
		{"negative time scale", "time_scale = -1.0", "time_scale"},
		{"crossfade above one", "crossfade_overlap_ratio = 1.5", "crossfade_overlap_ratio"},
		{"crossfade below zero", "crossfade_overlap_ratio = -0.1", "crossfade_overlap_ratio"},
		{"negative interval", "interval_between_frames = \"-1s\"", "interval_between_frames"},
		{"bad bounds policy", "screen_bounds_policy = \"mirror\"", "screen_bounds_policy"},
		{"bad layout mode", "layout_mode = \"tile\"", "layout_mode"},
		{"bad filter mode", "filter_mode = \"cubic\"", "filter_mode"},
		{"bad input type", "[image.input_0]\ntype = \"sound\"", "image.input_0.type"},
		{"bad input wrap", "[image.input_0]\ntype = \"keyboard\"\nwrap = \"edge\"", "image.input_0.wrap"},
		{"bad input frame", "[image.input_0]\ntype = \"misc\"\nname = \"buffer_a\"\nframe = \"next\"", "image.input_0.frame"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.doc))
			require.Error(t, err)
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, test.field, cerr.Field)
		})
	}
}

func TestMalformedTOML(t *testing.T) {
	_, err := Parse([]byte("resolution_scale = ["))
	assert.Error(t, err)
}

func TestDurationRoundTrip(t *testing.T) {
	p := Default()
	p.IntervalBetweenFrames = Duration(90 * time.Second)
	p.TimeOffset = Duration(250 * time.Millisecond)

	data, err := p.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.IntervalBetweenFrames, back.IntervalBetweenFrames)
	assert.Equal(t, p.TimeOffset, back.TimeOffset)
}

func TestRoundTripPreservesPasses(t *testing.T) {
	p := Default()
	p.Name = "feedback"
	p.BufferA = &Pass{
		Shader: "void mainImage(out vec4 c, in vec2 p) { c = vec4(0); }",
		Input0: &Input{Type: InputMisc, Name: "buffer_a", Wrap: WrapRepeat, Filter: FilterNearest, Frame: FramePrevious},
	}
	p.Image.Input0 = &Input{Type: InputMisc, Name: "buffer_a", Wrap: WrapClamp, Filter: FilterLinear, Frame: FramePrevious}

	data, err := p.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.BufferA, back.BufferA)
	assert.Equal(t, p.Image, back.Image)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Buffer A", PassBufferA.DisplayName())
	assert.Equal(t, "Cubemap A", PassCubeA.DisplayName())
	assert.Equal(t, "Image", PassImage.DisplayName())
}
