// Package shader assembles full GLSL program text from user pass source:
// the uniform preamble, shared common code, and the mainImage/mainCubemap
// entry wrappers, plus the built-in blit programs used for presentation.
package shader

import "fmt"

// ────────────────────────────────── Blit ──────────────────────────────────

const blitVertexSource = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
uniform vec4 u_srcRect; // u0, v0, u1, v1 in canvas UV space
void main() {
    vec2 uv = in_vert * 0.5 + 0.5;
    frag_uv = mix(u_srcRect.xy, u_srcRect.zw, uv);
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentSource = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y)); }
`

// Crossfade variant: mixes the previous frame under the newest one by
// u_weight, the presented weight of u_to.
const crossfadeFragmentSource = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_from;
uniform sampler2D u_to;
uniform float u_weight;
void main() {
    vec2 uv = vec2(frag_uv.x, 1.0 - frag_uv.y);
    fragColor = mix(texture(u_from, uv), texture(u_to, uv), u_weight);
}
`

func BlitVertexShader() string { return blitVertexSource }

func BlitFragmentShader(crossfade bool) string {
	if crossfade {
		return crossfadeFragmentSource
	}
	return blitFragmentSource
}

// ─────────────────────────────── Pass programs ───────────────────────────────

const passVertexSource = `#version 410 core
layout (location = 0) in vec2 in_vert;
void main() { gl_Position = vec4(in_vert, 0.0, 1.0); }
`

func PassVertexShader() string { return passVertexSource }

// FallbackImageSource is substituted for a pass whose shader failed to
// compile: it passes iChannel0 through so a broken edit degrades visibly
// instead of killing the wallpaper.
const FallbackImageSource = `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    fragColor = texture(iChannel0, fragCoord / iResolution.xy);
}
`

// FallbackCubemapSource is the cubemap-pass equivalent, black in every
// direction.
const FallbackCubemapSource = `void mainCubemap(out vec4 fragColor, in vec2 fragCoord, in vec3 rayOri, in vec3 rayDir) {
    fragColor = vec4(0.0, 0.0, 0.0, 1.0);
}
`

// preamble declares the ShaderToy built-in uniforms and the four channel
// samplers. samplers holds the GLSL sampler keyword per slot; empty slots
// declare sampler2D so unbound iChannelN references still compile.
func preamble(samplers [4]string) string {
	base := `#version 410 core
#define HW_PERFORMANCE 1

uniform vec3  iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform float iFrameRate;
uniform int   iFrame;
uniform vec3  iChannelResolution[4];
uniform vec4  iMouse;
uniform vec4  iDate;
`
	for i, sampler := range samplers {
		if sampler == "" {
			sampler = "sampler2D"
		}
		base += fmt.Sprintf("uniform %s iChannel%d;\n", sampler, i)
	}
	return base + "\nout vec4 shader_out_color;\n"
}

const imageMain = `
void main(void)
{
    mainImage(shader_out_color, gl_FragCoord.xy);
}
`

// Cubemap passes render one face per draw. The face basis uniforms orient
// gl_FragCoord into a world-space ray for mainCubemap.
const cubemapMain = `
uniform vec3 u_faceForward;
uniform vec3 u_faceUp;
uniform vec3 u_faceRight;

void main(void)
{
    vec2 uv = gl_FragCoord.xy / iResolution.xy * 2.0 - 1.0;
    vec3 dir = normalize(u_faceForward + uv.x * u_faceRight + uv.y * u_faceUp);
    mainCubemap(shader_out_color, gl_FragCoord.xy, vec3(0.0), dir);
}
`

// ImageShader combines preamble, common code and user pass source into a
// complete fragment shader for a 2D pass.
func ImageShader(samplers [4]string, common, user string) string {
	return preamble(samplers) + common + "\n" + user + imageMain
}

// CubemapShader is the cubemap-pass equivalent, wrapping mainCubemap.
func CubemapShader(samplers [4]string, common, user string) string {
	return preamble(samplers) + common + "\n" + user + cubemapMain
}
