package backend

import (
	_ "embed"
	"encoding/binary"
	"math"
	"strings"
)

// Embedded WGSL sources of the default textured-quad program.

//go:embed shaders/prelude.wgsl
var shaderPrelude string

//go:embed shaders/default_vertex.wgsl
var defaultVertexSource string

//go:embed shaders/default_fragment.wgsl
var defaultFragmentSource string

// ShaderPrelude returns the declarations every program is compiled with:
// the SolBuiltins uniform block, the source texture and sampler, and the
// VertexInput/VertexOutput structs.
func ShaderPrelude() string { return shaderPrelude }

// DefaultVertexSource returns the vs_main used when a program has no
// vertex source.
func DefaultVertexSource() string { return defaultVertexSource }

// DefaultFragmentSource returns the fs_main used when a program has no
// fragment source.
func DefaultFragmentSource() string { return defaultFragmentSource }

// ComposeWGSL builds a complete module from the prelude and the given
// stage sources. Blank stages are replaced by the defaults.
func ComposeWGSL(vertex, fragment string) string {
	if strings.TrimSpace(vertex) == "" {
		vertex = defaultVertexSource
	}
	if strings.TrimSpace(fragment) == "" {
		fragment = defaultFragmentSource
	}
	var b strings.Builder
	b.Grow(len(shaderPrelude) + len(vertex) + len(fragment) + 2)
	b.WriteString(shaderPrelude)
	b.WriteByte('\n')
	b.WriteString(vertex)
	b.WriteByte('\n')
	b.WriteString(fragment)
	return b.String()
}

// BuiltinsSize is the byte size of the SolBuiltins uniform block.
const BuiltinsSize = 160

// Ortho returns the column-major projection mapping target pixel
// coordinates (origin top-left, y down) to clip space.
func Ortho(width, height int) [16]float32 {
	return [16]float32{
		2 / float32(width), 0, 0, 0,
		0, -2 / float32(height), 0, 0,
		0, 0, 1, 0,
		-1, 1, 0, 1,
	}
}

// Identity is the identity matrix.
var Identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// PackBuiltins encodes the SolBuiltins block:
//
//	mvp         mat4x4<f32>  offset 0
//	uv          mat4x4<f32>  offset 64
//	input_size  vec2<f32>    offset 128
//	output_size vec2<f32>    offset 136
//	time        f32          offset 144
//	opacity     f32          offset 148
func PackBuiltins(mvp [16]float32, b Builtins) []byte {
	out := make([]byte, BuiltinsSize)
	off := 0
	put := func(v float32) {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range mvp {
		put(v)
	}
	for _, v := range Identity {
		put(v)
	}
	put(b.InputSize[0])
	put(b.InputSize[1])
	put(b.OutputSize[0])
	put(b.OutputSize[1])
	put(b.Time)
	put(b.Opacity)
	return out
}
