package sprite

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/sprite/backend"
)

const tintFragment = `
struct Params {
    tint: vec4<f32>,
    strength: f32,
}

@group(1) @binding(0) var<uniform> params: Params;
@group(1) @binding(1) var mask: texture_2d<f32>;

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let base = textureSample(sol_texture, sol_sampler, in.tex_coord) * in.color;
    let m = textureSample(mask, sol_sampler, in.tex_coord);
    return mix(base, base * params.tint, params.strength * m.a);
}
`

func TestParseUniformsLayout(t *testing.T) {
	src := `
// struct Params { ignored: mat4x4<f32> }
struct Params {
    a: f32,
    b: vec3<f32>,
    c: vec2f,
    d: u32,
}
@group(1) @binding(0) var<uniform> p: Params;
@group(1) @binding(3) var second: texture_2d<f32>;
@group(1) @binding(1) var first: texture_2d<f32>;
`
	l, err := parseUniforms(src)
	if err != nil {
		t.Fatalf("parseUniforms() error = %v", err)
	}
	want := map[string]int{"a": 0, "b": 16, "c": 32, "d": 40}
	for name, off := range want {
		f, ok := l.fields[name]
		if !ok {
			t.Errorf("field %s missing", name)
			continue
		}
		if f.offset != off {
			t.Errorf("field %s offset = %d, want %d", name, f.offset, off)
		}
	}
	if l.size != 48 {
		t.Errorf("size = %d, want 48", l.size)
	}
	if got := l.textureBindings(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("textureBindings() = %v, want [1 3]", got)
	}
	if l.textures[0].name != "first" {
		t.Errorf("textures[0] = %s, want first", l.textures[0].name)
	}
}

func TestParseUniformsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"texture at binding 0", `@group(1) @binding(0) var t: texture_2d<f32>;`},
		{"duplicate binding", `@group(1) @binding(2) var a: texture_2d<f32>;
@group(1) @binding(2) var b: texture_2d<f32>;`},
		{"unsupported type", `struct Params { m: mat4x4<f32>, }
@group(1) @binding(0) var<uniform> p: Params;`},
		{"binding without struct", `@group(1) @binding(0) var<uniform> p: Params;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseUniforms(tt.src); err == nil {
				t.Error("parseUniforms() error = nil")
			}
		})
	}
}

func TestParseUniformsNone(t *testing.T) {
	l, err := parseUniforms(backend.ComposeWGSL("", ""))
	if err != nil {
		t.Fatalf("parseUniforms() error = %v", err)
	}
	if l.size != 0 || len(l.fields) != 0 || len(l.textures) != 0 {
		t.Errorf("default module layout = %+v, want empty", l)
	}
}

func TestShaderUniforms(t *testing.T) {
	r := newTestRenderer(t)
	sh := r.NewShader("", tintFragment, 0)
	t.Cleanup(sh.Destroy)
	if !sh.Valid() {
		t.Fatalf("shader invalid: %s", sh.Error())
	}
	if sh.layout.size != 32 {
		t.Errorf("uniform block size = %d, want 32", sh.layout.size)
	}

	sh.SetUniformVec4("tint", 1, 0.5, 0.25, 1)
	sh.SetUniformFloat("strength", 0.75)
	block := sh.uniformBlock()
	if len(block) != 32 {
		t.Fatalf("uniformBlock() length = %d, want 32", len(block))
	}
	if got := block[16:20]; got[0] != 0 || got[1] != 0 || got[2] != 0x40 || got[3] != 0x3f {
		t.Errorf("strength bytes = % x, want 00 00 40 3f", got)
	}

	// Type mismatch and unknown names leave the block alone.
	sh.SetUniformInt("strength", 7)
	sh.SetUniformFloat("missing", 1)
	if got := sh.uniformBlock(); string(got) != string(block) {
		t.Error("ignored uniform writes changed the block")
	}
}

func TestShaderUniformWriteFlushesBoundBatch(t *testing.T) {
	r := newTestRenderer(t)
	sh := r.NewShader("", tintFragment, 0)
	t.Cleanup(sh.Destroy)
	if !sh.Valid() {
		t.Fatalf("shader invalid: %s", sh.Error())
	}
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 8, 8)

	src.DrawWith(dst, Point{}, sh)
	src.DrawWith(dst, Point{X: 2}, sh)
	if got := r.(*BatchRenderer).Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	sh.SetUniformFloat("missing", 1)
	if got := r.Stats().Flushes[FlushUniform]; got != 0 {
		t.Errorf("unknown uniform flushed %d times", got)
	}

	sh.SetUniformFloat("strength", 1)
	if got := r.Stats().Flushes[FlushUniform]; got != 1 {
		t.Errorf("Flushes[uniform] = %d, want 1", got)
	}
	if got := r.(*BatchRenderer).Pending(); got != 0 {
		t.Errorf("Pending() after uniform write = %d, want 0", got)
	}
}

func TestShaderTextureUniformKeepsImageAlive(t *testing.T) {
	r := newTestRenderer(t)
	sh := r.NewShader("", tintFragment, 0)
	if !sh.Valid() {
		t.Fatalf("shader invalid: %s", sh.Error())
	}
	mask, err := NewImageFromPixels(r, solidPixels(2, 2, White))
	if err != nil {
		t.Fatal(err)
	}
	sh.SetUniformTexture("mask", mask)
	mask.Release()
	if mask.Store().Released() {
		t.Fatal("bound texture uniform was released with its image")
	}

	sh.Destroy()
	if !mask.Store().Released() {
		t.Error("Destroy() did not release the texture uniform")
	}
	if sh.Valid() {
		t.Error("Valid() = true after Destroy")
	}
}

func TestInvalidShaderDrawsWithDefault(t *testing.T) {
	r := newTestRenderer(t)
	sh := r.NewShader("", "@fragment fn fs_main( {", 0)
	if sh.Valid() {
		t.Fatal("Valid() = true for broken WGSL")
	}
	if sh.Error() == "" {
		t.Error("Error() is empty for an invalid shader")
	}

	src := mustPixelsImage(t, r, solidPixels(2, 2, Green))
	dst := mustImage(t, r, 2, 2)
	src.DrawWith(dst, Point{}, sh)
	sh.SetUniformFloat("strength", 1)

	if c := dst.At(1, 1); c != Green {
		t.Errorf("At(1, 1) = %v, want %v", c, Green)
	}
}

func TestNewShaderByID(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		r := newTestRenderer(t)
		sh := r.NewShaderByID("crt")
		if sh.Valid() {
			t.Error("Valid() = true without a shader source")
		}
		if sh.ID() != "crt" {
			t.Errorf("ID() = %q, want crt", sh.ID())
		}
	})

	t.Run("resolved", func(t *testing.T) {
		shaders := map[string]ShaderData{
			"tint": {Fragment: tintFragment, ScalingFactor: 2},
		}
		r := newTestRenderer(t, WithShaderSource(func(id string) (ShaderData, error) {
			d, ok := shaders[id]
			if !ok {
				return ShaderData{}, errors.New("no such shader")
			}
			return d, nil
		}))

		sh := r.NewShaderByID("tint")
		t.Cleanup(sh.Destroy)
		if !sh.Valid() {
			t.Fatalf("shader invalid: %s", sh.Error())
		}
		if sh.ScalingFactor() != 2 {
			t.Errorf("ScalingFactor() = %v, want 2", sh.ScalingFactor())
		}
		if !strings.Contains(sh.Source(), "struct SolBuiltins") {
			t.Error("Source() lacks the engine prelude")
		}

		missing := r.NewShaderByID("missing")
		if missing.Valid() || !strings.Contains(missing.Error(), "no such shader") {
			t.Errorf("missing shader: Valid() = %v, Error() = %q", missing.Valid(), missing.Error())
		}
	})
}
