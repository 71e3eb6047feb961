package sprite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/naga"

	"github.com/gogpu/sprite/backend"
)

// ShaderData is the source of a shader resolved by id.
type ShaderData struct {
	// Vertex and Fragment are WGSL stage sources. Empty selects the
	// default stage.
	Vertex   string
	Fragment string

	// ScalingFactor > 0 makes full-screen use render into an
	// intermediate image of quest size times the factor.
	ScalingFactor float64
}

// ShaderSource resolves shader ids to sources.
type ShaderSource func(id string) (ShaderData, error)

// errNoShaderSource is reported by shaders requested by id when no
// ShaderSource is configured.
var errNoShaderSource = errors.New("sprite: no shader source configured")

// Shader is a WGSL program usable as a terminal DrawProxy.
//
// The module is the engine prelude (the sol built-in block, sol_texture
// and sol_sampler) followed by the vertex and fragment stages. User
// uniforms live in a `struct Params` bound at @group(1) @binding(0);
// texture uniforms are texture_2d<f32> variables at @group(1)
// @binding(N) with N >= 1.
//
// A shader that fails to compile stays usable: it reports Valid false,
// describes the failure in Error and draws like the default terminal.
type Shader struct {
	owner    Renderer
	id       string
	vertex   string
	fragment string
	scaling  float64
	source   string

	valid bool
	err   string

	program  backend.Program
	layout   *uniformLayout
	block    []byte
	textures []*BackingStore // indexed like layout.textures
}

// NewShader compiles a shader on this renderer's device.
func (c *renderCore) NewShader(vertex, fragment string, scaling float64) *Shader {
	sh := &Shader{owner: c.self, vertex: vertex, fragment: fragment, scaling: scaling}
	c.compile(sh)
	return sh
}

// NewShaderByID resolves id through the configured ShaderSource.
func (c *renderCore) NewShaderByID(id string) *Shader {
	if c.source == nil {
		sh := &Shader{owner: c.self, id: id}
		sh.fail(errNoShaderSource)
		return sh
	}
	data, err := c.source(id)
	if err != nil {
		sh := &Shader{owner: c.self, id: id}
		sh.fail(fmt.Errorf("sprite: shader %q: %w", id, err))
		return sh
	}
	sh := &Shader{
		owner:    c.self,
		id:       id,
		vertex:   data.Vertex,
		fragment: data.Fragment,
		scaling:  data.ScalingFactor,
	}
	c.compile(sh)
	return sh
}

func (c *renderCore) compile(sh *Shader) {
	if c.closed {
		sh.fail(ErrRendererClosed)
		return
	}
	sh.source = backend.ComposeWGSL(sh.vertex, sh.fragment)
	if _, err := naga.Compile(sh.source); err != nil {
		sh.fail(fmt.Errorf("sprite: compile shader: %w", err))
		return
	}
	layout, err := parseUniforms(sh.source)
	if err != nil {
		sh.fail(err)
		return
	}
	sh.layout = layout
	sh.block = make([]byte, layout.size)
	sh.textures = make([]*BackingStore, len(layout.textures))

	if c.dev.Capabilities().Programs {
		p, err := c.dev.NewProgram(backend.ProgramSource{
			Label:           sh.label(),
			WGSL:            sh.source,
			UniformSize:     layout.size,
			TextureBindings: layout.textureBindings(),
		})
		if err != nil {
			sh.fail(fmt.Errorf("sprite: create program: %w", err))
			return
		}
		sh.program = p
	} else {
		c.warnOnce("programs", "sprite: device cannot run shader programs, using the default program",
			"backend", c.dev.Name())
	}
	sh.valid = true
	c.shaders[sh] = struct{}{}
	Logger().Debug("sprite: shader compiled", "shader", sh.label(),
		"uniforms", layout.size, "textures", len(layout.textures))
}

func (sh *Shader) fail(err error) {
	sh.valid = false
	sh.err = err.Error()
	Logger().Warn("sprite: invalid shader", "shader", sh.label(), "err", err)
}

func (sh *Shader) label() string {
	if sh.id != "" {
		return sh.id
	}
	return "shader"
}

// ID returns the id the shader was requested with, or "".
func (sh *Shader) ID() string { return sh.id }

// Valid reports whether the shader compiled.
func (sh *Shader) Valid() bool { return sh.valid }

// Error describes why the shader is invalid, or returns "".
func (sh *Shader) Error() string { return sh.err }

// ScalingFactor returns the intermediate-image scale used for
// full-screen rendering, 0 for direct drawing.
func (sh *Shader) ScalingFactor() float64 { return sh.scaling }

// Source returns the composed WGSL module.
func (sh *Shader) Source() string { return sh.source }

// Renderer returns the renderer the shader was compiled for.
func (sh *Shader) Renderer() Renderer { return sh.owner }

// Draw implements DrawProxy. Invalid shaders draw with the default
// terminal of the destination.
func (sh *Shader) Draw(dst, src *Image, infos DrawInfos) {
	if !sh.valid {
		dst.terminal().Draw(dst, src, infos)
		return
	}
	sh.owner.drawQuad(dst.store, src.store, infos, sh)
}

// SetUniformBool sets a bool uniform, declared as u32 or i32.
func (sh *Shader) SetUniformBool(name string, v bool) {
	var w uint32
	if v {
		w = 1
	}
	sh.set(name, []uint32{w}, uniformU32, uniformI32)
}

// SetUniformInt sets an i32 or u32 uniform.
func (sh *Shader) SetUniformInt(name string, v int32) {
	sh.set(name, []uint32{uint32(v)}, uniformI32, uniformU32) //nolint:gosec // bit reinterpretation
}

// SetUniformFloat sets an f32 uniform.
func (sh *Shader) SetUniformFloat(name string, v float32) {
	sh.set(name, []uint32{math.Float32bits(v)}, uniformF32)
}

// SetUniformVec2 sets a vec2<f32> uniform.
func (sh *Shader) SetUniformVec2(name string, x, y float32) {
	sh.set(name, []uint32{math.Float32bits(x), math.Float32bits(y)}, uniformVec2)
}

// SetUniformVec3 sets a vec3<f32> uniform.
func (sh *Shader) SetUniformVec3(name string, x, y, z float32) {
	sh.set(name, []uint32{math.Float32bits(x), math.Float32bits(y), math.Float32bits(z)}, uniformVec3)
}

// SetUniformVec4 sets a vec4<f32> uniform.
func (sh *Shader) SetUniformVec4(name string, x, y, z, w float32) {
	sh.set(name, []uint32{
		math.Float32bits(x), math.Float32bits(y), math.Float32bits(z), math.Float32bits(w),
	}, uniformVec4)
}

// set writes words into the uniform block. Unknown names and type
// mismatches are ignored. A batch drawn with this shader is flushed
// first so it keeps the values it was built with.
func (sh *Shader) set(name string, words []uint32, types ...uniformType) {
	if !sh.valid {
		return
	}
	f, ok := sh.layout.fields[name]
	if !ok {
		return
	}
	if !slices.Contains(types, f.typ) {
		Logger().Debug("sprite: uniform type mismatch", "shader", sh.label(), "uniform", name)
		return
	}
	sh.owner.shaderChanging(sh)
	for i, w := range words {
		binary.LittleEndian.PutUint32(sh.block[f.offset+4*i:], w)
	}
}

// SetUniformTexture binds img to a texture uniform. Nil unbinds it, and
// the shader samples white.
func (sh *Shader) SetUniformTexture(name string, img *Image) {
	if !sh.valid {
		return
	}
	i := slices.IndexFunc(sh.layout.textures, func(t textureSlot) bool { return t.name == name })
	if i < 0 {
		return
	}
	var store *BackingStore
	if img != nil {
		if img.store.owner != sh.owner {
			Logger().Error("sprite: texture uniform from another renderer", "uniform", name)
			return
		}
		store = img.store
	}
	if store == sh.textures[i] {
		return
	}
	sh.owner.shaderChanging(sh)
	if store != nil {
		store.retain()
	}
	if old := sh.textures[i]; old != nil {
		old.release()
	}
	sh.textures[i] = store
}

// Destroy releases the device program and the texture uniforms. The
// shader is invalid afterwards.
func (sh *Shader) Destroy() {
	if !sh.valid {
		return
	}
	sh.owner.shaderChanging(sh)
	c := sh.owner.core()
	delete(c.shaders, sh)
	sh.destroyProgram()
	for i, s := range sh.textures {
		if s != nil {
			s.release()
			sh.textures[i] = nil
		}
	}
	sh.valid = false
	sh.err = "sprite: shader destroyed"
}

func (sh *Shader) destroyProgram() {
	if sh.program != nil {
		sh.program.Destroy()
		sh.program = nil
	}
}

// uniformBlock returns the current Params block, nil when the shader has
// none. The slice is copied since the shader may change it later.
func (sh *Shader) uniformBlock() []byte {
	if len(sh.block) == 0 {
		return nil
	}
	return slices.Clone(sh.block)
}

// textureHandles returns the device textures of the texture uniforms,
// substituting white for unbound ones.
func (sh *Shader) textureHandles(c *renderCore) []backend.Texture {
	if len(sh.textures) == 0 {
		return nil
	}
	out := make([]backend.Texture, len(sh.textures))
	for i, s := range sh.textures {
		out[i] = c.white.tex
		if s == nil || s.released {
			continue
		}
		if err := c.ensureTexture(s); err != nil {
			Logger().Error("sprite: texture uniform unavailable", "uniform", sh.layout.textures[i].name, "err", err)
			continue
		}
		out[i] = s.tex
	}
	return out
}
