// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

// Program is a compiled WGSL module with its layouts. Render pipelines
// are created lazily, one per blend state.
type Program struct {
	dev    *Device
	label  string
	module hal.ShaderModule

	// userLayout is nil when the program declares no group 1 bindings.
	userLayout      hal.BindGroupLayout
	pipeLayout      hal.PipelineLayout
	uniformSize     int
	textureBindings []uint32

	pipelines map[backend.BlendState]hal.RenderPipeline
}

var _ backend.Program = (*Program)(nil)

// Compile validates WGSL source with naga and returns the SPIR-V words.
func Compile(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// NewProgram compiles src into a program.
func (d *Device) NewProgram(src backend.ProgramSource) (backend.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return nil, err
	}
	p, err := d.newProgramLocked(src)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Device) newProgramLocked(src backend.ProgramSource) (*Program, error) {
	if _, err := Compile(src.WGSL); err != nil {
		return nil, fmt.Errorf("wgpu: program %q: %w", src.Label, err)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  src.Label,
		Source: hal.ShaderSource{WGSL: src.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %q: %w", src.Label, err)
	}
	p := &Program{
		dev:             d,
		label:           src.Label,
		module:          module,
		uniformSize:     src.UniformSize,
		textureBindings: append([]uint32(nil), src.TextureBindings...),
		pipelines:       make(map[backend.BlendState]hal.RenderPipeline),
	}

	layouts := []hal.BindGroupLayout{d.builtinLayout}
	if entries := p.userLayoutEntries(); len(entries) > 0 {
		userLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   src.Label + "_user_layout",
			Entries: entries,
		})
		if err != nil {
			p.destroyLocked()
			return nil, fmt.Errorf("wgpu: create user layout %q: %w", src.Label, err)
		}
		p.userLayout = userLayout
		layouts = append(layouts, userLayout)
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            src.Label + "_pipe_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		p.destroyLocked()
		return nil, fmt.Errorf("wgpu: create pipeline layout %q: %w", src.Label, err)
	}
	p.pipeLayout = pipeLayout
	return p, nil
}

// userLayoutEntries describes group 1: the Params block at binding 0 and
// one texture per extra texture binding.
func (p *Program) userLayoutEntries() []gputypes.BindGroupLayoutEntry {
	var entries []gputypes.BindGroupLayoutEntry
	if p.uniformSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for _, b := range p.textureBindings {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	return entries
}

// pipelineLocked returns the render pipeline for a blend state, creating
// it on first use.
func (p *Program) pipelineLocked(state backend.BlendState) (hal.RenderPipeline, error) {
	if pl, ok := p.pipelines[state]; ok {
		return pl, nil
	}
	blend := toGPUBlend(state)
	pl, err := p.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label + "_pipeline_" + state.String(),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %s: %w", state, err)
	}
	p.pipelines[state] = pl
	return pl, nil
}

// vertexLayout matches VertexInput in the engine prelude:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>)
//	location 2: color (vec4<f32>)
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
			},
		},
	}
}

// toGPUBlend converts a device-independent blend state. The operation is
// always addition.
func toGPUBlend(s backend.BlendState) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: toGPUFactor(s.SrcRGB),
			DstFactor: toGPUFactor(s.DstRGB),
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: toGPUFactor(s.SrcAlpha),
			DstFactor: toGPUFactor(s.DstAlpha),
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

func toGPUFactor(f backend.BlendFactor) gputypes.BlendFactor {
	switch f {
	case backend.BlendOne:
		return gputypes.BlendFactorOne
	case backend.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case backend.BlendOneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case backend.BlendDstColor:
		return gputypes.BlendFactorDst
	case backend.BlendOneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case backend.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case backend.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case backend.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case backend.BlendOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	default:
		return gputypes.BlendFactorZero
	}
}

// Destroy releases the program and its pipelines.
func (p *Program) Destroy() {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	p.destroyLocked()
}

func (p *Program) destroyLocked() {
	dev := p.dev.device
	if dev == nil {
		return
	}
	for state, pl := range p.pipelines {
		dev.DestroyRenderPipeline(pl)
		delete(p.pipelines, state)
	}
	if p.pipeLayout != nil {
		dev.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.userLayout != nil {
		dev.DestroyBindGroupLayout(p.userLayout)
		p.userLayout = nil
	}
	if p.module != nil {
		dev.DestroyShaderModule(p.module)
		p.module = nil
	}
}
