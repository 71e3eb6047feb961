// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

// Framebuffer holds the projection and the SolBuiltins uniform buffer for
// targets of one size.
type Framebuffer struct {
	dev        *Device
	width      int
	height     int
	screen     bool
	projection [16]float32
	uniforms   hal.Buffer
}

var _ backend.Framebuffer = (*Framebuffer)(nil)

// NewFramebuffer creates the per-size target resources.
func (d *Device) NewFramebuffer(width, height int, screen bool) (backend.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return nil, err
	}
	if err := backend.ValidateSize(width, height, nil); err != nil {
		return nil, err
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("sprite_fb_%dx%d_uniforms", width, height),
		Size:  backend.BuiltinsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create framebuffer uniforms: %w", err)
	}
	return &Framebuffer{
		dev:        d,
		width:      width,
		height:     height,
		screen:     screen,
		projection: backend.Ortho(width, height),
		uniforms:   buf,
	}, nil
}

// Size returns the target size.
func (f *Framebuffer) Size() (int, int) { return f.width, f.height }

// Screen reports whether the framebuffer targets the window.
func (f *Framebuffer) Screen() bool { return f.screen }

// Destroy releases the uniform buffer.
func (f *Framebuffer) Destroy() {
	f.dev.mu.Lock()
	defer f.dev.mu.Unlock()
	if f.uniforms != nil && f.dev.device != nil {
		f.dev.device.DestroyBuffer(f.uniforms)
	}
	f.uniforms = nil
}

// frameResources are the per-submit objects released after the fence.
type frameResources struct {
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func (d *Device) release(res *frameResources) {
	for _, bg := range res.bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	for _, b := range res.buffers {
		d.device.DestroyBuffer(b)
	}
}

// Submit draws the batch in one render pass and waits for completion.
func (d *Device) Submit(b *backend.Batch) error {
	if b == nil || len(b.Vertices) < 4 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return err
	}

	target, err := d.ownLocked(b.Target)
	if err != nil {
		return fmt.Errorf("wgpu: submit target: %w", err)
	}
	source := d.white
	if b.Source != nil {
		if source, err = d.ownLocked(b.Source); err != nil {
			return fmt.Errorf("wgpu: submit source: %w", err)
		}
	}
	fb, ok := b.Framebuffer.(*Framebuffer)
	if !ok || fb == nil || fb.dev != d || fb.uniforms == nil {
		return fmt.Errorf("wgpu: submit framebuffer: %w", backend.ErrForeignResource)
	}
	prog := d.defaultProg
	if b.Program != nil {
		p, ok := b.Program.(*Program)
		if !ok || p.dev != d || p.module == nil {
			return fmt.Errorf("wgpu: submit program: %w", backend.ErrForeignResource)
		}
		prog = p
	}
	pipeline, err := prog.pipelineLocked(b.Blend)
	if err != nil {
		return fmt.Errorf("wgpu: %w", err)
	}

	quads := b.Quads()
	if err := d.ensureIndicesLocked(quads); err != nil {
		return err
	}

	var res frameResources
	defer d.release(&res)

	vertBuf, err := d.uploadBuffer("sprite_vertices", packVertices(b.Vertices[:quads*4]),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, &res)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(fb.uniforms, 0, backend.PackBuiltins(fb.projection, b.Builtins))

	builtins, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sprite_builtins",
		Layout: d.builtinLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: fb.uniforms.NativeHandle(), Offset: 0, Size: backend.BuiltinsSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: source.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create builtins bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, builtins)

	var user hal.BindGroup
	if prog.userLayout != nil {
		user, err = d.userBindGroup(prog, b, &res)
		if err != nil {
			return err
		}
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_batch"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_batch"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	source.transition(encoder, gputypes.TextureUsageTextureBinding)
	for _, t := range b.Textures {
		if wt, err := d.ownLocked(t); err == nil {
			wt.transition(encoder, gputypes.TextureUsageTextureBinding)
		}
	}
	target.transition(encoder, gputypes.TextureUsageRenderAttachment)

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_batch_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    target.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, builtins, nil)
	if user != nil {
		rp.SetBindGroup(1, user, nil)
	}
	rp.SetVertexBuffer(0, vertBuf, 0)
	rp.SetIndexBuffer(d.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(uint32(quads*6), 1, 0, 0, 0) //nolint:gosec // bounded by index buffer size
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return fmt.Errorf("wgpu: batch: %w", err)
	}
	return nil
}

// userBindGroup builds group 1 from the uniform block and extra textures.
func (d *Device) userBindGroup(prog *Program, b *backend.Batch, res *frameResources) (hal.BindGroup, error) {
	var entries []gputypes.BindGroupEntry
	if prog.uniformSize > 0 {
		data := make([]byte, prog.uniformSize)
		copy(data, b.Uniforms)
		buf, err := d.uploadBuffer("sprite_user_uniforms", data,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, res)
		if err != nil {
			return nil, err
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(len(data))},
		})
	}
	for i, binding := range prog.textureBindings {
		tex := d.white
		if i < len(b.Textures) && b.Textures[i] != nil {
			t, err := d.ownLocked(b.Textures[i])
			if err != nil {
				return nil, fmt.Errorf("wgpu: texture uniform %d: %w", binding, err)
			}
			tex = t
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  binding,
			Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()},
		})
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   prog.label + "_user",
		Layout:  prog.userLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create user bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)
	return bg, nil
}

// uploadBuffer creates a buffer holding data. Uniform buffers are padded
// to a multiple of 16 bytes.
func (d *Device) uploadBuffer(label string, data []byte, usage gputypes.BufferUsage, res *frameResources) (hal.Buffer, error) {
	size := (uint64(len(data)) + 15) &^ 15
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	res.buffers = append(res.buffers, buf)
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// ensureIndicesLocked grows the shared index buffer to hold n quads.
func (d *Device) ensureIndicesLocked(n int) error {
	if n <= d.indexQuads {
		return nil
	}
	if n*4 > math.MaxUint16+1 {
		return fmt.Errorf("wgpu: batch of %d quads exceeds 16-bit indices", n)
	}
	grow := max(n, 2*d.indexQuads, 64)
	grow = min(grow, (math.MaxUint16+1)/4)
	indices := backend.QuadIndices(grow)
	data := make([]byte, len(indices)*2)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_indices",
		Size:  (uint64(len(data)) + 3) &^ 3,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create index buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, data)
	if d.indexBuf != nil {
		d.device.DestroyBuffer(d.indexBuf)
	}
	d.indexBuf = buf
	d.indexQuads = grow
	return nil
}

// packVertices encodes vertices in the VertexInput layout.
func packVertices(vertices []backend.Vertex) []byte {
	out := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		o := out[i*vertexStride:]
		putF32(o[0:], v.X)
		putF32(o[4:], v.Y)
		putF32(o[8:], v.U)
		putF32(o[12:], v.V)
		for c := 0; c < 4; c++ {
			putF32(o[16+c*4:], float32(v.Color[c])/255)
		}
	}
	return out
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// Clear sets every pixel of target to transparent black with an empty
// render pass.
func (d *Device) Clear(target backend.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return err
	}
	t, err := d.ownLocked(target)
	if err != nil {
		return fmt.Errorf("wgpu: clear: %w", err)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_clear"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_clear"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	t.transition(encoder, gputypes.TextureUsageRenderAttachment)
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)
	if err := d.submitAndWait(cmdBuf); err != nil {
		return fmt.Errorf("wgpu: clear: %w", err)
	}
	return nil
}
