// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

// Texture is an RGBA8Unorm GPU texture with a default view.
type Texture struct {
	dev    *Device
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int

	// usage is the last usage the texture was transitioned to.
	usage gputypes.TextureUsage
}

var _ backend.Texture = (*Texture)(nil)

// NewTexture creates a texture and uploads pixels (zeros when nil).
func (d *Device) NewTexture(width, height int, pixels []byte) (backend.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return nil, err
	}
	t, err := d.newTextureLocked(width, height, pixels, "sprite_texture")
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) newTextureLocked(width, height int, pixels []byte, label string) (*Texture, error) {
	if err := backend.ValidateSize(width, height, pixels); err != nil {
		return nil, err
	}
	if width > MaxTextureSize || height > MaxTextureSize {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", backend.ErrInvalidSize, width, height, MaxTextureSize)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // bounded by MaxTextureSize

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %dx%d: %w", width, height, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create texture view: %w", err)
	}

	t := &Texture{dev: d, tex: tex, view: view, width: width, height: height}
	if pixels == nil {
		pixels = make([]byte, backend.PixelBytes(width, height))
	}
	t.writeLocked(pixels)
	return t, nil
}

// Size returns the texture dimensions.
func (t *Texture) Size() (int, int) {
	return t.width, t.height
}

// Upload replaces the texture content.
func (t *Texture) Upload(pixels []byte) error {
	t.dev.mu.Lock()
	defer t.dev.mu.Unlock()
	if err := t.dev.checkLocked(); err != nil {
		return err
	}
	if t.tex == nil {
		return backend.ErrDestroyed
	}
	if err := backend.ValidateSize(t.width, t.height, pixels); err != nil {
		return err
	}
	t.writeLocked(pixels)
	return nil
}

func (t *Texture) writeLocked(pixels []byte) {
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // bounded by MaxTextureSize
	t.dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	t.usage = gputypes.TextureUsageCopyDst
}

// Download reads the texture back into dst through a staging buffer.
func (t *Texture) Download(dst []byte) error {
	t.dev.mu.Lock()
	defer t.dev.mu.Unlock()
	if err := t.dev.checkLocked(); err != nil {
		return err
	}
	if t.tex == nil {
		return backend.ErrDestroyed
	}
	if err := backend.ValidateSize(t.width, t.height, dst); err != nil {
		return err
	}
	return t.dev.readbackLocked(t, dst)
}

// readbackLocked copies t into dst. Rows are copied with a 256-byte
// aligned pitch and the padding is stripped.
func (d *Device) readbackLocked(t *Texture, dst []byte) error {
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // bounded by MaxTextureSize
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_readback"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_readback"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	t.transition(encoder, gputypes.TextureUsageCopySrc)
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("wgpu: read staging buffer: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		copy(dst, readback)
		return nil
	}
	for y := uint32(0); y < h; y++ {
		copy(dst[y*bytesPerRow:(y+1)*bytesPerRow], readback[y*alignedBytesPerRow:])
	}
	return nil
}

// transition records a barrier moving t to usage. Barriers are no-ops on
// Metal, GLES, software, and noop HAL backends.
func (t *Texture) transition(encoder hal.CommandEncoder, usage gputypes.TextureUsage) {
	if t.usage == usage {
		return
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: t.usage,
			NewUsage: usage,
		},
	}})
	t.usage = usage
}

// Destroy releases the texture. Destroy is idempotent.
func (t *Texture) Destroy() {
	t.dev.mu.Lock()
	defer t.dev.mu.Unlock()
	t.destroyLocked()
}

func (t *Texture) destroyLocked() {
	if t.tex == nil || t.dev.device == nil {
		t.tex, t.view = nil, nil
		return
	}
	t.dev.device.DestroyTextureView(t.view)
	t.dev.device.DestroyTexture(t.tex)
	t.tex, t.view = nil, nil
}

// ownLocked resolves a texture created by this device.
func (d *Device) ownLocked(t backend.Texture) (*Texture, error) {
	wt, ok := t.(*Texture)
	if !ok || wt == nil || wt.dev != d {
		return nil, backend.ErrForeignResource
	}
	if wt.tex == nil {
		return nil, backend.ErrDestroyed
	}
	return wt, nil
}
