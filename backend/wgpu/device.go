// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/sprite/backend"
)

// Device limits and timeouts.
const (
	// MaxTextureSize bounds texture dimensions.
	MaxTextureSize = 8192

	// fenceTimeout bounds every wait for GPU completion.
	fenceTimeout = 5 * time.Second

	// vertexStride is the byte size of one GPU vertex:
	// position vec2<f32>, tex_coord vec2<f32>, color vec4<f32>.
	vertexStride = 32

	// copyPitchAlignment is the required BytesPerRow alignment of
	// texture-to-buffer copies.
	copyPitchAlignment = 256
)

// errNoAdapter is returned when Vulkan reports no adapter.
var errNoAdapter = errors.New("wgpu: no GPU adapters found")

// Device is the GPU drawing device.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	ready    bool
	closed   bool

	log        *slog.Logger
	adapterTag string

	// Shared state created at init.
	builtinLayout hal.BindGroupLayout
	sampler       hal.Sampler
	white         *Texture
	defaultProg   *Program

	// Growable index buffer holding QuadIndices for indexQuads quads.
	indexBuf   hal.Buffer
	indexQuads int

	frames uint64
}

var _ backend.Device = (*Device)(nil)

// New creates a device that opens its own Vulkan adapter in Init.
func New() *Device {
	return &Device{log: slog.New(nopHandler{})}
}

// NewWithHAL creates a device on a HAL device and queue owned by the
// caller. Close releases the device resources but leaves the HAL device
// open.
func NewWithHAL(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		external: true,
		log:      slog.New(nopHandler{}),
	}
}

// SetLogger sets the logger used for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.mu.Lock()
	d.log = l
	d.mu.Unlock()
}

// Name returns the backend identifier.
func (d *Device) Name() string {
	return backend.BackendWGPU
}

// Capabilities reports the device feature set.
func (d *Device) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Hardware:       true,
		Programs:       true,
		MaxTextureSize: MaxTextureSize,
	}
}

// Frames returns the number of presented frames.
func (d *Device) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Init opens the GPU (unless a HAL device was supplied) and creates the
// shared layouts, sampler and default program.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		return nil
	}
	if d.closed {
		return backend.ErrClosed
	}
	if !d.external {
		if err := d.openVulkan(); err != nil {
			return err
		}
	}
	if err := d.createShared(); err != nil {
		d.releaseLocked()
		return fmt.Errorf("wgpu: create shared resources: %w", err)
	}
	d.ready = true
	d.log.Info("wgpu: device initialized", "adapter", d.adapterTag, "external", d.external)
	return nil
}

func (d *Device) openVulkan() error {
	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return errNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapterTag = selected.Info.Name
	return nil
}

// createShared builds everything batches have in common. Caller holds d.mu.
func (d *Device) createShared() error {
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_builtins_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("builtins layout: %w", err)
	}
	d.builtinLayout = layout

	// Nearest filtering with repeat addressing matches the CPU device.
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sprite_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	d.sampler = sampler

	white, err := d.newTextureLocked(1, 1, []byte{255, 255, 255, 255}, "sprite_white")
	if err != nil {
		return fmt.Errorf("white texture: %w", err)
	}
	d.white = white

	prog, err := d.newProgramLocked(backend.ProgramSource{
		Label: "sprite_default",
		WGSL:  backend.ComposeWGSL("", ""),
	})
	if err != nil {
		return fmt.Errorf("default program: %w", err)
	}
	d.defaultProg = prog
	return nil
}

// Close releases all device resources.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseLocked()
	d.closed = true
}

// releaseLocked destroys resources in reverse creation order.
func (d *Device) releaseLocked() {
	if d.device == nil {
		return
	}
	if d.indexBuf != nil {
		d.device.DestroyBuffer(d.indexBuf)
		d.indexBuf = nil
		d.indexQuads = 0
	}
	if d.defaultProg != nil {
		d.defaultProg.destroyLocked()
		d.defaultProg = nil
	}
	if d.white != nil {
		d.white.destroyLocked()
		d.white = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	if d.builtinLayout != nil {
		d.device.DestroyBindGroupLayout(d.builtinLayout)
		d.builtinLayout = nil
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	}
	d.device = nil
	d.queue = nil
	d.ready = false
}

func (d *Device) checkLocked() error {
	if d.closed {
		return backend.ErrClosed
	}
	if !d.ready {
		return backend.ErrNotInitialized
	}
	return nil
}

// submitAndWait submits one command buffer and blocks until the GPU is
// done with it.
func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// Present finishes the frame. Every submit already waits for completion,
// so only the frame counter advances.
func (d *Device) Present(screen backend.Texture) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkLocked(); err != nil {
		return err
	}
	if _, err := d.ownLocked(screen); err != nil {
		return fmt.Errorf("wgpu: present: %w", err)
	}
	d.frames++
	return nil
}
