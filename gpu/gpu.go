//go:build !nogpu

// Package gpu registers the GPU drawing device.
//
// Import this package to make the "wgpu" backend available to renderer
// selection. If the GPU cannot be opened (no Vulkan adapter), selection
// silently falls back to the software device.
//
// Usage:
//
//	import _ "github.com/gogpu/sprite/gpu" // enable GPU rendering
package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/backend/wgpu"
)

var (
	providerMu sync.Mutex
	provider   gpucontext.DeviceProvider
)

func init() {
	backend.Register(backend.BackendWGPU, newDevice)
}

func newDevice() backend.Device {
	providerMu.Lock()
	p := provider
	providerMu.Unlock()
	if p != nil {
		if dev, queue, err := halFromProvider(p); err == nil {
			return wgpu.NewWithHAL(dev, queue)
		}
	}
	return wgpu.New()
}

// SetDeviceProvider makes devices created after the call share the GPU
// device of an external provider (e.g., gogpu) instead of opening their
// own. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. A nil provider restores the default.
func SetDeviceProvider(p gpucontext.DeviceProvider) error {
	if p != nil {
		if _, _, err := halFromProvider(p); err != nil {
			return err
		}
	}
	providerMu.Lock()
	provider = p
	providerMu.Unlock()
	return nil
}

func halFromProvider(p any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}
