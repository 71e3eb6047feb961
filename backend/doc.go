// Package backend provides the pluggable drawing-device abstraction used
// by the sprite renderers.
//
// A Device creates RGBA8 textures, per-size framebuffers and WGSL
// programs, and executes quad batches. Batching policy, blend-mode
// resolution and CPU/GPU pixel synchronization live above it, in the
// sprite package.
//
// # Device Registration
//
// Devices are registered via init() functions and probed at runtime.
// The CPU device registers itself when imported:
//
//	import _ "github.com/gogpu/sprite/backend/software"
//
// The GPU device is enabled by importing the gpu package:
//
//	import _ "github.com/gogpu/sprite/gpu"
//
// # Device Selection
//
// Select walks the registry in priority order (wgpu, then software) and
// returns the first device whose Init succeeds:
//
//	d, err := backend.Select(backend.SelectOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
// # Available Backends
//
//   - "wgpu": GPU device on gogpu/wgpu HAL (Vulkan), WGSL programs
//   - "software": CPU device, always available
package backend
