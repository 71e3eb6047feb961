// Package sprite is a cross-backend 2D drawing and batching engine.
//
// It turns "draw this region of image A onto image B with this blend mode,
// opacity, rotation, scale and optional shader" into a short sequence of
// device submissions, and keeps CPU-side pixel caches coherent with
// device textures.
//
// # Overview
//
// Every draw flows through the same pipeline:
//
//	DrawInfos -> DrawProxy (or Chain) -> Renderer -> backend.Device
//
// A [DrawProxy] may rewrite the [DrawInfos] and forward them to the next
// proxy; the last step is a terminal, either the renderer's default
// terminal or a [Shader]. Renderers come in two shapes: [BatchRenderer]
// merges consecutive compatible quads into one submission, while
// [ImmediateRenderer] submits every quad on its own. On the same device
// both produce identical pixels.
//
// # Quick Start
//
//	r, err := sprite.NewRenderer()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	dst, _ := sprite.NewImage(r, 64, 64)
//	src, _ := sprite.NewImageFromPixels(r, pixels)
//	src.DrawAt(dst, sprite.Point{X: 8, Y: 8})
//	buf, _ := dst.PixelBuffer()
//
// # Backends
//
// Devices register themselves on import. The CPU device is always
// present; the GPU device is enabled by importing the gpu package:
//
//	import _ "github.com/gogpu/sprite/gpu"
//
// NewRenderer probes the registered devices in priority order and falls
// back to the CPU device when no GPU can be opened.
//
// # Video
//
// [Video] owns a renderer, a window store, the video modes with their
// software pixel filters, the image cache and an optional full-screen
// shader. Render draws a quest-sized image letterboxed onto the window
// store and Present hands it to the host.
//
// # Threading
//
// Renderers, images and shaders must be used from the goroutine that owns
// the renderer. The image cache and the background decoder are the only
// parts that are safe for concurrent use.
package sprite
