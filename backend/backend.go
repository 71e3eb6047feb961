package backend

import (
	"errors"
	"fmt"
)

// Backend name constants.
const (
	// BackendWGPU is the name of the GPU device built on gogpu/wgpu.
	BackendWGPU = "wgpu"
	// BackendSoftware is the name of the CPU device.
	BackendSoftware = "software"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no requested backend could be opened.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrClosed is returned when a device is used after Close.
	ErrClosed = errors.New("backend: device closed")

	// ErrInvalidSize is returned for zero or negative texture dimensions.
	ErrInvalidSize = errors.New("backend: invalid texture size")

	// ErrPixelsSize is returned when a pixel buffer does not hold exactly
	// width*height*4 bytes.
	ErrPixelsSize = errors.New("backend: pixel buffer size mismatch")

	// ErrProgramsUnsupported is returned by NewProgram on devices whose
	// Capabilities report no program support.
	ErrProgramsUnsupported = errors.New("backend: programs not supported")

	// ErrForeignResource is returned when a batch references a texture or
	// framebuffer created by another device.
	ErrForeignResource = errors.New("backend: resource belongs to another device")

	// ErrDestroyed is returned when a destroyed texture is used.
	ErrDestroyed = errors.New("backend: texture destroyed")
)

// Capabilities describes what a device can do.
type Capabilities struct {
	// Hardware is true when textures live in GPU memory.
	Hardware bool

	// Programs is true when the device executes custom WGSL programs.
	// Devices without program support draw every batch with the
	// default textured-quad program.
	Programs bool

	// MaxTextureSize is the largest texture dimension accepted.
	MaxTextureSize int
}

// Device is the low-level drawing device a renderer sits on.
//
// A device knows nothing about batching or blend-mode policy: it creates
// textures and framebuffers and executes quad batches exactly as
// described. All methods must be called from the goroutine that owns the
// device.
type Device interface {
	// Name returns the backend identifier ("wgpu", "software").
	Name() string

	// Init acquires the underlying resources. A failing Init means the
	// backend is unavailable on this machine.
	Init() error

	// Close releases all device resources.
	Close()

	// Capabilities reports the device feature set.
	Capabilities() Capabilities

	// NewTexture creates an RGBA8 texture. A nil pixels slice creates a
	// fully transparent texture.
	NewTexture(width, height int, pixels []byte) (Texture, error)

	// NewFramebuffer creates the per-size render-target resources
	// (projection and uniform storage) for targets of the given size.
	NewFramebuffer(width, height int, screen bool) (Framebuffer, error)

	// NewProgram compiles a full WGSL module into a program.
	NewProgram(src ProgramSource) (Program, error)

	// Submit draws every quad of the batch into its target.
	Submit(b *Batch) error

	// Clear sets every pixel of target to transparent black.
	Clear(target Texture) error

	// Present finishes all outstanding work on the screen texture.
	Present(screen Texture) error
}

// Texture is an RGBA8 image owned by a device.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() (width, height int)

	// Upload replaces the full texture content.
	Upload(pixels []byte) error

	// Download reads the full texture content into dst.
	Download(dst []byte) error

	// Destroy releases the texture.
	Destroy()
}

// Framebuffer holds the size-dependent state used when a texture of the
// same size is the target of a batch.
type Framebuffer interface {
	Size() (width, height int)
	Screen() bool
	Destroy()
}

// Program is a compiled shader program.
type Program interface {
	Destroy()
}

// ProgramSource describes a program to compile.
type ProgramSource struct {
	// Label is a debug name.
	Label string

	// WGSL is the complete shader module with vs_main and fs_main entry points.
	WGSL string

	// UniformSize is the byte size of the user uniform block bound at
	// group 1 binding 0. Zero means the program has no user block.
	UniformSize int

	// TextureBindings lists the group 1 bindings of extra texture uniforms.
	TextureBindings []uint32
}

// Vertex is one corner of a quad.
type Vertex struct {
	// X, Y are in target pixel coordinates.
	X, Y float32
	// U, V are normalized texture coordinates.
	U, V float32
	// Color modulates the sampled texel (RGBA, 255 = 1.0).
	Color [4]uint8
}

// Builtins are the per-batch values exposed to every program.
type Builtins struct {
	InputSize  [2]float32
	OutputSize [2]float32
	Time       float32
	Opacity    float32
}

// Batch is a run of quads sharing target, source, program and blend state.
type Batch struct {
	Target      Texture
	Framebuffer Framebuffer
	Source      Texture

	// Program is nil for the default textured-quad program.
	Program Program

	Blend    BlendState
	Vertices []Vertex
	Builtins Builtins

	// Uniforms is the user uniform block content.
	Uniforms []byte

	// Textures are bound in the order of ProgramSource.TextureBindings.
	Textures []Texture
}

// Quads returns the number of quads in the batch.
func (b *Batch) Quads() int {
	return len(b.Vertices) / 4
}

// QuadIndexPattern is the index order of the two triangles of a quad.
var QuadIndexPattern = [6]uint16{0, 1, 2, 2, 3, 0}

// QuadIndices returns the index list for n consecutive quads.
func QuadIndices(n int) []uint16 {
	indices := make([]uint16, 0, n*6)
	for q := 0; q < n; q++ {
		base := uint16(q * 4) //nolint:gosec // quad count bounded by batch capacity
		for _, i := range QuadIndexPattern {
			indices = append(indices, base+i)
		}
	}
	return indices
}

// PixelBytes returns the byte size of a tightly packed RGBA8 image.
func PixelBytes(width, height int) int {
	return width * height * 4
}

// ValidateSize checks texture dimensions and an optional pixel buffer.
func ValidateSize(width, height int, pixels []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if pixels != nil && len(pixels) != PixelBytes(width, height) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPixelsSize, len(pixels), PixelBytes(width, height))
	}
	return nil
}
