// Package software provides the CPU drawing device.
//
// Textures are plain RGBA8 buffers in main memory and batches are
// rasterized with the same quad, sampling and blend rules the GPU device
// uses for its default program. The device is always available and is the
// last entry in the selection order.
//
// Custom programs are not supported: Capabilities().Programs is false and
// every batch is drawn with the default textured-quad program.
package software

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/raster"
)

// init registers the software device on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() backend.Device {
		return New()
	})
}

// DefaultMaxTextureSize bounds texture dimensions.
const DefaultMaxTextureSize = 16384

// Device is the CPU drawing device.
type Device struct {
	initialized bool
	log         *slog.Logger

	frames   uint64
	textures int
}

var _ backend.Device = (*Device)(nil)

// New creates an uninitialized software device.
func New() *Device {
	return &Device{log: slog.New(nopHandler{})}
}

// SetLogger sets the logger used for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.log = l
}

// Name returns the backend identifier.
func (d *Device) Name() string {
	return backend.BackendSoftware
}

// Init initializes the device.
func (d *Device) Init() error {
	d.initialized = true
	return nil
}

// Close releases the device. Textures stay readable but further device
// calls fail.
func (d *Device) Close() {
	d.initialized = false
}

// Capabilities reports the device feature set.
func (d *Device) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Hardware:       false,
		Programs:       false,
		MaxTextureSize: DefaultMaxTextureSize,
	}
}

// Frames returns the number of presented frames.
func (d *Device) Frames() uint64 {
	return d.frames
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int {
	return d.textures
}

func (d *Device) check() error {
	if !d.initialized {
		return backend.ErrNotInitialized
	}
	return nil
}

// NewTexture creates a texture, copying pixels when non-nil.
func (d *Device) NewTexture(width, height int, pixels []byte) (backend.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := backend.ValidateSize(width, height, pixels); err != nil {
		return nil, err
	}
	if width > DefaultMaxTextureSize || height > DefaultMaxTextureSize {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", backend.ErrInvalidSize, width, height, DefaultMaxTextureSize)
	}
	img := raster.NewImage(width, height)
	copy(img.Pix, pixels)
	d.textures++
	return &Texture{dev: d, img: img}, nil
}

// NewFramebuffer creates the per-size target state.
func (d *Device) NewFramebuffer(width, height int, screen bool) (backend.Framebuffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := backend.ValidateSize(width, height, nil); err != nil {
		return nil, err
	}
	return &Framebuffer{width: width, height: height, screen: screen}, nil
}

// NewProgram always fails: the CPU device runs the default program only.
func (d *Device) NewProgram(src backend.ProgramSource) (backend.Program, error) {
	return nil, fmt.Errorf("%w: %s", backend.ErrProgramsUnsupported, src.Label)
}

// Submit rasterizes the batch into its target.
func (d *Device) Submit(b *backend.Batch) error {
	if err := d.check(); err != nil {
		return err
	}
	target, err := d.own(b.Target)
	if err != nil {
		return fmt.Errorf("software: submit target: %w", err)
	}
	var src *raster.Image
	if b.Source != nil {
		s, err := d.own(b.Source)
		if err != nil {
			return fmt.Errorf("software: submit source: %w", err)
		}
		src = s.img
	}
	if b.Program != nil {
		d.log.Debug("software: program ignored, drawing with default program")
	}
	raster.DrawQuads(target.img, src, b.Vertices, b.Blend)
	return nil
}

// Clear sets every pixel of target to transparent black.
func (d *Device) Clear(target backend.Texture) error {
	if err := d.check(); err != nil {
		return err
	}
	t, err := d.own(target)
	if err != nil {
		return fmt.Errorf("software: clear: %w", err)
	}
	t.img.Clear()
	return nil
}

// Present counts the frame. The screen content stays in its texture.
func (d *Device) Present(screen backend.Texture) error {
	if err := d.check(); err != nil {
		return err
	}
	if _, err := d.own(screen); err != nil {
		return fmt.Errorf("software: present: %w", err)
	}
	d.frames++
	return nil
}

func (d *Device) own(t backend.Texture) (*Texture, error) {
	st, ok := t.(*Texture)
	if !ok || st == nil || st.dev != d {
		return nil, backend.ErrForeignResource
	}
	if st.img == nil {
		return nil, backend.ErrDestroyed
	}
	return st, nil
}

// Texture is an RGBA8 buffer in main memory.
type Texture struct {
	dev *Device
	img *raster.Image
}

// Size returns the texture dimensions.
func (t *Texture) Size() (int, int) {
	if t.img == nil {
		return 0, 0
	}
	return t.img.Width, t.img.Height
}

// Upload replaces the texture content.
func (t *Texture) Upload(pixels []byte) error {
	w, h := t.Size()
	if err := backend.ValidateSize(w, h, pixels); err != nil {
		return err
	}
	copy(t.img.Pix, pixels)
	return nil
}

// Download copies the texture content into dst.
func (t *Texture) Download(dst []byte) error {
	w, h := t.Size()
	if err := backend.ValidateSize(w, h, dst); err != nil {
		return err
	}
	copy(dst, t.img.Pix)
	return nil
}

// Destroy releases the buffer. Destroy is idempotent.
func (t *Texture) Destroy() {
	if t.img == nil {
		return
	}
	t.img = nil
	t.dev.textures--
}

// Framebuffer is the per-size target state. The CPU device needs no
// projection storage, so it only records its size.
type Framebuffer struct {
	width, height int
	screen        bool
}

// Size returns the target size.
func (f *Framebuffer) Size() (int, int) { return f.width, f.height }

// Screen reports whether the framebuffer targets the window.
func (f *Framebuffer) Screen() bool { return f.screen }

// Destroy is a no-op.
func (f *Framebuffer) Destroy() {}
