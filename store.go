package sprite

import (
	"fmt"

	"github.com/gogpu/sprite/backend"
)

// Kind identifies which renderer shape a backing store was created for.
type Kind uint8

const (
	// KindBatched stores belong to a BatchRenderer on a GPU device.
	KindBatched Kind = iota
	// KindImmediate stores belong to an ImmediateRenderer on a GPU device.
	KindImmediate
	// KindSoftware stores live on the CPU device.
	KindSoftware
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBatched:
		return "batched"
	case KindImmediate:
		return "immediate"
	case KindSoftware:
		return "software"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// SyncState tells which copy of a store's pixels is authoritative.
type SyncState uint8

const (
	// SyncClean means the CPU cache and the device texture agree, or one
	// of them does not exist yet.
	SyncClean SyncState = iota
	// SyncNeedsUpload means the CPU cache is newer than the texture.
	SyncNeedsUpload
	// SyncNeedsDownload means the texture is newer than the CPU cache.
	SyncNeedsDownload
)

// String returns the state name.
func (s SyncState) String() string {
	switch s {
	case SyncClean:
		return "clean"
	case SyncNeedsUpload:
		return "needs-upload"
	case SyncNeedsDownload:
		return "needs-download"
	default:
		return fmt.Sprintf("SyncState(%d)", uint8(s))
	}
}

// BackingStore is the renderer-specific storage behind an Image: a device
// texture, an RGBA8 CPU cache and the flags keeping the two coherent.
//
// A store belongs to exactly one renderer and may be shared by several
// images through reference counting.
type BackingStore struct {
	owner  Renderer
	kind   Kind
	width  int
	height int

	tex backend.Texture
	fb  backend.Framebuffer

	// pixels is nil until the CPU copy is first needed.
	pixels []byte
	sync   SyncState

	target        bool
	screen        bool
	premultiplied bool

	refs     int
	released bool
}

// Renderer returns the renderer owning s.
func (s *BackingStore) Renderer() Renderer { return s.owner }

// Kind returns the store variant.
func (s *BackingStore) Kind() Kind { return s.kind }

// Size returns the store size in pixels.
func (s *BackingStore) Size() Size { return Size{s.width, s.height} }

// Sync returns the synchronization state.
func (s *BackingStore) Sync() SyncState { return s.sync }

// Premultiplied reports whether the pixels are premultiplied by alpha.
func (s *BackingStore) Premultiplied() bool { return s.premultiplied }

// IsTarget reports whether s has been rendered to.
func (s *BackingStore) IsTarget() bool { return s.target }

// IsScreen reports whether s is a window store.
func (s *BackingStore) IsScreen() bool { return s.screen }

// HasTexture reports whether s currently owns a device texture.
func (s *BackingStore) HasTexture() bool { return s.tex != nil }

// Released reports whether the last reference to s was dropped.
func (s *BackingStore) Released() bool { return s.released }

// PixelBuffer returns a copy of the pixels, reading them back from the
// device first when the texture is newer.
func (s *BackingStore) PixelBuffer() ([]byte, error) {
	if err := s.resolveDownload(); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.pixels...), nil
}

// SetPixelBuffer replaces every pixel and uploads the result. buf must
// hold exactly width*height*4 bytes.
func (s *BackingStore) SetPixelBuffer(buf []byte) error {
	if s.released {
		return ErrReleased
	}
	if want := backend.PixelBytes(s.width, s.height); len(buf) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPixels, len(buf), want)
	}
	s.owner.beforeUpload(s)
	if s.pixels == nil {
		s.pixels = make([]byte, len(buf))
	}
	copy(s.pixels, buf)
	s.sync = SyncNeedsUpload
	return s.owner.core().ensureTexture(s)
}

// IsPixelTransparent reports whether the pixel at index has zero alpha.
// Indices count pixels in row-major order. It panics when index is out
// of range.
func (s *BackingStore) IsPixelTransparent(index int) bool {
	c, ok := s.PixelAt(index)
	if !ok {
		panic(fmt.Sprintf("sprite: pixel index %d out of range [0, %d)", index, s.width*s.height))
	}
	return c.A == 0
}

// PixelAt returns the pixel at index. ok is false when the index is out
// of range or the pixels cannot be read.
func (s *BackingStore) PixelAt(index int) (c Color, ok bool) {
	if index < 0 || index >= s.width*s.height {
		return Color{}, false
	}
	if err := s.resolveDownload(); err != nil {
		Logger().Error("sprite: pixel read failed", "err", err)
		return Color{}, false
	}
	i := index * 4
	return Color{s.pixels[i], s.pixels[i+1], s.pixels[i+2], s.pixels[i+3]}, true
}

// resolveDownload brings the CPU cache up to date.
func (s *BackingStore) resolveDownload() error {
	if s.released {
		return ErrReleased
	}
	if s.pixels == nil {
		s.pixels = make([]byte, backend.PixelBytes(s.width, s.height))
	}
	if s.sync != SyncNeedsDownload || s.tex == nil {
		return nil
	}
	s.owner.beforeRead(s)
	if err := s.tex.Download(s.pixels); err != nil {
		return fmt.Errorf("sprite: read back pixels: %w", err)
	}
	s.sync = SyncClean
	return nil
}

func (s *BackingStore) retain() { s.refs++ }

// release drops one reference. The last one invalidates the store in its
// renderer, which destroys the texture.
func (s *BackingStore) release() {
	if s.released || s.refs <= 0 {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	s.owner.Invalidate(s)
	s.released = true
	s.pixels = nil
}
