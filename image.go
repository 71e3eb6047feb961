package sprite

import "fmt"

// Image is a drawable picture backed by a renderer's BackingStore.
//
// Images are drawn onto each other through the proxy pipeline. An image
// is used from the goroutine owning its renderer, and must be released
// when no longer needed.
type Image struct {
	store    *BackingStore
	released bool
}

// NewImage returns a transparent premultiplied image of the given size.
// Blank canvases are premultiplied so that drawing them again after
// compositing onto them does not apply alpha twice.
func NewImage(r Renderer, width, height int) (*Image, error) {
	return NewImageAlpha(r, width, height, true)
}

// NewImageAlpha returns a transparent image whose pixels are
// premultiplied or straight. The flag is fixed for the image's lifetime.
func NewImageAlpha(r Renderer, width, height int, premultiplied bool) (*Image, error) {
	s, err := r.NewStore(width, height, premultiplied)
	if err != nil {
		return nil, err
	}
	return imageOf(s), nil
}

// NewImageFromPixels returns an image holding a copy of p. The image is
// premultiplied when p is.
func NewImageFromPixels(r Renderer, p *Pixels) (*Image, error) {
	s, err := r.NewStoreFromPixels(p)
	if err != nil {
		return nil, err
	}
	return imageOf(s), nil
}

// NewWindowImage returns an image wrapping a new window store.
func NewWindowImage(r Renderer, width, height int) (*Image, error) {
	s, err := r.NewWindowStore(width, height)
	if err != nil {
		return nil, err
	}
	return imageOf(s), nil
}

// imageOf wraps s and takes a reference on it.
func imageOf(s *BackingStore) *Image {
	s.retain()
	return &Image{store: s}
}

// Store returns the backing store.
func (img *Image) Store() *BackingStore { return img.store }

// Renderer returns the renderer owning the image.
func (img *Image) Renderer() Renderer { return img.store.owner }

// Size returns the image size.
func (img *Image) Size() Size { return img.store.Size() }

// Bounds returns the rectangle at the origin covering the image.
func (img *Image) Bounds() Rect { return RectFromSize(img.Size()) }

// Premultiplied reports whether the pixels are premultiplied by alpha.
func (img *Image) Premultiplied() bool { return img.store.premultiplied }

func (img *Image) terminal() DrawProxy { return img.store.owner.DefaultTerminal() }

// Draw draws img onto dst through infos.Proxy, or through dst's default
// terminal when infos has no proxy.
func (img *Image) Draw(dst *Image, infos DrawInfos) {
	Forward(dst, img, infos)
}

// DrawAt draws the whole image at p with default settings.
func (img *Image) DrawAt(dst *Image, p Point) {
	img.Draw(dst, NewDrawInfos(img.Bounds(), p, nil))
}

// DrawRegion draws region of img at p with default settings.
func (img *Image) DrawRegion(dst *Image, region Rect, p Point) {
	img.Draw(dst, NewDrawInfos(region, p, nil))
}

// DrawWith draws the whole image at p through proxy.
func (img *Image) DrawWith(dst *Image, p Point, proxy DrawProxy) {
	img.Draw(dst, NewDrawInfos(img.Bounds(), p, proxy))
}

// FillWithColor blends c over the whole image.
func (img *Image) FillWithColor(c Color) {
	img.FillRectMode(c, img.Bounds(), BlendBlend)
}

// FillRect blends c over where.
func (img *Image) FillRect(c Color, where Rect) {
	img.FillRectMode(c, where, BlendBlend)
}

// FillRectMode paints c over where with the given blend mode.
func (img *Image) FillRectMode(c Color, where Rect, mode BlendMode) {
	img.store.owner.Fill(img.store, c, where, mode)
}

// Clear makes the whole image transparent.
func (img *Image) Clear() {
	img.store.owner.Clear(img.store)
}

// ClearRect makes where transparent.
func (img *Image) ClearRect(where Rect) {
	img.FillRectMode(Transparent, where, BlendNone)
}

// PixelBuffer returns a copy of the RGBA8 pixels.
func (img *Image) PixelBuffer() ([]byte, error) {
	return img.store.PixelBuffer()
}

// Pixels returns a copy of the image as a Pixels value.
func (img *Image) Pixels() (*Pixels, error) {
	buf, err := img.store.PixelBuffer()
	if err != nil {
		return nil, err
	}
	s := img.Size()
	return &Pixels{Width: s.W, Height: s.H, Pix: buf, Premultiplied: img.store.premultiplied}, nil
}

// SetPixelBuffer replaces every pixel. buf must hold width*height*4 bytes.
func (img *Image) SetPixelBuffer(buf []byte) error {
	return img.store.SetPixelBuffer(buf)
}

// IsPixelTransparent reports whether the pixel at index has zero alpha.
// It panics when index is outside [0, width*height).
func (img *Image) IsPixelTransparent(index int) bool {
	return img.store.IsPixelTransparent(index)
}

// At returns the pixel at (x, y), or Transparent outside the image.
func (img *Image) At(x, y int) Color {
	s := img.Size()
	if x < 0 || y < 0 || x >= s.W || y >= s.H {
		return Transparent
	}
	c, _ := img.store.PixelAt(y*s.W + x)
	return c
}

// ApplyPixelFilter runs f on the pixels of img and writes the result to
// dst, which must be f.ScalingFactor() times larger.
func (img *Image) ApplyPixelFilter(f PixelFilter, dst *Image) error {
	src := img.Size()
	want := src.Mul(f.ScalingFactor())
	if got := dst.Size(); got != want {
		return fmt.Errorf("%w: %s filter of %s needs %s, got %s", ErrFilterSize, f.Name(), src, want, got)
	}
	in, err := img.PixelBuffer()
	if err != nil {
		return err
	}
	out := make([]byte, want.W*want.H*4)
	f.Apply(in, out, src.W, src.H)
	return dst.SetPixelBuffer(out)
}

// Release drops the image's reference to its store. The last reference
// destroys the device texture. Releasing twice is a no-op.
func (img *Image) Release() {
	if img.released {
		return
	}
	img.released = true
	img.store.release()
}
