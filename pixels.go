package sprite

import (
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/sprite/backend"
)

// Pixels is a decoded RGBA8 image: row-major, tightly packed, 4 bytes per
// pixel. It is plain data and may be passed between goroutines.
type Pixels struct {
	Width  int
	Height int
	Pix    []byte

	// Premultiplied reports whether the color channels are already
	// multiplied by alpha.
	Premultiplied bool
}

// NewPixels returns a fully transparent buffer.
func NewPixels(width, height int) *Pixels {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Pixels{
		Width:  width,
		Height: height,
		Pix:    make([]byte, backend.PixelBytes(width, height)),
	}
}

// PixelsFromImage converts any image to RGBA8.
//
// *image.RGBA keeps its premultiplied pixels; every other image is
// converted to straight alpha.
func PixelsFromImage(img image.Image) *Pixels {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		return &Pixels{
			Width:         b.Dx(),
			Height:        b.Dy(),
			Pix:           copyRows(rgba.Pix, rgba.Stride, b.Dx(), b.Dy(), rgba.PixOffset(b.Min.X, b.Min.Y)),
			Premultiplied: true,
		}
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return &Pixels{
			Width:  b.Dx(),
			Height: b.Dy(),
			Pix:    copyRows(nrgba.Pix, nrgba.Stride, b.Dx(), b.Dy(), nrgba.PixOffset(b.Min.X, b.Min.Y)),
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return &Pixels{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

func copyRows(pix []byte, stride, width, height, offset int) []byte {
	out := make([]byte, 0, backend.PixelBytes(width, height))
	for y := 0; y < height; y++ {
		start := offset + y*stride
		out = append(out, pix[start:start+width*4]...)
	}
	return out
}

// Validate checks that the buffer matches its dimensions.
func (p *Pixels) Validate() error {
	if p == nil {
		return ErrInvalidPixels
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.Width, p.Height)
	}
	if len(p.Pix) != backend.PixelBytes(p.Width, p.Height) {
		return fmt.Errorf("%w: got %d bytes for %dx%d", ErrInvalidPixels, len(p.Pix), p.Width, p.Height)
	}
	return nil
}

// Image wraps the buffer without copying. The result is an *image.RGBA
// for premultiplied buffers and an *image.NRGBA otherwise.
func (p *Pixels) Image() image.Image {
	r := image.Rect(0, 0, p.Width, p.Height)
	if p.Premultiplied {
		return &image.RGBA{Pix: p.Pix, Stride: p.Width * 4, Rect: r}
	}
	return &image.NRGBA{Pix: p.Pix, Stride: p.Width * 4, Rect: r}
}

// At returns the pixel at (x, y), or Transparent outside the buffer.
func (p *Pixels) At(x, y int) Color {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return Transparent
	}
	i := (y*p.Width + x) * 4
	return Color{p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3]}
}

// SavePNG writes the buffer to a PNG file.
func (p *Pixels) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, p.Image())
}
