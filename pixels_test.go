package sprite

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestPixelsFromImage(t *testing.T) {
	t.Run("rgba stays premultiplied", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		img.SetRGBA(1, 0, color.RGBA{R: 64, A: 128})
		p := PixelsFromImage(img)
		if !p.Premultiplied {
			t.Error("Premultiplied = false for *image.RGBA")
		}
		if c := p.At(1, 0); c != (Color{64, 0, 0, 128}) {
			t.Errorf("At(1, 0) = %v, want {64 0 0 128}", c)
		}
	})

	t.Run("nrgba sub image", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		img.SetNRGBA(2, 3, color.NRGBA{B: 255, A: 10})
		p := PixelsFromImage(img.SubImage(image.Rect(2, 2, 4, 4)))
		if p.Premultiplied {
			t.Error("Premultiplied = true for *image.NRGBA")
		}
		if p.Width != 2 || p.Height != 2 || len(p.Pix) != 16 {
			t.Fatalf("got %dx%d with %d bytes, want 2x2", p.Width, p.Height, len(p.Pix))
		}
		if c := p.At(0, 1); c != (Color{0, 0, 255, 10}) {
			t.Errorf("At(0, 1) = %v", c)
		}
	})

	t.Run("gray converts", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 1, 1))
		img.SetGray(0, 0, color.Gray{Y: 200})
		p := PixelsFromImage(img)
		if c := p.At(0, 0); c != (Color{200, 200, 200, 255}) {
			t.Errorf("At(0, 0) = %v, want {200 200 200 255}", c)
		}
	})
}

func TestPixelsValidate(t *testing.T) {
	tests := []struct {
		name string
		p    *Pixels
		want error
	}{
		{"nil", nil, ErrInvalidPixels},
		{"zero width", &Pixels{Width: 0, Height: 1}, ErrInvalidSize},
		{"short buffer", &Pixels{Width: 2, Height: 2, Pix: make([]byte, 15)}, ErrInvalidPixels},
		{"ok", NewPixels(2, 2), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPixelsSavePNG(t *testing.T) {
	p := solidPixels(3, 2, Color{10, 20, 30, 255})
	path := filepath.Join(t.TempDir(), "out.png")
	if err := p.SavePNG(path); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Width != 3 || got.Height != 2 || got.At(2, 1) != (Color{10, 20, 30, 255}) {
		t.Errorf("decoded %dx%d %v", got.Width, got.Height, got.At(2, 1))
	}
}
