package sprite

import "github.com/gogpu/sprite/internal/blend"

// Color is an 8-bit RGBA color in straight (non-premultiplied) alpha.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Transparent = Color{}
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Red         = Color{255, 0, 0, 255}
	Green       = Color{0, 255, 0, 255}
	Blue        = Color{0, 0, 255, 255}
)

// RGBA returns a color from its components.
func RGBA(r, g, b, a uint8) Color { return Color{r, g, b, a} }

// Premultiply returns c with its color channels multiplied by alpha.
func (c Color) Premultiply() Color {
	return Color{
		R: blend.MulDiv255(c.R, c.A),
		G: blend.MulDiv255(c.G, c.A),
		B: blend.MulDiv255(c.B, c.A),
		A: c.A,
	}
}

// Opaque reports whether c has full alpha.
func (c Color) Opaque() bool { return c.A == 255 }

func (c Color) array() [4]uint8 { return [4]uint8{c.R, c.G, c.B, c.A} }
