package sprite

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// PixelFilter is a CPU image scaler used by video modes.
type PixelFilter interface {
	Name() string

	// ScalingFactor is the output size divided by the input size.
	ScalingFactor() int

	// Apply reads a width x height RGBA8 image from src and writes the
	// scaled image to dst.
	Apply(src, dst []byte, width, height int)
}

// Scale2x doubles an image with the EPX / AdvMAME2x edge-preserving rule.
type Scale2x struct{}

// Name returns "scale2x".
func (Scale2x) Name() string { return "scale2x" }

// ScalingFactor returns 2.
func (Scale2x) ScalingFactor() int { return 2 }

// Apply implements PixelFilter.
//
// For each source pixel P with neighbours A (up), B (right), C (left) and
// D (down), the four output pixels are
//
//	1 = C==A && C!=D && A!=B ? A : P
//	2 = A==B && A!=C && B!=D ? B : P
//	3 = D==C && D!=B && C!=A ? C : P
//	4 = B==D && B!=A && D!=C ? D : P
//
// Neighbours outside the image repeat the edge.
func (Scale2x) Apply(src, dst []byte, width, height int) {
	px := func(x, y int) uint32 {
		x = min(max(x, 0), width-1)
		y = min(max(y, 0), height-1)
		i := (y*width + x) * 4
		return uint32(src[i]) | uint32(src[i+1])<<8 | uint32(src[i+2])<<16 | uint32(src[i+3])<<24
	}
	put := func(x, y int, v uint32) {
		i := (y*width*2 + x) * 4
		dst[i] = byte(v)
		dst[i+1] = byte(v >> 8)
		dst[i+2] = byte(v >> 16)
		dst[i+3] = byte(v >> 24)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := px(x, y)
			a, b, c, d := px(x, y-1), px(x+1, y), px(x-1, y), px(x, y+1)
			e1, e2, e3, e4 := p, p, p, p
			if c == a && c != d && a != b {
				e1 = a
			}
			if a == b && a != c && b != d {
				e2 = b
			}
			if d == c && d != b && c != a {
				e3 = c
			}
			if b == d && b != a && d != c {
				e4 = d
			}
			put(2*x, 2*y, e1)
			put(2*x+1, 2*y, e2)
			put(2*x, 2*y+1, e3)
			put(2*x+1, 2*y+1, e4)
		}
	}
}

// Nearest scales by an integer factor with nearest-neighbour sampling.
type Nearest struct {
	Factor int
}

// Name returns "nearest".
func (Nearest) Name() string { return "nearest" }

// ScalingFactor returns the configured factor, at least 1.
func (n Nearest) ScalingFactor() int { return max(n.Factor, 1) }

// Apply implements PixelFilter.
func (n Nearest) Apply(src, dst []byte, width, height int) {
	f := n.ScalingFactor()
	in := &image.NRGBA{Pix: src, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	out := &image.NRGBA{Pix: dst, Stride: width * f * 4, Rect: image.Rect(0, 0, width*f, height*f)}
	xdraw.NearestNeighbor.Scale(out, out.Rect, in, in.Rect, xdraw.Src, nil)
}
