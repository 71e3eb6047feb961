package sprite

import "math"

// rotationEpsilon is the smallest rotation, in radians, that is not
// treated as axis-aligned.
const rotationEpsilon = 1e-3

// DrawInfos carries every argument of a draw through the proxy pipeline.
//
// DrawInfos is a value type. The With helpers return modified copies and
// never touch the receiver, so a proxy can rewrite what it forwards
// without affecting its caller.
type DrawInfos struct {
	// Region is the part of the source image to draw.
	Region Rect

	// DstPosition is where the region's top-left corner lands in the
	// destination before scaling and rotation.
	DstPosition Point

	// Origin is the pivot of scale and rotation, relative to the region.
	Origin Point

	Scale    Scale
	Rotation float64 // radians

	// Opacity multiplies the source alpha, 255 is fully opaque.
	Opacity uint8

	BlendMode BlendMode

	// Color modulates every source texel. White leaves it unchanged.
	Color Color

	// Proxy is the next pipeline step. Nil means the destination
	// renderer's default terminal.
	Proxy DrawProxy
}

// NewDrawInfos returns draw arguments with the defaults applied: scale 1,
// no rotation, full opacity, BlendBlend and a white modulation color.
func NewDrawInfos(region Rect, dst Point, proxy DrawProxy) DrawInfos {
	return DrawInfos{
		Region:      region,
		DstPosition: dst,
		Scale:       Scale{1, 1},
		Opacity:     255,
		BlendMode:   BlendBlend,
		Color:       White,
		Proxy:       proxy,
	}
}

// WithProxy returns a copy with the next step replaced.
func (d DrawInfos) WithProxy(p DrawProxy) DrawInfos {
	d.Proxy = p
	return d
}

// WithRegion returns a copy drawing region at dst.
func (d DrawInfos) WithRegion(region Rect, dst Point) DrawInfos {
	d.Region = region
	d.DstPosition = dst
	return d
}

// WithPosition returns a copy drawn at dst.
func (d DrawInfos) WithPosition(dst Point) DrawInfos {
	d.DstPosition = dst
	return d
}

// WithOpacity returns a copy with the given opacity.
func (d DrawInfos) WithOpacity(opacity uint8) DrawInfos {
	d.Opacity = opacity
	return d
}

// WithScale returns a copy with the given scale.
func (d DrawInfos) WithScale(s Scale) DrawInfos {
	d.Scale = s
	return d
}

// WithRotation returns a copy rotated by angle radians about Origin.
func (d DrawInfos) WithRotation(angle float64) DrawInfos {
	d.Rotation = angle
	return d
}

// WithOrigin returns a copy with the given pivot.
func (d DrawInfos) WithOrigin(o Point) DrawInfos {
	d.Origin = o
	return d
}

// WithBlendMode returns a copy with the given blend mode.
func (d DrawInfos) WithBlendMode(m BlendMode) DrawInfos {
	d.BlendMode = m
	return d
}

// WithColor returns a copy with the given modulation color.
func (d DrawInfos) WithColor(c Color) DrawInfos {
	d.Color = c
	return d
}

// DstRect returns the destination rectangle covered by the scaled region,
// ignoring rotation. The result always has non-negative extents.
func (d DrawInfos) DstRect() Rect {
	center := d.DstPosition.Add(d.Origin)
	toTopLeft := Point{-d.Origin.X, -d.Origin.Y}
	toBottomRight := Point{d.Region.W, d.Region.H}.Sub(d.Origin)
	return RectFromCorners(
		center.Add(toTopLeft.Mul(d.Scale)),
		center.Add(toBottomRight.Mul(d.Scale)),
	).Positive()
}

// Flipped reports whether either scale component mirrors its axis.
func (d DrawInfos) Flipped() bool {
	return d.Scale.X < 0 || d.Scale.Y < 0
}

// Transformed reports whether the quad is rotated or mirrored.
func (d DrawInfos) Transformed() bool {
	return math.Abs(d.Rotation) > rotationEpsilon || d.Flipped()
}
