package sprite

import "fmt"

// Point is an integer position in pixels.
type Point struct {
	X, Y int
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul scales p component-wise, truncating toward zero.
func (p Point) Mul(s Scale) Point {
	return Point{int(float64(p.X) * s.X), int(float64(p.Y) * s.Y)}
}

// Size is an integer extent in pixels.
type Size struct {
	W, H int
}

// Empty reports whether s has no area.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Mul returns s scaled by an integer factor.
func (s Size) Mul(factor int) Size { return Size{s.W * factor, s.H * factor} }

// Scaled returns s scaled by f, truncating toward zero.
func (s Size) Scaled(f float64) Size {
	return Size{int(float64(s.W) * f), int(float64(s.H) * f)}
}

// String formats s as "WxH".
func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Rect is an integer rectangle. W and H may be negative before
// normalization with Positive.
type Rect struct {
	X, Y, W, H int
}

// RectFromSize returns the rectangle at the origin with size s.
func RectFromSize(s Size) Rect { return Rect{W: s.W, H: s.H} }

// RectFromCorners returns the rectangle spanning a to b.
func RectFromCorners(a, b Point) Rect {
	return Rect{X: a.X, Y: a.Y, W: b.X - a.X, H: b.Y - a.Y}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{r.X, r.Y} }

// Max returns the bottom-right corner (exclusive).
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Size returns the extent of r.
func (r Rect) Size() Size { return Size{r.W, r.H} }

// Positive returns r with negative extents flipped so that W and H are
// non-negative and the covered area is unchanged.
func (r Rect) Positive() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Intersect returns the largest rectangle contained in both r and s.
// The result is the zero Rect when they do not overlap.
func (r Rect) Intersect(s Rect) Rect {
	r, s = r.Positive(), s.Positive()
	x0, y0 := max(r.X, s.X), max(r.Y, s.Y)
	x1, y1 := min(r.X+r.W, s.X+s.W), min(r.Y+r.H, s.Y+s.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// String formats r as "(x,y WxH)".
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Scale is a per-axis scale factor. Negative components flip the axis.
type Scale struct {
	X, Y float64
}

// Uniform returns a Scale with both components set to f.
func Uniform(f float64) Scale { return Scale{f, f} }
