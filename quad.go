package sprite

import (
	"math"

	"github.com/gogpu/sprite/backend"
)

// quadVertices returns the four corners of the quad drawn for infos, in
// the order top-left, bottom-left, bottom-right, top-right.
//
// Corners are expressed relative to the pivot, scaled, rotated when the
// draw is transformed, then moved to DstPosition+Origin. Texture
// coordinates are the region corners normalized by the source size.
func quadVertices(infos DrawInfos, srcW, srcH int, srcPremultiplied bool) [4]backend.Vertex {
	w, h := float64(infos.Region.W), float64(infos.Region.H)
	ox, oy := float64(infos.Origin.X), float64(infos.Origin.Y)
	sx, sy := infos.Scale.X, infos.Scale.Y

	corners := [4][2]float64{
		{-ox * sx, -oy * sy},
		{-ox * sx, (h - oy) * sy},
		{(w - ox) * sx, (h - oy) * sy},
		{(w - ox) * sx, -oy * sy},
	}
	if infos.Transformed() {
		sin, cos := math.Sincos(infos.Rotation)
		for i, c := range corners {
			corners[i] = [2]float64{cos*c[0] + sin*c[1], -sin*c[0] + cos*c[1]}
		}
	}

	px := float64(infos.DstPosition.X) + ox
	py := float64(infos.DstPosition.Y) + oy

	u0 := float32(infos.Region.X) / float32(srcW)
	v0 := float32(infos.Region.Y) / float32(srcH)
	u1 := float32(infos.Region.X+infos.Region.W) / float32(srcW)
	v1 := float32(infos.Region.Y+infos.Region.H) / float32(srcH)
	uvs := [4][2]float32{{u0, v0}, {u0, v1}, {u1, v1}, {u1, v0}}

	color := vertexColor(infos.Color, infos.Opacity, srcPremultiplied)

	var q [4]backend.Vertex
	for i := range q {
		q[i] = backend.Vertex{
			X:     float32(px + corners[i][0]),
			Y:     float32(py + corners[i][1]),
			U:     uvs[i][0],
			V:     uvs[i][1],
			Color: color,
		}
	}
	return q
}

// vertexColor folds opacity into the modulation color. Premultiplied
// sources have their color channels scaled by the resulting alpha too.
func vertexColor(c Color, opacity uint8, srcPremultiplied bool) [4]uint8 {
	out := c.array()
	out[3] = scaleByte(c.A, opacity)
	if srcPremultiplied {
		for i := 0; i < 3; i++ {
			out[i] = scaleByte(out[i], out[3])
		}
	}
	return out
}

func scaleByte(v, by uint8) uint8 {
	return uint8(int(v) * int(by) / 255) //nolint:gosec // product/255 fits in a byte
}
