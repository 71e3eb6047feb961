// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster draws textured, colored quads into RGBA8 pixel buffers.
//
// It is the CPU equivalent of the default textured-quad program: every quad
// is split into the triangles {0,1,2} and {2,3,0}, pixels are sampled at
// their centers, texture coordinates are interpolated barycentrically and
// the texel is fetched with nearest filtering and repeat addressing. The
// fragment color texel*vertexColor is then combined with the destination
// through a blend state.
package raster

import (
	"math"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

// Image is a tightly packed RGBA8 pixel buffer.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// NewImage allocates a transparent image.
func NewImage(width, height int) *Image {
	return &Image{
		Pix:    make([]byte, backend.PixelBytes(width, height)),
		Width:  width,
		Height: height,
	}
}

// texel returns the pixel at (x, y) with repeat addressing.
func (m *Image) texel(x, y int) [4]uint8 {
	x = wrap(x, m.Width)
	y = wrap(y, m.Height)
	i := (y*m.Width + x) * 4
	return [4]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Clear sets every pixel to transparent black.
func (m *Image) Clear() {
	clear(m.Pix)
}

// DrawQuads rasterizes quads into dst. Every four vertices form one quad.
// A nil src samples opaque white.
func DrawQuads(dst, src *Image, vertices []backend.Vertex, state backend.BlendState) {
	if dst == nil || dst.Width <= 0 || dst.Height <= 0 {
		return
	}
	if src != nil && (src.Width <= 0 || src.Height <= 0) {
		return
	}
	for q := 0; q+4 <= len(vertices); q += 4 {
		quad := vertices[q : q+4]
		p := backend.QuadIndexPattern
		drawTriangle(dst, src, quad[p[0]], quad[p[1]], quad[p[2]], state)
		drawTriangle(dst, src, quad[p[3]], quad[p[4]], quad[p[5]], state)
	}
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns reports whether a pixel center lying exactly on the edge a->b
// belongs to this triangle. An edge shared by two triangles of the same
// winding is walked in opposite directions, so exactly one of them owns it.
func owns(ax, ay, bx, by float32) bool {
	dx, dy := bx-ax, by-ay
	return dy > 0 || (dy == 0 && dx < 0)
}

func inside(w float32, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}

func drawTriangle(dst, src *Image, a, b, c backend.Vertex, state backend.BlendState) {
	area := edge(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	minX := clampInt(int(math.Floor(float64(min(a.X, b.X, c.X)))), 0, dst.Width-1)
	maxX := clampInt(int(math.Ceil(float64(max(a.X, b.X, c.X)))), 0, dst.Width-1)
	minY := clampInt(int(math.Floor(float64(min(a.Y, b.Y, c.Y)))), 0, dst.Height-1)
	maxY := clampInt(int(math.Ceil(float64(max(a.Y, b.Y, c.Y)))), 0, dst.Height-1)

	ownBC := owns(b.X, b.Y, c.X, c.Y)
	ownCA := owns(c.X, c.Y, a.X, a.Y)
	ownAB := owns(a.X, a.Y, b.X, b.Y)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.X, b.Y, c.X, c.Y, px, py)
			w1 := edge(c.X, c.Y, a.X, a.Y, px, py)
			w2 := edge(a.X, a.Y, b.X, b.Y, px, py)
			if !inside(w0, ownBC) || !inside(w1, ownCA) || !inside(w2, ownAB) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area
			shade(dst, src, x, y, l0, l1, l2, a, b, c, state)
		}
	}
}

func shade(dst, src *Image, x, y int, l0, l1, l2 float32, a, b, c backend.Vertex, state backend.BlendState) {
	texel := [4]uint8{255, 255, 255, 255}
	if src != nil {
		u := l0*a.U + l1*b.U + l2*c.U
		v := l0*a.V + l1*b.V + l2*c.V
		tx := int(math.Floor(float64(u * float32(src.Width))))
		ty := int(math.Floor(float64(v * float32(src.Height))))
		texel = src.texel(tx, ty)
	}

	var frag [4]float32
	for i := range frag {
		col := l0*float32(a.Color[i]) + l1*float32(b.Color[i]) + l2*float32(c.Color[i])
		frag[i] = float32(texel[i]) / 255 * col / 255
	}

	i := (y*dst.Width + x) * 4
	var cur [4]float32
	for k := range cur {
		cur[k] = float32(dst.Pix[i+k]) / 255
	}
	out := blend.Quantize(blend.Apply(state, frag, cur))
	copy(dst.Pix[i:i+4], out[:])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
