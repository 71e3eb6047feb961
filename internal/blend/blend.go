// Package blend resolves sprite blend modes into device blend states and
// evaluates those states on the CPU.
//
// The resolved state depends on the requested mode and on whether the
// destination and the source store premultiplied-alpha pixels. Getting
// this table wrong shows up as dark or light fringes around composited
// sprites.
package blend

import "github.com/gogpu/sprite/backend"

// Mode is a sprite blend mode.
type Mode uint8

const (
	// None replaces the destination.
	None Mode = iota
	// Blend is source-over alpha compositing.
	Blend
	// Add adds the alpha-weighted source to the destination.
	Add
	// Multiply modulates the destination color by the source color.
	Multiply
)

// Resolved blend states.
var (
	// Replace: rgb = src, a = src.
	Replace = backend.BlendReplace

	// Modulate: rgb = src*dst, a = dst.
	Modulate = backend.BlendState{
		SrcRGB: backend.BlendDstColor, DstRGB: backend.BlendZero,
		SrcAlpha: backend.BlendZero, DstAlpha: backend.BlendOne,
	}

	// Additive: rgb = src*srcA + dst, a = dst.
	Additive = backend.BlendState{
		SrcRGB: backend.BlendSrcAlpha, DstRGB: backend.BlendOne,
		SrcAlpha: backend.BlendZero, DstAlpha: backend.BlendOne,
	}

	// Over: rgb = src*srcA + dst*(1-srcA), a = srcA + dstA*(1-srcA).
	Over = backend.BlendState{
		SrcRGB: backend.BlendSrcAlpha, DstRGB: backend.BlendOneMinusSrcAlpha,
		SrcAlpha: backend.BlendOne, DstAlpha: backend.BlendOneMinusSrcAlpha,
	}

	// PremultipliedOver: rgb = src + dst*(1-srcA), a = srcA + dstA*(1-srcA).
	PremultipliedOver = backend.BlendState{
		SrcRGB: backend.BlendOne, DstRGB: backend.BlendOneMinusSrcAlpha,
		SrcAlpha: backend.BlendOne, DstAlpha: backend.BlendOneMinusSrcAlpha,
	}
)

// Resolve returns the blend state for drawing a source onto a destination.
//
// Precedence:
//  1. premultiplied destination: the mode table, BLEND is Over
//  2. straight destination, premultiplied source, BLEND: PremultipliedOver
//  3. straight to straight: the mode table, BLEND is Over
//
// Unknown modes resolve like Blend.
func Resolve(mode Mode, dstPremultiplied, srcPremultiplied bool) backend.BlendState {
	if dstPremultiplied {
		return modeTable(mode)
	}
	if srcPremultiplied && (mode == Blend || mode > Multiply) {
		return PremultipliedOver
	}
	return modeTable(mode)
}

func modeTable(mode Mode) backend.BlendState {
	switch mode {
	case None:
		return Replace
	case Multiply:
		return Modulate
	case Add:
		return Additive
	default:
		return Over
	}
}

// Apply evaluates s for one pixel. Channels are in [0,1]; the result is
// clamped to [0,1].
func Apply(s backend.BlendState, src, dst [4]float32) [4]float32 {
	var out [4]float32
	for i := 0; i < 3; i++ {
		v := src[i]*factor(s.SrcRGB, src, dst, i) + dst[i]*factor(s.DstRGB, src, dst, i)
		out[i] = clamp01(v)
	}
	a := src[3]*factor(s.SrcAlpha, src, dst, 3) + dst[3]*factor(s.DstAlpha, src, dst, 3)
	out[3] = clamp01(a)
	return out
}

// ApplyRGBA8 evaluates s on 8-bit pixels, rounding to nearest.
func ApplyRGBA8(s backend.BlendState, src, dst [4]uint8) [4]uint8 {
	var fs, fd [4]float32
	for i := range fs {
		fs[i] = float32(src[i]) / 255
		fd[i] = float32(dst[i]) / 255
	}
	return Quantize(Apply(s, fs, fd))
}

// Quantize converts [0,1] channels to bytes with round-to-nearest.
func Quantize(c [4]float32) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(clamp01(v)*255 + 0.5)
	}
	return out
}

// factor returns the multiplier of f for channel i (3 is alpha).
func factor(f backend.BlendFactor, src, dst [4]float32, i int) float32 {
	switch f {
	case backend.BlendZero:
		return 0
	case backend.BlendOne:
		return 1
	case backend.BlendSrcColor:
		return src[i]
	case backend.BlendOneMinusSrcColor:
		return 1 - src[i]
	case backend.BlendDstColor:
		return dst[i]
	case backend.BlendOneMinusDstColor:
		return 1 - dst[i]
	case backend.BlendSrcAlpha:
		return src[3]
	case backend.BlendOneMinusSrcAlpha:
		return 1 - src[3]
	case backend.BlendDstAlpha:
		return dst[3]
	case backend.BlendOneMinusDstAlpha:
		return 1 - dst[3]
	default:
		return 0
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
