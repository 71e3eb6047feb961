package backend

// BlendFactor is a multiplier applied to a source or destination term of
// the blend equation. The equation is always addition.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

var blendFactorNames = [...]string{
	BlendZero:             "zero",
	BlendOne:              "one",
	BlendSrcColor:         "src",
	BlendOneMinusSrcColor: "one-minus-src",
	BlendDstColor:         "dst",
	BlendOneMinusDstColor: "one-minus-dst",
	BlendSrcAlpha:         "src-alpha",
	BlendOneMinusSrcAlpha: "one-minus-src-alpha",
	BlendDstAlpha:         "dst-alpha",
	BlendOneMinusDstAlpha: "one-minus-dst-alpha",
}

// String returns the WebGPU-style factor name.
func (f BlendFactor) String() string {
	if int(f) < len(blendFactorNames) {
		return blendFactorNames[f]
	}
	return "unknown"
}

// BlendState is a separate RGB/alpha blend function:
//
//	rgb = src.rgb*SrcRGB + dst.rgb*DstRGB
//	a   = src.a*SrcAlpha + dst.a*DstAlpha
type BlendState struct {
	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// BlendReplace writes the source unchanged.
var BlendReplace = BlendState{
	SrcRGB: BlendOne, DstRGB: BlendZero,
	SrcAlpha: BlendOne, DstAlpha: BlendZero,
}

// String formats the state as "(srcRGB,dstRGB|srcA,dstA)".
func (s BlendState) String() string {
	return "(" + s.SrcRGB.String() + "," + s.DstRGB.String() + "|" +
		s.SrcAlpha.String() + "," + s.DstAlpha.String() + ")"
}
