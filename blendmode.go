package sprite

import (
	"fmt"
	"strings"

	"github.com/gogpu/sprite/internal/blend"
)

// BlendMode selects how a source is composited onto a destination.
type BlendMode uint8

const (
	// BlendNone replaces destination pixels with source pixels.
	BlendNone BlendMode = BlendMode(blend.None)

	// BlendBlend is alpha compositing, source over destination.
	BlendBlend BlendMode = BlendMode(blend.Blend)

	// BlendAdd adds the alpha-weighted source to the destination.
	BlendAdd BlendMode = BlendMode(blend.Add)

	// BlendMultiply multiplies destination colors by source colors.
	BlendMultiply BlendMode = BlendMode(blend.Multiply)
)

var blendModeNames = [...]string{
	BlendNone:     "none",
	BlendBlend:    "blend",
	BlendAdd:      "add",
	BlendMultiply: "multiply",
}

// String returns the lowercase mode name.
func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// ParseBlendMode parses a mode name as returned by String.
func ParseBlendMode(s string) (BlendMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range blendModeNames {
		if n == name {
			return BlendMode(i), nil //nolint:gosec // index bounded by table size
		}
	}
	return BlendBlend, fmt.Errorf("sprite: unknown blend mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	v, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
