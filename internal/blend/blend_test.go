package blend

import (
	"testing"

	"github.com/gogpu/sprite/backend"
)

func TestResolveTable(t *testing.T) {
	modes := []struct {
		mode Mode
		name string
	}{
		{None, "none"},
		{Blend, "blend"},
		{Add, "add"},
		{Multiply, "multiply"},
	}
	table := map[Mode]backend.BlendState{
		None:     Replace,
		Blend:    Over,
		Add:      Additive,
		Multiply: Modulate,
	}

	for _, m := range modes {
		for _, dstP := range []bool{false, true} {
			for _, srcP := range []bool{false, true} {
				want := table[m.mode]
				if !dstP && srcP && m.mode == Blend {
					want = PremultipliedOver
				}
				got := Resolve(m.mode, dstP, srcP)
				if got != want {
					t.Errorf("Resolve(%s, dst=%v, src=%v) = %v, want %v",
						m.name, dstP, srcP, got, want)
				}
			}
		}
	}
}

func TestResolveUnknownModeIsBlend(t *testing.T) {
	if got := Resolve(Mode(42), false, false); got != Over {
		t.Errorf("Resolve(42) = %v, want %v", got, Over)
	}
	if got := Resolve(Mode(42), false, true); got != PremultipliedOver {
		t.Errorf("Resolve(42, premultiplied src) = %v, want %v", got, PremultipliedOver)
	}
}

func TestApplyRGBA8(t *testing.T) {
	tests := []struct {
		name  string
		state backend.BlendState
		src   [4]uint8
		dst   [4]uint8
		want  [4]uint8
	}{
		{
			name:  "opaque red over blue",
			state: Over,
			src:   [4]uint8{255, 0, 0, 255},
			dst:   [4]uint8{0, 0, 255, 255},
			want:  [4]uint8{255, 0, 0, 255},
		},
		{
			name:  "half red over opaque blue",
			state: Over,
			src:   [4]uint8{255, 0, 0, 128},
			dst:   [4]uint8{0, 0, 255, 255},
			want:  [4]uint8{128, 0, 127, 255},
		},
		{
			name:  "transparent source keeps destination",
			state: Over,
			src:   [4]uint8{255, 255, 255, 0},
			dst:   [4]uint8{10, 20, 30, 40},
			want:  [4]uint8{10, 20, 30, 40},
		},
		{
			name:  "premultiplied over",
			state: PremultipliedOver,
			src:   [4]uint8{128, 0, 0, 128},
			dst:   [4]uint8{0, 0, 255, 255},
			want:  [4]uint8{128, 0, 127, 255},
		},
		{
			name:  "replace ignores destination",
			state: Replace,
			src:   [4]uint8{1, 2, 3, 4},
			dst:   [4]uint8{200, 200, 200, 200},
			want:  [4]uint8{1, 2, 3, 4},
		},
		{
			name:  "additive keeps destination alpha",
			state: Additive,
			src:   [4]uint8{255, 0, 0, 255},
			dst:   [4]uint8{0, 255, 0, 100},
			want:  [4]uint8{255, 255, 0, 100},
		},
		{
			name:  "additive saturates",
			state: Additive,
			src:   [4]uint8{255, 255, 255, 255},
			dst:   [4]uint8{255, 255, 255, 255},
			want:  [4]uint8{255, 255, 255, 255},
		},
		{
			name:  "modulate",
			state: Modulate,
			src:   [4]uint8{255, 0, 255, 255},
			dst:   [4]uint8{100, 100, 100, 200},
			want:  [4]uint8{100, 0, 100, 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyRGBA8(tt.state, tt.src, tt.dst)
			if got != tt.want {
				t.Errorf("ApplyRGBA8() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantize(t *testing.T) {
	got := Quantize([4]float32{-1, 0.5, 1, 2})
	want := [4]uint8{0, 128, 255, 255}
	if got != want {
		t.Errorf("Quantize() = %v, want %v", got, want)
	}
}
