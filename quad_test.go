package sprite

import "testing"

func TestVertexColor(t *testing.T) {
	tests := []struct {
		name    string
		c       Color
		opacity uint8
		premul  bool
		want    [4]uint8
	}{
		{"white opaque", White, 255, true, [4]uint8{255, 255, 255, 255}},
		{"straight keeps rgb", Color{200, 100, 50, 255}, 128, false, [4]uint8{200, 100, 50, 128}},
		{"premultiplied opacity", Color{200, 100, 50, 255}, 128, true, [4]uint8{100, 50, 25, 128}},
		{"premultiplied tint alpha", Color{255, 255, 255, 128}, 255, true, [4]uint8{128, 128, 128, 128}},
		{"premultiplied tint and opacity", Color{255, 0, 255, 128}, 128, true, [4]uint8{64, 0, 64, 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vertexColor(tt.c, tt.opacity, tt.premul); got != tt.want {
				t.Errorf("vertexColor(%v, %d, %v) = %v, want %v", tt.c, tt.opacity, tt.premul, got, tt.want)
			}
		})
	}
}
