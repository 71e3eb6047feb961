package blend

import "testing"

func TestMulDiv255(t *testing.T) {
	tests := []struct {
		a, b byte
		want byte
	}{
		{0, 0, 0},
		{0, 255, 0},
		{255, 255, 255},
		{255, 128, 128},
		{128, 128, 64},
		{100, 100, 39},
		{200, 200, 156},
		{1, 1, 0},
	}
	for _, tt := range tests {
		if got := MulDiv255(tt.a, tt.b); got != tt.want {
			t.Errorf("MulDiv255(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDiv255MatchesDivision(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			x := uint16(a * b)
			if got, want := div255(x), x/255; got != want {
				t.Fatalf("div255(%d) = %d, want %d", x, got, want)
			}
		}
	}
}

func TestPremultiplyRoundTrip(t *testing.T) {
	px := []byte{
		255, 0, 0, 255,
		200, 100, 50, 0,
		255, 255, 255, 128,
	}
	Premultiply(px)
	want := []byte{
		255, 0, 0, 255,
		0, 0, 0, 0,
		128, 128, 128, 128,
	}
	for i := range want {
		if px[i] != want[i] {
			t.Fatalf("Premultiply()[%d] = %d, want %d", i, px[i], want[i])
		}
	}

	Unpremultiply(px)
	want = []byte{
		255, 0, 0, 255,
		0, 0, 0, 0,
		255, 255, 255, 128,
	}
	for i := range want {
		if px[i] != want[i] {
			t.Errorf("Unpremultiply()[%d] = %d, want %d", i, px[i], want[i])
		}
	}
}
