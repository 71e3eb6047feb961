package sprite

import (
	"testing"
)

func TestBatchMergesSameState(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 16, 2)

	for x := 0; x < 16; x += 2 {
		src.DrawAt(dst, Point{X: x})
	}
	if got := r.(*BatchRenderer).Pending(); got != 8 {
		t.Fatalf("Pending() = %d, want 8", got)
	}
	_ = dst.At(0, 0)

	st := r.Stats()
	if st.Submissions != 1 || st.Quads != 8 {
		t.Errorf("Stats() = %+v, want 1 submission of 8 quads", st)
	}
	if st.Flushes[FlushReadback] != 1 {
		t.Errorf("Flushes[readback] = %d, want 1", st.Flushes[FlushReadback])
	}
}

func TestBatchFlushReasons(t *testing.T) {
	tests := []struct {
		name            string
		opts            []Option
		draw            func(t *testing.T, r Renderer, dst *Image)
		wantSubmissions int
		want            map[FlushReason]int
	}{
		{
			name: "state change",
			draw: func(t *testing.T, r Renderer, dst *Image) {
				a := mustPixelsImage(t, r, solidPixels(1, 1, Red))
				b := mustPixelsImage(t, r, solidPixels(1, 1, Blue))
				srcs := []*Image{a, b}
				for i := 0; i < 4; i++ {
					srcs[i%2].DrawAt(dst, Point{X: i})
				}
			},
			wantSubmissions: 4,
			want:            map[FlushReason]int{FlushStateChange: 3, FlushReadback: 1},
		},
		{
			name: "blend mode change",
			draw: func(t *testing.T, r Renderer, dst *Image) {
				a := mustPixelsImage(t, r, solidPixels(1, 1, Red))
				a.DrawAt(dst, Point{})
				a.Draw(dst, NewDrawInfos(a.Bounds(), Point{X: 1}, nil).WithBlendMode(BlendAdd))
				a.Draw(dst, NewDrawInfos(a.Bounds(), Point{X: 2}, nil).WithOpacity(10))
			},
			wantSubmissions: 3,
			want:            map[FlushReason]int{FlushStateChange: 2, FlushReadback: 1},
		},
		{
			name: "capacity",
			opts: []Option{WithBatchSize(2)},
			draw: func(t *testing.T, r Renderer, dst *Image) {
				a := mustPixelsImage(t, r, solidPixels(1, 1, Red))
				for i := 0; i < 5; i++ {
					a.DrawAt(dst, Point{X: i})
				}
			},
			wantSubmissions: 3,
			want:            map[FlushReason]int{FlushCapacity: 2, FlushReadback: 1},
		},
		{
			name: "fills share the white texture",
			draw: func(_ *testing.T, _ Renderer, dst *Image) {
				dst.FillRect(Red, Rect{0, 0, 1, 1})
				dst.FillRect(Green, Rect{1, 0, 1, 1})
				dst.FillRect(Blue, Rect{2, 0, 1, 1})
			},
			wantSubmissions: 1,
			want:            map[FlushReason]int{FlushReadback: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t, tt.opts...)
			dst := mustImage(t, r, 8, 1)
			tt.draw(t, r, dst)
			_ = dst.At(0, 0)

			st := r.Stats()
			if st.Submissions != tt.wantSubmissions {
				t.Errorf("Submissions = %d, want %d", st.Submissions, tt.wantSubmissions)
			}
			for reason, n := range tt.want {
				if st.Flushes[reason] != n {
					t.Errorf("Flushes[%s] = %d, want %d", reason, st.Flushes[reason], n)
				}
			}
		})
	}
}

func TestBatchClearDropsPending(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 4, 4)

	src.DrawAt(dst, Point{})
	src.DrawAt(dst, Point{X: 2})
	src.DrawAt(dst, Point{Y: 2})
	dst.Clear()

	st := r.Stats()
	if st.Dropped != 3 || st.Submissions != 0 {
		t.Errorf("Stats() = %+v, want 3 dropped and no submission", st)
	}
	for i := 0; i < 16; i++ {
		if !dst.IsPixelTransparent(i) {
			t.Fatalf("pixel %d not transparent after Clear", i)
		}
	}
}

func TestBatchClearOtherTargetFlushes(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	a := mustImage(t, r, 2, 2)
	b := mustImage(t, r, 2, 2)

	src.DrawAt(a, Point{})
	b.Clear()

	if got := r.Stats().Flushes[FlushClear]; got != 1 {
		t.Errorf("Flushes[clear] = %d, want 1", got)
	}
	if c := a.At(0, 0); c != Red {
		t.Errorf("At(0, 0) = %v, want %v", c, Red)
	}
}

func TestBatchUploadFlushesSampledTexture(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(1, 1, Red))
	dst := mustImage(t, r, 2, 1)

	src.DrawAt(dst, Point{})
	if err := src.SetPixelBuffer([]byte{0, 0, 255, 255}); err != nil {
		t.Fatal(err)
	}
	src.DrawAt(dst, Point{X: 1})

	if got := r.Stats().Flushes[FlushUpload]; got != 1 {
		t.Errorf("Flushes[upload] = %d, want 1", got)
	}
	if c := dst.At(0, 0); c != Red {
		t.Errorf("At(0, 0) = %v, want %v drawn before the upload", c, Red)
	}
	if c := dst.At(1, 0); c != Blue {
		t.Errorf("At(1, 0) = %v, want %v drawn after the upload", c, Blue)
	}
}

func TestBatchPresent(t *testing.T) {
	r := newTestRenderer(t)
	window, err := NewWindowImage(r, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(window.Release)
	window.FillWithColor(Green)

	if err := r.Present(window.Store()); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if got := r.Stats().Flushes[FlushPresent]; got != 1 {
		t.Errorf("Flushes[present] = %d, want 1", got)
	}
	off := mustImage(t, r, 4, 4)
	if err := r.Present(off.Store()); err == nil {
		t.Error("Present(offscreen) error = nil, want ErrNotWindow")
	}
	// Window images cannot be sampled.
	window.DrawAt(off, Point{})
	if c := off.At(0, 0); c != Transparent {
		t.Errorf("drawing from the window changed pixels: %v", c)
	}
}

func TestImmediateSubmitsEveryDraw(t *testing.T) {
	r := newTestRenderer(t, WithImmediate())
	if _, ok := r.(*ImmediateRenderer); !ok {
		t.Fatalf("NewRenderer(WithImmediate()) = %T", r)
	}
	src := mustPixelsImage(t, r, solidPixels(1, 1, Red))
	dst := mustImage(t, r, 4, 1)
	for x := 0; x < 4; x++ {
		src.DrawAt(dst, Point{X: x})
	}
	if st := r.Stats(); st.Submissions != 4 || st.Quads != 4 {
		t.Errorf("Stats() = %+v, want 4 submissions of 1 quad", st)
	}
	if r.Name() != "immediate/software" {
		t.Errorf("Name() = %q, want immediate/software", r.Name())
	}
}
