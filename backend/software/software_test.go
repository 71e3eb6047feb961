package software

import (
	"errors"
	"testing"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

func newDevice(t *testing.T) *Device {
	t.Helper()
	d := New()
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func solid(w, h int, c [4]uint8) []byte {
	px := make([]byte, backend.PixelBytes(w, h))
	for i := 0; i < len(px); i += 4 {
		copy(px[i:], c[:])
	}
	return px
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendSoftware) {
		t.Fatal("software device not registered")
	}
	d := backend.Get(backend.BackendSoftware)
	if d == nil || d.Name() != backend.BackendSoftware {
		t.Errorf("Get(software) = %v", d)
	}
}

func TestCapabilities(t *testing.T) {
	caps := New().Capabilities()
	if caps.Hardware || caps.Programs {
		t.Errorf("Capabilities() = %+v, want no hardware and no programs", caps)
	}
}

func TestNotInitialized(t *testing.T) {
	d := New()
	if _, err := d.NewTexture(1, 1, nil); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("NewTexture() before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestNewTextureValidation(t *testing.T) {
	d := newDevice(t)
	tests := []struct {
		name    string
		w, h    int
		pixels  []byte
		wantErr error
	}{
		{"zero width", 0, 4, nil, backend.ErrInvalidSize},
		{"negative height", 4, -1, nil, backend.ErrInvalidSize},
		{"short buffer", 2, 2, make([]byte, 15), backend.ErrPixelsSize},
		{"too large", DefaultMaxTextureSize + 1, 1, nil, backend.ErrInvalidSize},
		{"ok", 2, 2, make([]byte, 16), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.NewTexture(tt.w, tt.h, tt.pixels)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewTexture(%d, %d) error = %v, want %v", tt.w, tt.h, err, tt.wantErr)
			}
		})
	}
}

func TestUploadDownload(t *testing.T) {
	d := newDevice(t)
	tex, err := d.NewTexture(2, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := tex.Upload(in); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	in[0] = 99 // the texture must own a copy
	out := make([]byte, 8)
	if err := tex.Download(out); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if out[0] != 1 || out[7] != 8 {
		t.Errorf("Download() = %v", out)
	}
}

func TestSubmitFill(t *testing.T) {
	d := newDevice(t)
	target, _ := d.NewTexture(4, 4, nil)
	white, _ := d.NewTexture(1, 1, solid(1, 1, [4]uint8{255, 255, 255, 255}))
	fb, _ := d.NewFramebuffer(4, 4, false)

	blue := [4]uint8{0, 0, 255, 255}
	err := d.Submit(&backend.Batch{
		Target:      target,
		Framebuffer: fb,
		Source:      white,
		Blend:       blend.Over,
		Vertices: []backend.Vertex{
			{X: 0, Y: 0, Color: blue},
			{X: 0, Y: 4, V: 1, Color: blue},
			{X: 4, Y: 4, U: 1, V: 1, Color: blue},
			{X: 4, Y: 0, U: 1, Color: blue},
		},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	out := make([]byte, 64)
	_ = target.Download(out)
	for i := 0; i < len(out); i += 4 {
		if got := [4]uint8(out[i : i+4]); got != blue {
			t.Fatalf("pixel %d = %v, want %v", i/4, got, blue)
		}
	}

	if err := d.Clear(target); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	_ = target.Download(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("byte %d = %d after Clear", i, v)
		}
	}
}

func TestForeignAndDestroyed(t *testing.T) {
	a := newDevice(t)
	b := newDevice(t)
	tex, _ := b.NewTexture(1, 1, nil)

	if err := a.Clear(tex); !errors.Is(err, backend.ErrForeignResource) {
		t.Errorf("Clear(foreign) error = %v, want ErrForeignResource", err)
	}

	tex.Destroy()
	tex.Destroy()
	if got := b.LiveTextures(); got != 0 {
		t.Errorf("LiveTextures() = %d, want 0", got)
	}
	if err := b.Clear(tex); !errors.Is(err, backend.ErrDestroyed) {
		t.Errorf("Clear(destroyed) error = %v, want ErrDestroyed", err)
	}
}

func TestPresentCountsFrames(t *testing.T) {
	d := newDevice(t)
	screen, _ := d.NewTexture(2, 2, nil)
	for i := 0; i < 3; i++ {
		if err := d.Present(screen); err != nil {
			t.Fatal(err)
		}
	}
	if d.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", d.Frames())
	}
}

func TestNewProgramUnsupported(t *testing.T) {
	d := newDevice(t)
	if _, err := d.NewProgram(backend.ProgramSource{Label: "x"}); !errors.Is(err, backend.ErrProgramsUnsupported) {
		t.Errorf("NewProgram() error = %v, want ErrProgramsUnsupported", err)
	}
}
