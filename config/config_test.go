package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gogpu/sprite"
)

func TestLoadOptionalMissing(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("LoadOptional() = %+v, want empty", cfg)
	}
}

func TestLoadOptional(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := `
renderer:
  backend: software
  batch_size: 128
video:
  quest_size: 400x240
  quest_size_min: 320x240
  quest_size_max: 480x270
  mode: scale2x
assets:
  images: data/sprites
  decode_workers: 3
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional() error = %v", err)
	}
	want := Config{
		Renderer: RendererConfig{Backend: "software", BatchSize: 128},
		Video:    VideoConfig{QuestSize: "400x240", QuestSizeMin: "320x240", QuestSizeMax: "480x270", Mode: "scale2x"},
		Assets:   AssetsConfig{Images: "data/sprites", DecodeWorkers: 3},
	}
	if *cfg != want {
		t.Errorf("LoadOptional() = %+v, want %+v", *cfg, want)
	}
}

func TestLoadOptionalInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("renderer: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadOptional(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("LoadOptional() error = %v, want parse error", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := &Config{
		Renderer: RendererConfig{ForceSoftware: true, Immediate: true},
		Video:    VideoConfig{QuestSize: "400x300", QuestSizeMin: "320x240", Mode: "nearest2x"},
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	v, err := sprite.NewVideo(opts...)
	if err != nil {
		t.Fatalf("NewVideo() error = %v", err)
	}
	defer v.Close()

	if v.QuestSize() != (sprite.Size{W: 400, H: 300}) {
		t.Errorf("QuestSize() = %v, want 400x300", v.QuestSize())
	}
	if _, lo, hi := v.QuestSizeRange(); lo != (sprite.Size{W: 320, H: 240}) || hi != (sprite.Size{W: 400, H: 300}) {
		t.Errorf("QuestSizeRange() min %v max %v", lo, hi)
	}
	if v.VideoMode() != "nearest2x" {
		t.Errorf("VideoMode() = %q, want nearest2x", v.VideoMode())
	}
	if v.RendererName() != "immediate/software" {
		t.Errorf("RendererName() = %q, want immediate/software", v.RendererName())
	}
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"quest size", Config{Video: VideoConfig{QuestSize: "big"}}, "video.quest_size"},
		{"max size", Config{Video: VideoConfig{QuestSizeMax: "1x"}}, "video.quest_size_max"},
		{"batch size", Config{Renderer: RendererConfig{BatchSize: -1}}, "renderer.batch_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Options()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Options() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestShaderDir(t *testing.T) {
	fsys := fstest.MapFS{
		"crt.yaml":        {Data: []byte("fragment_file: crt/frag.wgsl\nscaling_factor: 2\n")},
		"crt/frag.wgsl":   {Data: []byte("// fragment")},
		"plain.yaml":      {Data: []byte("{}")},
		"broken.yaml":     {Data: []byte("fragment_file: missing.wgsl")},
		"negative.yaml":   {Data: []byte("scaling_factor: -1")},
		"sub/nested.yaml": {Data: []byte("vertex_file: v.wgsl")},
		"sub/v.wgsl":      {Data: []byte("// vertex")},
	}
	src := ShaderDir(fsys)

	crt, err := src("crt")
	if err != nil {
		t.Fatalf("ShaderDir(crt) error = %v", err)
	}
	if crt.Fragment != "// fragment" || crt.Vertex != "" || crt.ScalingFactor != 2 {
		t.Errorf("ShaderDir(crt) = %+v", crt)
	}

	nested, err := src("sub/nested")
	if err != nil || nested.Vertex != "// vertex" {
		t.Errorf("ShaderDir(sub/nested) = %+v, %v", nested, err)
	}

	if plain, err := src("plain"); err != nil || plain != (sprite.ShaderData{}) {
		t.Errorf("ShaderDir(plain) = %+v, %v", plain, err)
	}
	for _, id := range []string{"broken", "negative", "absent"} {
		if _, err := src(id); err == nil {
			t.Errorf("ShaderDir(%s) error = nil", id)
		}
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err != nil {
				return
			}
			select {
			case got <- cfg:
			default:
			}
		})
	}()

	// The watcher may not be registered yet; keep writing until an event
	// arrives.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var cfg *Config
	for cfg == nil {
		select {
		case cfg = <-got:
		case <-tick.C:
			if err := os.WriteFile(path, []byte("video:\n  mode: scale2x\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o600)
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
	if cfg.Video.Mode != "scale2x" {
		t.Errorf("reloaded mode = %q, want scale2x", cfg.Video.Mode)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch() error = %v, want context.Canceled", err)
	}
}
