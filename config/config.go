// Package config loads the optional sprite.yaml settings file and turns it
// into sprite options.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/sprite"
)

// FileName is the default settings file name.
const FileName = "sprite.yaml"

// Config represents the optional sprite.yaml configuration.
type Config struct {
	Renderer RendererConfig `yaml:"renderer"`
	Video    VideoConfig    `yaml:"video"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// RendererConfig selects the backend and the renderer shape.
type RendererConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	ForceSoftware bool   `yaml:"force_software,omitempty"`
	Immediate     bool   `yaml:"immediate,omitempty"`
	BatchSize     int    `yaml:"batch_size,omitempty"`
}

// VideoConfig contains quest size and output settings. Sizes are "WxH".
type VideoConfig struct {
	QuestSize     string `yaml:"quest_size,omitempty"`
	QuestSizeMin  string `yaml:"quest_size_min,omitempty"`
	QuestSizeMax  string `yaml:"quest_size_max,omitempty"`
	Mode          string `yaml:"mode,omitempty"`
	Shader        string `yaml:"shader,omitempty"`
	DisableWindow bool   `yaml:"disable_window,omitempty"`
}

// AssetsConfig locates images and shaders on disk.
type AssetsConfig struct {
	Images        string `yaml:"images,omitempty"`
	Shaders       string `yaml:"shaders,omitempty"`
	DecodeWorkers int    `yaml:"decode_workers,omitempty"`
}

// LoadOptional reads the file at path if present. A missing file yields
// an empty Config.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-selected settings file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes settings. name is used in error messages.
func Parse(data []byte, name string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return &cfg, nil
}

// Options converts the settings into sprite options. Relative asset
// directories are resolved against the working directory.
func (c *Config) Options() ([]sprite.Option, error) {
	var opts []sprite.Option

	r := c.Renderer
	if b := strings.TrimSpace(r.Backend); b != "" {
		opts = append(opts, sprite.WithBackend(b))
	}
	if r.ForceSoftware {
		opts = append(opts, sprite.WithForceSoftware())
	}
	if r.Immediate {
		opts = append(opts, sprite.WithImmediate())
	}
	if r.BatchSize < 0 {
		return nil, fmt.Errorf("renderer.batch_size: must not be negative, got %d", r.BatchSize)
	}
	if r.BatchSize > 0 {
		opts = append(opts, sprite.WithBatchSize(r.BatchSize))
	}

	v := c.Video
	quest := sprite.DefaultQuestSize
	if v.QuestSize != "" {
		s, err := parseSize("video.quest_size", v.QuestSize)
		if err != nil {
			return nil, err
		}
		quest = s
		opts = append(opts, sprite.WithQuestSize(s))
	}
	if v.QuestSizeMin != "" || v.QuestSizeMax != "" {
		lo, hi := quest, quest
		var err error
		if v.QuestSizeMin != "" {
			if lo, err = parseSize("video.quest_size_min", v.QuestSizeMin); err != nil {
				return nil, err
			}
		}
		if v.QuestSizeMax != "" {
			if hi, err = parseSize("video.quest_size_max", v.QuestSizeMax); err != nil {
				return nil, err
			}
		}
		opts = append(opts, sprite.WithQuestSizeRange(quest, lo, hi))
	}
	if m := strings.TrimSpace(v.Mode); m != "" {
		opts = append(opts, sprite.WithVideoMode(m))
	}
	if v.DisableWindow {
		opts = append(opts, sprite.WithDisableWindow())
	}

	a := c.Assets
	if a.Images != "" {
		opts = append(opts, sprite.WithPixelSource(sprite.FSPixelSource(os.DirFS(a.Images))))
	}
	if a.Shaders != "" {
		opts = append(opts, sprite.WithShaderSource(ShaderDir(os.DirFS(a.Shaders))))
	}
	if a.DecodeWorkers > 0 {
		opts = append(opts, sprite.WithDecodeWorkers(a.DecodeWorkers))
	}
	return opts, nil
}

func parseSize(field, s string) (sprite.Size, error) {
	size, err := sprite.ParseSize(strings.TrimSpace(s))
	if err != nil {
		return sprite.Size{}, fmt.Errorf("%s: %w", field, err)
	}
	return size, nil
}

// ShaderFile describes a shader stored as <id>.yaml next to its WGSL
// stage files.
type ShaderFile struct {
	VertexFile    string  `yaml:"vertex_file,omitempty"`
	FragmentFile  string  `yaml:"fragment_file,omitempty"`
	ScalingFactor float64 `yaml:"scaling_factor,omitempty"`
}

// ShaderDir resolves shader ids from fsys. Stage files are relative to
// the descriptor; a missing stage selects the default one.
func ShaderDir(fsys fs.FS) sprite.ShaderSource {
	return func(id string) (sprite.ShaderData, error) {
		name := id + ".yaml"
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return sprite.ShaderData{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var sf ShaderFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return sprite.ShaderData{}, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if sf.ScalingFactor < 0 {
			return sprite.ShaderData{}, fmt.Errorf("%s: scaling_factor must not be negative", name)
		}
		out := sprite.ShaderData{ScalingFactor: sf.ScalingFactor}
		dir := path.Dir(name)
		if sf.VertexFile != "" {
			src, err := fs.ReadFile(fsys, path.Join(dir, sf.VertexFile))
			if err != nil {
				return sprite.ShaderData{}, fmt.Errorf("shader %s: %w", id, err)
			}
			out.Vertex = string(src)
		}
		if sf.FragmentFile != "" {
			src, err := fs.ReadFile(fsys, path.Join(dir, sf.FragmentFile))
			if err != nil {
				return sprite.ShaderData{}, fmt.Errorf("shader %s: %w", id, err)
			}
			out.Fragment = string(src)
		}
		return out, nil
	}
}
