package sprite

import (
	"runtime"
	"time"
)

// Option configures NewRenderer and NewVideo.
//
// Example:
//
//	// Probe the GPU first, fall back to the CPU device
//	r, err := sprite.NewRenderer()
//
//	// CPU only, one submission per draw
//	r, err := sprite.NewRenderer(sprite.WithForceSoftware(), sprite.WithImmediate())
type Option func(*options)

// options holds the resolved configuration.
type options struct {
	forceSoftware bool
	immediate     bool
	batchSize     int
	backend       string

	questSize  Size
	questRange *questRange

	shaderSource  ShaderSource
	pixelSource   PixelSource
	presentHook   PresentHook
	disableWindow bool
	videoMode     string

	decodeWorkers int
	clock         func() time.Time
}

type questRange struct {
	normal, min, max Size
}

// DefaultQuestSize is the quest size used when none is configured.
var DefaultQuestSize = Size{W: 320, H: 240}

func defaultOptions() options {
	return options{
		batchSize:     DefaultBatchSize,
		questSize:     DefaultQuestSize,
		decodeWorkers: runtime.GOMAXPROCS(0),
		clock:         time.Now,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithForceSoftware skips every hardware device during backend probing.
func WithForceSoftware() Option {
	return func(o *options) {
		o.forceSoftware = true
	}
}

// WithImmediate selects ImmediateRenderer instead of BatchRenderer.
func WithImmediate() Option {
	return func(o *options) {
		o.immediate = true
	}
}

// WithBatchSize sets the number of quads a BatchRenderer buffers.
// Values below 1 select DefaultBatchSize.
func WithBatchSize(quads int) Option {
	return func(o *options) {
		if quads < 1 {
			quads = DefaultBatchSize
		}
		o.batchSize = quads
	}
}

// WithBackend restricts probing to one registered device name.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithQuestSize sets the wanted quest size. A quest size range set later
// may override it.
func WithQuestSize(s Size) Option {
	return func(o *options) {
		o.questSize = s
	}
}

// WithQuestSizeRange sets the normal, minimum and maximum quest sizes.
func WithQuestSizeRange(normal, minSize, maxSize Size) Option {
	return func(o *options) {
		o.questRange = &questRange{normal: normal, min: minSize, max: maxSize}
	}
}

// WithShaderSource sets the resolver used by NewShaderByID.
func WithShaderSource(src ShaderSource) Option {
	return func(o *options) {
		o.shaderSource = src
	}
}

// WithPixelSource sets where Video.LoadImage finds images.
func WithPixelSource(src PixelSource) Option {
	return func(o *options) {
		o.pixelSource = src
	}
}

// WithPresentHook sets the callback run by Video.Present after the
// renderer presented the window image.
func WithPresentHook(h PresentHook) Option {
	return func(o *options) {
		o.presentHook = h
	}
}

// WithDisableWindow makes Video render nothing. Offscreen drawing still
// works.
func WithDisableWindow() Option {
	return func(o *options) {
		o.disableWindow = true
	}
}

// WithVideoMode selects the initial video mode by name.
func WithVideoMode(name string) Option {
	return func(o *options) {
		o.videoMode = name
	}
}

// WithDecodeWorkers sets the number of goroutines decoding images in
// Video.Preload. Values below 1 select GOMAXPROCS.
func WithDecodeWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.decodeWorkers = n
	}
}

// WithClock sets the time source of the shader time built-in.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}
