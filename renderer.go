package sprite

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/gogpu/sprite/backend"
	_ "github.com/gogpu/sprite/backend/software" // CPU fallback is always registered
)

// Renderer draws quads from one backing store into another on a single
// backend device.
//
// All methods must be called from the goroutine that owns the renderer.
// Draw calls never fail: device errors are logged and the affected quads
// are dropped.
//
// The two implementations are BatchRenderer and ImmediateRenderer.
type Renderer interface {
	// Name identifies the renderer and its device, e.g. "batch/wgpu".
	Name() string

	// Backend returns the device name.
	Backend() string

	// NewStore returns a transparent store of the given size holding
	// premultiplied or straight pixels.
	NewStore(width, height int, premultiplied bool) (*BackingStore, error)

	// NewStoreFromPixels returns a store holding a copy of p.
	NewStoreFromPixels(p *Pixels) (*BackingStore, error)

	// NewWindowStore returns the store presented to the window.
	NewWindowStore(width, height int) (*BackingStore, error)

	// NewShader compiles a shader from WGSL stage sources. Empty sources
	// select the default stages. Compile errors produce an invalid
	// shader, never a nil one.
	NewShader(vertex, fragment string, scaling float64) *Shader

	// NewShaderByID resolves a shader through the configured ShaderSource.
	NewShaderByID(id string) *Shader

	// Draw composites infos.Region of src onto dst.
	Draw(dst, src *BackingStore, infos DrawInfos)

	// Clear sets every pixel of dst to transparent black.
	Clear(dst *BackingStore)

	// Fill paints where with c using mode.
	Fill(dst *BackingStore, c Color, where Rect, mode BlendMode)

	// Invalidate detaches s from every binding and releases its texture.
	Invalidate(s *BackingStore)

	// Present finishes outstanding work and shows the window store.
	Present(window *BackingStore) error

	// OnWindowSizeChanged records the letterboxed viewport of the window.
	OnWindowSizeChanged(viewport Rect)

	// Viewport returns the last viewport accepted by OnWindowSizeChanged.
	Viewport() Rect

	// DefaultTerminal returns the proxy that draws with the default program.
	DefaultTerminal() DrawProxy

	// Flush submits pending work.
	Flush()

	// Close releases the device. The renderer and its stores are unusable
	// afterwards.
	Close()

	// Stats returns submission counters.
	Stats() Stats

	drawQuad(dst, src *BackingStore, infos DrawInfos, sh *Shader)
	beforeRead(s *BackingStore)
	beforeUpload(s *BackingStore)
	shaderChanging(sh *Shader)
	core() *renderCore
}

// FlushReason names why pending quads were submitted.
type FlushReason string

// Flush reasons.
const (
	FlushStateChange FlushReason = "state-change"
	FlushCapacity    FlushReason = "capacity"
	FlushClear       FlushReason = "clear"
	FlushPresent     FlushReason = "present"
	FlushUniform     FlushReason = "uniform"
	FlushReadback    FlushReason = "readback"
	FlushUpload      FlushReason = "upload"
	FlushInvalidate  FlushReason = "invalidate"
	FlushExplicit    FlushReason = "explicit"
	FlushClose       FlushReason = "close"
)

// Stats counts device work issued by a renderer.
type Stats struct {
	// Submissions is the number of batches handed to the device.
	Submissions int

	// Quads is the number of quads submitted.
	Quads int

	// Dropped is the number of pending quads discarded because their
	// target was cleared or invalidated first.
	Dropped int

	// Flushes counts batch flushes by reason.
	Flushes map[FlushReason]int
}

// NewRenderer probes the registered devices and returns a renderer on the
// first one that opens.
//
// Devices are tried in priority order, GPU first. Every device that fails
// is logged at warn level. When none opens the error wraps both
// ErrNoRenderer and backend.ErrBackendNotAvailable and names every
// attempted backend.
func NewRenderer(opts ...Option) (Renderer, error) {
	o := newOptions(opts)
	sel := backend.SelectOptions{
		Only: o.backend,
		OnFailure: func(name string, err error) {
			Logger().Warn("sprite: backend unavailable, falling back", "backend", name, "err", err)
		},
	}
	if o.forceSoftware {
		sel.Skip = func(_ string, caps backend.Capabilities) bool { return caps.Hardware }
	}
	dev, err := backend.Select(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRenderer, err)
	}
	r, err := newRenderer(dev, o)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return r, nil
}

// NewRendererWithDevice returns a renderer on an initialized device.
// The renderer takes ownership of dev and closes it on Close.
func NewRendererWithDevice(dev backend.Device, opts ...Option) (Renderer, error) {
	return newRenderer(dev, newOptions(opts))
}

func newRenderer(dev backend.Device, o options) (Renderer, error) {
	var r Renderer
	if o.immediate {
		r = newImmediateRenderer(dev, o)
	} else {
		r = newBatchRenderer(dev, o)
	}
	if err := r.core().init(); err != nil {
		return nil, err
	}
	Logger().Info("sprite: renderer selected", "renderer", r.Name(),
		"hardware", dev.Capabilities().Hardware)
	return r, nil
}

// fbKey identifies a cached framebuffer.
type fbKey struct {
	width, height int
	screen        bool
}

// renderCore holds the state shared by both renderer shapes: the device,
// the framebuffer cache, the fill texture and the shader registry.
type renderCore struct {
	self Renderer
	name string
	dev  backend.Device
	kind Kind

	fbs      map[fbKey]backend.Framebuffer
	white    *BackingStore
	shaders  map[*Shader]struct{}
	source   ShaderSource
	viewport Rect

	clock func() time.Time
	start time.Time

	stats  Stats
	warned map[string]bool
	closed bool
}

func newRenderCore(self Renderer, shape string, kind Kind, dev backend.Device, o options) *renderCore {
	if !dev.Capabilities().Hardware {
		kind = KindSoftware
	}
	c := &renderCore{
		self:    self,
		name:    shape + "/" + dev.Name(),
		dev:     dev,
		kind:    kind,
		fbs:     make(map[fbKey]backend.Framebuffer),
		shaders: make(map[*Shader]struct{}),
		source:  o.shaderSource,
		clock:   o.clock,
		stats:   Stats{Flushes: make(map[FlushReason]int)},
		warned:  make(map[string]bool),
	}
	c.start = c.clock()
	return c
}

// init creates the 1x1 white texture used by fills and tracks the device
// for logger propagation.
func (c *renderCore) init() error {
	white, err := c.NewStoreFromPixels(&Pixels{Width: 1, Height: 1, Pix: []byte{255, 255, 255, 255}})
	if err != nil {
		return fmt.Errorf("sprite: create fill texture: %w", err)
	}
	if err := c.ensureTexture(white); err != nil {
		return fmt.Errorf("sprite: create fill texture: %w", err)
	}
	white.retain()
	c.white = white
	trackDevice(c.dev)
	return nil
}

func (c *renderCore) core() *renderCore { return c }

// Name returns the renderer shape and device name.
func (c *renderCore) Name() string { return c.name }

// Backend returns the device name.
func (c *renderCore) Backend() string { return c.dev.Name() }

// Kind returns the kind of store this renderer creates.
func (c *renderCore) Kind() Kind { return c.kind }

// Stats returns a snapshot of the submission counters.
func (c *renderCore) Stats() Stats {
	s := c.stats
	s.Flushes = maps.Clone(c.stats.Flushes)
	return s
}

// NewStore returns a transparent store. No device texture is created
// until the store is first drawn to or from.
func (c *renderCore) NewStore(width, height int, premultiplied bool) (*BackingStore, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if c.closed {
		return nil, ErrRendererClosed
	}
	return &BackingStore{owner: c.self, kind: c.kind, width: width, height: height, premultiplied: premultiplied}, nil
}

// NewStoreFromPixels returns a store holding a copy of p. The upload is
// deferred until the store is first used on the device.
func (c *renderCore) NewStoreFromPixels(p *Pixels) (*BackingStore, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s, err := c.NewStore(p.Width, p.Height, p.Premultiplied)
	if err != nil {
		return nil, err
	}
	s.pixels = append([]byte(nil), p.Pix...)
	s.sync = SyncNeedsUpload
	return s, nil
}

// NewWindowStore returns a store that can be presented. Window pixels
// are straight.
func (c *renderCore) NewWindowStore(width, height int) (*BackingStore, error) {
	s, err := c.NewStore(width, height, false)
	if err != nil {
		return nil, err
	}
	s.screen = true
	if err := c.ensureTexture(s); err != nil {
		return nil, err
	}
	return s, nil
}

// OnWindowSizeChanged records the viewport. Zero-area viewports are
// ignored.
func (c *renderCore) OnWindowSizeChanged(viewport Rect) {
	if viewport.Empty() {
		Logger().Warn("sprite: ignoring zero area window size", "viewport", viewport)
		return
	}
	c.viewport = viewport
}

// Viewport returns the current window viewport.
func (c *renderCore) Viewport() Rect { return c.viewport }

// DefaultTerminal returns the proxy drawing with the default program.
func (c *renderCore) DefaultTerminal() DrawProxy { return terminal{r: c.self} }

// Draw composites infos.Region of src onto dst with the default program.
func (c *renderCore) Draw(dst, src *BackingStore, infos DrawInfos) {
	c.self.drawQuad(dst, src, infos, nil)
}

// Fill draws the white texture stretched over where, tinted by col.
func (c *renderCore) Fill(dst *BackingStore, col Color, where Rect, mode BlendMode) {
	where = where.Positive()
	if where.Empty() || c.white == nil {
		return
	}
	infos := NewDrawInfos(Rect{W: 1, H: 1}, where.Min(), nil).
		WithScale(Scale{float64(where.W), float64(where.H)}).
		WithBlendMode(mode).
		WithColor(col)
	c.self.drawQuad(dst, c.white, infos, nil)
}

// terminal draws with the renderer's default program.
type terminal struct {
	r Renderer
}

func (t terminal) Draw(dst, src *Image, infos DrawInfos) {
	t.r.drawQuad(dst.store, src.store, infos, nil)
}

// accept reports whether a draw between dst and src can proceed, logging
// the reason when it cannot.
func (c *renderCore) accept(dst, src *BackingStore) bool {
	switch {
	case c.closed:
		c.warnOnce("closed", "sprite: draw on closed renderer", "renderer", c.name)
		return false
	case dst == nil || src == nil:
		return false
	case dst.released || src.released:
		Logger().Error("sprite: draw with released image")
		return false
	case dst.owner != c.self || src.owner != c.self:
		Logger().Error("sprite: draw with image of another renderer", "renderer", c.name)
		return false
	case src.screen:
		Logger().Error("sprite: window store cannot be a draw source")
		return false
	case src == dst:
		Logger().Error("sprite: source and destination are the same image")
		return false
	}
	return true
}

// acceptTarget reports whether dst can be cleared or presented.
func (c *renderCore) acceptTarget(dst *BackingStore) bool {
	switch {
	case c.closed || dst == nil || dst.released:
		return false
	case dst.owner != c.self:
		Logger().Error("sprite: image of another renderer", "renderer", c.name)
		return false
	}
	return true
}

// ensureTexture creates the device texture of s and resolves a pending
// upload.
func (c *renderCore) ensureTexture(s *BackingStore) error {
	if c.closed {
		return ErrRendererClosed
	}
	if s.tex == nil {
		var pixels []byte
		if s.sync == SyncNeedsUpload {
			pixels = s.pixels
		}
		tex, err := c.dev.NewTexture(s.width, s.height, pixels)
		if err != nil {
			return fmt.Errorf("sprite: create texture: %w", err)
		}
		s.tex = tex
		if s.sync == SyncNeedsUpload {
			s.sync = SyncClean
		}
		return nil
	}
	if s.sync == SyncNeedsUpload {
		if err := s.tex.Upload(s.pixels); err != nil {
			return fmt.Errorf("sprite: upload pixels: %w", err)
		}
		s.sync = SyncClean
	}
	return nil
}

// prepareTarget makes s renderable and marks its CPU cache stale.
func (c *renderCore) prepareTarget(s *BackingStore) error {
	if err := c.ensureTexture(s); err != nil {
		return err
	}
	if s.fb == nil {
		key := fbKey{s.width, s.height, s.screen}
		fb, ok := c.fbs[key]
		if !ok {
			var err error
			fb, err = c.dev.NewFramebuffer(s.width, s.height, s.screen)
			if err != nil {
				return fmt.Errorf("sprite: create framebuffer: %w", err)
			}
			c.fbs[key] = fb
			Logger().Debug("sprite: framebuffer cached", "size", Size{s.width, s.height}, "screen", s.screen)
		}
		s.fb = fb
	}
	s.target = true
	s.sync = SyncNeedsDownload
	return nil
}

// batch assembles a device batch. The vertices are not copied.
func (c *renderCore) batch(target, source *BackingStore, sh *Shader, state backend.BlendState,
	opacity uint8, vertices []backend.Vertex) *backend.Batch {
	b := &backend.Batch{
		Target:      target.tex,
		Framebuffer: target.fb,
		Source:      source.tex,
		Blend:       state,
		Vertices:    vertices,
		Builtins: backend.Builtins{
			InputSize:  [2]float32{float32(source.width), float32(source.height)},
			OutputSize: [2]float32{float32(target.width), float32(target.height)},
			Time:       float32(c.clock().Sub(c.start).Seconds()),
			Opacity:    float32(opacity) / 255,
		},
	}
	if sh != nil && sh.program != nil {
		b.Program = sh.program
		b.Uniforms = sh.uniformBlock()
		b.Textures = sh.textureHandles(c)
	}
	return b
}

// submit hands b to the device and updates the counters.
func (c *renderCore) submit(b *backend.Batch) error {
	if err := c.dev.Submit(b); err != nil {
		return err
	}
	c.stats.Submissions++
	c.stats.Quads += b.Quads()
	return nil
}

// clearStore clears s on the device and in its CPU cache.
func (c *renderCore) clearStore(s *BackingStore) {
	if s.tex != nil {
		if err := c.dev.Clear(s.tex); err != nil {
			Logger().Error("sprite: clear failed", "err", err)
			return
		}
	}
	clear(s.pixels)
	s.sync = SyncClean
}

// forget destroys the texture of s. Pixels that only existed on the
// device are lost; CPU pixels are re-uploaded on next use.
func (c *renderCore) forget(s *BackingStore) {
	if s.tex == nil {
		return
	}
	if !c.closed {
		s.tex.Destroy()
	}
	s.tex = nil
	s.fb = nil
	s.target = false
	switch {
	case s.sync == SyncNeedsDownload:
		s.pixels = nil
		s.sync = SyncClean
	case s.pixels != nil:
		s.sync = SyncNeedsUpload
	}
}

// closeCore releases every device resource and the device itself.
func (c *renderCore) closeCore() {
	if c.closed {
		return
	}
	for sh := range c.shaders {
		sh.destroyProgram()
	}
	clear(c.shaders)
	if c.white != nil {
		c.forget(c.white)
	}
	for key, fb := range c.fbs {
		fb.Destroy()
		delete(c.fbs, key)
	}
	c.closed = true
	untrackDevice(c.dev)
	c.dev.Close()
	Logger().Debug("sprite: renderer closed", "renderer", c.name,
		"submissions", c.stats.Submissions, "quads", c.stats.Quads)
}

// warnOnce logs msg at warn level the first time key is seen.
func (c *renderCore) warnOnce(key, msg string, args ...any) {
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	Logger().Warn(msg, args...)
}

// logFlushError reports a failed submission.
func logFlushError(r string, reason FlushReason, quads int, err error) {
	Logger().Error("sprite: batch submission failed",
		slog.String("renderer", r),
		slog.String("reason", string(reason)),
		slog.Int("quads", quads),
		slog.Any("err", err))
}
