package sprite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/gogpu/sprite/cache"
)

// PresentHook receives the window image after every Present, together
// with the letterboxed viewport it belongs in.
type PresentHook func(screen *Image, viewport Rect)

// VideoMode is a named way of scaling the quest image to the window.
type VideoMode struct {
	Name string

	// Filter is the software scaler applied to the quest image before it
	// is drawn, nil for none.
	Filter PixelFilter

	// WindowScale multiplies the quest size to give the initial window
	// size of the mode.
	WindowScale int
}

// DefaultVideoModes returns the built-in modes. The first one is the
// default.
func DefaultVideoModes() []VideoMode {
	return []VideoMode{
		{Name: "normal", WindowScale: 2},
		{Name: "scale2x", Filter: Scale2x{}, WindowScale: 2},
		{Name: "nearest2x", Filter: Nearest{Factor: 2}, WindowScale: 2},
	}
}

// Video renders a quest-sized image into a letterboxed window image.
//
// It owns the renderer, the window image, the video modes with their
// filter images, an optional full-screen shader and the image cache.
type Video struct {
	r Renderer
	o options

	quest  Size
	wanted Size
	normal Size
	minQ   Size
	maxQ   Size

	modes []VideoMode
	mode  int

	windowSize Size
	viewport   Rect
	screen     *Image
	filtered   *Image
	shaded     *Image
	shader     *Shader

	images  *cache.Cache[string, *BackingStore]
	decoder *Decoder
	closed  bool
}

// NewVideo opens a renderer and sets up the default video mode.
func NewVideo(opts ...Option) (*Video, error) {
	r, err := NewRenderer(opts...)
	if err != nil {
		return nil, err
	}
	v, err := NewVideoWithRenderer(r, opts...)
	if err != nil {
		r.Close()
		return nil, err
	}
	return v, nil
}

// NewVideoWithRenderer sets up a video on an existing renderer. The video
// takes ownership of r and closes it on Close.
func NewVideoWithRenderer(r Renderer, opts ...Option) (*Video, error) {
	o := newOptions(opts)
	if o.questSize.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuestSize, o.questSize)
	}
	v := &Video{
		r:       r,
		o:       o,
		quest:   o.questSize,
		wanted:  o.questSize,
		normal:  o.questSize,
		minQ:    o.questSize,
		maxQ:    o.questSize,
		modes:   DefaultVideoModes(),
		mode:    -1,
		images:  cache.New[string, *BackingStore](cache.StringHasher),
		decoder: NewDecoder(o.pixelSource, o.decodeWorkers),
	}
	if qr := o.questRange; qr != nil {
		if err := v.setQuestSizeRange(qr.normal, qr.min, qr.max); err != nil {
			return nil, err
		}
	}
	mode := o.videoMode
	if mode == "" {
		mode = v.modes[0].Name
	}
	if err := v.SetVideoMode(mode); err != nil {
		return nil, err
	}
	return v, nil
}

// Renderer returns the renderer.
func (v *Video) Renderer() Renderer { return v.r }

// RendererName returns the renderer name, e.g. "batch/software".
func (v *Video) RendererName() string { return v.r.Name() }

// QuestSize returns the logical size of the quest image.
func (v *Video) QuestSize() Size { return v.quest }

// QuestSizeRange returns the normal, minimum and maximum quest sizes.
func (v *Video) QuestSizeRange() (normal, minSize, maxSize Size) {
	return v.normal, v.minQ, v.maxQ
}

// SetQuestSizeRange sets the allowed quest sizes. The quest size becomes
// the wanted size when it lies in the range, normal otherwise.
func (v *Video) SetQuestSizeRange(normal, minSize, maxSize Size) error {
	if err := v.setQuestSizeRange(normal, minSize, maxSize); err != nil {
		return err
	}
	if v.mode < 0 {
		return nil
	}
	if err := v.SetVideoMode(v.modes[v.mode].Name); err != nil {
		return err
	}
	return v.SetShader(v.shader)
}

func (v *Video) setQuestSizeRange(normal, minSize, maxSize Size) error {
	if normal.Empty() || minSize.Empty() || maxSize.Empty() ||
		normal.W < minSize.W || normal.H < minSize.H ||
		normal.W > maxSize.W || normal.H > maxSize.H {
		return fmt.Errorf("%w: range normal %s min %s max %s", ErrInvalidQuestSize, normal, minSize, maxSize)
	}
	v.normal, v.minQ, v.maxQ = normal, minSize, maxSize
	w := v.wanted
	if w.W < minSize.W || w.H < minSize.H || w.W > maxSize.W || w.H > maxSize.H {
		v.quest = normal
	} else {
		v.quest = w
	}
	return nil
}

// VideoModes returns the mode names in switching order.
func (v *Video) VideoModes() []string {
	names := make([]string, len(v.modes))
	for i, m := range v.modes {
		names[i] = m.Name
	}
	return names
}

// VideoMode returns the current mode name.
func (v *Video) VideoMode() string {
	if v.mode < 0 {
		return ""
	}
	return v.modes[v.mode].Name
}

// SetVideoMode switches to the named mode and resets the window size to
// the mode's initial size.
func (v *Video) SetVideoMode(name string) error {
	i := -1
	for j, m := range v.modes {
		if m.Name == name {
			i = j
			break
		}
	}
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownVideoMode, name)
	}
	v.mode = i
	mode := v.modes[i]
	Logger().Info("sprite: video mode", "mode", mode.Name, "quest_size", v.quest.String())
	if v.o.disableWindow {
		return nil
	}

	v.releaseImage(&v.filtered)
	if mode.Filter != nil {
		img, err := NewImage(v.r, v.quest.W*mode.Filter.ScalingFactor(), v.quest.H*mode.Filter.ScalingFactor())
		if err != nil {
			return err
		}
		img.FillWithColor(Black)
		v.filtered = img
	}
	return v.OnWindowResized(v.quest.Mul(max(mode.WindowScale, 1)))
}

// SwitchVideoMode moves to the next mode, wrapping around.
func (v *Video) SwitchVideoMode() error {
	if len(v.modes) <= 1 {
		return nil
	}
	return v.SetVideoMode(v.modes[(v.mode+1)%len(v.modes)].Name)
}

// Letterbox returns the largest rectangle with the quest aspect ratio
// centered in a window of the given size.
func (v *Video) Letterbox(window Size) Rect {
	qratio := float32(v.quest.W) / float32(v.quest.H)
	wratio := float32(window.W) / float32(window.H)
	if qratio > wratio {
		h := int(float32(window.W) / qratio)
		return Rect{X: 0, Y: (window.H - h) / 2, W: window.W, H: h}
	}
	w := int(float32(window.H) * qratio)
	return Rect{X: (window.W - w) / 2, Y: 0, W: w, H: window.H}
}

// OnWindowResized letterboxes the new window size and recreates the
// window image at the letterbox size. Zero-area sizes are ignored.
func (v *Video) OnWindowResized(window Size) error {
	if window.Empty() {
		Logger().Warn("sprite: ignoring zero area window size", "size", window.String())
		return nil
	}
	letter := v.Letterbox(window)
	if letter.Empty() {
		Logger().Warn("sprite: window too small for quest", "size", window.String())
		return nil
	}
	v.r.OnWindowSizeChanged(letter)
	screen, err := NewWindowImage(v.r, letter.W, letter.H)
	if err != nil {
		return err
	}
	v.releaseImage(&v.screen)
	v.screen = screen
	v.windowSize = window
	v.viewport = letter
	return nil
}

// WindowSize returns the current window size.
func (v *Video) WindowSize() Size { return v.windowSize }

// Viewport returns the letterboxed area of the window.
func (v *Video) Viewport() Rect { return v.viewport }

// Screen returns the window image, nil when the window is disabled.
func (v *Video) Screen() *Image { return v.screen }

// OutputToQuest converts a window position to quest coordinates.
func (v *Video) OutputToQuest(p Point) Point {
	vp := v.Letterbox(v.windowSize)
	if vp.Empty() || v.quest.Empty() {
		return Point{}
	}
	sx := float32(vp.W) / float32(v.quest.W)
	sy := float32(vp.H) / float32(v.quest.H)
	return Point{
		X: int(float32(p.X-vp.X) / sx),
		Y: int(float32(p.Y-vp.Y) / sy),
	}
}

// Shader returns the full-screen shader, or nil.
func (v *Video) Shader() *Shader { return v.shader }

// SetShader installs a full-screen shader. Nil removes it. Shaders with
// a positive scaling factor render into an intermediate image of quest
// size times the factor.
func (v *Video) SetShader(sh *Shader) error {
	v.releaseImage(&v.shaded)
	v.shader = sh
	if sh == nil {
		Logger().Info("sprite: shader", "shader", "none")
		return nil
	}
	if s := sh.ScalingFactor(); s > 0 && !v.o.disableWindow {
		img, err := NewImage(v.r, int(float64(v.quest.W)*s), int(float64(v.quest.H)*s))
		if err != nil {
			return err
		}
		v.shaded = img
	}
	Logger().Info("sprite: shader", "shader", sh.label(), "valid", sh.Valid())
	return nil
}

// Render draws quest onto the window image with the current mode and
// shader.
func (v *Video) Render(quest *Image) {
	if v.o.disableWindow || v.closed || v.screen == nil {
		return
	}
	v.matchAlpha(&v.filtered, quest.Premultiplied())
	v.matchAlpha(&v.shaded, quest.Premultiplied())

	surface := quest
	if f := v.modes[v.mode].Filter; f != nil && v.filtered != nil {
		if err := quest.ApplyPixelFilter(f, v.filtered); err != nil {
			Logger().Error("sprite: pixel filter failed", "filter", f.Name(), "err", err)
		} else {
			surface = v.filtered
		}
	}

	var proxy DrawProxy
	if v.shader != nil {
		if s := v.shader.ScalingFactor(); s > 0 && v.shaded != nil {
			v.shaded.Clear()
			v.shader.Draw(v.shaded, quest, NewDrawInfos(quest.Bounds(), Point{}, nil).WithScale(Uniform(s)))
			surface = v.shaded
		} else {
			proxy = v.shader
		}
	}

	v.screen.Clear()
	src, out := surface.Size(), v.screen.Size()
	infos := NewDrawInfos(surface.Bounds(), Point{}, proxy).
		WithScale(Scale{float64(out.W) / float64(src.W), float64(out.H) / float64(src.H)})
	surface.Draw(v.screen, infos)
}

// Present shows the window image and runs the present hook.
func (v *Video) Present() error {
	if v.o.disableWindow || v.closed || v.screen == nil {
		return nil
	}
	if err := v.r.Present(v.screen.store); err != nil {
		return fmt.Errorf("sprite: present: %w", err)
	}
	if v.o.presentHook != nil {
		v.o.presentHook(v.screen, v.viewport)
	}
	return nil
}

// LoadImage returns the named image, decoding it on first use. Images
// are cached by normalized name and share their store.
func (v *Video) LoadImage(name string) (*Image, error) {
	if v.o.pixelSource == nil {
		return nil, fmt.Errorf("%w: %s: no pixel source", ErrImageNotFound, name)
	}
	key := CacheKey(name)
	store, err := v.images.GetOrCreate(key, func() (*BackingStore, error) {
		p, err := v.o.pixelSource(key)
		if err != nil {
			return nil, notFound(key, err)
		}
		return v.cacheStore(p)
	})
	if err != nil {
		return nil, err
	}
	return imageOf(store), nil
}

// Preload decodes names in the background and caches the results.
// Stores are created on the calling goroutine.
func (v *Video) Preload(ctx context.Context, names []string) error {
	if v.o.pixelSource == nil {
		return fmt.Errorf("%w: no pixel source", ErrImageNotFound)
	}
	seen := make(map[string]bool, len(names))
	var keys []string
	for _, name := range names {
		key := CacheKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := v.images.Get(key); !ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	decoded, err := v.decoder.DecodeAll(ctx, keys)
	if err != nil {
		return notFound("", err)
	}
	for _, key := range keys {
		p := decoded[key]
		if _, err := v.images.GetOrCreate(key, func() (*BackingStore, error) { return v.cacheStore(p) }); err != nil {
			return err
		}
	}
	Logger().Debug("sprite: images preloaded", "count", len(keys))
	return nil
}

// cacheStore creates a store holding the cache's reference.
func (v *Video) cacheStore(p *Pixels) (*BackingStore, error) {
	s, err := v.r.NewStoreFromPixels(p)
	if err != nil {
		return nil, err
	}
	s.retain()
	return s, nil
}

func notFound(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrImageNotFound) {
		if name == "" {
			return fmt.Errorf("%w: %w", ErrImageNotFound, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrImageNotFound, name, err)
	}
	return err
}

// ImageCacheStats returns the image cache counters.
func (v *Video) ImageCacheStats() cache.Stats { return v.images.Stats() }

// UnloadImages drops the cache's references. Images still held by the
// caller stay valid.
func (v *Video) UnloadImages() {
	v.images.Range(func(_ string, s *BackingStore) bool {
		s.release()
		return true
	})
	v.images.Clear()
}

// Close releases every image owned by the video and closes the renderer.
func (v *Video) Close() {
	if v.closed {
		return
	}
	v.UnloadImages()
	v.releaseImage(&v.screen)
	v.releaseImage(&v.filtered)
	v.releaseImage(&v.shaded)
	v.closed = true
	v.r.Close()
}

// matchAlpha recreates *img when its alpha format differs from the quest
// image's. Filtered pixels are copied verbatim, so both must agree.
func (v *Video) matchAlpha(img **Image, premultiplied bool) {
	if *img == nil || (*img).Premultiplied() == premultiplied {
		return
	}
	size := (*img).Size()
	fresh, err := NewImageAlpha(v.r, size.W, size.H, premultiplied)
	if err != nil {
		Logger().Error("sprite: intermediate image", "size", size.String(), "err", err)
		return
	}
	v.releaseImage(img)
	*img = fresh
}

func (v *Video) releaseImage(img **Image) {
	if *img != nil {
		(*img).Release()
		*img = nil
	}
}

// ParseSize parses "WxH" with non-negative integers.
func ParseSize(s string) (Size, error) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok || hs == "" {
		return Size{}, fmt.Errorf("sprite: invalid size %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w < 0 {
		return Size{}, fmt.Errorf("sprite: invalid size %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return Size{}, fmt.Errorf("sprite: invalid size %q", s)
	}
	return Size{W: w, H: h}, nil
}
