package sprite

import (
	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

// ImmediateRenderer submits every draw and fill on its own.
//
// It shares quad construction and blend resolution with BatchRenderer,
// so on the same device both produce identical pixels. It is the
// fallback for hosts that cannot keep state between draws.
type ImmediateRenderer struct {
	*renderCore

	quad [4]backend.Vertex
}

func newImmediateRenderer(dev backend.Device, o options) *ImmediateRenderer {
	r := &ImmediateRenderer{}
	r.renderCore = newRenderCore(r, "immediate", KindImmediate, dev, o)
	return r
}

func (r *ImmediateRenderer) drawQuad(dst, src *BackingStore, infos DrawInfos, sh *Shader) {
	if !r.accept(dst, src) || infos.Region.Empty() {
		return
	}
	if err := r.ensureTexture(src); err != nil {
		Logger().Error("sprite: draw source unavailable", "err", err)
		return
	}
	if err := r.prepareTarget(dst); err != nil {
		Logger().Error("sprite: draw target unavailable", "err", err)
		return
	}
	state := blend.Resolve(blend.Mode(infos.BlendMode), dst.premultiplied, src.premultiplied)
	r.quad = quadVertices(infos, src.width, src.height, src.premultiplied)
	if err := r.submit(r.batch(dst, src, sh, state, infos.Opacity, r.quad[:])); err != nil {
		logFlushError(r.name, FlushExplicit, 1, err)
	}
}

// Clear clears dst.
func (r *ImmediateRenderer) Clear(dst *BackingStore) {
	if r.acceptTarget(dst) {
		r.clearStore(dst)
	}
}

// Invalidate destroys the texture of s.
func (r *ImmediateRenderer) Invalidate(s *BackingStore) {
	if s != nil && s.owner == Renderer(r) {
		r.forget(s)
	}
}

// Present shows window.
func (r *ImmediateRenderer) Present(window *BackingStore) error {
	if r.closed {
		return ErrRendererClosed
	}
	if window == nil || !window.screen || window.owner != Renderer(r) {
		return ErrNotWindow
	}
	if err := r.ensureTexture(window); err != nil {
		return err
	}
	return r.dev.Present(window.tex)
}

// Flush is a no-op: nothing is ever pending.
func (r *ImmediateRenderer) Flush() {}

// Close releases the device.
func (r *ImmediateRenderer) Close() { r.closeCore() }

func (r *ImmediateRenderer) beforeRead(*BackingStore)   {}
func (r *ImmediateRenderer) beforeUpload(*BackingStore) {}
func (r *ImmediateRenderer) shaderChanging(*Shader)     {}
