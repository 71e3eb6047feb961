package sprite

import (
	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

// DefaultBatchSize is the number of quads a BatchRenderer buffers before
// it must flush.
const DefaultBatchSize = 64

// batchState is everything a pending quad shares with its batch.
type batchState struct {
	shader  *Shader
	texture *BackingStore
	target  *BackingStore
	blend   backend.BlendState

	// opacity feeds the shader built-ins, so it only splits batches
	// drawn with a shader.
	opacity uint8
}

// BatchRenderer merges consecutive draws that share target, source
// texture, shader and blend state into a single device submission.
//
// Pending quads are flushed on a state change, when the buffer is full,
// and before any operation that reads, overwrites or destroys something
// the batch depends on. After every public call the buffer is empty or
// holds quads of the bound state only.
type BatchRenderer struct {
	*renderCore

	state    batchState
	verts    []backend.Vertex
	capacity int
}

func newBatchRenderer(dev backend.Device, o options) *BatchRenderer {
	r := &BatchRenderer{capacity: o.batchSize}
	if r.capacity <= 0 {
		r.capacity = DefaultBatchSize
	}
	r.verts = make([]backend.Vertex, 0, r.capacity*4)
	r.renderCore = newRenderCore(r, "batch", KindBatched, dev, o)
	return r
}

// Pending returns the number of buffered quads.
func (r *BatchRenderer) Pending() int { return len(r.verts) / 4 }

func (r *BatchRenderer) drawQuad(dst, src *BackingStore, infos DrawInfos, sh *Shader) {
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

	next := batchState{
		shader:  sh,
		texture: src,
		target:  dst,
		blend:   blend.Resolve(blend.Mode(infos.BlendMode), dst.premultiplied, src.premultiplied),
	}
	if sh != nil {
		next.opacity = infos.Opacity
	}
	switch {
	case next != r.state:
		r.flush(FlushStateChange)
		r.state = next
	case len(r.verts) >= r.capacity*4:
		r.flush(FlushCapacity)
	}

	q := quadVertices(infos, src.width, src.height, src.premultiplied)
	r.verts = append(r.verts, q[:]...)
}

// flush submits the pending quads. A failed submission is logged and
// resets the bound state.
func (r *BatchRenderer) flush(reason FlushReason) {
	if len(r.verts) == 0 {
		return
	}
	st := r.state
	quads := len(r.verts) / 4
	b := r.batch(st.target, st.texture, st.shader, st.blend, st.opacity, r.verts)
	err := r.submit(b)
	r.verts = r.verts[:0]
	r.stats.Flushes[reason]++
	if err != nil {
		logFlushError(r.name, reason, quads, err)
		r.state = batchState{}
		return
	}
	Logger().Debug("sprite: flush", "reason", string(reason), "quads", quads)
}

// drop discards the pending quads.
func (r *BatchRenderer) drop() {
	r.stats.Dropped += len(r.verts) / 4
	r.verts = r.verts[:0]
}

// Clear clears dst. Pending quads targeting dst are discarded since they
// would be overwritten.
func (r *BatchRenderer) Clear(dst *BackingStore) {
	if !r.acceptTarget(dst) {
		return
	}
	if dst == r.state.target {
		r.drop()
	} else {
		r.flush(FlushClear)
	}
	r.clearStore(dst)
}

// Invalidate unbinds s and destroys its texture. Quads pending on s as a
// target are discarded; quads sampling s are flushed first.
func (r *BatchRenderer) Invalidate(s *BackingStore) {
	if s == nil || s.owner != Renderer(r) {
		return
	}
	if s == r.state.target {
		r.drop()
		r.state.target = nil
	}
	if s == r.state.texture {
		r.flush(FlushInvalidate)
		r.state.texture = nil
	}
	r.forget(s)
}

// Present flushes and shows window.
func (r *BatchRenderer) Present(window *BackingStore) error {
	if r.closed {
		return ErrRendererClosed
	}
	if window == nil || !window.screen || window.owner != Renderer(r) {
		return ErrNotWindow
	}
	r.flush(FlushPresent)
	if err := r.ensureTexture(window); err != nil {
		return err
	}
	return r.dev.Present(window.tex)
}

// Flush submits the pending quads.
func (r *BatchRenderer) Flush() { r.flush(FlushExplicit) }

// Close flushes and releases the device.
func (r *BatchRenderer) Close() {
	if r.closed {
		return
	}
	r.flush(FlushClose)
	r.state = batchState{}
	r.closeCore()
}

func (r *BatchRenderer) beforeRead(s *BackingStore) {
	if s == r.state.target {
		r.flush(FlushReadback)
	}
}

// beforeUpload detaches s when it is the bound target and flushes when
// the batch samples it.
func (r *BatchRenderer) beforeUpload(s *BackingStore) {
	if s == r.state.target {
		r.flush(FlushUpload)
		r.state.target = nil
	}
	if s == r.state.texture {
		r.flush(FlushUpload)
	}
}

func (r *BatchRenderer) shaderChanging(sh *Shader) {
	if sh != nil && sh == r.state.shader {
		r.flush(FlushUniform)
	}
}
