package sprite

import (
	"errors"
	"testing"
)

// recorder is a proxy that logs its name and forwards unchanged.
type recorder struct {
	name string
	log  *[]string
	edit func(DrawInfos) DrawInfos
}

func (p recorder) Draw(dst, src *Image, infos DrawInfos) {
	*p.log = append(*p.log, p.name)
	if p.edit != nil {
		infos = p.edit(infos)
	}
	Forward(dst, src, infos)
}

// countingTerminal draws with the default terminal and records its calls.
type countingTerminal struct {
	log   *[]string
	calls *[]DrawInfos
}

func (c countingTerminal) Draw(dst, src *Image, infos DrawInfos) {
	*c.log = append(*c.log, "terminal")
	*c.calls = append(*c.calls, infos)
	dst.terminal().Draw(dst, src, infos)
}

func TestChainOrder(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 4, 4)

	var (
		log   []string
		calls []DrawInfos
	)
	chain := MustChain(
		recorder{name: "A", log: &log},
		recorder{name: "B", log: &log},
		countingTerminal{log: &log, calls: &calls},
	)
	src.DrawWith(dst, Point{1, 1}, chain)

	want := []string{"A", "B", "terminal"}
	if len(log) != len(want) {
		t.Fatalf("call log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, log[i], want[i])
		}
	}
	if got := r.Stats().Quads; got != 0 {
		t.Errorf("quads submitted before readback = %d, want 0", got)
	}
	if c := dst.At(1, 1); c != Red {
		t.Errorf("At(1, 1) = %v, want %v", c, Red)
	}
	if got := r.Stats().Quads; got != 1 {
		t.Errorf("Stats().Quads = %d, want 1", got)
	}
}

func TestChainRewritesArguments(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 8, 8)

	var log []string
	var seen []DrawInfos
	shift := recorder{name: "shift", log: &log, edit: func(d DrawInfos) DrawInfos {
		return d.WithPosition(d.DstPosition.Add(Point{4, 4}))
	}}
	spy := ProxyFunc(func(dst, src *Image, infos DrawInfos) {
		seen = append(seen, infos)
		Forward(dst, src, infos)
	})

	infos := NewDrawInfos(src.Bounds(), Point{}, MustChain(shift, spy))
	before := infos
	src.Draw(dst, infos)

	if infos != before {
		t.Error("caller's DrawInfos changed")
	}
	if len(seen) != 1 || seen[0].DstPosition != (Point{4, 4}) {
		t.Fatalf("downstream proxy saw %+v, want position (4,4)", seen)
	}
	if c := dst.At(0, 0); c != Transparent {
		t.Errorf("At(0, 0) = %v, want transparent", c)
	}
	if c := dst.At(5, 5); c != Red {
		t.Errorf("At(5, 5) = %v, want %v", c, Red)
	}
}

func TestChainStopsWhenProxyDoesNotForward(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(2, 2, Red))
	dst := mustImage(t, r, 2, 2)

	var log []string
	swallow := ProxyFunc(func(*Image, *Image, DrawInfos) { log = append(log, "swallow") })
	src.DrawWith(dst, Point{}, MustChain(swallow, recorder{name: "never", log: &log}))

	if len(log) != 1 {
		t.Errorf("call log = %v, want [swallow]", log)
	}
	if c := dst.At(0, 0); c != Transparent {
		t.Errorf("At(0, 0) = %v, want transparent", c)
	}
}

func TestNewChainEmpty(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrEmptyChain) {
		t.Errorf("NewChain() error = %v, want ErrEmptyChain", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustChain() did not panic")
		}
	}()
	MustChain()
}

func TestChainReusable(t *testing.T) {
	r := newTestRenderer(t)
	src := mustPixelsImage(t, r, solidPixels(1, 1, Green))
	dst := mustImage(t, r, 3, 1)

	var log []string
	chain := MustChain(recorder{name: "A", log: &log})
	for x := 0; x < 3; x++ {
		src.DrawWith(dst, Point{x, 0}, chain)
	}
	if len(log) != 3 {
		t.Errorf("proxy ran %d times, want 3", len(log))
	}
	for x := 0; x < 3; x++ {
		if c := dst.At(x, 0); c != Green {
			t.Errorf("At(%d, 0) = %v, want %v", x, c, Green)
		}
	}
}
