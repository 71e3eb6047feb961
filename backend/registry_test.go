package backend

import (
	"errors"
	"strings"
	"testing"
)

// fakeDevice is a Device whose Init result is fixed.
type fakeDevice struct {
	name    string
	initErr error
	caps    Capabilities
	inited  bool
}

func (d *fakeDevice) Name() string               { return d.name }
func (d *fakeDevice) Init() error                { d.inited = d.initErr == nil; return d.initErr }
func (d *fakeDevice) Close()                     {}
func (d *fakeDevice) Capabilities() Capabilities { return d.caps }
func (d *fakeDevice) Submit(*Batch) error        { return nil }
func (d *fakeDevice) Clear(Texture) error        { return nil }
func (d *fakeDevice) Present(Texture) error      { return nil }
func (d *fakeDevice) NewProgram(ProgramSource) (Program, error) {
	return nil, nil
}
func (d *fakeDevice) NewTexture(int, int, []byte) (Texture, error) {
	return nil, nil
}
func (d *fakeDevice) NewFramebuffer(int, int, bool) (Framebuffer, error) {
	return nil, nil
}

// withRegistry swaps the global registry for the duration of a test.
func withRegistry(t *testing.T, devices map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = devices
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndGet(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	Register("test", func() Device { return &fakeDevice{name: "test"} })
	if !IsRegistered("test") {
		t.Fatal("IsRegistered(test) = false, want true")
	}
	d := Get("test")
	if d == nil || d.Name() != "test" {
		t.Errorf("Get(test) = %v, want device named test", d)
	}
	if Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}

	Unregister("test")
	if IsRegistered("test") {
		t.Error("IsRegistered(test) after Unregister = true, want false")
	}
}

func TestAvailableOrder(t *testing.T) {
	withRegistry(t, map[string]Factory{
		"zeta":          func() Device { return &fakeDevice{name: "zeta"} },
		BackendSoftware: func() Device { return &fakeDevice{name: BackendSoftware} },
		BackendWGPU:     func() Device { return &fakeDevice{name: BackendWGPU} },
		"alpha":         func() Device { return &fakeDevice{name: "alpha"} },
	})

	got := strings.Join(Available(), ",")
	want := "wgpu,software,alpha,zeta"
	if got != want {
		t.Errorf("Available() = %s, want %s", got, want)
	}
}

func TestSelectFallsBack(t *testing.T) {
	gpuErr := errors.New("no vulkan")
	withRegistry(t, map[string]Factory{
		BackendWGPU:     func() Device { return &fakeDevice{name: BackendWGPU, initErr: gpuErr} },
		BackendSoftware: func() Device { return &fakeDevice{name: BackendSoftware} },
	})

	var failed []string
	d, err := Select(SelectOptions{
		OnFailure: func(name string, err error) {
			failed = append(failed, name)
			if !errors.Is(err, gpuErr) {
				t.Errorf("OnFailure err = %v, want wrapping %v", err, gpuErr)
			}
		},
	})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if d.Name() != BackendSoftware {
		t.Errorf("Select() = %s, want %s", d.Name(), BackendSoftware)
	}
	if len(failed) != 1 || failed[0] != BackendWGPU {
		t.Errorf("failures = %v, want [wgpu]", failed)
	}
}

func TestSelectSkip(t *testing.T) {
	withRegistry(t, map[string]Factory{
		BackendWGPU:     func() Device { return &fakeDevice{name: BackendWGPU, caps: Capabilities{Hardware: true}} },
		BackendSoftware: func() Device { return &fakeDevice{name: BackendSoftware} },
	})

	d, err := Select(SelectOptions{
		Skip: func(_ string, caps Capabilities) bool { return caps.Hardware },
	})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if d.Name() != BackendSoftware {
		t.Errorf("Select() = %s, want %s", d.Name(), BackendSoftware)
	}
}

func TestSelectNothingAvailable(t *testing.T) {
	withRegistry(t, map[string]Factory{
		BackendWGPU:     func() Device { return &fakeDevice{name: BackendWGPU, initErr: errors.New("a")} },
		BackendSoftware: func() Device { return &fakeDevice{name: BackendSoftware, initErr: errors.New("b")} },
	})

	_, err := Select(SelectOptions{})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Fatalf("Select() error = %v, want ErrBackendNotAvailable", err)
	}
	for _, name := range []string{BackendWGPU, BackendSoftware} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name backend %q", err, name)
		}
	}
}

func TestSelectOnly(t *testing.T) {
	withRegistry(t, map[string]Factory{
		BackendWGPU:     func() Device { return &fakeDevice{name: BackendWGPU} },
		BackendSoftware: func() Device { return &fakeDevice{name: BackendSoftware} },
	})

	d, err := Select(SelectOptions{Only: BackendSoftware})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if d.Name() != BackendSoftware {
		t.Errorf("Select(Only=software) = %s", d.Name())
	}

	withRegistry(t, map[string]Factory{})
	if _, err := Select(SelectOptions{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Select() on empty registry error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestQuadIndices(t *testing.T) {
	got := QuadIndices(2)
	want := []uint16{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}
	if len(got) != len(want) {
		t.Fatalf("len(QuadIndices(2)) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("QuadIndices(2)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBlendStateString(t *testing.T) {
	if got := BlendReplace.String(); got != "(one,zero|one,zero)" {
		t.Errorf("BlendReplace.String() = %q", got)
	}
}
