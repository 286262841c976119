package dx

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/d3dcompile"
)

func newTestBackend(t *testing.T) (*Backend, *fakeDevice) {
	t.Helper()
	d := newFakeDevice()
	b := NewBackend(Config{API: backend.APID3D10, ShaderModel: "4_0", Compile: fakeCompile, Acquire: d.acquire})
	if err := b.Init(d); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return b, d
}

func triangle() *backend.Geometry {
	g := backend.NewGeometry()
	for _, p := range [][2]float32{{0, 0}, {10, 0}, {0, 10}} {
		_ = g.AddVertex(backend.Vertex{Pos: [3]float32{p[0], p[1], 0}, Color: [4]float32{1, 1, 1, 1}})
	}
	g.DeriveIndices()
	return g
}

func TestBackendInit(t *testing.T) {
	b, d := newTestBackend(t)
	if !b.IsActive() {
		t.Fatal("IsActive() = false after Init")
	}
	if b.API() != backend.APID3D10 {
		t.Errorf("API() = %v", b.API())
	}
	if live, _ := d.count("CreateBuffer"); live != 3 {
		t.Errorf("buffers = %d, want 3", live)
	}
	// Second Init is a no-op.
	if err := b.Init(d); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
	if live, _ := d.count("CreateVertexShader"); live != 1 {
		t.Errorf("vertex shaders = %d, want 1", live)
	}

	d.removed = errors.New("DXGI_ERROR_DEVICE_REMOVED")
	if b.IsActive() {
		t.Error("IsActive() = true on removed device")
	}
}

func TestBackendInitFailure(t *testing.T) {
	tests := []struct {
		name   string
		fail   string
		stage  backend.InitStage
		handle func(d *fakeDevice) any
	}{
		{"bad handle", "", backend.StageDevice, func(*fakeDevice) any { return "hwnd" }},
		{"buffers", "CreateBuffer", backend.StageBuffers, nil},
		{"shader", "CreatePixelShader", backend.StageShader, nil},
		{"layout", "CreateInputLayout", backend.StageLayout, nil},
		{"sampler", "CreateSamplerState", backend.StageSampler, nil},
		{"pipeline", "CreateBlendState", backend.StagePipeline, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDevice()
			if tt.fail != "" {
				d.fail[tt.fail] = errors.New("E_FAIL")
			}
			var h any = d
			if tt.handle != nil {
				h = tt.handle(d)
			}
			b := NewBackend(Config{API: backend.APID3D11, ShaderModel: "5_0", Compile: fakeCompile, Acquire: d.acquire})
			err := b.Init(h)
			var ie *backend.BackendInitError
			if !errors.As(err, &ie) {
				t.Fatalf("Init() error = %v, want *BackendInitError", err)
			}
			if ie.Stage != tt.stage || ie.API != backend.APID3D11 {
				t.Errorf("error = %+v, want stage %s", ie, tt.stage)
			}
			if b.IsActive() {
				t.Error("IsActive() = true after failed Init")
			}
			if live, _ := d.count("CreateBuffer"); live != 0 {
				t.Errorf("%d buffers leaked", live)
			}
		})
	}
}

func TestBackendInitCompileError(t *testing.T) {
	d := newFakeDevice()
	compile := func([]byte, string, string) ([]byte, error) {
		return nil, &d3dcompile.CompileError{EntryPoint: "vs_main", Target: "vs_4_0", HResult: 0x80004005}
	}
	b := NewBackend(Config{API: backend.APID3D10, ShaderModel: "4_0", Compile: compile, Acquire: d.acquire})
	err := b.Init(d)
	var ce *d3dcompile.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Init() error = %v, want CompileError", err)
	}
}

func TestBackendEnd(t *testing.T) {
	b, d := newTestBackend(t)

	tex, err := b.CreateTexture(2, 2, make([]byte, 16))
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}

	b.Begin()
	rs := backend.DefaultRenderState()
	rs.BlendEnable = true
	if err := b.SetRenderStates(&rs); err != nil {
		t.Fatalf("SetRenderStates() error = %v", err)
	}
	b.SetTexture(tex, nil)
	f := &backend.Frame{Geometry: triangle(), Projection: backend.Identity()}
	if err := b.End(f); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	if d.drawn != 3 {
		t.Errorf("DrawIndexed count = %d, want 3", d.drawn)
	}
	if d.topology != TopologyTriangleList {
		t.Errorf("topology = %d", d.topology)
	}
	if bs, ok := d.drawBlend.(*fakeObject); !ok || bs.kind != "CreateBlendState" {
		t.Errorf("blend at draw = %v", d.drawBlend)
	}
	if len(d.views) != 2 || d.views[0] == nil || d.views[1] != nil {
		t.Errorf("bound views = %v", d.views)
	}
	if len(d.vsViews) != 2 || d.vsViews[0] != d.views[0] {
		t.Errorf("vertex stage views = %v, want %v", d.vsViews, d.views)
	}
	if len(d.vsSamplers) != 2 || d.vsSamplers[0] == nil || d.vsSamplers[0] != d.psSamplers[0] {
		t.Errorf("vertex stage samplers = %v, pixel stage = %v", d.vsSamplers, d.psSamplers)
	}

	// The vertex buffer holds the second vertex at stride 44.
	vb := b.vb.(*fakeBuffer)
	if x := math.Float32frombits(binary.LittleEndian.Uint32(vb.data[backend.VertexStride:])); x != 10 {
		t.Errorf("vertex 1 x = %v, want 10", x)
	}
	cb := b.cb.(*fakeBuffer)
	if got := binary.LittleEndian.Uint32(cb.data[64:]); got != 1 {
		t.Errorf("hasTex = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(cb.data[68:]); got != 0 {
		t.Errorf("hasMask = %d, want 0", got)
	}

	// Host state is restored.
	for name, o := range map[string]Object{"raster": d.rs, "blend": d.bs, "depth": d.ds, "rtv": d.rtv} {
		if fo, ok := o.(*fakeObject); !ok || fo.kind != "host-"+name {
			t.Errorf("%s after End = %+v", name, o)
		}
	}
	if live, released := d.count("CreateRenderTargetView"); live != 0 || released != 1 {
		t.Errorf("render target views live=%d released=%d", live, released)
	}
}

func TestBackendEndMapFailureRestores(t *testing.T) {
	b, d := newTestBackend(t)
	b.Begin()
	d.fail["Map"] = errors.New("E_OUTOFMEMORY")
	if err := b.End(&backend.Frame{Geometry: triangle(), Projection: backend.Identity()}); err == nil {
		t.Fatal("End() error = nil")
	}
	if d.drawn != 0 {
		t.Error("draw issued after failed upload")
	}
	if fo := d.rs.(*fakeObject); fo.kind != "host-raster" {
		t.Errorf("raster after failed End = %s", fo.kind)
	}
}

func TestSetRenderStatesCaches(t *testing.T) {
	b, d := newTestBackend(t)
	rs := backend.DefaultRenderState()
	for i := 0; i < 3; i++ {
		if err := b.SetRenderStates(&rs); err != nil {
			t.Fatal(err)
		}
	}
	if live, _ := d.count("CreateBlendState"); live != 1 {
		t.Errorf("blend states = %d, want 1", live)
	}
	rs.BlendEnable = true
	_ = b.SetRenderStates(&rs)
	if live, _ := d.count("CreateBlendState"); live != 2 {
		t.Errorf("blend states = %d, want 2", live)
	}

	b.Shutdown()
	if live, _ := d.count("CreateBlendState"); live != 0 {
		t.Errorf("blend states live after Shutdown = %d", live)
	}
	if b.IsActive() {
		t.Error("IsActive() after Shutdown")
	}
	b.Shutdown()
}

func TestStateCacheEviction(t *testing.T) {
	b, d := newTestBackend(t)
	rs := backend.DefaultRenderState()
	rs.BlendEnable = true

	// Init cached the default state; add maxStateObjects+1 distinct blends.
	created := 0
	for src := gputypes.BlendFactorZero; src <= gputypes.BlendFactorOneMinusConstant; src++ {
		for dst := gputypes.BlendFactorZero; dst <= gputypes.BlendFactorOneMinusConstant; dst++ {
			if created > maxStateObjects {
				break
			}
			rs.SrcBlend, rs.DstBlend = src, dst
			if err := b.SetRenderStates(&rs); err != nil {
				t.Fatal(err)
			}
			created++
		}
	}

	live, released := d.count("CreateBlendState")
	if live != maxStateObjects || released != 2 {
		t.Errorf("blend states live=%d released=%d, want %d and 2", live, released, maxStateObjects)
	}
	if live, _ := d.count("CreateRasterizerState"); live != 1 {
		t.Errorf("rasterizer states = %d, want 1", live)
	}
}

func TestSetViewport(t *testing.T) {
	b, d := newTestBackend(t)
	b.SetViewport(backend.Viewport{X: 1, Y: 2, Width: 300, Height: 200, MaxDepth: 1})
	want := Viewport{TopLeftX: 1, TopLeftY: 2, Width: 300, Height: 200, MaxDepth: 1}
	if d.viewport != want {
		t.Errorf("viewport = %+v, want %+v", d.viewport, want)
	}
}

func TestBackBufferLockUnlock(t *testing.T) {
	b, d := newTestBackend(t)
	d.backBuffer.data = make([]byte, 4*2*4)
	d.backBuffer.data[4] = 0xAB

	bb, err := b.BackBuffer(0)
	if err != nil {
		t.Fatalf("BackBuffer() error = %v", err)
	}
	if bb.Width != 4 || bb.Height != 2 || bb.SwapColors || bb.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("back buffer = %dx%d swap=%v format=%v", bb.Width, bb.Height, bb.SwapColors, bb.Format)
	}
	if _, err := b.BackBuffer(1); !errors.Is(err, backend.ErrNoBackBuffer) {
		t.Errorf("BackBuffer(1) error = %v", err)
	}

	lr, err := b.Lock(bb)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if lr.Pitch != 16 || lr.Pixels[4] != 0xAB {
		t.Errorf("locked pitch=%d pixel=%#x", lr.Pitch, lr.Pixels[4])
	}
	if _, err := b.Lock(bb); err == nil {
		t.Error("second Lock() succeeded")
	}
	b.Unlock(bb)
	if d.unmapped == 0 {
		t.Error("Unlock did not unmap")
	}
	if _, err := b.Lock(bb); err != nil {
		t.Errorf("Lock() after Unlock error = %v", err)
	}
}

func TestCopyResourceReallocates(t *testing.T) {
	b, _ := newTestBackend(t)
	dst, err := b.CreateTexture(1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	bb, _ := b.BackBuffer(0)
	if err := b.CopyResource(dst, bb); err != nil {
		t.Fatalf("CopyResource() error = %v", err)
	}
	if dst.Width != 4 || dst.Height != 2 || dst.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("dst = %dx%d format=%v", dst.Width, dst.Height, dst.Format)
	}
	r, _ := backend.ResourceOf[*TextureResource](dst, backend.APID3D10)
	if r.Tex.Desc().Format != FormatB8G8R8A8Unorm || r.View == nil {
		t.Errorf("dst resource = %+v", r.Tex.Desc())
	}

	foreign := backend.NewTexture(nil, backend.APIOpenGL, 1, 1, gputypes.TextureFormatRGBA8Unorm, nil, nil)
	if err := b.CopyResource(dst, foreign); !errors.Is(err, backend.ErrForeignTexture) {
		t.Errorf("CopyResource(foreign) error = %v", err)
	}
}

func TestCreateTextureValidation(t *testing.T) {
	b, _ := newTestBackend(t)
	if _, err := b.CreateTexture(0, 4, nil); !errors.Is(err, backend.ErrInvalidTextureSize) {
		t.Errorf("zero width error = %v", err)
	}
	if _, err := b.CreateTexture(2, 2, make([]byte, 3)); !errors.Is(err, backend.ErrInvalidTextureSize) {
		t.Errorf("short pixels error = %v", err)
	}
}

func TestTextureReleaseGatedOnActive(t *testing.T) {
	b, d := newTestBackend(t)
	tex, _ := b.CreateTexture(1, 1, nil)
	if !tex.Release() {
		t.Fatal("Release() did not reach active backend")
	}
	if live, _ := d.count("CreateShaderResourceView"); live != 0 {
		t.Error("view not released")
	}

	tex2, _ := b.CreateTexture(1, 1, nil)
	b.Shutdown()
	if tex2.Release() {
		t.Error("Release() reached inactive backend")
	}
}

func TestCallerShader(t *testing.T) {
	b, d := newTestBackend(t)
	draw := func() {
		t.Helper()
		b.Begin()
		if err := b.End(&backend.Frame{Geometry: triangle(), Projection: backend.Identity()}); err != nil {
			t.Fatalf("End() error = %v", err)
		}
	}

	draw()
	builtinVS, builtinPS, builtinLayout := d.vs, d.ps, d.layout

	var compiled []string
	b.cfg.Compile = func(src []byte, entry, target string) ([]byte, error) {
		compiled = append(compiled, string(src)+":"+entry+"@"+target)
		return []byte(entry), nil
	}
	s, err := b.CreateShader(backend.ShaderSource{Vertex: []byte("custom")})
	if err != nil {
		t.Fatalf("CreateShader() error = %v", err)
	}
	want := []string{"custom:vs_main@vs_4_0", "custom:ps_main@ps_4_0"}
	if len(compiled) != 2 || compiled[0] != want[0] || compiled[1] != want[1] {
		t.Errorf("compiled = %v, want %v", compiled, want)
	}

	b.SetShader(s)
	draw()
	if d.vs == builtinVS || d.ps == builtinPS || d.layout == builtinLayout {
		t.Error("End drew with the built-in program after SetShader")
	}

	b.SetShader(nil)
	draw()
	if d.vs != builtinVS || d.ps != builtinPS || d.layout != builtinLayout {
		t.Error("SetShader(nil) did not restore the built-in program")
	}

	if !s.Release() {
		t.Fatal("Release() did not reach the backend")
	}
	if live, _ := d.count("CreateVertexShader"); live != 1 {
		t.Errorf("vertex shaders live after Release = %d, want 1", live)
	}
	b.SetShader(s)
	draw()
	if d.vs != builtinVS {
		t.Error("released shader was used")
	}
}

func TestCreateShaderCompileError(t *testing.T) {
	b, d := newTestBackend(t)
	b.cfg.Compile = func(_ []byte, entry, target string) ([]byte, error) {
		if entry == "ps_main" {
			return nil, &d3dcompile.CompileError{EntryPoint: entry, Target: target}
		}
		return []byte(entry), nil
	}
	_, err := b.CreateShader(backend.ShaderSource{Vertex: []byte("bad")})
	var ce *d3dcompile.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("CreateShader() error = %v, want CompileError", err)
	}
	if live, _ := d.count("CreateVertexShader"); live != 1 {
		t.Errorf("vertex shaders = %d, want only the built-in", live)
	}
}

func TestUpdateTexture(t *testing.T) {
	b, d := newTestBackend(t)
	tex, err := b.CreateTexture(2, 1, make([]byte, 8))
	if err != nil {
		t.Fatal(err)
	}
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := b.UpdateTexture(tex, pixels); err != nil {
		t.Fatalf("UpdateTexture() error = %v", err)
	}
	r, _ := backend.ResourceOf[*TextureResource](tex, backend.APID3D10)
	if got := r.Tex.(*fakeTexture).data; string(got) != string(pixels) || d.updates != 1 {
		t.Errorf("texture data = %v after %d updates", got, d.updates)
	}
	if err := b.UpdateTexture(tex, pixels[:4]); !errors.Is(err, backend.ErrInvalidTextureSize) {
		t.Errorf("UpdateTexture(short) error = %v, want ErrInvalidTextureSize", err)
	}
	tex.Release()
	if err := b.UpdateTexture(tex, pixels); !errors.Is(err, backend.ErrForeignTexture) {
		t.Errorf("UpdateTexture(released) error = %v, want ErrForeignTexture", err)
	}
}
