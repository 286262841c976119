package imdraw

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

type fakeResource struct{ api backend.API }

func (r *fakeResource) API() backend.API { return r.api }

type recordedFrame struct {
	topology backend.Topology
	vertices []backend.Vertex
	indices  []uint16
	proj     backend.Matrix
	state    backend.RenderState
}

// fakeBackend records every call the Renderer makes.
type fakeBackend struct {
	api backend.API

	initErr  error
	lost     bool // device unusable after Init
	inited   bool
	initArgs []any

	shutdowns int
	begins    int
	vertices  []backend.Vertex
	state     backend.RenderState
	stateErr  error
	viewports []backend.Viewport
	tex, mask *backend.Texture
	frames    []recordedFrame
	emptyEnds int
	endErr    error

	created  []*backend.Texture
	released []*backend.Texture
	copies   int
	updates  int
	locked   int
	unlocked int
	pixels   []byte // returned by Lock
	pitch    int
	format   gputypes.TextureFormat // of back buffers

	shader     *backend.Shader
	setShaders int
	compiled   []backend.ShaderSource
	releasedSh []*backend.Shader
	compileErr error
}

func newFakeBackend(api backend.API) *fakeBackend {
	return &fakeBackend{api: api, format: gputypes.TextureFormatBGRA8Unorm}
}

func (b *fakeBackend) API() backend.API { return b.api }
func (b *fakeBackend) IsActive() bool   { return b.inited && !b.lost }

func (b *fakeBackend) Init(handle any) error {
	if b.inited {
		return nil
	}
	b.initArgs = append(b.initArgs, handle)
	if b.initErr != nil {
		return b.initErr
	}
	b.inited = true
	return nil
}

func (b *fakeBackend) Shutdown() {
	b.shutdowns++
	b.inited = false
}

func (b *fakeBackend) Begin()                     { b.begins++ }
func (b *fakeBackend) SetVertex(v backend.Vertex) { b.vertices = append(b.vertices, v) }

func (b *fakeBackend) SetRenderStates(rs *backend.RenderState) error {
	b.state = *rs
	return b.stateErr
}

func (b *fakeBackend) SetViewport(vp backend.Viewport)       { b.viewports = append(b.viewports, vp) }
func (b *fakeBackend) SetTexture(tex, mask *backend.Texture) { b.tex, b.mask = tex, mask }

func (b *fakeBackend) End(f *backend.Frame) error {
	g := f.Geometry
	if g.Empty() {
		b.emptyEnds++
		return nil
	}
	b.frames = append(b.frames, recordedFrame{
		topology: g.Topology,
		vertices: append([]backend.Vertex(nil), g.Vertices...),
		indices:  append([]uint16(nil), g.Indices...),
		proj:     f.Projection,
		state:    b.state,
	})
	return b.endErr
}

func (b *fakeBackend) CreateTexture(width, height int, pixels []byte) (*backend.Texture, error) {
	t := backend.NewTexture(b, b.api, width, height, gputypes.TextureFormatRGBA8Unorm, &fakeResource{b.api}, nil)
	b.created = append(b.created, t)
	if pixels != nil {
		b.pixels = append([]byte(nil), pixels...)
		b.pitch = width * 4
	}
	return t, nil
}

func (b *fakeBackend) BackBuffer(index int) (*backend.Texture, error) {
	if index != 0 {
		return nil, backend.ErrNoBackBuffer
	}
	return backend.NewTexture(b, b.api, 2, 1, b.format, &fakeResource{b.api}, nil), nil
}

func (b *fakeBackend) CopyResource(dst, src *backend.Texture) error {
	if dst.API() != b.api || src.API() != b.api {
		return backend.ErrForeignTexture
	}
	b.copies++
	return nil
}

func (b *fakeBackend) UpdateTexture(t *backend.Texture, pixels []byte) error {
	b.updates++
	b.pixels = append([]byte(nil), pixels...)
	b.pitch = t.Width * 4
	return nil
}

func (b *fakeBackend) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	if b.compileErr != nil {
		return nil, b.compileErr
	}
	b.compiled = append(b.compiled, src)
	return backend.NewShader(b, b.api, &fakeResource{b.api}), nil
}

func (b *fakeBackend) SetShader(s *backend.Shader) {
	b.setShaders++
	b.shader = s
}

func (b *fakeBackend) ReleaseShader(s *backend.Shader) { b.releasedSh = append(b.releasedSh, s) }

func (b *fakeBackend) Lock(*backend.Texture) (backend.LockedRect, error) {
	b.locked++
	return backend.LockedRect{Pixels: b.pixels, Pitch: b.pitch}, nil
}

func (b *fakeBackend) Unlock(*backend.Texture) { b.unlocked++ }

func (b *fakeBackend) ReleaseTexture(t *backend.Texture) { b.released = append(b.released, t) }

// newTestRenderer returns a Renderer whose only backends are fakes for
// the given APIs.
func newTestRenderer(apis ...backend.API) (*Renderer, map[backend.API]*fakeBackend) {
	fakes := map[backend.API]*fakeBackend{}
	opts := make([]Option, 0, len(apis))
	for _, api := range apis {
		fb := newFakeBackend(api)
		fakes[api] = fb
		opts = append(opts, WithFactory(api, func() backend.Backend { return fb }))
	}
	return New(opts...), fakes
}

var (
	_ backend.Backend      = (*fakeBackend)(nil)
	_ backend.TextureOwner = (*fakeBackend)(nil)
	_ backend.ShaderOwner  = (*fakeBackend)(nil)
)
