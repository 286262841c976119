// Package opengl implements the OpenGL 3.3 core backend.
//
// Entry points are resolved at run time by LoadFunctions, so the package
// builds without cgo. The host owns the context and must make it current
// on the thread that drives the Renderer.
package opengl

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/imdraw/backend"
)

// Loader errors.
var (
	// ErrNoLibrary is returned when the system OpenGL library cannot be opened.
	ErrNoLibrary = errors.New("opengl: library not available")

	// ErrMissingFunction is returned when a required entry point is absent.
	ErrMissingFunction = errors.New("opengl: missing function")
)

var (
	//go:embed shaders/imdraw.vert
	vertexSource string

	//go:embed shaders/imdraw.frag
	fragmentSource string
)

// Attribute locations, fixed by BindAttribLocation before linking.
var attributes = [...]struct {
	name   string
	size   int32
	offset uintptr
}{
	{"pos", 3, 0},
	{"color", 4, 12},
	{"uv0", 2, 28},
	{"uv1", 2, 36},
}

type uniforms struct {
	proj, hasTex, hasMask, swapColors, tex, mask int32
}

// shaderResource is a linked caller program.
type shaderResource struct {
	id       uint32
	uniforms uniforms
}

// API implements backend.Resource.
func (*shaderResource) API() backend.API { return backend.APIOpenGL }

// textureResource is a GL texture name.
type textureResource struct {
	id     uint32
	locked bool
}

// API implements backend.Resource.
func (*textureResource) API() backend.API { return backend.APIOpenGL }

// Backend draws with an OpenGL 3.3 core context.
type Backend struct {
	gl     Functions
	screen ScreenGrabber

	program  uint32
	uniforms uniforms
	caller   *shaderResource
	vao      uint32
	vbo, ibo uint32
	sampler  uint32

	state    backend.RenderState
	viewport backend.Viewport
	tex      *textureResource
	mask     *textureResource
	swap     bool
	saved    savedState
}

func init() {
	backend.Register(backend.APIOpenGL, func() backend.Backend { return New() })
}

// New returns an uninitialized backend.
func New() *Backend {
	return &Backend{state: backend.DefaultRenderState(), viewport: backend.DefaultViewport()}
}

// API implements backend.Backend.
func (b *Backend) API() backend.API { return backend.APIOpenGL }

// IsActive implements backend.Backend.
func (b *Backend) IsActive() bool {
	return b.gl != nil && b.program != 0 && b.gl.GetGraphicsResetStatus() == NO_ERROR
}

func contextOf(handle any) (Context, error) {
	switch h := handle.(type) {
	case Context:
		if h.Functions != nil {
			return h, nil
		}
	case *Context:
		if h != nil && h.Functions != nil {
			return *h, nil
		}
	case Functions:
		if h != nil {
			return Context{Functions: h}, nil
		}
	}
	return Context{}, fmt.Errorf("%w: %T", backend.ErrInvalidHandle, handle)
}

// Init implements backend.Backend. handle is a Context, *Context or Functions.
func (b *Backend) Init(handle any) error {
	if b.gl != nil {
		return nil
	}
	ctx, err := contextOf(handle)
	if err != nil {
		return backend.InitError(backend.APIOpenGL, backend.StageDevice, err)
	}
	if status := ctx.Functions.GetGraphicsResetStatus(); status != NO_ERROR {
		return backend.InitError(backend.APIOpenGL, backend.StageDevice,
			fmt.Errorf("context reset status %#x", uint32(status)))
	}
	b.gl, b.screen = ctx.Functions, ctx.Screen

	var saved savedState
	saved.capture(b.gl)
	err = b.create()
	saved.restore(b.gl)
	if err != nil {
		b.Shutdown()
		return err
	}
	b.state = backend.DefaultRenderState()
	b.viewport = backend.DefaultViewport()
	backend.Logger().Debug("opengl: backend initialized")
	return nil
}

func (b *Backend) create() error {
	gl := b.gl
	prog, u, err := b.linkProgram(vertexSource, fragmentSource)
	if err != nil {
		return backend.InitError(backend.APIOpenGL, backend.StageShader, err)
	}
	b.program, b.uniforms = prog, u

	if b.vao = gl.GenVertexArray(); b.vao == 0 {
		return backend.InitError(backend.APIOpenGL, backend.StageLayout, errors.New("glGenVertexArrays failed"))
	}
	if b.vbo = gl.GenBuffer(); b.vbo == 0 {
		return backend.InitError(backend.APIOpenGL, backend.StageBuffers, errors.New("vertex buffer: glGenBuffers failed"))
	}
	if b.ibo = gl.GenBuffer(); b.ibo == 0 {
		return backend.InitError(backend.APIOpenGL, backend.StageBuffers, errors.New("index buffer: glGenBuffers failed"))
	}
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(ARRAY_BUFFER, b.vbo)
	gl.BufferData(ARRAY_BUFFER, backend.MaxVertices*backend.VertexStride, nil, STREAM_DRAW)
	gl.BindBuffer(ELEMENT_ARRAY_BUFFER, b.ibo)
	gl.BufferData(ELEMENT_ARRAY_BUFFER, backend.MaxIndices*2, nil, STREAM_DRAW)
	for i, a := range attributes {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, FLOAT, false, backend.VertexStride, a.offset)
	}
	if e := gl.GetError(); e != NO_ERROR {
		return backend.InitError(backend.APIOpenGL, backend.StageBuffers, fmt.Errorf("GL error %#x", uint32(e)))
	}

	if b.sampler = gl.GenSampler(); b.sampler == 0 {
		return backend.InitError(backend.APIOpenGL, backend.StageSampler, errors.New("glGenSamplers failed"))
	}
	gl.SamplerParameteri(b.sampler, TEXTURE_MIN_FILTER, int32(LINEAR))
	gl.SamplerParameteri(b.sampler, TEXTURE_MAG_FILTER, int32(LINEAR))
	gl.SamplerParameteri(b.sampler, TEXTURE_WRAP_S, int32(REPEAT))
	gl.SamplerParameteri(b.sampler, TEXTURE_WRAP_T, int32(REPEAT))
	return nil
}

// linkProgram builds a program and resolves the uniforms End sets.
func (b *Backend) linkProgram(vertex, fragment string) (uint32, uniforms, error) {
	var u uniforms
	prog, err := b.createProgram(vertex, fragment)
	if err != nil {
		return 0, u, err
	}
	for _, l := range []struct {
		name string
		loc  *int32
	}{
		{"proj", &u.proj}, {"hasTex", &u.hasTex}, {"hasMask", &u.hasMask},
		{"swapColors", &u.swapColors}, {"tex", &u.tex}, {"mask", &u.mask},
	} {
		*l.loc = b.gl.GetUniformLocation(prog, l.name)
		if *l.loc < 0 {
			b.gl.DeleteProgram(prog)
			return 0, u, fmt.Errorf("uniform %s not found", l.name)
		}
	}
	return prog, u, nil
}

func (b *Backend) createProgram(vertex, fragment string) (uint32, error) {
	gl := b.gl
	vs, err := b.compile(VERTEX_SHADER, vertex)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := b.compile(FRAGMENT_SHADER, fragment)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	if prog == 0 {
		return 0, errors.New("glCreateProgram failed")
	}
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	for i, a := range attributes {
		gl.BindAttribLocation(prog, uint32(i), a.name)
	}
	gl.LinkProgram(prog)
	if gl.GetProgrami(prog, LINK_STATUS) == 0 {
		log := gl.GetProgramInfoLog(prog)
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("program link failed: %s", strings.TrimSpace(log))
	}
	return prog, nil
}

func (b *Backend) compile(typ Enum, src string) (uint32, error) {
	gl := b.gl
	sh := gl.CreateShader(typ)
	if sh == 0 {
		return 0, errors.New("glCreateShader failed")
	}
	gl.ShaderSource(sh, src)
	gl.CompileShader(sh)
	if gl.GetShaderi(sh, COMPILE_STATUS) == 0 {
		log := gl.GetShaderInfoLog(sh)
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("shader compilation failed: %s", strings.TrimSpace(log))
	}
	return sh, nil
}

// Shutdown implements backend.Backend. The context must still be current.
func (b *Backend) Shutdown() {
	if b.gl == nil {
		return
	}
	gl := b.gl
	if b.sampler != 0 {
		gl.DeleteSampler(b.sampler)
	}
	if b.vbo != 0 {
		gl.DeleteBuffer(b.vbo)
	}
	if b.ibo != 0 {
		gl.DeleteBuffer(b.ibo)
	}
	if b.vao != 0 {
		gl.DeleteVertexArray(b.vao)
	}
	if b.program != 0 {
		gl.DeleteProgram(b.program)
	}
	b.program, b.vao, b.vbo, b.ibo, b.sampler = 0, 0, 0, 0, 0
	b.uniforms, b.caller = uniforms{}, nil
	b.tex, b.mask, b.swap = nil, nil, false
	b.saved = savedState{}
	b.gl, b.screen = nil, nil
	backend.Logger().Debug("opengl: backend shut down")
}

// Begin implements backend.Backend.
func (b *Backend) Begin() {
	if b.gl == nil {
		return
	}
	b.saved.capture(b.gl)
}

// SetVertex implements backend.Backend. Vertices are uploaded in End.
func (b *Backend) SetVertex(backend.Vertex) {}

// SetRenderStates implements backend.Backend. GL state is applied in End.
func (b *Backend) SetRenderStates(rs *backend.RenderState) error {
	if b.gl == nil {
		return backend.ErrNotInitialized
	}
	b.state = *rs
	return nil
}

// SetViewport implements backend.Backend. The rectangle is passed through
// in window coordinates, origin bottom-left.
func (b *Backend) SetViewport(vp backend.Viewport) {
	b.viewport = vp
}

// SetTexture implements backend.Backend.
func (b *Backend) SetTexture(tex, mask *backend.Texture) {
	b.tex, b.mask, b.swap = nil, nil, false
	if r, ok := backend.ResourceOf[*textureResource](tex, backend.APIOpenGL); ok {
		b.tex = r
		b.swap = tex.SwapColors
	} else if tex != nil {
		backend.Logger().Warn("opengl: texture not bindable", "texture_api", tex.API())
	}
	if r, ok := backend.ResourceOf[*textureResource](mask, backend.APIOpenGL); ok {
		b.mask = r
	} else if mask != nil {
		backend.Logger().Warn("opengl: mask not bindable", "texture_api", mask.API())
	}
}

func glFlag(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

func textureID(r *textureResource) uint32 {
	if r == nil {
		return 0
	}
	return r.id
}

// End implements backend.Backend.
func (b *Backend) End(f *backend.Frame) error {
	if b.gl == nil {
		return backend.ErrNotInitialized
	}
	defer b.saved.restore(b.gl)

	g := f.Geometry
	if g.Empty() {
		return nil
	}
	gl := b.gl

	prog, u := b.program, &b.uniforms
	if b.caller != nil {
		prog, u = b.caller.id, &b.caller.uniforms
	}
	gl.UseProgram(prog)
	proj := [16]float32(f.Projection.Transpose())
	gl.UniformMatrix4fv(u.proj, &proj)
	gl.Uniform1i(u.hasTex, glFlag(b.tex != nil))
	gl.Uniform1i(u.hasMask, glFlag(b.mask != nil))
	gl.Uniform1i(u.swapColors, glFlag(b.swap))
	gl.Uniform1i(u.tex, 0)
	gl.Uniform1i(u.mask, 1)

	gl.BindVertexArray(b.vao)
	vertices := backend.VertexBytes(g.Vertices)
	gl.BindBuffer(ARRAY_BUFFER, b.vbo)
	gl.BufferData(ARRAY_BUFFER, backend.MaxVertices*backend.VertexStride, nil, STREAM_DRAW)
	gl.BufferSubData(ARRAY_BUFFER, 0, vertices)
	gl.BindBuffer(ELEMENT_ARRAY_BUFFER, b.ibo)
	gl.BufferData(ELEMENT_ARRAY_BUFFER, backend.MaxIndices*2, nil, STREAM_DRAW)
	gl.BufferSubData(ELEMENT_ARRAY_BUFFER, 0, backend.IndexBytes(g.Indices))

	for i, r := range []*textureResource{b.tex, b.mask} {
		gl.ActiveTexture(TEXTURE0 + Enum(i))
		gl.BindTexture(TEXTURE_2D, textureID(r))
		gl.BindSampler(uint32(i), b.sampler)
	}

	applyState(gl, &b.state)
	vp := b.viewport
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
	gl.DepthRange(float64(vp.MinDepth), float64(vp.MaxDepth))

	gl.DrawElements(primitiveMode(g.Topology), int32(len(g.Indices)), UNSIGNED_SHORT, 0)
	if e := gl.GetError(); e != NO_ERROR {
		return fmt.Errorf("opengl: draw: GL error %#x", uint32(e))
	}
	return nil
}

// CreateShader implements backend.Backend. src holds GLSL 330 core vertex
// and fragment sources, both with a main entry point.
func (b *Backend) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	if b.gl == nil {
		return nil, backend.ErrNotInitialized
	}
	if len(src.Fragment) == 0 {
		return nil, errors.New("opengl: create shader: fragment source required")
	}
	id, u, err := b.linkProgram(string(src.Vertex), string(src.Fragment))
	if err != nil {
		return nil, fmt.Errorf("opengl: create shader: %w", err)
	}
	return backend.NewShader(b, backend.APIOpenGL, &shaderResource{id: id, uniforms: u}), nil
}

// SetShader implements backend.Backend.
func (b *Backend) SetShader(s *backend.Shader) {
	b.caller = nil
	if r, ok := backend.ProgramOf[*shaderResource](s, backend.APIOpenGL); ok && r.id != 0 {
		b.caller = r
	} else if s != nil {
		backend.Logger().Warn("opengl: shader not usable, drawing with the built-in program", "shader_api", s.API())
	}
}

// ReleaseShader implements backend.ShaderOwner.
func (b *Backend) ReleaseShader(s *backend.Shader) {
	r, ok := backend.ProgramOf[*shaderResource](s, backend.APIOpenGL)
	if !ok || b.gl == nil || r.id == 0 {
		return
	}
	if b.caller == r {
		b.caller = nil
	}
	b.gl.DeleteProgram(r.id)
	r.id = 0
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.TextureOwner = (*Backend)(nil)
	_ backend.ShaderOwner  = (*Backend)(nil)
)
