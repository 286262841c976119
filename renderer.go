package imdraw

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/imdraw/backend"
)

var white = [4]float32{1, 1, 1, 1}

// Renderer is the immediate-mode drawing context. It owns the geometry
// buffer, the render state block and the projection, and forwards each
// frame to one active backend.
//
// Every registered backend is constructed on the first Init and kept in a
// fixed slot per API until Shutdown. At most one of them is active.
// Drawing calls made while no backend is active return without touching
// any state.
//
// A Renderer is not safe for concurrent use. Drive it from the thread that
// owns the native context.
type Renderer struct {
	log       *slog.Logger
	factories [backend.APICount]backend.Factory

	backends    [backend.APICount]backend.Backend
	gates       [backend.APICount]*releaseGate
	constructed bool
	api         backend.API

	geom     *backend.Geometry
	state    backend.RenderState
	viewport backend.Viewport
	mode     backend.ProjectionMode
	fov      float32
	near     float32
	far      float32
	proj     backend.Matrix

	color    [4]float32
	uv0, uv1 [2]float32
	tex      *backend.Texture
	mask     *backend.Texture
	shader   *backend.Shader

	inFrame  bool
	nested   bool
	frameErr error // first failure of the open frame; the draw is skipped
	lastErr  error // outcome of the last End
}

// New creates a Renderer with no active backend.
//
// Example:
//
//	r := imdraw.New(imdraw.WithConfig(cfg))
//	if err := r.Init(backend.APIOpenGL, ctx); err != nil {
//	    return err
//	}
//	defer r.Shutdown()
func New(opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		log:       o.logger,
		factories: o.factories,
		geom:      backend.NewGeometry(),
		state:     backend.DefaultRenderState(),
		viewport:  o.cfg.Viewport.Viewport(),
		fov:       o.cfg.FOV,
		near:      o.cfg.Near,
		far:       o.cfg.Far,
		proj:      backend.Identity(),
		color:     white,
	}
	if mode, err := ParseProjectionMode(o.cfg.Projection); err == nil && mode != backend.ProjectionNone {
		r.mode = mode
		r.proj = backend.Projection(mode, r.viewport, r.fov, r.near, r.far)
	}
	return r
}

func (r *Renderer) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}
	return Logger()
}

// construct fills the backend slots from the option overrides and the
// registry.
func (r *Renderer) construct() {
	for api := backend.API(1); api < backend.APICount; api++ {
		f := r.factories[api]
		if f == nil {
			f = backend.Lookup(api)
		}
		if f == nil {
			continue
		}
		if b := f(); b != nil {
			r.backends[api] = b
		}
	}
	r.constructed = true
}

// active returns the selected backend while its device is usable.
func (r *Renderer) active() backend.Backend {
	if r.api == backend.APINull {
		return nil
	}
	b := r.backends[r.api]
	if b == nil || !b.IsActive() {
		if r.inFrame {
			r.dropFrame()
		}
		return nil
	}
	return b
}

// dropFrame discards a frame whose backend lost its device before End.
func (r *Renderer) dropFrame() {
	r.logger().Debug("imdraw: device lost inside a frame, frame dropped", "api", r.api)
	r.geom.Reset(r.geom.Topology)
	r.inFrame, r.nested, r.frameErr = false, false, nil
	r.lastErr = ErrDeviceUnavailable
}

// Init selects api and initializes its backend with the native handle.
// Calling Init while a backend is active does nothing and returns nil.
//
// Init fails with backend.ErrUnknownAPI for an out-of-range api,
// backend.ErrBackendNotAvailable when nothing is registered for it, a
// *backend.BackendInitError when the backend cannot create its resources
// and ErrDeviceUnavailable when the device is unusable after Init.
func (r *Renderer) Init(api backend.API, handle any) error {
	if r.active() != nil {
		return nil
	}
	if !api.Valid() {
		return fmt.Errorf("%w: %v", backend.ErrUnknownAPI, api)
	}
	if !r.constructed {
		r.construct()
	}
	b := r.backends[api]
	if b == nil {
		return fmt.Errorf("%w: %s", backend.ErrBackendNotAvailable, api)
	}

	if prev := r.api; prev != backend.APINull && prev != api && r.backends[prev] != nil {
		r.backends[prev].Shutdown()
	}
	r.api = backend.APINull
	r.inFrame, r.nested, r.frameErr = false, false, nil
	r.shader = nil

	if err := b.Init(handle); err != nil {
		r.logger().Warn("imdraw: backend init failed", "api", api, "err", err)
		return err
	}
	if !b.IsActive() {
		b.Shutdown()
		return fmt.Errorf("%w: %s", ErrDeviceUnavailable, api)
	}

	r.api = api
	if owner, ok := b.(backend.TextureOwner); ok {
		g := &releaseGate{r: r, b: b, owner: owner}
		g.shaders, _ = b.(backend.ShaderOwner)
		r.gates[api] = g
	}
	b.SetViewport(r.viewport)
	r.logger().Info("imdraw: backend initialized", "api", api)
	return nil
}

// Shutdown shuts down every constructed backend and drops them. The next
// Init constructs fresh instances. Textures created before Shutdown can
// still be released; the call no longer reaches a backend.
func (r *Renderer) Shutdown() {
	wasActive := r.active() != nil
	for i, b := range r.backends {
		if b != nil {
			b.Shutdown()
		}
		r.backends[i] = nil
		r.gates[i] = nil
	}
	r.constructed = false
	r.api = backend.APINull
	r.inFrame, r.nested, r.frameErr = false, false, nil
	r.tex, r.mask, r.shader = nil, nil, nil
	r.geom.Reset(backend.TopologyTriangle)
	if wasActive {
		r.logger().Info("imdraw: renderer shut down")
	}
}

// IsActive reports whether a backend is selected and its device is usable.
func (r *Renderer) IsActive() bool { return r.active() != nil }

// ActiveAPI returns the API of the active backend, or APINull.
func (r *Renderer) ActiveAPI() backend.API {
	if r.active() == nil {
		return backend.APINull
	}
	return r.api
}

// fail records the first error of the open frame.
func (r *Renderer) fail(err error) {
	if r.frameErr == nil {
		r.frameErr = err
		r.logger().Debug("imdraw: frame marked failed", "api", r.api, "err", err)
	}
}

// Begin opens a frame of the given topology. Geometry is cleared, the
// colour resets to white and both texture coordinates to zero.
// Begin inside an open frame is logged and ignored.
func (r *Renderer) Begin(t backend.Topology) {
	b := r.active()
	if b == nil {
		return
	}
	if r.inFrame {
		r.nested = true
		r.logger().Warn("imdraw: Begin called inside a frame", "api", r.api)
		return
	}
	r.geom.Reset(t)
	r.color = white
	r.uv0, r.uv1 = [2]float32{}, [2]float32{}
	r.inFrame, r.nested, r.frameErr = true, false, nil
	b.Begin()
}

// SetColor4f sets the colour of subsequent vertices.
func (r *Renderer) SetColor4f(red, green, blue, alpha float32) {
	if r.active() == nil {
		return
	}
	r.color = [4]float32{red, green, blue, alpha}
}

// SetColor3f sets an opaque colour.
func (r *Renderer) SetColor3f(red, green, blue float32) {
	r.SetColor4f(red, green, blue, 1)
}

// SetTexCoords4f sets both texture coordinate pairs.
func (r *Renderer) SetTexCoords4f(u0, v0, u1, v1 float32) {
	if r.active() == nil {
		return
	}
	r.uv0 = [2]float32{u0, v0}
	r.uv1 = [2]float32{u1, v1}
}

// SetTexCoords2f sets the same coordinates for the texture and the mask.
func (r *Renderer) SetTexCoords2f(u, v float32) {
	r.SetTexCoords4f(u, v, u, v)
}

// SetVertex3f appends a vertex with the current colour and texture
// coordinates. Vertices outside Begin/End are dropped.
func (r *Renderer) SetVertex3f(x, y, z float32) {
	b := r.active()
	if b == nil {
		return
	}
	if !r.inFrame {
		r.logger().Debug("imdraw: vertex outside Begin/End dropped")
		return
	}
	v := backend.Vertex{
		Pos:   [3]float32{x, y, z},
		Color: r.color,
		UV0:   r.uv0,
		UV1:   r.uv1,
	}
	if err := r.geom.AddVertex(v); err != nil {
		r.fail(err)
		return
	}
	b.SetVertex(v)
}

// SetVertex2f appends a vertex at z = 0.
func (r *Renderer) SetVertex2f(x, y float32) {
	r.SetVertex3f(x, y, 0)
}

// SetIndex appends one explicit index. Once any index is given the frame
// no longer derives its index list from the vertex order.
func (r *Renderer) SetIndex(i uint16) {
	if r.active() == nil || !r.inFrame {
		return
	}
	if err := r.geom.AddIndex(i); err != nil {
		r.fail(err)
	}
}

// SetIndices replaces the frame's index list with the first n entries of idx.
func (r *Renderer) SetIndices(idx []uint16, n int) {
	if r.active() == nil || !r.inFrame {
		return
	}
	if err := r.geom.SetIndices(idx, n); err != nil {
		r.fail(err)
	}
}

// SetRenderState changes one field of the render state block. The block
// persists across frames and is applied by each End. It returns an error
// for unknown fields or enum values out of range; with no active backend
// it does nothing and returns nil.
func (r *Renderer) SetRenderState(field backend.StateField, value uint32) error {
	if r.active() == nil {
		return nil
	}
	return r.state.Set(field, value)
}

// End closes the frame and issues one indexed draw of everything added
// since Begin. A frame with an overflowed geometry buffer or an index past
// the last vertex is not drawn; FrameErr reports why.
func (r *Renderer) End() {
	b := r.active()
	if b == nil {
		return
	}
	if !r.inFrame {
		r.logger().Warn("imdraw: End called without Begin", "api", r.api)
		return
	}
	r.inFrame = false

	err := r.frameErr
	if err == nil {
		r.geom.DeriveIndices()
		err = r.geom.Validate()
	}
	if err == nil {
		err = b.SetRenderStates(&r.state)
	}

	frame := &backend.Frame{Geometry: r.geom, Projection: r.proj}
	if err != nil {
		// Backends still restore the state captured by Begin.
		frame.Geometry = &backend.Geometry{Topology: r.geom.Topology}
	}
	if endErr := b.End(frame); err == nil && endErr != nil {
		err = fmt.Errorf("imdraw: %s end: %w", r.api, endErr)
	}

	switch {
	case err != nil:
		r.logger().Debug("imdraw: frame not drawn", "api", r.api, "err", err)
	case r.nested:
		err = ErrNestedBegin
	}
	r.lastErr = err
}

// FrameErr returns the error of the last completed frame, or nil when it
// was drawn normally.
func (r *Renderer) FrameErr() error { return r.lastErr }

// SetTexture binds tex and mask for the following frames. Either may be
// nil. Textures must come from the active backend.
func (r *Renderer) SetTexture(tex, mask *backend.Texture) {
	b := r.active()
	if b == nil {
		return
	}
	tex, mask = r.accept(tex), r.accept(mask)
	r.tex, r.mask = tex, mask
	b.SetTexture(tex, mask)
}

// accept returns t when it was created through the active backend of r.
func (r *Renderer) accept(t *backend.Texture) *backend.Texture {
	if t == nil {
		return nil
	}
	g := r.gates[r.api]
	if g == nil || t.OwnedBy(g) {
		return t
	}
	r.logger().Warn("imdraw: ignoring foreign texture", "api", r.api, "texture_api", t.API())
	return nil
}

// SetProjectionMode selects the projection and recomputes the matrix
// from the current viewport, field of view and clip planes.
func (r *Renderer) SetProjectionMode(mode backend.ProjectionMode) {
	if r.active() == nil {
		return
	}
	r.mode = mode
	r.proj = backend.Projection(mode, r.viewport, r.fov, r.near, r.far)
}

// SetViewport sets the render target rectangle and depth range. The
// projection is not recomputed until the next SetProjectionMode.
func (r *Renderer) SetViewport(vp backend.Viewport) {
	b := r.active()
	if b == nil {
		return
	}
	r.viewport = vp
	b.SetViewport(vp)
}

// SetFOV sets the vertical field of view in degrees used by perspective
// projection. It takes effect on the next SetProjectionMode.
func (r *Renderer) SetFOV(deg float32) { r.fov = deg }

// SetClipPlanes sets the near and far planes used by both projections.
// They take effect on the next SetProjectionMode.
func (r *Renderer) SetClipPlanes(near, far float32) { r.near, r.far = near, far }

// Viewport returns the current viewport.
func (r *Renderer) Viewport() backend.Viewport { return r.viewport }

// Projection returns the current row-major projection matrix.
func (r *Renderer) Projection() backend.Matrix { return r.proj }

// ProjectionMode returns the mode set by the last SetProjectionMode.
func (r *Renderer) ProjectionMode() backend.ProjectionMode { return r.mode }

// RenderState returns a copy of the render state block.
func (r *Renderer) RenderState() backend.RenderState { return r.state }

// Geometry returns the geometry buffer of the current or last frame.
// Callers must not modify it.
func (r *Renderer) Geometry() *backend.Geometry { return r.geom }

// CreateTexture creates an RGBA8 texture on the active backend.
// pixels holds width*height*4 bytes or is nil.
func (r *Renderer) CreateTexture(width, height int, pixels []byte) (*backend.Texture, error) {
	b := r.active()
	if b == nil {
		return nil, ErrNotActive
	}
	if width <= 0 || height <= 0 || (pixels != nil && len(pixels) < width*height*4) {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", backend.ErrInvalidTextureSize, width, height, len(pixels))
	}
	t, err := b.CreateTexture(width, height, pixels)
	if err != nil {
		return nil, err
	}
	r.adopt(t)
	return t, nil
}

// UpdateTexture replaces all pixels of t, which must come from the active
// backend. pixels holds t.Width*t.Height*4 RGBA bytes.
func (r *Renderer) UpdateTexture(t *backend.Texture, pixels []byte) error {
	b := r.active()
	if b == nil {
		return ErrNotActive
	}
	if t == nil {
		return fmt.Errorf("%w: nil texture", backend.ErrForeignTexture)
	}
	if g := r.gates[r.api]; g != nil && !t.OwnedBy(g) {
		return fmt.Errorf("%w: %s texture", backend.ErrForeignTexture, t.API())
	}
	if len(pixels) < t.Width*t.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), t.Width, t.Height)
	}
	return b.UpdateTexture(t, pixels)
}

// CreateShader compiles a caller program on the active backend. The
// source language depends on the backend; see backend.ShaderSource.
func (r *Renderer) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	b := r.active()
	if b == nil {
		return nil, ErrNotActive
	}
	s, err := b.CreateShader(src)
	if err != nil {
		return nil, err
	}
	if g := r.gates[r.api]; g != nil {
		s.SetOwner(g)
	}
	return s, nil
}

// SetShader draws the following frames with s. nil restores the built-in
// program, and so does a shader from another backend.
func (r *Renderer) SetShader(s *backend.Shader) {
	b := r.active()
	if b == nil {
		return
	}
	if g := r.gates[r.api]; s != nil && g != nil && !s.OwnedBy(g) {
		r.logger().Warn("imdraw: ignoring foreign shader", "api", r.api, "shader_api", s.API())
		s = nil
	}
	r.shader = s
	b.SetShader(s)
}

// Shader returns the caller program in use, or nil for the built-in one.
func (r *Renderer) Shader() *backend.Shader {
	if r.shader == nil || r.shader.Released() {
		return nil
	}
	return r.shader
}

// GetBackBuffer returns a texture wrapping back buffer index.
func (r *Renderer) GetBackBuffer(index int) (*backend.Texture, error) {
	b := r.active()
	if b == nil {
		return nil, ErrNotActive
	}
	t, err := b.BackBuffer(index)
	if err != nil {
		return nil, err
	}
	r.adopt(t)
	return t, nil
}

// CopyResource replaces dst's contents with src's.
func (r *Renderer) CopyResource(dst, src *backend.Texture) error {
	b := r.active()
	if b == nil {
		return ErrNotActive
	}
	return b.CopyResource(dst, src)
}

// Lock maps t for CPU reads. Every successful Lock needs a matching Unlock.
func (r *Renderer) Lock(t *backend.Texture) (backend.LockedRect, error) {
	b := r.active()
	if b == nil {
		return backend.LockedRect{}, ErrNotActive
	}
	return b.Lock(t)
}

// Unlock releases a mapping obtained from Lock.
func (r *Renderer) Unlock(t *backend.Texture) {
	b := r.active()
	if b == nil {
		return
	}
	b.Unlock(t)
}

// adopt routes t's Release through the Renderer's active-backend check.
func (r *Renderer) adopt(t *backend.Texture) {
	if t == nil {
		return
	}
	if g := r.gates[r.api]; g != nil {
		t.SetOwner(g)
	}
}

// releaseGate forwards texture and shader releases to b while b is still
// the Renderer's active backend.
type releaseGate struct {
	r       *Renderer
	b       backend.Backend
	owner   backend.TextureOwner
	shaders backend.ShaderOwner // nil when b compiles no caller shaders
}

func (g *releaseGate) IsActive() bool { return g.r.active() == g.b }

func (g *releaseGate) ReleaseTexture(t *backend.Texture) { g.owner.ReleaseTexture(t) }

func (g *releaseGate) ReleaseShader(s *backend.Shader) {
	if g.shaders != nil {
		g.shaders.ReleaseShader(s)
	}
}
