package backend

import (
	"errors"
	"fmt"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no factory is registered for an API.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnknownAPI is returned by ParseAPI for unrecognised names.
	ErrUnknownAPI = errors.New("backend: unknown api")

	// ErrInvalidHandle is returned by Init when the native handle has the wrong type.
	ErrInvalidHandle = errors.New("backend: invalid native handle")

	// ErrForeignTexture is returned when a texture owned by another API is used.
	ErrForeignTexture = errors.New("backend: texture belongs to another api")

	// ErrNoBackBuffer is returned when the requested back buffer does not exist.
	ErrNoBackBuffer = errors.New("backend: back buffer not available")

	// ErrInvalidTextureSize is returned for non-positive or mismatched texture sizes.
	ErrInvalidTextureSize = errors.New("backend: invalid texture size")
)

// Backend is the contract every native API implementation honours.
//
// All methods run on the thread that owns the native context. Drawing
// methods are only called by the Renderer while IsActive reports true.
type Backend interface {
	// API returns the slot this backend serves.
	API() API

	// IsActive reports whether native handles are valid and the device is usable.
	// It must not have side effects.
	IsActive() bool

	// Init acquires the native device from handle and allocates buffers,
	// shaders, the sampler and the input layout. A second call is a no-op.
	Init(handle any) error

	// Shutdown releases everything acquired by Init. Safe to call repeatedly.
	Shutdown()

	// Begin snapshots native state that End overrides.
	Begin()

	// SetVertex is called once per vertex added to the geometry buffer.
	SetVertex(v Vertex)

	// SetRenderStates translates rs into native state objects and binds them.
	SetRenderStates(rs *RenderState) error

	// SetViewport sets the native viewport and depth range.
	SetViewport(vp Viewport)

	// SetTexture binds the primary and mask textures. Nil unbinds.
	SetTexture(tex, mask *Texture)

	// End uploads the frame geometry, issues one indexed draw and
	// restores the state captured in Begin.
	End(f *Frame) error

	// CreateTexture creates an RGBA8 texture from tightly packed pixels.
	// pixels may be nil for an uninitialised texture.
	CreateTexture(width, height int, pixels []byte) (*Texture, error)

	// UpdateTexture replaces t's contents with tightly packed RGBA pixels
	// of t's size.
	UpdateTexture(t *Texture, pixels []byte) error

	// CreateShader compiles a caller program. See ShaderSource.
	CreateShader(src ShaderSource) (*Shader, error)

	// SetShader selects the program End draws with. Nil, foreign and
	// released shaders select the built-in program.
	SetShader(s *Shader)

	// BackBuffer returns a texture wrapping back buffer index.
	BackBuffer(index int) (*Texture, error)

	// CopyResource replaces dst's contents with src's.
	CopyResource(dst, src *Texture) error

	// Lock maps t for CPU reads.
	Lock(t *Texture) (LockedRect, error)

	// Unlock releases a mapping obtained from Lock.
	Unlock(t *Texture)
}

// Factory creates a backend instance. Factories must not touch native APIs;
// all native work happens in Init.
type Factory func() Backend

// Frame is the per-draw payload handed to Backend.End.
type Frame struct {
	Geometry   *Geometry
	Projection Matrix
}

// LockedRect is a CPU view of a locked texture.
type LockedRect struct {
	Pixels []byte
	Pitch  int
}

// Row returns the bytes of row y, clipped to width*4.
func (r LockedRect) Row(y, width int) []byte {
	off := y * r.Pitch
	return r.Pixels[off : off+width*4]
}

// InitStage names the part of Init that failed.
type InitStage string

// Init stages reported in BackendInitError.
const (
	StageDevice   InitStage = "device"
	StageBuffers  InitStage = "buffers"
	StageShader   InitStage = "shader"
	StageLayout   InitStage = "layout"
	StageSampler  InitStage = "sampler"
	StagePipeline InitStage = "pipeline"
)

// BackendInitError reports a failed Init. The backend stays inactive.
type BackendInitError struct {
	API   API
	Stage InitStage
	Err   error
}

// Error implements error.
func (e *BackendInitError) Error() string {
	return fmt.Sprintf("backend %s: init %s: %v", e.API, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BackendInitError) Unwrap() error { return e.Err }

// InitError builds a *BackendInitError.
func InitError(api API, stage InitStage, err error) error {
	return &BackendInitError{API: api, Stage: stage, Err: err}
}
