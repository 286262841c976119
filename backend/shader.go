package backend

import (
	"errors"
	"sync"
)

// ErrForeignShader is returned when a shader created by another API is used.
var ErrForeignShader = errors.New("backend: shader belongs to another api")

// ShaderSource is a caller program written in the shading language of the
// backend that compiles it: HLSL for Direct3D 9, 10 and 11, WGSL for the
// command-list backend and GLSL 330 core for OpenGL.
//
// A caller program replaces the built-in one and must keep its contract:
// the vertex layout, the proj, hasTex, hasMask and swapColors uniforms, the
// tex and mask samplers, and the entry points (vs_main and ps_main for HLSL,
// vs_main and fs_main for WGSL, main for GLSL). HLSL and WGSL programs may
// keep both stages in Vertex and leave Fragment nil.
type ShaderSource struct {
	Vertex   []byte
	Fragment []byte
}

// FragmentSource returns Fragment, or Vertex when the program is a single
// source holding both stages.
func (s ShaderSource) FragmentSource() []byte {
	if s.Fragment != nil {
		return s.Fragment
	}
	return s.Vertex
}

// ShaderOwner is implemented by backends that compile caller shaders.
type ShaderOwner interface {
	IsActive() bool
	ReleaseShader(s *Shader)
}

// Shader is a compiled caller program. Like a Texture it belongs to one
// backend instance and Release only reaches that backend while it is active.
type Shader struct {
	api     API
	program Resource
	owner   ShaderOwner

	once     sync.Once
	released bool
}

// NewShader wraps a native program created by owner.
func NewShader(owner ShaderOwner, api API, program Resource) *Shader {
	return &Shader{api: api, program: program, owner: owner}
}

// API returns the API of the backend that compiled s.
func (s *Shader) API() API {
	if s == nil {
		return APINull
	}
	return s.api
}

// SetOwner routes Release through owner.
func (s *Shader) SetOwner(owner ShaderOwner) { s.owner = owner }

// OwnedBy reports whether owner created s and s is still live.
func (s *Shader) OwnedBy(owner ShaderOwner) bool {
	return s != nil && !s.released && s.owner == owner
}

// Released reports whether Release has run.
func (s *Shader) Released() bool { return s.released }

// Release frees the native program if the owning backend is still active.
// It reports whether the backend was reached. Safe to call repeatedly.
func (s *Shader) Release() bool {
	if s == nil {
		return false
	}
	reached := false
	s.once.Do(func() {
		defer func() { s.released = true }()
		if s.owner == nil || !s.owner.IsActive() {
			Logger().Warn("backend: shader released after its backend went inactive", "api", s.api)
			return
		}
		s.owner.ReleaseShader(s)
		reached = true
	})
	s.program = nil
	return reached
}

// ProgramOf returns s's native program as type R when s was compiled by
// api. ok is false for foreign or released shaders.
func ProgramOf[R Resource](s *Shader, api API) (r R, ok bool) {
	if s == nil || s.released || s.api != api {
		return r, false
	}
	r, ok = s.program.(R)
	return r, ok
}
