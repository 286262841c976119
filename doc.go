// Package imdraw is an immediate-mode 2D drawing layer over several native
// graphics APIs.
//
// A Renderer collects vertices between Begin and End and hands each frame
// to one backend, which uploads it and issues a single indexed draw. The
// same drawing code runs on Direct3D 9, 10, 11 and 12, OpenGL and Vulkan.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/imdraw"
//		"github.com/gogpu/imdraw/backend"
//		_ "github.com/gogpu/imdraw/backend/all"
//	)
//
//	r := imdraw.New()
//	if err := r.Init(backend.APIOpenGL, glContext); err != nil {
//		return err
//	}
//	defer r.Shutdown()
//
//	r.SetProjectionMode(backend.ProjectionOrthographic)
//	r.SetColor4f(1, 0, 0, 1)
//	r.DrawRect(10, 10, 110, 60)
//
// # Frames
//
// Begin clears the geometry buffer and resets the current colour to white.
// Each SetVertex call appends a vertex carrying the current colour and
// texture coordinates. Without SetIndex calls End draws the vertices in
// submission order. A frame that overflows the buffer or references a
// missing vertex is skipped; FrameErr reports the reason.
//
// # Backends
//
// Backends register themselves from init. Import backend/all for every
// API, or a single backend package. All backends are constructed on the
// first Init; only the one named in Init becomes active. Every drawing
// call is a no-op while no backend is active, so a lost device never
// crashes the caller.
//
// # Textures
//
// Textures belong to the backend that created them. UpdateTexture replaces
// their pixels in place. Release them before Shutdown; a release after the
// backend went inactive is logged and ignored.
//
// # Shaders
//
// CreateShader compiles a caller program in the active backend's shading
// language and SetShader draws the following frames with it. The program
// must accept the built-in vertex layout and constants. SetShader(nil)
// restores the built-in program.
//
// # Logging
//
// imdraw logs through log/slog and is silent by default. See SetLogger.
package imdraw
