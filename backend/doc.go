// Package backend defines the contract between the imdraw Renderer and the
// native graphics APIs it drives.
//
// A backend owns its native device handles, a vertex and an index buffer
// sized for MaxVertices elements, a constant buffer, a sampler and a built-in
// shader pair. The Renderer accumulates a Geometry for each Begin/End pair and
// hands it to the active backend's End, which uploads it and issues a single
// indexed draw.
//
// # Backend Registration
//
// Implementations register a Factory for their API slot from init():
//
//	func init() {
//		backend.Register(backend.APID3D11, func() backend.Backend { return New() })
//	}
//
// Import github.com/gogpu/imdraw/backend/all to register every backend.
//
// # Textures
//
// Texture values carry a Resource tagged with the API that created it.
// Backends recover their own objects with ResourceOf, which refuses textures
// created by another API instead of reinterpreting them.
//
// # Available Backends
//
//   - "d3d9": legacy backend with state blocks and packed vertices
//   - "d3d10", "d3d11": shader-based backends sharing internal/dx
//   - "d3d12", "vulkan": command-list backend on gogpu/wgpu hal
//   - "opengl": GL 3.3 backend loaded with purego
package backend
