// Package all registers every imdraw backend.
//
//	import _ "github.com/gogpu/imdraw/backend/all"
//
// The OpenGL backend loads its functions through purego, which links its
// own fake cgo runtime. So does goffi, used by the native hal backends in
// github.com/gogpu/wgpu/hal/allbackends. A binary cannot link both: import
// the backend packages it needs individually instead of this one.
package all

import (
	_ "github.com/gogpu/imdraw/backend/cmdlist" // D3D12 and Vulkan slots
	_ "github.com/gogpu/imdraw/backend/d3d10"
	_ "github.com/gogpu/imdraw/backend/d3d11"
	_ "github.com/gogpu/imdraw/backend/d3d9"
	_ "github.com/gogpu/imdraw/backend/opengl"
)
