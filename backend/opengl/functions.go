package opengl

// Functions is the subset of the OpenGL 3.3 core API the backend calls.
// LoadFunctions returns an implementation backed by the system library;
// the current context must be made current on the calling thread first.
type Functions interface {
	GetGraphicsResetStatus() Enum
	GetError() Enum
	GetIntegerv(pname Enum, dst []int32)
	GetFloatv(pname Enum, dst []float32)
	GetBooleanv(pname Enum, dst []bool)
	IsEnabled(capability Enum) bool
	Enable(capability Enum)
	Disable(capability Enum)

	CreateShader(typ Enum) uint32
	ShaderSource(s uint32, src string)
	CompileShader(s uint32)
	GetShaderi(s uint32, pname Enum) int32
	GetShaderInfoLog(s uint32) string
	DeleteShader(s uint32)
	CreateProgram() uint32
	AttachShader(p, s uint32)
	BindAttribLocation(p, index uint32, name string)
	LinkProgram(p uint32)
	GetProgrami(p uint32, pname Enum) int32
	GetProgramInfoLog(p uint32) string
	DeleteProgram(p uint32)
	UseProgram(p uint32)
	GetUniformLocation(p uint32, name string) int32
	Uniform1i(loc, v int32)
	UniformMatrix4fv(loc int32, m *[16]float32)

	GenVertexArray() uint32
	DeleteVertexArray(v uint32)
	BindVertexArray(v uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ Enum, normalized bool, stride int32, offset uintptr)
	GenBuffer() uint32
	DeleteBuffer(b uint32)
	BindBuffer(target Enum, b uint32)
	BufferData(target Enum, size int, data []byte, usage Enum)
	BufferSubData(target Enum, offset int, data []byte)

	GenTexture() uint32
	DeleteTexture(t uint32)
	ActiveTexture(unit Enum)
	BindTexture(target Enum, t uint32)
	TexParameteri(target, pname Enum, v int32)
	TexImage2D(target Enum, level, internalFormat, width, height int32, format, typ Enum, pixels []byte)
	TexSubImage2D(target Enum, level, x, y, width, height int32, format, typ Enum, pixels []byte)
	GetTexImage(target Enum, level int32, format, typ Enum, dst []byte)
	PixelStorei(pname Enum, v int32)
	GenSampler() uint32
	DeleteSampler(s uint32)
	SamplerParameteri(s uint32, pname Enum, v int32)
	BindSampler(unit, s uint32)

	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha Enum)
	BlendEquationSeparate(modeRGB, modeAlpha Enum)
	CullFace(mode Enum)
	FrontFace(mode Enum)
	PolygonMode(face, mode Enum)
	ColorMask(r, g, b, a bool)
	SampleMaski(index, mask uint32)
	Viewport(x, y, width, height int32)
	DepthRange(near, far float64)
	DrawElements(mode Enum, count int32, typ Enum, offset uintptr)
}

// ScreenGrabber captures the window contents for BackBuffer. Pixels are
// BGRA, top row first, tightly packed.
type ScreenGrabber interface {
	Grab() (pixels []byte, width, height int, err error)
}

// Context is the native handle accepted by Init. Screen may be nil, in
// which case BackBuffer is unavailable.
type Context struct {
	Functions Functions
	Screen    ScreenGrabber
}
