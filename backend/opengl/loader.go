//go:build darwin || freebsd || linux || netbsd || windows

package opengl

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// glFuncs implements Functions with entry points registered through purego.
type glFuncs struct {
	glGetGraphicsResetStatus func() uint32
	glGetError               func() uint32
	glGetIntegerv            func(pname uint32, data *int32)
	glGetFloatv              func(pname uint32, data *float32)
	glGetBooleanv            func(pname uint32, data *uint8)
	glIsEnabled              func(capability uint32) uint8
	glEnable                 func(capability uint32)
	glDisable                func(capability uint32)

	glCreateShader       func(typ uint32) uint32
	glShaderSource       func(s uint32, count int32, src **byte, length *int32)
	glCompileShader      func(s uint32)
	glGetShaderiv        func(s uint32, pname uint32, v *int32)
	glGetShaderInfoLog   func(s uint32, size int32, length *int32, log *byte)
	glDeleteShader       func(s uint32)
	glCreateProgram      func() uint32
	glAttachShader       func(p, s uint32)
	glBindAttribLocation func(p, index uint32, name string)
	glLinkProgram        func(p uint32)
	glGetProgramiv       func(p uint32, pname uint32, v *int32)
	glGetProgramInfoLog  func(p uint32, size int32, length *int32, log *byte)
	glDeleteProgram      func(p uint32)
	glUseProgram         func(p uint32)
	glGetUniformLocation func(p uint32, name string) int32
	glUniform1i          func(loc, v int32)
	glUniformMatrix4fv   func(loc, count int32, transpose uint8, v *float32)

	glGenVertexArrays         func(n int32, v *uint32)
	glDeleteVertexArrays      func(n int32, v *uint32)
	glBindVertexArray         func(v uint32)
	glEnableVertexAttribArray func(index uint32)
	glVertexAttribPointer     func(index uint32, size int32, typ uint32, normalized uint8, stride int32, offset uintptr)
	glGenBuffers              func(n int32, b *uint32)
	glDeleteBuffers           func(n int32, b *uint32)
	glBindBuffer              func(target, b uint32)
	glBufferData              func(target uint32, size int, data unsafe.Pointer, usage uint32)
	glBufferSubData           func(target uint32, offset, size int, data unsafe.Pointer)

	glGenTextures       func(n int32, t *uint32)
	glDeleteTextures    func(n int32, t *uint32)
	glActiveTexture     func(unit uint32)
	glBindTexture       func(target, t uint32)
	glTexParameteri     func(target, pname uint32, v int32)
	glTexImage2D        func(target uint32, level, internalFormat, width, height, border int32, format, typ uint32, pixels unsafe.Pointer)
	glTexSubImage2D     func(target uint32, level, x, y, width, height int32, format, typ uint32, pixels unsafe.Pointer)
	glGetTexImage       func(target uint32, level int32, format, typ uint32, pixels unsafe.Pointer)
	glPixelStorei       func(pname uint32, v int32)
	glGenSamplers       func(n int32, s *uint32)
	glDeleteSamplers    func(n int32, s *uint32)
	glSamplerParameteri func(s, pname uint32, v int32)
	glBindSampler       func(unit, s uint32)

	glBlendFuncSeparate     func(srcRGB, dstRGB, srcAlpha, dstAlpha uint32)
	glBlendEquationSeparate func(modeRGB, modeAlpha uint32)
	glCullFace              func(mode uint32)
	glFrontFace             func(mode uint32)
	glPolygonMode           func(face, mode uint32)
	glColorMask             func(r, g, b, a uint8)
	glSampleMaski           func(index, mask uint32)
	glViewport              func(x, y, width, height int32)
	glDepthRange            func(near, far float64)
	glDrawElements          func(mode uint32, count int32, typ uint32, offset uintptr)
}

type symbol struct {
	name     string
	fptr     any
	optional bool
}

func (f *glFuncs) symbols() []symbol {
	return []symbol{
		{"glGetGraphicsResetStatus", &f.glGetGraphicsResetStatus, true},
		{"glGetError", &f.glGetError, false},
		{"glGetIntegerv", &f.glGetIntegerv, false},
		{"glGetFloatv", &f.glGetFloatv, false},
		{"glGetBooleanv", &f.glGetBooleanv, false},
		{"glIsEnabled", &f.glIsEnabled, false},
		{"glEnable", &f.glEnable, false},
		{"glDisable", &f.glDisable, false},

		{"glCreateShader", &f.glCreateShader, false},
		{"glShaderSource", &f.glShaderSource, false},
		{"glCompileShader", &f.glCompileShader, false},
		{"glGetShaderiv", &f.glGetShaderiv, false},
		{"glGetShaderInfoLog", &f.glGetShaderInfoLog, false},
		{"glDeleteShader", &f.glDeleteShader, false},
		{"glCreateProgram", &f.glCreateProgram, false},
		{"glAttachShader", &f.glAttachShader, false},
		{"glBindAttribLocation", &f.glBindAttribLocation, false},
		{"glLinkProgram", &f.glLinkProgram, false},
		{"glGetProgramiv", &f.glGetProgramiv, false},
		{"glGetProgramInfoLog", &f.glGetProgramInfoLog, false},
		{"glDeleteProgram", &f.glDeleteProgram, false},
		{"glUseProgram", &f.glUseProgram, false},
		{"glGetUniformLocation", &f.glGetUniformLocation, false},
		{"glUniform1i", &f.glUniform1i, false},
		{"glUniformMatrix4fv", &f.glUniformMatrix4fv, false},

		{"glGenVertexArrays", &f.glGenVertexArrays, false},
		{"glDeleteVertexArrays", &f.glDeleteVertexArrays, false},
		{"glBindVertexArray", &f.glBindVertexArray, false},
		{"glEnableVertexAttribArray", &f.glEnableVertexAttribArray, false},
		{"glVertexAttribPointer", &f.glVertexAttribPointer, false},
		{"glGenBuffers", &f.glGenBuffers, false},
		{"glDeleteBuffers", &f.glDeleteBuffers, false},
		{"glBindBuffer", &f.glBindBuffer, false},
		{"glBufferData", &f.glBufferData, false},
		{"glBufferSubData", &f.glBufferSubData, false},

		{"glGenTextures", &f.glGenTextures, false},
		{"glDeleteTextures", &f.glDeleteTextures, false},
		{"glActiveTexture", &f.glActiveTexture, false},
		{"glBindTexture", &f.glBindTexture, false},
		{"glTexParameteri", &f.glTexParameteri, false},
		{"glTexImage2D", &f.glTexImage2D, false},
		{"glTexSubImage2D", &f.glTexSubImage2D, false},
		{"glGetTexImage", &f.glGetTexImage, false},
		{"glPixelStorei", &f.glPixelStorei, false},
		{"glGenSamplers", &f.glGenSamplers, false},
		{"glDeleteSamplers", &f.glDeleteSamplers, false},
		{"glSamplerParameteri", &f.glSamplerParameteri, false},
		{"glBindSampler", &f.glBindSampler, false},

		{"glBlendFuncSeparate", &f.glBlendFuncSeparate, false},
		{"glBlendEquationSeparate", &f.glBlendEquationSeparate, false},
		{"glCullFace", &f.glCullFace, false},
		{"glFrontFace", &f.glFrontFace, false},
		{"glPolygonMode", &f.glPolygonMode, false},
		{"glColorMask", &f.glColorMask, false},
		{"glSampleMaski", &f.glSampleMaski, false},
		{"glViewport", &f.glViewport, false},
		{"glDepthRange", &f.glDepthRange, false},
		{"glDrawElements", &f.glDrawElements, false},
	}
}

// LoadFunctions opens the system OpenGL library and resolves every entry
// point the backend uses. A context must be current on the calling thread
// on platforms where extension lookup depends on it.
func LoadFunctions() (Functions, error) {
	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}
	f := new(glFuncs)
	for _, s := range f.symbols() {
		addr := lookup(lib, s.name)
		if addr == 0 {
			if s.optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrMissingFunction, s.name)
		}
		purego.RegisterFunc(s.fptr, addr)
	}
	return f, nil
}

func glBool(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (f *glFuncs) GetGraphicsResetStatus() Enum {
	if f.glGetGraphicsResetStatus == nil {
		return NO_ERROR
	}
	return Enum(f.glGetGraphicsResetStatus())
}

func (f *glFuncs) GetError() Enum { return Enum(f.glGetError()) }

func (f *glFuncs) GetIntegerv(pname Enum, dst []int32) {
	if len(dst) > 0 {
		f.glGetIntegerv(uint32(pname), &dst[0])
	}
}

func (f *glFuncs) GetFloatv(pname Enum, dst []float32) {
	if len(dst) > 0 {
		f.glGetFloatv(uint32(pname), &dst[0])
	}
}

func (f *glFuncs) GetBooleanv(pname Enum, dst []bool) {
	var buf [4]uint8
	if len(dst) == 0 || len(dst) > len(buf) {
		return
	}
	f.glGetBooleanv(uint32(pname), &buf[0])
	for i := range dst {
		dst[i] = buf[i] != 0
	}
}

func (f *glFuncs) IsEnabled(capability Enum) bool { return f.glIsEnabled(uint32(capability)) != 0 }
func (f *glFuncs) Enable(capability Enum)         { f.glEnable(uint32(capability)) }
func (f *glFuncs) Disable(capability Enum)        { f.glDisable(uint32(capability)) }

func (f *glFuncs) CreateShader(typ Enum) uint32 { return f.glCreateShader(uint32(typ)) }

func (f *glFuncs) ShaderSource(s uint32, src string) {
	b := []byte(src)
	if len(b) == 0 {
		return
	}
	var pin runtime.Pinner
	pin.Pin(&b[0])
	defer pin.Unpin()
	p := &b[0]
	n := int32(len(b))
	f.glShaderSource(s, 1, &p, &n)
}

func (f *glFuncs) CompileShader(s uint32) { f.glCompileShader(s) }

func (f *glFuncs) GetShaderi(s uint32, pname Enum) int32 {
	var v int32
	f.glGetShaderiv(s, uint32(pname), &v)
	return v
}

func (f *glFuncs) GetShaderInfoLog(s uint32) string {
	n := f.GetShaderi(s, INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var written int32
	f.glGetShaderInfoLog(s, n, &written, &buf[0])
	return string(buf[:written])
}

func (f *glFuncs) DeleteShader(s uint32)    { f.glDeleteShader(s) }
func (f *glFuncs) CreateProgram() uint32    { return f.glCreateProgram() }
func (f *glFuncs) AttachShader(p, s uint32) { f.glAttachShader(p, s) }

func (f *glFuncs) BindAttribLocation(p, index uint32, name string) {
	f.glBindAttribLocation(p, index, name)
}

func (f *glFuncs) LinkProgram(p uint32) { f.glLinkProgram(p) }

func (f *glFuncs) GetProgrami(p uint32, pname Enum) int32 {
	var v int32
	f.glGetProgramiv(p, uint32(pname), &v)
	return v
}

func (f *glFuncs) GetProgramInfoLog(p uint32) string {
	n := f.GetProgrami(p, INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var written int32
	f.glGetProgramInfoLog(p, n, &written, &buf[0])
	return string(buf[:written])
}

func (f *glFuncs) DeleteProgram(p uint32) { f.glDeleteProgram(p) }
func (f *glFuncs) UseProgram(p uint32)    { f.glUseProgram(p) }

func (f *glFuncs) GetUniformLocation(p uint32, name string) int32 {
	return f.glGetUniformLocation(p, name)
}

func (f *glFuncs) Uniform1i(loc, v int32) { f.glUniform1i(loc, v) }

func (f *glFuncs) UniformMatrix4fv(loc int32, m *[16]float32) {
	f.glUniformMatrix4fv(loc, 1, 0, &m[0])
}

func (f *glFuncs) GenVertexArray() uint32 {
	var v uint32
	f.glGenVertexArrays(1, &v)
	return v
}

func (f *glFuncs) DeleteVertexArray(v uint32)       { f.glDeleteVertexArrays(1, &v) }
func (f *glFuncs) BindVertexArray(v uint32)         { f.glBindVertexArray(v) }
func (f *glFuncs) EnableVertexAttribArray(i uint32) { f.glEnableVertexAttribArray(i) }

func (f *glFuncs) VertexAttribPointer(index uint32, size int32, typ Enum, normalized bool, stride int32, offset uintptr) {
	f.glVertexAttribPointer(index, size, uint32(typ), glBool(normalized), stride, offset)
}

func (f *glFuncs) GenBuffer() uint32 {
	var b uint32
	f.glGenBuffers(1, &b)
	return b
}

func (f *glFuncs) DeleteBuffer(b uint32)            { f.glDeleteBuffers(1, &b) }
func (f *glFuncs) BindBuffer(target Enum, b uint32) { f.glBindBuffer(uint32(target), b) }

func (f *glFuncs) BufferData(target Enum, size int, data []byte, usage Enum) {
	f.glBufferData(uint32(target), size, bytesPtr(data), uint32(usage))
}

func (f *glFuncs) BufferSubData(target Enum, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	f.glBufferSubData(uint32(target), offset, len(data), unsafe.Pointer(&data[0]))
}

func (f *glFuncs) GenTexture() uint32 {
	var t uint32
	f.glGenTextures(1, &t)
	return t
}

func (f *glFuncs) DeleteTexture(t uint32)            { f.glDeleteTextures(1, &t) }
func (f *glFuncs) ActiveTexture(unit Enum)           { f.glActiveTexture(uint32(unit)) }
func (f *glFuncs) BindTexture(target Enum, t uint32) { f.glBindTexture(uint32(target), t) }
func (f *glFuncs) PixelStorei(pname Enum, v int32)   { f.glPixelStorei(uint32(pname), v) }

func (f *glFuncs) TexParameteri(target, pname Enum, v int32) {
	f.glTexParameteri(uint32(target), uint32(pname), v)
}

func (f *glFuncs) TexImage2D(target Enum, level, internalFormat, width, height int32, format, typ Enum, pixels []byte) {
	f.glTexImage2D(uint32(target), level, internalFormat, width, height, 0, uint32(format), uint32(typ), bytesPtr(pixels))
}

func (f *glFuncs) TexSubImage2D(target Enum, level, x, y, width, height int32, format, typ Enum, pixels []byte) {
	f.glTexSubImage2D(uint32(target), level, x, y, width, height, uint32(format), uint32(typ), bytesPtr(pixels))
}

func (f *glFuncs) GetTexImage(target Enum, level int32, format, typ Enum, dst []byte) {
	if len(dst) == 0 {
		return
	}
	f.glGetTexImage(uint32(target), level, uint32(format), uint32(typ), unsafe.Pointer(&dst[0]))
}

func (f *glFuncs) GenSampler() uint32 {
	var s uint32
	f.glGenSamplers(1, &s)
	return s
}

func (f *glFuncs) DeleteSampler(s uint32) { f.glDeleteSamplers(1, &s) }

func (f *glFuncs) SamplerParameteri(s uint32, pname Enum, v int32) {
	f.glSamplerParameteri(s, uint32(pname), v)
}

func (f *glFuncs) BindSampler(unit, s uint32) { f.glBindSampler(unit, s) }

func (f *glFuncs) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha Enum) {
	f.glBlendFuncSeparate(uint32(srcRGB), uint32(dstRGB), uint32(srcAlpha), uint32(dstAlpha))
}

func (f *glFuncs) BlendEquationSeparate(modeRGB, modeAlpha Enum) {
	f.glBlendEquationSeparate(uint32(modeRGB), uint32(modeAlpha))
}

func (f *glFuncs) CullFace(mode Enum)          { f.glCullFace(uint32(mode)) }
func (f *glFuncs) FrontFace(mode Enum)         { f.glFrontFace(uint32(mode)) }
func (f *glFuncs) PolygonMode(face, mode Enum) { f.glPolygonMode(uint32(face), uint32(mode)) }

func (f *glFuncs) ColorMask(r, g, b, a bool) {
	f.glColorMask(glBool(r), glBool(g), glBool(b), glBool(a))
}

func (f *glFuncs) SampleMaski(index, mask uint32)     { f.glSampleMaski(index, mask) }
func (f *glFuncs) Viewport(x, y, width, height int32) { f.glViewport(x, y, width, height) }
func (f *glFuncs) DepthRange(near, far float64)       { f.glDepthRange(near, far) }

func (f *glFuncs) DrawElements(mode Enum, count int32, typ Enum, offset uintptr) {
	f.glDrawElements(uint32(mode), count, uint32(typ), offset)
}

func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

var _ Functions = (*glFuncs)(nil)
