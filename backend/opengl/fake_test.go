package opengl

import "strings"

type fakeTexture struct {
	width, height int32
	pixels        []byte
}

type fakeDraw struct {
	mode     Enum
	count    int32
	program  uint32
	textures [2]uint32
	blend    bool
	viewport [4]int32
}

// fakeGL is a small GL state machine. Bindings and capabilities behave like
// a real context so save/restore can be checked end to end.
type fakeGL struct {
	next  uint32
	reset Enum
	err   Enum

	failCompile    bool
	failLink       bool
	missingUniform string
	noVAO          bool
	noSampler      bool

	program     uint32
	vao         uint32
	arrayBuf    uint32
	elementBuf  uint32
	unit        int
	units       [2]uint32
	samplers    [2]uint32
	enabled     map[Enum]bool
	blendFunc   [4]Enum
	blendEq     [2]Enum
	cullFace    Enum
	frontFace   Enum
	polygonMode Enum
	colorMask   [4]bool
	sampleMask  uint32
	viewport    [4]int32
	depthRange  [2]float64

	shaders        map[uint32]string
	uniformLocs    map[string]int32
	uniformInts    map[int32]int32
	proj           [16]float32
	attribs        map[uint32]string
	textures       map[uint32]*fakeTexture
	buffers        map[uint32][]byte
	deletedTex     []uint32
	deletedObjects int
	deletedProgs   []uint32
	subUploads     int
	draws          []fakeDraw
}

func newFakeGL() *fakeGL {
	return &fakeGL{
		next:        1,
		enabled:     map[Enum]bool{},
		blendFunc:   [4]Enum{ONE, ZERO, ONE, ZERO},
		blendEq:     [2]Enum{FUNC_ADD, FUNC_ADD},
		cullFace:    BACK,
		frontFace:   CCW,
		polygonMode: FILL,
		colorMask:   [4]bool{true, true, true, true},
		sampleMask:  0xFFFFFFFF,
		depthRange:  [2]float64{0, 1},
		shaders:     map[uint32]string{},
		uniformLocs: map[string]int32{},
		uniformInts: map[int32]int32{},
		attribs:     map[uint32]string{},
		textures:    map[uint32]*fakeTexture{},
		buffers:     map[uint32][]byte{},
	}
}

func (f *fakeGL) gen() uint32 {
	id := f.next
	f.next++
	return id
}

func (f *fakeGL) GetGraphicsResetStatus() Enum { return f.reset }

func (f *fakeGL) GetError() Enum {
	e := f.err
	f.err = NO_ERROR
	return e
}

func (f *fakeGL) GetIntegerv(pname Enum, dst []int32) {
	var v []int32
	switch pname {
	case CURRENT_PROGRAM:
		v = []int32{int32(f.program)}
	case VERTEX_ARRAY_BINDING:
		v = []int32{int32(f.vao)}
	case ARRAY_BUFFER_BINDING:
		v = []int32{int32(f.arrayBuf)}
	case ELEMENT_ARRAY_BUFFER_BINDING:
		v = []int32{int32(f.elementBuf)}
	case ACTIVE_TEXTURE:
		v = []int32{int32(TEXTURE0) + int32(f.unit)}
	case TEXTURE_BINDING_2D:
		v = []int32{int32(f.units[f.unit])}
	case SAMPLER_BINDING:
		v = []int32{int32(f.samplers[f.unit])}
	case BLEND_SRC_RGB:
		v = []int32{int32(f.blendFunc[0])}
	case BLEND_DST_RGB:
		v = []int32{int32(f.blendFunc[1])}
	case BLEND_SRC_ALPHA:
		v = []int32{int32(f.blendFunc[2])}
	case BLEND_DST_ALPHA:
		v = []int32{int32(f.blendFunc[3])}
	case BLEND_EQUATION_RGB:
		v = []int32{int32(f.blendEq[0])}
	case BLEND_EQUATION_ALPHA:
		v = []int32{int32(f.blendEq[1])}
	case CULL_FACE_MODE:
		v = []int32{int32(f.cullFace)}
	case FRONT_FACE:
		v = []int32{int32(f.frontFace)}
	case POLYGON_MODE:
		v = []int32{int32(f.polygonMode), int32(f.polygonMode)}
	case VIEWPORT:
		v = f.viewport[:]
	}
	copy(dst, v)
}

func (f *fakeGL) GetFloatv(pname Enum, dst []float32) {
	if pname == DEPTH_RANGE && len(dst) >= 2 {
		dst[0], dst[1] = float32(f.depthRange[0]), float32(f.depthRange[1])
	}
}

func (f *fakeGL) GetBooleanv(pname Enum, dst []bool) {
	if pname == COLOR_WRITEMASK {
		copy(dst, f.colorMask[:])
	}
}

func (f *fakeGL) IsEnabled(c Enum) bool { return f.enabled[c] }
func (f *fakeGL) Enable(c Enum)         { f.enabled[c] = true }
func (f *fakeGL) Disable(c Enum)        { f.enabled[c] = false }

func (f *fakeGL) CreateShader(Enum) uint32 { return f.gen() }

func (f *fakeGL) ShaderSource(s uint32, src string) { f.shaders[s] = src }
func (f *fakeGL) CompileShader(uint32)              {}

func (f *fakeGL) GetShaderi(s uint32, pname Enum) int32 {
	if pname == COMPILE_STATUS && (f.failCompile || !strings.HasPrefix(f.shaders[s], "#version 330")) {
		return 0
	}
	return 1
}

func (f *fakeGL) GetShaderInfoLog(uint32) string { return "0:1: syntax error\n" }
func (f *fakeGL) DeleteShader(uint32)            { f.deletedObjects++ }
func (f *fakeGL) CreateProgram() uint32          { return f.gen() }
func (f *fakeGL) AttachShader(_, _ uint32)       {}

func (f *fakeGL) BindAttribLocation(_, index uint32, name string) { f.attribs[index] = name }

func (f *fakeGL) LinkProgram(uint32) {}

func (f *fakeGL) GetProgrami(_ uint32, pname Enum) int32 {
	if pname == LINK_STATUS && f.failLink {
		return 0
	}
	return 1
}

func (f *fakeGL) GetProgramInfoLog(uint32) string { return "link error" }
func (f *fakeGL) UseProgram(p uint32)             { f.program = p }

func (f *fakeGL) DeleteProgram(p uint32) {
	f.deletedObjects++
	f.deletedProgs = append(f.deletedProgs, p)
}

func (f *fakeGL) GetUniformLocation(_ uint32, name string) int32 {
	if name == f.missingUniform {
		return -1
	}
	loc, ok := f.uniformLocs[name]
	if !ok {
		loc = int32(len(f.uniformLocs))
		f.uniformLocs[name] = loc
	}
	return loc
}

func (f *fakeGL) Uniform1i(loc, v int32)                   { f.uniformInts[loc] = v }
func (f *fakeGL) UniformMatrix4fv(_ int32, m *[16]float32) { f.proj = *m }

func (f *fakeGL) uniform(name string) int32 { return f.uniformInts[f.uniformLocs[name]] }

func (f *fakeGL) GenVertexArray() uint32 {
	if f.noVAO {
		return 0
	}
	return f.gen()
}

func (f *fakeGL) DeleteVertexArray(uint32)       { f.deletedObjects++ }
func (f *fakeGL) BindVertexArray(v uint32)       { f.vao = v }
func (f *fakeGL) EnableVertexAttribArray(uint32) {}

func (f *fakeGL) VertexAttribPointer(uint32, int32, Enum, bool, int32, uintptr) {}

func (f *fakeGL) GenBuffer() uint32   { return f.gen() }
func (f *fakeGL) DeleteBuffer(uint32) { f.deletedObjects++ }

func (f *fakeGL) BindBuffer(target Enum, b uint32) {
	if target == ARRAY_BUFFER {
		f.arrayBuf = b
	} else {
		f.elementBuf = b
	}
}

func (f *fakeGL) bound(target Enum) uint32 {
	if target == ARRAY_BUFFER {
		return f.arrayBuf
	}
	return f.elementBuf
}

func (f *fakeGL) BufferData(target Enum, size int, data []byte, _ Enum) {
	buf := make([]byte, size)
	copy(buf, data)
	f.buffers[f.bound(target)] = buf
}

func (f *fakeGL) BufferSubData(target Enum, offset int, data []byte) {
	copy(f.buffers[f.bound(target)][offset:], data)
}

func (f *fakeGL) GenTexture() uint32 { return f.gen() }

func (f *fakeGL) DeleteTexture(t uint32) {
	delete(f.textures, t)
	f.deletedTex = append(f.deletedTex, t)
}

func (f *fakeGL) ActiveTexture(unit Enum)         { f.unit = int(unit - TEXTURE0) }
func (f *fakeGL) BindTexture(_ Enum, t uint32)    { f.units[f.unit] = t }
func (f *fakeGL) TexParameteri(Enum, Enum, int32) {}

func (f *fakeGL) TexImage2D(_ Enum, _, _, width, height int32, _, _ Enum, pixels []byte) {
	t := &fakeTexture{width: width, height: height, pixels: make([]byte, width*height*4)}
	copy(t.pixels, pixels)
	f.textures[f.units[f.unit]] = t
}

func (f *fakeGL) TexSubImage2D(_ Enum, _, x, y, width, height int32, _, _ Enum, pixels []byte) {
	f.subUploads++
	t, ok := f.textures[f.units[f.unit]]
	if !ok {
		f.err = Enum(0x0502) // GL_INVALID_OPERATION
		return
	}
	for row := int32(0); row < height; row++ {
		dst := ((y+row)*t.width + x) * 4
		copy(t.pixels[dst:dst+width*4], pixels[row*width*4:])
	}
}

func (f *fakeGL) GetTexImage(_ Enum, _ int32, _, _ Enum, dst []byte) {
	if t, ok := f.textures[f.units[f.unit]]; ok {
		copy(dst, t.pixels)
	}
}

func (f *fakeGL) PixelStorei(Enum, int32) {}

func (f *fakeGL) GenSampler() uint32 {
	if f.noSampler {
		return 0
	}
	return f.gen()
}

func (f *fakeGL) DeleteSampler(uint32)                  { f.deletedObjects++ }
func (f *fakeGL) SamplerParameteri(uint32, Enum, int32) {}
func (f *fakeGL) BindSampler(unit, s uint32)            { f.samplers[unit] = s }

func (f *fakeGL) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha Enum) {
	f.blendFunc = [4]Enum{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

func (f *fakeGL) BlendEquationSeparate(modeRGB, modeAlpha Enum) {
	f.blendEq = [2]Enum{modeRGB, modeAlpha}
}

func (f *fakeGL) CullFace(mode Enum)           { f.cullFace = mode }
func (f *fakeGL) FrontFace(mode Enum)          { f.frontFace = mode }
func (f *fakeGL) PolygonMode(_, mode Enum)     { f.polygonMode = mode }
func (f *fakeGL) ColorMask(r, g, b, a bool)    { f.colorMask = [4]bool{r, g, b, a} }
func (f *fakeGL) SampleMaski(_, mask uint32)   { f.sampleMask = mask }
func (f *fakeGL) Viewport(x, y, w, h int32)    { f.viewport = [4]int32{x, y, w, h} }
func (f *fakeGL) DepthRange(near, far float64) { f.depthRange = [2]float64{near, far} }

func (f *fakeGL) DrawElements(mode Enum, count int32, _ Enum, _ uintptr) {
	f.draws = append(f.draws, fakeDraw{
		mode:     mode,
		count:    count,
		program:  f.program,
		textures: f.units,
		blend:    f.enabled[BLEND],
		viewport: f.viewport,
	})
}

type fakeScreen struct {
	pixels []byte
	w, h   int
	err    error
}

func (s *fakeScreen) Grab() ([]byte, int, int, error) { return s.pixels, s.w, s.h, s.err }

var _ Functions = (*fakeGL)(nil)
