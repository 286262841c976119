package d3d9

import (
	"encoding/binary"
	"errors"

	"github.com/gogpu/imdraw/internal/d3dcompile"
)

type ctabEntry struct {
	name  string
	set   d3dcompile.RegisterSet
	index uint16
}

// ctabBytecode builds SM3 bytecode holding only a constant table.
func ctabBytecode(version uint32, entries []ctabEntry) []byte {
	le := binary.LittleEndian
	const headerSize, infoSize = 28, 20
	strOff := headerSize + len(entries)*infoSize

	var strs []byte

	header := make([]byte, headerSize)
	infos := make([]byte, len(entries)*infoSize)
	le.PutUint32(header[0:], headerSize)
	le.PutUint32(header[8:], version)
	le.PutUint32(header[12:], uint32(len(entries)))
	le.PutUint32(header[16:], headerSize)
	for i, e := range entries {
		o := i * infoSize
		le.PutUint32(infos[o:], uint32(strOff+len(strs)))
		strs = append(strs, e.name...)
		strs = append(strs, 0)
		le.PutUint16(infos[o+4:], uint16(e.set))
		le.PutUint16(infos[o+6:], e.index)
		le.PutUint16(infos[o+8:], 1)
	}
	payload := append(append(header, infos...), strs...)
	for len(payload)%4 != 0 {
		payload = append(payload, 0)
	}

	var out []byte
	out = le.AppendUint32(out, version)
	out = le.AppendUint32(out, uint32(1+len(payload)/4)<<16|0xFFFE)
	out = le.AppendUint32(out, 0x42415443) // "CTAB"
	out = append(out, payload...)
	out = le.AppendUint32(out, 0x0000FFFF)
	return out
}

var (
	vsConstants = []ctabEntry{{"proj", d3dcompile.RegisterFloat4, 4}}
	psConstants = []ctabEntry{
		{"hasTex", d3dcompile.RegisterBool, 0},
		{"hasMask", d3dcompile.RegisterBool, 1},
		{"swapColors", d3dcompile.RegisterBool, 2},
	}
)

func fakeCompiler(ps []ctabEntry) d3dcompile.Func {
	return func(_ []byte, entry, target string) ([]byte, error) {
		switch target {
		case "vs_3_0":
			return ctabBytecode(0xFFFE0300, vsConstants), nil
		case "ps_3_0":
			return ctabBytecode(0xFFFF0300, ps), nil
		}
		return nil, errors.New("fake: unexpected target " + target)
	}
}

type fakeObject struct{ released bool }

func (o *fakeObject) Release() { o.released = true }

type fakeBuffer struct {
	fakeObject
	data []byte
}

func (b *fakeBuffer) Lock(offset, size uint32, _ LockFlag) ([]byte, error) {
	return b.data[offset : offset+size], nil
}

func (b *fakeBuffer) Unlock() error { return nil }

type fakeSurface struct {
	fakeObject
	desc SurfaceDesc
	data []byte
}

func (s *fakeSurface) GetDesc() SurfaceDesc { return s.desc }

func (s *fakeSurface) LockRect(LockFlag) (LockedRect, error) {
	return LockedRect{Pitch: int(s.desc.Width) * 4, Bits: s.data}, nil
}

func (s *fakeSurface) UnlockRect() error { return nil }

type fakeTexture struct {
	fakeObject
	w, h uint32
	data []byte
}

func (t *fakeTexture) GetLevelDesc(uint32) SurfaceDesc {
	return SurfaceDesc{Format: FormatA8R8G8B8, Pool: PoolManaged, Width: t.w, Height: t.h}
}

func (t *fakeTexture) LockRect(uint32, LockFlag) (LockedRect, error) {
	return LockedRect{Pitch: int(t.w) * 4, Bits: t.data}, nil
}

func (t *fakeTexture) UnlockRect(uint32) error { return nil }

type fakeStateBlock struct {
	fakeObject
	applied bool
}

func (s *fakeStateBlock) Apply() error {
	s.applied = true
	return nil
}

type drawCall struct {
	typ         PrimitiveType
	numVertices uint32
	primCount   uint32
	blendAtDraw uint32
}

type fakeDevice struct {
	coop error
	fail map[string]error

	vb, ib      *fakeBuffer
	blocks      []*fakeStateBlock
	textures    []*fakeTexture
	backBuffer  *fakeSurface
	renderState map[RenderStateType]uint32
	samplers    map[[2]uint32]uint32
	constF      map[uint32][]float32
	constB      map[uint32]bool
	bound       [2]Texture
	shaders     []*fakeObject
	vs          VertexShader
	ps          PixelShader
	viewport    Viewport
	draws       []drawCall
}

func newFakeDevice() *fakeDevice {
	bb := &fakeSurface{desc: SurfaceDesc{Format: FormatX8R8G8B8, Width: 2, Height: 2}, data: make([]byte, 16)}
	return &fakeDevice{
		fail:        map[string]error{},
		backBuffer:  bb,
		renderState: map[RenderStateType]uint32{},
		samplers:    map[[2]uint32]uint32{},
		constF:      map[uint32][]float32{},
		constB:      map[uint32]bool{},
	}
}

func (d *fakeDevice) TestCooperativeLevel() error { return d.coop }

func (d *fakeDevice) CreateVertexBuffer(length, _ uint32, _ Pool) (Buffer, error) {
	if err := d.fail["CreateVertexBuffer"]; err != nil {
		return nil, err
	}
	d.vb = &fakeBuffer{data: make([]byte, length)}
	return d.vb, nil
}

func (d *fakeDevice) CreateIndexBuffer(length, _ uint32, _ Format, _ Pool) (Buffer, error) {
	d.ib = &fakeBuffer{data: make([]byte, length)}
	return d.ib, nil
}

func (d *fakeDevice) CreateVertexDeclaration([]VertexElement) (VertexDeclaration, error) {
	if err := d.fail["CreateVertexDeclaration"]; err != nil {
		return nil, err
	}
	return &fakeObject{}, nil
}

func (d *fakeDevice) CreateVertexShader([]byte) (VertexShader, error) { return d.newShader(), nil }
func (d *fakeDevice) CreatePixelShader([]byte) (PixelShader, error)   { return d.newShader(), nil }

func (d *fakeDevice) newShader() *fakeObject {
	o := &fakeObject{}
	d.shaders = append(d.shaders, o)
	return o
}

func (d *fakeDevice) CreateTexture(w, h, _, _ uint32, _ Format, _ Pool) (Texture, error) {
	t := &fakeTexture{w: w, h: h, data: make([]byte, w*h*4)}
	d.textures = append(d.textures, t)
	return t, nil
}

func (d *fakeDevice) CreateOffscreenPlainSurface(w, h uint32, f Format, p Pool) (Surface, error) {
	return &fakeSurface{desc: SurfaceDesc{Format: f, Pool: p, Width: w, Height: h}, data: make([]byte, w*h*4)}, nil
}

func (d *fakeDevice) CreateStateBlock(uint32) (StateBlock, error) {
	sb := &fakeStateBlock{}
	d.blocks = append(d.blocks, sb)
	return sb, nil
}

func (d *fakeDevice) GetBackBuffer(_, index uint32) (Surface, error) {
	if index != 0 {
		return nil, errors.New("D3DERR_INVALIDCALL")
	}
	return d.backBuffer, nil
}

func (d *fakeDevice) GetRenderTargetData(rt, dst Surface) error {
	copy(dst.(*fakeSurface).data, rt.(*fakeSurface).data)
	return nil
}

func (d *fakeDevice) SetRenderState(s RenderStateType, v uint32) error {
	d.renderState[s] = v
	return nil
}

func (d *fakeDevice) SetSamplerState(stage uint32, typ SamplerStateType, v uint32) error {
	if err := d.fail["SetSamplerState"]; err != nil {
		return err
	}
	d.samplers[[2]uint32{stage, uint32(typ)}] = v
	return nil
}

func (d *fakeDevice) SetTexture(stage uint32, tex Texture) error {
	d.bound[stage] = tex
	return nil
}

func (d *fakeDevice) SetStreamSource(uint32, Buffer, uint32, uint32) error { return nil }
func (d *fakeDevice) SetIndices(Buffer) error                              { return nil }
func (d *fakeDevice) SetVertexDeclaration(VertexDeclaration) error         { return nil }

func (d *fakeDevice) SetVertexShader(vs VertexShader) error {
	d.vs = vs
	return nil
}

func (d *fakeDevice) SetPixelShader(ps PixelShader) error {
	d.ps = ps
	return nil
}

func (d *fakeDevice) SetVertexShaderConstantF(start uint32, data []float32) error {
	d.constF[start] = append([]float32(nil), data...)
	return nil
}

func (d *fakeDevice) SetPixelShaderConstantB(start uint32, data []bool) error {
	d.constB[start] = data[0]
	return nil
}

func (d *fakeDevice) SetViewport(vp Viewport) error {
	d.viewport = vp
	return nil
}

func (d *fakeDevice) DrawIndexedPrimitive(typ PrimitiveType, _ int32, _, numVertices, _, primCount uint32) error {
	d.draws = append(d.draws, drawCall{typ, numVertices, primCount, d.renderState[RSAlphaBlendEnable]})
	return nil
}
