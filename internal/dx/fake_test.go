package dx

import (
	"errors"
	"fmt"

	"github.com/gogpu/imdraw/backend"
)

type fakeObject struct {
	kind     string
	released bool
}

func (o *fakeObject) Release() {
	if o != nil {
		o.released = true
	}
}

type fakeBuffer struct {
	fakeObject
	desc BufferDesc
	data []byte
}

type fakeTexture struct {
	fakeObject
	desc Texture2DDesc
	data []byte
}

func (t *fakeTexture) Desc() Texture2DDesc { return t.desc }

// fakeDevice implements Creator and Context the way an ID3D10Device does.
type fakeDevice struct {
	fail    map[string]error
	removed error
	objects []Object
	calls   []string

	backBuffer *fakeTexture

	rs  RasterizerState
	bs  BlendState
	ds  DepthStencilState
	rtv RenderTargetView

	views      []ShaderResourceView
	vsViews    []ShaderResourceView
	vsSamplers []SamplerState
	psSamplers []SamplerState
	vs         VertexShader
	ps         PixelShader
	layout     InputLayout
	updates    int
	topology   PrimitiveTopology
	viewport   Viewport
	drawn      uint32
	drawBlend  BlendState
	sampleMask uint32
	copies     int
	unmapped   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		fail:       map[string]error{},
		backBuffer: &fakeTexture{fakeObject: fakeObject{kind: "backbuffer"}, desc: Texture2DDesc{Width: 4, Height: 2, Format: FormatB8G8R8A8Unorm}},
		rs:         &fakeObject{kind: "host-raster"},
		bs:         &fakeObject{kind: "host-blend"},
		ds:         &fakeObject{kind: "host-depth"},
		rtv:        &fakeObject{kind: "host-rtv"},
	}
}

func (d *fakeDevice) acquire(handle any) (*Device, error) {
	if handle != d {
		return nil, backend.ErrInvalidHandle
	}
	return &Device{
		Creator: d,
		Context: d,
		BackBuffer: func(i int) (Texture2D, error) {
			if i != 0 {
				return nil, fmt.Errorf("buffer %d", i)
			}
			return d.backBuffer, nil
		},
	}, nil
}

func (d *fakeDevice) create(kind string) (*fakeObject, error) {
	if err := d.fail[kind]; err != nil {
		return nil, err
	}
	o := &fakeObject{kind: kind}
	d.objects = append(d.objects, o)
	return o, nil
}

func (d *fakeDevice) count(kind string) (live, released int) {
	for _, o := range d.objects {
		var fo *fakeObject
		switch v := o.(type) {
		case *fakeObject:
			fo = v
		case *fakeBuffer:
			fo = &v.fakeObject
		case *fakeTexture:
			fo = &v.fakeObject
		}
		if fo.kind != kind {
			continue
		}
		if fo.released {
			released++
		} else {
			live++
		}
	}
	return live, released
}

func (d *fakeDevice) CreateBuffer(desc *BufferDesc, _ []byte) (Buffer, error) {
	if err := d.fail["CreateBuffer"]; err != nil {
		return nil, err
	}
	b := &fakeBuffer{fakeObject: fakeObject{kind: "CreateBuffer"}, desc: *desc, data: make([]byte, desc.ByteWidth)}
	d.objects = append(d.objects, b)
	return b, nil
}

func (d *fakeDevice) CreateTexture2D(desc *Texture2DDesc, initial []byte, _ uint32) (Texture2D, error) {
	if err := d.fail["CreateTexture2D"]; err != nil {
		return nil, err
	}
	t := &fakeTexture{fakeObject: fakeObject{kind: "CreateTexture2D"}, desc: *desc}
	t.data = make([]byte, desc.Width*desc.Height*4)
	copy(t.data, initial)
	d.objects = append(d.objects, t)
	return t, nil
}

func (d *fakeDevice) CreateShaderResourceView(Texture2D) (ShaderResourceView, error) {
	return d.create("CreateShaderResourceView")
}

func (d *fakeDevice) CreateRenderTargetView(Texture2D) (RenderTargetView, error) {
	return d.create("CreateRenderTargetView")
}

func (d *fakeDevice) CreateVertexShader([]byte) (VertexShader, error) {
	return d.create("CreateVertexShader")
}

func (d *fakeDevice) CreatePixelShader([]byte) (PixelShader, error) {
	return d.create("CreatePixelShader")
}

func (d *fakeDevice) CreateInputLayout([]InputElementDesc, []byte) (InputLayout, error) {
	return d.create("CreateInputLayout")
}

func (d *fakeDevice) CreateSamplerState(*SamplerDesc) (SamplerState, error) {
	return d.create("CreateSamplerState")
}

func (d *fakeDevice) CreateBlendState(*BlendDesc) (BlendState, error) {
	return d.create("CreateBlendState")
}

func (d *fakeDevice) CreateRasterizerState(*RasterizerDesc) (RasterizerState, error) {
	return d.create("CreateRasterizerState")
}

func (d *fakeDevice) CreateDepthStencilState(*DepthStencilDesc) (DepthStencilState, error) {
	return d.create("CreateDepthStencilState")
}

func (d *fakeDevice) GetDeviceRemovedReason() error { return d.removed }

func (d *fakeDevice) Map(res Object, mode MapMode) (MappedSubresource, error) {
	d.calls = append(d.calls, "Map")
	if err := d.fail["Map"]; err != nil {
		return MappedSubresource{}, err
	}
	switch r := res.(type) {
	case *fakeBuffer:
		return MappedSubresource{Data: r.data}, nil
	case *fakeTexture:
		return MappedSubresource{Data: r.data, RowPitch: r.desc.Width * 4}, nil
	}
	return MappedSubresource{}, errors.New("fake: not mappable")
}

func (d *fakeDevice) Unmap(Object) { d.unmapped++ }

func (d *fakeDevice) UpdateSubresource(res Object, data []byte, _ uint32) {
	d.updates++
	if t, ok := res.(*fakeTexture); ok {
		copy(t.data, data)
	}
}

func (d *fakeDevice) CopyResource(dst, src Object) {
	d.copies++
	dt, ok1 := dst.(*fakeTexture)
	st, ok2 := src.(*fakeTexture)
	if ok1 && ok2 {
		if dt.data == nil {
			dt.data = make([]byte, len(st.data))
		}
		copy(dt.data, st.data)
	}
}

func (d *fakeDevice) IASetInputLayout(l InputLayout) {
	d.layout = l
	d.calls = append(d.calls, "IASetInputLayout")
}
func (d *fakeDevice) IASetVertexBuffer(Buffer, uint32, uint32) {
	d.calls = append(d.calls, "IASetVertexBuffer")
}
func (d *fakeDevice) IASetIndexBuffer(Buffer, Format, uint32) {
	d.calls = append(d.calls, "IASetIndexBuffer")
}
func (d *fakeDevice) IASetPrimitiveTopology(t PrimitiveTopology) { d.topology = t }

func (d *fakeDevice) VSSetShader(vs VertexShader)                           { d.vs = vs }
func (d *fakeDevice) VSSetConstantBuffer(uint32, Buffer)                    {}
func (d *fakeDevice) VSSetShaderResources(_ uint32, v []ShaderResourceView) { d.vsViews = v }
func (d *fakeDevice) VSSetSamplers(_ uint32, s []SamplerState)              { d.vsSamplers = s }

func (d *fakeDevice) PSSetShader(ps PixelShader)                            { d.ps = ps }
func (d *fakeDevice) PSSetConstantBuffer(uint32, Buffer)                    {}
func (d *fakeDevice) PSSetShaderResources(_ uint32, v []ShaderResourceView) { d.views = v }
func (d *fakeDevice) PSSetSamplers(_ uint32, s []SamplerState)              { d.psSamplers = s }

func (d *fakeDevice) RSSetState(rs RasterizerState) { d.rs = rs }
func (d *fakeDevice) RSGetState() RasterizerState   { return snapshot(d.rs) }
func (d *fakeDevice) RSSetViewport(vp Viewport)     { d.viewport = vp }

func (d *fakeDevice) OMSetBlendState(bs BlendState, _ [4]float32, mask uint32) {
	d.bs, d.sampleMask = bs, mask
}

func (d *fakeDevice) OMGetBlendState() (BlendState, [4]float32, uint32) {
	return snapshot(d.bs), [4]float32{}, d.sampleMask
}

func (d *fakeDevice) OMSetDepthStencilState(ds DepthStencilState, _ uint32) { d.ds = ds }
func (d *fakeDevice) OMGetDepthStencilState() (DepthStencilState, uint32) {
	return snapshot(d.ds), 0
}

func (d *fakeDevice) OMSetRenderTarget(rtv RenderTargetView) { d.rtv = rtv }
func (d *fakeDevice) OMGetRenderTarget() RenderTargetView    { return snapshot(d.rtv) }

func (d *fakeDevice) DrawIndexed(n, _ uint32, _ int32) {
	d.drawn = n
	d.drawBlend = d.bs
}

// snapshot models the extra reference a COM getter returns.
func snapshot(o Object) *fakeObject {
	if fo, ok := o.(*fakeObject); ok {
		return &fakeObject{kind: fo.kind}
	}
	return nil
}

func fakeCompile(_ []byte, entry, target string) ([]byte, error) {
	return []byte(entry + "@" + target), nil
}
