// Package d3d11 provides the Direct3D 11 backend.
//
// The native handle passed to Init is a SwapChain. The device, its
// immediate context and the swap chain buffers are reached through the
// interfaces below, which the host implements over its COM objects.
//
// Importing this package registers the backend for backend.APID3D11.
package d3d11

import (
	"fmt"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/d3dcompile"
	"github.com/gogpu/imdraw/internal/dx"
)

// ShaderModel is the HLSL profile suffix used for the built-in program.
const ShaderModel = "5_0"

// Device is an ID3D11Device.
type Device interface {
	dx.Creator
	ImmediateContext() dx.Context
	Release()
}

// SwapChain is an IDXGISwapChain created for a Direct3D 11 device.
type SwapChain interface {
	// Device returns a new reference to the device that owns the swap chain.
	Device() (Device, error)

	// BackBuffer returns a new reference to buffer i.
	BackBuffer(i int) (dx.Texture2D, error)
}

// Option configures a Backend.
type Option func(*dx.Config)

// WithCompiler replaces the HLSL compiler. The default is d3dcompile.Compile.
func WithCompiler(f d3dcompile.Func) Option {
	return func(c *dx.Config) { c.Compile = f }
}

// Backend draws through a Direct3D 11 device and immediate context.
type Backend struct {
	*dx.Backend
}

// New returns an uninitialized Direct3D 11 backend.
func New(opts ...Option) *Backend {
	cfg := dx.Config{
		API:         backend.APID3D11,
		ShaderModel: ShaderModel,
		Acquire:     acquire,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Backend{Backend: dx.NewBackend(cfg)}
}

func acquire(handle any) (*dx.Device, error) {
	sc, ok := handle.(SwapChain)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a d3d11.SwapChain", backend.ErrInvalidHandle, handle)
	}
	dev, err := sc.Device()
	if err != nil {
		return nil, fmt.Errorf("d3d11: get device: %w", err)
	}
	return &dx.Device{
		Creator:    dev,
		Context:    dev.ImmediateContext(),
		BackBuffer: sc.BackBuffer,
		Release:    dev.Release,
	}, nil
}

func init() {
	backend.Register(backend.APID3D11, func() backend.Backend { return New() })
}
