// Package d3d10 provides the Direct3D 10 backend.
//
// Direct3D 10 has no separate device context: the Device records state and
// draws itself. Importing this package registers the backend for
// backend.APID3D10.
package d3d10

import (
	"fmt"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/d3dcompile"
	"github.com/gogpu/imdraw/internal/dx"
)

// ShaderModel is the HLSL profile suffix used for the built-in program.
const ShaderModel = "4_0"

// Device is an ID3D10Device.
type Device interface {
	dx.Creator
	dx.Context
	Release()
}

// SwapChain is an IDXGISwapChain created for a Direct3D 10 device.
type SwapChain interface {
	Device() (Device, error)
	BackBuffer(i int) (dx.Texture2D, error)
}

// Option configures a Backend.
type Option func(*dx.Config)

// WithCompiler replaces the HLSL compiler.
func WithCompiler(f d3dcompile.Func) Option {
	return func(c *dx.Config) { c.Compile = f }
}

// Backend draws through a Direct3D 10 device.
type Backend struct {
	*dx.Backend
}

// New returns an uninitialized Direct3D 10 backend.
func New(opts ...Option) *Backend {
	cfg := dx.Config{
		API:         backend.APID3D10,
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
		return nil, fmt.Errorf("%w: %T is not a d3d10.SwapChain", backend.ErrInvalidHandle, handle)
	}
	dev, err := sc.Device()
	if err != nil {
		return nil, fmt.Errorf("d3d10: get device: %w", err)
	}
	return &dx.Device{
		Creator:    dev,
		Context:    dev,
		BackBuffer: sc.BackBuffer,
		Release:    dev.Release,
	}, nil
}

func init() {
	backend.Register(backend.APID3D10, func() backend.Backend { return New() })
}
