package cmdlist

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/backend"
)

// copyPitchAlignment is the row alignment required for texture to buffer copies.
const copyPitchAlignment = 256

func (b *Backend) newTexture(label string, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (*textureResource, error) {
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, err
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     label + "_view",
		Format:    format,
		Dimension: gputypes.TextureViewDimension2D,
		Aspect:    gputypes.TextureAspectAll,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return nil, err
	}
	return &textureResource{api: b.api, tex: tex, view: view, format: format, rest: gputypes.TextureUsageTextureBinding}, nil
}

func (b *Backend) destroyTexture(r *textureResource) {
	if r == nil || b.device == nil {
		return
	}
	if r.view != nil {
		b.device.DestroyTextureView(r.view)
	}
	if r.tex != nil && !r.external {
		b.device.DestroyTexture(r.tex)
	}
	r.tex, r.view = nil, nil
}

func (b *Backend) writeTexture(tex hal.Texture, w, h uint32, pixels []byte) error {
	return b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		pixels,
		&hal.ImageDataLayout{BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// CreateTexture implements backend.Backend.
func (b *Backend) CreateTexture(width, height int, pixels []byte) (*backend.Texture, error) {
	if b.device == nil {
		return nil, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", backend.ErrInvalidTextureSize, width, height)
	}
	if pixels != nil && len(pixels) < width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), width, height)
	}
	w, h := uint32(width), uint32(height)
	r, err := b.newTexture("imdraw_texture", w, h, gputypes.TextureFormatRGBA8Unorm, sampledUsage)
	if err != nil {
		return nil, fmt.Errorf("cmdlist: create texture: %w", err)
	}
	if pixels != nil {
		if err := b.writeTexture(r.tex, w, h, pixels[:width*height*4]); err != nil {
			b.destroyTexture(r)
			return nil, fmt.Errorf("cmdlist: upload texture: %w", err)
		}
	}
	return backend.NewTexture(b, b.api, width, height, gputypes.TextureFormatRGBA8Unorm, r, nil), nil
}

// UpdateTexture implements backend.Backend.
func (b *Backend) UpdateTexture(t *backend.Texture, pixels []byte) error {
	if b.device == nil {
		return backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, b.api)
	if !ok || r.tex == nil || r == b.target {
		return backend.ErrForeignTexture
	}
	n := t.Width * t.Height * 4
	if len(pixels) < n {
		return fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), t.Width, t.Height)
	}
	if err := b.writeTexture(r.tex, uint32(t.Width), uint32(t.Height), pixels[:n]); err != nil {
		b.markLost(err)
		return fmt.Errorf("cmdlist: update texture: %w", err)
	}
	return nil
}

const sampledUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc

// ReleaseTexture implements backend.TextureOwner.
func (b *Backend) ReleaseTexture(t *backend.Texture) {
	if r, ok := backend.ResourceOf[*textureResource](t, b.api); ok && r != b.target {
		b.destroyTexture(r)
	}
}

// BackBuffer implements backend.Backend. Index 0 is the render target.
func (b *Backend) BackBuffer(index int) (*backend.Texture, error) {
	if b.device == nil {
		return nil, backend.ErrNotInitialized
	}
	if index != 0 {
		return nil, fmt.Errorf("%w: index %d", backend.ErrNoBackBuffer, index)
	}
	return backend.NewTexture(b, b.api, int(b.width), int(b.height), b.target.format, b.target, nil), nil
}

// CopyResource implements backend.Backend. dst is reallocated when its
// size or format differs from src.
func (b *Backend) CopyResource(dst, src *backend.Texture) error {
	if b.device == nil {
		return backend.ErrNotInitialized
	}
	dr, ok := backend.ResourceOf[*textureResource](dst, b.api)
	if !ok {
		return fmt.Errorf("%w: destination", backend.ErrForeignTexture)
	}
	sr, ok := backend.ResourceOf[*textureResource](src, b.api)
	if !ok {
		return fmt.Errorf("%w: source", backend.ErrForeignTexture)
	}
	if dr == b.target {
		return fmt.Errorf("%w: cannot copy into the render target", backend.ErrForeignTexture)
	}
	if dst.Width != src.Width || dst.Height != src.Height || dr.format != sr.format {
		nr, err := b.newTexture("imdraw_texture", uint32(src.Width), uint32(src.Height), sr.format, sampledUsage)
		if err != nil {
			return fmt.Errorf("cmdlist: reallocate destination: %w", err)
		}
		b.destroyTexture(dr)
		*dr = *nr
		dst.Width, dst.Height = src.Width, src.Height
		dst.Format = sr.format
		dst.SwapColors = false
	}
	size := hal.Extent3D{Width: uint32(src.Width), Height: uint32(src.Height), DepthOrArrayLayers: 1}
	return b.submit("imdraw_copy", func(enc hal.CommandEncoder) {
		b.transition(enc, sr, sr.rest, gputypes.TextureUsageCopySrc)
		enc.CopyTextureToTexture(sr.tex, dr.tex, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Texture: sr.tex, Aspect: gputypes.TextureAspectAll},
			DstBase: hal.ImageCopyTexture{Texture: dr.tex, Aspect: gputypes.TextureAspectAll},
			Size:    size,
		}})
		b.transition(enc, sr, gputypes.TextureUsageCopySrc, sr.rest)
	})
}

func (b *Backend) transition(enc hal.CommandEncoder, r *textureResource, from, to gputypes.TextureUsage) {
	if from == to {
		return
	}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.tex,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

// Lock implements backend.Backend. The texture is copied into a mappable
// buffer with 256-byte aligned rows and repacked into tight rows.
func (b *Backend) Lock(t *backend.Texture) (backend.LockedRect, error) {
	if b.device == nil {
		return backend.LockedRect{}, backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, b.api)
	if !ok {
		return backend.LockedRect{}, backend.ErrForeignTexture
	}
	if r.locked {
		return backend.LockedRect{}, errors.New("cmdlist: texture already locked")
	}
	w, h := uint32(t.Width), uint32(t.Height)
	pitch := w * 4
	aligned := (pitch + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(aligned) * uint64(h)

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imdraw_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return backend.LockedRect{}, fmt.Errorf("cmdlist: readback buffer: %w", err)
	}
	defer b.device.DestroyBuffer(buf)

	err = b.submit("imdraw_readback", func(enc hal.CommandEncoder) {
		b.transition(enc, r, r.rest, gputypes.TextureUsageCopySrc)
		enc.CopyTextureToBuffer(r.tex, buf, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{BytesPerRow: aligned, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: r.tex, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		b.transition(enc, r, gputypes.TextureUsageCopySrc, r.rest)
	})
	if err != nil {
		return backend.LockedRect{}, err
	}

	m, err := b.device.MapBuffer(buf, 0, size)
	if err != nil {
		return backend.LockedRect{}, fmt.Errorf("cmdlist: map readback buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(m.Ptr), size) //nolint:gosec // mapping covers size bytes
	pixels := make([]byte, int(pitch)*int(h))
	for y := 0; y < int(h); y++ {
		copy(pixels[y*int(pitch):(y+1)*int(pitch)], mapped[y*int(aligned):])
	}
	if err := b.device.UnmapBuffer(buf); err != nil {
		backend.Logger().Warn("cmdlist: unmap readback buffer", "api", b.api, "err", err)
	}
	r.locked = true
	return backend.LockedRect{Pixels: pixels, Pitch: int(pitch)}, nil
}

// Unlock implements backend.Backend.
func (b *Backend) Unlock(t *backend.Texture) {
	if r, ok := backend.ResourceOf[*textureResource](t, b.api); ok {
		r.locked = false
	}
}
