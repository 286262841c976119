package opengl

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

// withTexture binds id to TEXTURE_2D on the active unit for fn and then
// restores the previous binding.
func (b *Backend) withTexture(id uint32, fn func()) {
	prev := getInt(b.gl, TEXTURE_BINDING_2D)
	b.gl.BindTexture(TEXTURE_2D, id)
	fn()
	b.gl.BindTexture(TEXTURE_2D, uint32(prev))
}

func (b *Backend) newTexture(width, height int, pixels []byte) (*textureResource, error) {
	gl := b.gl
	id := gl.GenTexture()
	if id == 0 {
		return nil, errors.New("opengl: glGenTextures failed")
	}
	b.withTexture(id, func() {
		gl.TexParameteri(TEXTURE_2D, TEXTURE_MIN_FILTER, int32(LINEAR))
		gl.TexParameteri(TEXTURE_2D, TEXTURE_MAG_FILTER, int32(LINEAR))
		gl.PixelStorei(UNPACK_ALIGNMENT, 4)
		gl.TexImage2D(TEXTURE_2D, 0, int32(RGBA8), int32(width), int32(height), RGBA, UNSIGNED_BYTE, pixels)
	})
	if e := gl.GetError(); e != NO_ERROR {
		gl.DeleteTexture(id)
		return nil, fmt.Errorf("opengl: create texture: GL error %#x", uint32(e))
	}
	return &textureResource{id: id}, nil
}

// CreateTexture implements backend.Backend.
func (b *Backend) CreateTexture(width, height int, pixels []byte) (*backend.Texture, error) {
	if b.gl == nil {
		return nil, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", backend.ErrInvalidTextureSize, width, height)
	}
	if pixels != nil {
		if len(pixels) < width*height*4 {
			return nil, fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), width, height)
		}
		pixels = pixels[:width*height*4]
	}
	r, err := b.newTexture(width, height, pixels)
	if err != nil {
		return nil, err
	}
	return backend.NewTexture(b, backend.APIOpenGL, width, height, gputypes.TextureFormatRGBA8Unorm, r, nil), nil
}

// ReleaseTexture implements backend.TextureOwner.
func (b *Backend) ReleaseTexture(t *backend.Texture) {
	r, ok := backend.ResourceOf[*textureResource](t, backend.APIOpenGL)
	if !ok || b.gl == nil || r.id == 0 {
		return
	}
	b.gl.DeleteTexture(r.id)
	r.id = 0
}

// UpdateTexture implements backend.Backend. The whole image is replaced
// in place with TexSubImage2D.
func (b *Backend) UpdateTexture(t *backend.Texture, pixels []byte) error {
	if b.gl == nil {
		return backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, backend.APIOpenGL)
	if !ok || r.id == 0 {
		return backend.ErrForeignTexture
	}
	n := t.Width * t.Height * 4
	if len(pixels) < n {
		return fmt.Errorf("%w: %d bytes for %dx%d", backend.ErrInvalidTextureSize, len(pixels), t.Width, t.Height)
	}
	b.withTexture(r.id, func() {
		b.gl.PixelStorei(UNPACK_ALIGNMENT, 4)
		b.gl.TexSubImage2D(TEXTURE_2D, 0, 0, 0, int32(t.Width), int32(t.Height), RGBA, UNSIGNED_BYTE, pixels[:n])
	})
	if e := b.gl.GetError(); e != NO_ERROR {
		return fmt.Errorf("opengl: update texture: GL error %#x", uint32(e))
	}
	return nil
}

// BackBuffer implements backend.Backend. GL exposes no back buffer object,
// so index 0 is a snapshot of the window taken through the ScreenGrabber.
// The BGRA pixels are uploaded unchanged and the texture is flagged
// SwapColors.
func (b *Backend) BackBuffer(index int) (*backend.Texture, error) {
	if b.gl == nil {
		return nil, backend.ErrNotInitialized
	}
	if b.screen == nil || index != 0 {
		return nil, fmt.Errorf("%w: index %d", backend.ErrNoBackBuffer, index)
	}
	pixels, w, h, err := b.screen.Grab()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrNoBackBuffer, err)
	}
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 {
		return nil, fmt.Errorf("%w: grabbed %d bytes for %dx%d", backend.ErrNoBackBuffer, len(pixels), w, h)
	}
	r, err := b.newTexture(w, h, pixels[:w*h*4])
	if err != nil {
		return nil, err
	}
	t := backend.NewTexture(b, backend.APIOpenGL, w, h, gputypes.TextureFormatBGRA8Unorm, r, nil)
	t.SwapColors = true
	return t, nil
}

func (b *Backend) readTexture(id uint32, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	b.withTexture(id, func() {
		b.gl.PixelStorei(PACK_ALIGNMENT, 4)
		b.gl.GetTexImage(TEXTURE_2D, 0, RGBA, UNSIGNED_BYTE, pixels)
	})
	return pixels
}

// CopyResource implements backend.Backend. GL 3.3 has no image copy, so
// the source is read back and re-specified as dst's storage. The bytes
// move unchanged, so dst takes src's format and swap flag.
func (b *Backend) CopyResource(dst, src *backend.Texture) error {
	if b.gl == nil {
		return backend.ErrNotInitialized
	}
	dr, ok := backend.ResourceOf[*textureResource](dst, backend.APIOpenGL)
	if !ok {
		return fmt.Errorf("%w: destination", backend.ErrForeignTexture)
	}
	sr, ok := backend.ResourceOf[*textureResource](src, backend.APIOpenGL)
	if !ok {
		return fmt.Errorf("%w: source", backend.ErrForeignTexture)
	}
	pixels := b.readTexture(sr.id, src.Width, src.Height)
	b.withTexture(dr.id, func() {
		b.gl.PixelStorei(UNPACK_ALIGNMENT, 4)
		b.gl.TexImage2D(TEXTURE_2D, 0, int32(RGBA8), int32(src.Width), int32(src.Height), RGBA, UNSIGNED_BYTE, pixels)
	})
	if e := b.gl.GetError(); e != NO_ERROR {
		return fmt.Errorf("opengl: copy texture: GL error %#x", uint32(e))
	}
	dst.Width, dst.Height = src.Width, src.Height
	dst.Format = src.Format
	dst.SwapColors = src.SwapColors
	return nil
}

// Lock implements backend.Backend. The pixels are read into a CPU slice;
// nothing stays mapped.
func (b *Backend) Lock(t *backend.Texture) (backend.LockedRect, error) {
	if b.gl == nil {
		return backend.LockedRect{}, backend.ErrNotInitialized
	}
	r, ok := backend.ResourceOf[*textureResource](t, backend.APIOpenGL)
	if !ok {
		return backend.LockedRect{}, backend.ErrForeignTexture
	}
	if r.locked {
		return backend.LockedRect{}, errors.New("opengl: texture already locked")
	}
	pixels := b.readTexture(r.id, t.Width, t.Height)
	if e := b.gl.GetError(); e != NO_ERROR {
		return backend.LockedRect{}, fmt.Errorf("opengl: read texture: GL error %#x", uint32(e))
	}
	r.locked = true
	return backend.LockedRect{Pixels: pixels, Pitch: t.Width * 4}, nil
}

// Unlock implements backend.Backend.
func (b *Backend) Unlock(t *backend.Texture) {
	if r, ok := backend.ResourceOf[*textureResource](t, backend.APIOpenGL); ok {
		r.locked = false
	}
}
