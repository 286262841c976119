package imdraw

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/imdraw/backend"
)

// CreateTextureFromImage uploads img as an RGBA8 texture of the same size.
func (r *Renderer) CreateTextureFromImage(img image.Image) (*backend.Texture, error) {
	if r.active() == nil {
		return nil, ErrNotActive
	}
	rgba := toRGBA(img)
	return r.CreateTexture(rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Pix)
}

// CreateTextureFromImageScaled uploads img resampled to width x height
// with bilinear filtering.
func (r *Renderer) CreateTextureFromImageScaled(img image.Image, width, height int) (*backend.Texture, error) {
	if r.active() == nil {
		return nil, ErrNotActive
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", backend.ErrInvalidTextureSize, width, height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Rect, img, img.Bounds(), draw.Src, nil)
	return r.CreateTexture(width, height, dst.Pix)
}

// toRGBA returns img as a tightly packed RGBA image with its origin at (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

// ReadPixels copies t into a new RGBA image. Textures stored as BGRA,
// such as most back buffers, are converted.
func (r *Renderer) ReadPixels(t *backend.Texture) (*image.RGBA, error) {
	if t == nil {
		return nil, backend.ErrInvalidHandle
	}
	rect, err := r.Lock(t)
	if err != nil {
		return nil, err
	}
	defer r.Unlock(t)

	if rect.Pitch < t.Width*4 || len(rect.Pixels) < (t.Height-1)*rect.Pitch+t.Width*4 {
		return nil, fmt.Errorf("imdraw: locked rect too small for %dx%d (pitch %d, %d bytes)",
			t.Width, t.Height, rect.Pitch, len(rect.Pixels))
	}

	out := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	swap := isBGRA(t)
	for y := 0; y < t.Height; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+t.Width*4]
		copy(row, rect.Row(y, t.Width))
		if swap {
			for i := 0; i < len(row); i += 4 {
				row[i], row[i+2] = row[i+2], row[i]
			}
		}
	}
	return out, nil
}

func isBGRA(t *backend.Texture) bool {
	switch t.Format {
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	}
	return t.SwapColors
}
