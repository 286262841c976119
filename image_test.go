package imdraw

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/backend"
)

func TestCreateTextureFromImage(t *testing.T) {
	r, fb := activeRenderer(t)

	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(5, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(6, 5, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	tex, err := r.CreateTextureFromImage(src)
	if err != nil {
		t.Fatalf("CreateTextureFromImage() error = %v", err)
	}
	if tex.Width != 2 || tex.Height != 1 {
		t.Errorf("size = %dx%d, want 2x1", tex.Width, tex.Height)
	}
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if string(fb.pixels) != string(want) {
		t.Errorf("uploaded pixels = %v, want %v", fb.pixels, want)
	}
}

func TestCreateTextureFromImageScaled(t *testing.T) {
	r, _ := activeRenderer(t)

	src := image.NewUniform(color.RGBA{R: 255, A: 255})
	tex, err := r.CreateTextureFromImageScaled(&boundedImage{src, image.Rect(0, 0, 4, 4)}, 8, 2)
	if err != nil {
		t.Fatalf("CreateTextureFromImageScaled() error = %v", err)
	}
	if tex.Width != 8 || tex.Height != 2 {
		t.Errorf("size = %dx%d, want 8x2", tex.Width, tex.Height)
	}
	if _, err := r.CreateTextureFromImageScaled(src, 0, 1); !errors.Is(err, backend.ErrInvalidTextureSize) {
		t.Errorf("zero width error = %v, want ErrInvalidTextureSize", err)
	}
}

// boundedImage gives an infinite image finite bounds.
type boundedImage struct {
	image.Image
	bounds image.Rectangle
}

func (b *boundedImage) Bounds() image.Rectangle { return b.bounds }

func TestReadPixels(t *testing.T) {
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		swap   bool
		want   []byte
	}{
		{"rgba", gputypes.TextureFormatRGBA8Unorm, false, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"bgra", gputypes.TextureFormatBGRA8Unorm, false, []byte{3, 2, 1, 4, 7, 6, 5, 8}},
		{"swap colors", gputypes.TextureFormatRGBA8Unorm, true, []byte{3, 2, 1, 4, 7, 6, 5, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fb := activeRenderer(t)
			fb.format = tt.format
			// Padded pitch: two pixels per row plus four bytes.
			fb.pixels = []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xEE, 0xEE, 0xEE, 0xEE}
			fb.pitch = 12

			bb, err := r.GetBackBuffer(0)
			if err != nil {
				t.Fatal(err)
			}
			bb.SwapColors = tt.swap

			img, err := r.ReadPixels(bb)
			if err != nil {
				t.Fatalf("ReadPixels() error = %v", err)
			}
			if img.Rect.Dx() != 2 || img.Rect.Dy() != 1 {
				t.Fatalf("image size = %v", img.Rect)
			}
			if string(img.Pix) != string(tt.want) {
				t.Errorf("pixels = %v, want %v", img.Pix, tt.want)
			}
			if fb.locked != 1 || fb.unlocked != 1 {
				t.Errorf("lock/unlock = %d/%d, want 1/1", fb.locked, fb.unlocked)
			}
		})
	}
}

func TestReadPixelsShortRect(t *testing.T) {
	r, fb := activeRenderer(t)
	fb.pixels = []byte{1, 2, 3, 4}
	fb.pitch = 4

	bb, err := r.GetBackBuffer(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadPixels(bb); err == nil {
		t.Error("ReadPixels() with a short rect succeeded")
	}
	if fb.unlocked != 1 {
		t.Errorf("unlocked = %d, want 1", fb.unlocked)
	}
	if _, err := r.ReadPixels(nil); !errors.Is(err, backend.ErrInvalidHandle) {
		t.Errorf("ReadPixels(nil) error = %v, want ErrInvalidHandle", err)
	}
}
