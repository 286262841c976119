package backend

import (
	"sync"

	"github.com/gogpu/gputypes"
)

// Resource is a backend-specific native object stored in a Texture.
// API tags the object with the backend that created it, so a resource is
// never interpreted by another backend.
type Resource interface {
	API() API
}

// TextureOwner is implemented by backends that create textures.
type TextureOwner interface {
	IsActive() bool
	ReleaseTexture(t *Texture)
}

// Texture is a 2D image owned by the caller that created it.
//
// The native objects behind it belong to one backend instance. Release
// only reaches that backend while it is still active; afterwards the
// native objects are already gone with the device and Release is a no-op.
type Texture struct {
	Width      int
	Height     int
	Format     gputypes.TextureFormat
	SwapColors bool // pixels are BGRA and need a channel swap when sampled

	api   API
	main  Resource
	aux   Resource
	owner TextureOwner

	once     sync.Once
	released bool
}

// NewTexture wraps native resources created by owner. aux may be nil.
func NewTexture(owner TextureOwner, api API, width, height int, format gputypes.TextureFormat, main, aux Resource) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Format: format,
		api:    api,
		main:   main,
		aux:    aux,
		owner:  owner,
	}
}

// API returns the API of the backend that created t.
func (t *Texture) API() API {
	if t == nil {
		return APINull
	}
	return t.api
}

// Main returns the shader-bindable resource.
func (t *Texture) Main() Resource { return t.main }

// Aux returns the underlying surface or texture object, which may be nil.
func (t *Texture) Aux() Resource { return t.aux }

// SetResources replaces the native resources. Used by backends when a copy
// reallocates the destination.
func (t *Texture) SetResources(main, aux Resource) {
	t.main = main
	t.aux = aux
}

// SetOwner routes Release through owner. The Renderer uses it to gate
// releases on its active backend.
func (t *Texture) SetOwner(owner TextureOwner) { t.owner = owner }

// OwnedBy reports whether owner created t and t is still live.
func (t *Texture) OwnedBy(owner TextureOwner) bool {
	return t != nil && !t.released && t.owner == owner
}

// Released reports whether Release has run.
func (t *Texture) Released() bool { return t.released }

// Release frees the native resources if the owning backend is still active.
// It reports whether the backend was reached. Safe to call repeatedly.
func (t *Texture) Release() bool {
	if t == nil {
		return false
	}
	reached := false
	t.once.Do(func() {
		defer func() { t.released = true }()
		if t.owner == nil || !t.owner.IsActive() {
			Logger().Warn("backend: texture released after its backend went inactive",
				"api", t.api, "width", t.Width, "height", t.Height)
			return
		}
		// The owner still resolves the resources through ResourceOf.
		t.owner.ReleaseTexture(t)
		reached = true
	})
	t.main, t.aux = nil, nil
	return reached
}

// ResourceOf returns t's main resource as type R when t was created by
// api. ok is false for foreign or released textures.
func ResourceOf[R Resource](t *Texture, api API) (r R, ok bool) {
	if t == nil || t.released || t.api != api {
		return r, false
	}
	r, ok = t.main.(R)
	return r, ok
}
