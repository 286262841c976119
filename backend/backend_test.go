package backend

import (
	"errors"
	"testing"
)

// stubBackend is a minimal Backend used by registry tests.
type stubBackend struct {
	api    API
	active bool
}

func (b *stubBackend) API() API                                         { return b.api }
func (b *stubBackend) IsActive() bool                                   { return b.active }
func (b *stubBackend) Init(any) error                                   { b.active = true; return nil }
func (b *stubBackend) Shutdown()                                        { b.active = false }
func (b *stubBackend) Begin()                                           {}
func (b *stubBackend) SetVertex(Vertex)                                 {}
func (b *stubBackend) SetRenderStates(*RenderState) error               { return nil }
func (b *stubBackend) SetViewport(Viewport)                             {}
func (b *stubBackend) SetTexture(_, _ *Texture)                         {}
func (b *stubBackend) End(*Frame) error                                 { return nil }
func (b *stubBackend) CreateTexture(int, int, []byte) (*Texture, error) { return nil, nil }
func (b *stubBackend) UpdateTexture(*Texture, []byte) error             { return nil }
func (b *stubBackend) CreateShader(ShaderSource) (*Shader, error)       { return nil, nil }
func (b *stubBackend) SetShader(*Shader)                                {}
func (b *stubBackend) BackBuffer(int) (*Texture, error)                 { return nil, ErrNoBackBuffer }
func (b *stubBackend) CopyResource(_, _ *Texture) error                 { return nil }
func (b *stubBackend) Lock(*Texture) (LockedRect, error)                { return LockedRect{}, nil }
func (b *stubBackend) Unlock(*Texture)                                  {}

func TestRegisterAndNew(t *testing.T) {
	Unregister(APIVulkan)
	defer Unregister(APIVulkan)

	if IsRegistered(APIVulkan) {
		t.Fatal("IsRegistered(vulkan) = true before Register")
	}
	if _, err := New(APIVulkan); !errors.Is(err, ErrBackendNotAvailable) {
		t.Fatalf("New(unregistered) error = %v, want ErrBackendNotAvailable", err)
	}

	Register(APIVulkan, func() Backend { return &stubBackend{api: APIVulkan} })
	if !IsRegistered(APIVulkan) {
		t.Fatal("IsRegistered(vulkan) = false after Register")
	}

	b, err := New(APIVulkan)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.API() != APIVulkan {
		t.Errorf("API() = %v, want %v", b.API(), APIVulkan)
	}

	found := false
	for _, api := range Available() {
		if api == APIVulkan {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing vulkan", Available())
	}
}

func TestNewFactoryReturnsNil(t *testing.T) {
	Register(APID3D12, func() Backend { return nil })
	defer Unregister(APID3D12)

	if _, err := New(APID3D12); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("New() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegisterNullPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register(APINull) did not panic")
		}
	}()
	Register(APINull, func() Backend { return &stubBackend{} })
}

func TestInvalidAPISlots(t *testing.T) {
	for _, api := range []API{-1, APICount, 42} {
		if IsRegistered(api) {
			t.Errorf("IsRegistered(%v) = true", api)
		}
		if Lookup(api) != nil {
			t.Errorf("Lookup(%v) != nil", api)
		}
		Unregister(api) // must not panic
	}
}

func TestParseAPI(t *testing.T) {
	tests := []struct {
		in   string
		want API
		err  bool
	}{
		{"d3d9", APID3D9, false},
		{"D3D11", APID3D11, false},
		{" opengl ", APIOpenGL, false},
		{"gl", APIOpenGL, false},
		{"vk", APIVulkan, false},
		{"vulkan", APIVulkan, false},
		{"", APINull, false},
		{"metal", APINull, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAPI(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseAPI(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			}
			if tt.err && !errors.Is(err, ErrUnknownAPI) {
				t.Errorf("error = %v, want ErrUnknownAPI", err)
			}
			if got != tt.want {
				t.Errorf("ParseAPI(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAPIString(t *testing.T) {
	if got := APID3D10.String(); got != "d3d10" {
		t.Errorf("String() = %q", got)
	}
	if got := API(99).String(); got != "API(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestBackendInitError(t *testing.T) {
	cause := errors.New("X3501: entrypoint not found")
	err := InitError(APID3D11, StageShader, cause)

	var ie *BackendInitError
	if !errors.As(err, &ie) {
		t.Fatalf("errors.As failed for %T", err)
	}
	if ie.API != APID3D11 || ie.Stage != StageShader {
		t.Errorf("got api=%v stage=%v", ie.API, ie.Stage)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	want := "backend d3d11: init shader: X3501: entrypoint not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLockedRectRow(t *testing.T) {
	r := LockedRect{Pixels: make([]byte, 2*16), Pitch: 16}
	r.Pixels[16] = 7
	row := r.Row(1, 2)
	if len(row) != 8 || row[0] != 7 {
		t.Errorf("Row(1, 2) = %v", row)
	}
}
