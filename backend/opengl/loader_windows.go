//go:build windows

package opengl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type library struct {
	dll               *windows.LazyDLL
	wglGetProcAddress *windows.LazyProc
}

func openLibrary() (*library, error) {
	dll := windows.NewLazySystemDLL("opengl32.dll")
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLibrary, err)
	}
	return &library{dll: dll, wglGetProcAddress: dll.NewProc("wglGetProcAddress")}, nil
}

// lookup asks wglGetProcAddress first; opengl32.dll only exports the
// OpenGL 1.1 entry points directly. Some drivers return small sentinel
// values instead of NULL for unknown names.
func lookup(lib *library, name string) uintptr {
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	addr, _, _ := lib.wglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	switch addr {
	case 0, 1, 2, 3, ^uintptr(0):
	default:
		return addr
	}
	p := lib.dll.NewProc(name)
	if p.Find() != nil {
		return 0
	}
	return p.Addr()
}
