//go:build darwin || freebsd || linux || netbsd

package opengl

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

func libraryNames() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/System/Library/Frameworks/OpenGL.framework/OpenGL"}
	default:
		return []string{"libGL.so.1", "libGL.so", "libOpenGL.so.0"}
	}
}

type library struct {
	handle  uintptr
	getProc func(name string) uintptr
}

func openLibrary() (*library, error) {
	var lastErr error
	for _, name := range libraryNames() {
		h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		lib := &library{handle: h}
		for _, loader := range []string{"glXGetProcAddressARB", "glXGetProcAddress"} {
			if addr, err := purego.Dlsym(h, loader); err == nil && addr != 0 {
				purego.RegisterFunc(&lib.getProc, addr)
				break
			}
		}
		return lib, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoLibrary, lastErr)
}

// lookup prefers the exported symbol and falls back to glXGetProcAddress
// for entry points libGL only hands out through the loader.
func lookup(lib *library, name string) uintptr {
	if addr, err := purego.Dlsym(lib.handle, name); err == nil && addr != 0 {
		return addr
	}
	if lib.getProc != nil {
		return lib.getProc(name)
	}
	return 0
}
