package backend

import (
	"fmt"
	"strings"
)

// API identifies a native graphics API slot in the registry.
type API int

// Supported API slots. APICount is the registry size, not an API.
const (
	APINull API = iota
	APID3D9
	APID3D10
	APID3D11
	APID3D12
	APIOpenGL
	APIVulkan

	APICount
)

var apiNames = [APICount]string{
	APINull:   "null",
	APID3D9:   "d3d9",
	APID3D10:  "d3d10",
	APID3D11:  "d3d11",
	APID3D12:  "d3d12",
	APIOpenGL: "opengl",
	APIVulkan: "vulkan",
}

// String returns the lower-case API name used in configuration files.
func (a API) String() string {
	if a < 0 || a >= APICount {
		return fmt.Sprintf("API(%d)", int(a))
	}
	return apiNames[a]
}

// Valid reports whether a names a registry slot.
func (a API) Valid() bool {
	return a >= 0 && a < APICount
}

// ParseAPI converts a configuration name ("d3d11", "OpenGL", "gl", ...) to an API.
func ParseAPI(name string) (API, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "gl":
		return APIOpenGL, nil
	case "vk":
		return APIVulkan, nil
	case "", "none":
		return APINull, nil
	}
	for i, s := range apiNames {
		if s == n {
			return API(i), nil
		}
	}
	return APINull, fmt.Errorf("%w: %q", ErrUnknownAPI, name)
}
