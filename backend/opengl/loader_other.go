//go:build !(darwin || freebsd || linux || netbsd || windows)

package opengl

// LoadFunctions reports ErrNoLibrary on platforms without a loader.
func LoadFunctions() (Functions, error) {
	return nil, ErrNoLibrary
}
