//go:build !windows

package d3dcompile

// Compile always fails off Windows.
func Compile(src []byte, entryPoint, target string) ([]byte, error) {
	return nil, ErrUnsupported
}
