// Package d3dcompile compiles HLSL for the Direct3D backends and reads the
// constant tables embedded in shader model 3 bytecode.
package d3dcompile

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by Compile on platforms without d3dcompiler_47.dll.
var ErrUnsupported = errors.New("d3dcompile: not supported on this platform")

// Func compiles HLSL source for entry point and profile target
// ("vs_5_0", "ps_3_0", ...) and returns the bytecode.
type Func func(src []byte, entryPoint, target string) ([]byte, error)

// CompileError carries the compiler diagnostics of a failed compile.
type CompileError struct {
	EntryPoint string
	Target     string
	HResult    uint32
	Log        string
}

// Error implements error.
func (e *CompileError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("d3dcompile: %s (%s): %#x", e.EntryPoint, e.Target, e.HResult)
	}
	return fmt.Sprintf("d3dcompile: %s (%s): %#x: %s", e.EntryPoint, e.Target, e.HResult, e.Log)
}

// Program holds a compiled vertex and pixel shader pair.
type Program struct {
	VS []byte
	PS []byte
}

// CompileProgram compiles the vs_main and ps_main entry points of src with
// the given shader model suffix ("3_0", "4_0", "5_0").
func CompileProgram(compile Func, src []byte, model string) (Program, error) {
	return CompileStages(compile, src, src, model)
}

// CompileStages is CompileProgram with the two stages in separate sources.
func CompileStages(compile Func, vsSrc, psSrc []byte, model string) (Program, error) {
	if compile == nil {
		compile = Compile
	}
	vs, err := compile(vsSrc, "vs_main", "vs_"+model)
	if err != nil {
		return Program{}, err
	}
	ps, err := compile(psSrc, "ps_main", "ps_"+model)
	if err != nil {
		return Program{}, err
	}
	return Program{VS: vs, PS: ps}, nil
}
