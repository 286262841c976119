package cmdlist

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/dx"
)

//go:embed shaders/imdraw.wgsl
var shaderWGSL string

// uniformSize matches the Uniforms struct in imdraw.wgsl.
const uniformSize = dx.ConstantsSize

// maxPipelines bounds the pipeline cache. Least recently used pipelines
// are destroyed first.
const maxPipelines = 64

// Bind group slots.
const (
	bindingUniforms = iota
	bindingTexture
	bindingSampler
	bindingMask
)

// pipelineKey identifies a cached render pipeline. program is nil for the
// built-in shader.
type pipelineKey struct {
	state    backend.RenderState
	topology backend.Topology
	program  *shaderResource
}

// shaderResource is the program stored in caller shaders created here.
type shaderResource struct {
	api    backend.API
	module hal.ShaderModule
}

func (r *shaderResource) API() backend.API { return r.api }

// compileShader validates the WGSL with naga and returns the SPIR-V words.
func compileShader(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("spir-v length %d is not a multiple of 4", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

func (b *Backend) createShader() error {
	m, err := b.shaderModule("imdraw_shader", shaderWGSL)
	if err != nil {
		return fmt.Errorf("imdraw.wgsl: %w", err)
	}
	b.shader = m
	return nil
}

// shaderModule compiles WGSL into a module in the form the slot consumes.
func (b *Backend) shaderModule(label, wgsl string) (hal.ShaderModule, error) {
	words, err := compileShader(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	src := hal.ShaderSource{WGSL: wgsl}
	if b.api == backend.APIVulkan {
		src = hal.ShaderSource{SPIRV: words}
	}
	m, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("shader module: %w", err)
	}
	return m, nil
}

// CreateShader implements backend.Backend. src.Vertex is one WGSL program
// with vs_main and fs_main entry points.
func (b *Backend) CreateShader(src backend.ShaderSource) (*backend.Shader, error) {
	if b.device == nil {
		return nil, backend.ErrNotInitialized
	}
	m, err := b.shaderModule("imdraw_caller_shader", string(src.Vertex))
	if err != nil {
		return nil, fmt.Errorf("cmdlist: create shader: %w", err)
	}
	return backend.NewShader(b, b.api, &shaderResource{api: b.api, module: m}), nil
}

// SetShader implements backend.Backend.
func (b *Backend) SetShader(s *backend.Shader) {
	b.program = nil
	if r, ok := backend.ProgramOf[*shaderResource](s, b.api); ok && r.module != nil {
		b.program = r
	} else if s != nil {
		backend.Logger().Warn("cmdlist: shader not usable, drawing with the built-in program", "api", b.api, "shader_api", s.API())
	}
}

// ReleaseShader implements backend.ShaderOwner. Pipelines built from the
// program are destroyed with it.
func (b *Backend) ReleaseShader(s *backend.Shader) {
	r, ok := backend.ProgramOf[*shaderResource](s, b.api)
	if !ok || r.module == nil || b.device == nil {
		return
	}
	if b.program == r {
		b.program = nil
	}
	if b.pipelines != nil {
		b.pipelines.RemoveFunc(func(k pipelineKey, _ hal.RenderPipeline) bool { return k.program == r })
	}
	b.device.DestroyShaderModule(r.module)
	r.module = nil
}

// createLayouts creates the bind group layout:
//
//	binding 0: uniforms (vertex + fragment)
//	binding 1: texture
//	binding 2: sampler
//	binding 3: mask texture
func (b *Backend) createLayouts() error {
	tex := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	gl, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "imdraw_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    bindingUniforms,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{Binding: bindingTexture, Visibility: gputypes.ShaderStageFragment, Texture: tex},
			{
				Binding:    bindingSampler,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{Binding: bindingMask, Visibility: gputypes.ShaderStageFragment, Texture: tex},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group layout: %w", err)
	}
	b.groupLayout = gl

	pl, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "imdraw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{gl},
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}
	b.pipeLayout = pl
	return nil
}

// pipeline returns the cached pipeline for the current render state and t,
// creating it on first use.
func (b *Backend) pipeline(t backend.Topology) (hal.RenderPipeline, error) {
	key := pipelineKey{state: b.state, topology: t, program: b.program}
	// Wireframe is not expressible here; keep one pipeline for both fills.
	key.state.FillMode = backend.FillSolid
	return b.pipelines.GetOrCreate(key, func() (hal.RenderPipeline, error) {
		p, err := b.device.CreateRenderPipeline(pipelineDescriptor(b, &key))
		if err != nil {
			return nil, fmt.Errorf("cmdlist: create pipeline (%s): %w", t, err)
		}
		backend.Logger().Debug("cmdlist: pipeline created", "api", b.api, "topology", t, "cached", b.pipelines.Len()+1)
		return p, nil
	})
}

func pipelineDescriptor(b *Backend, key *pipelineKey) *hal.RenderPipelineDescriptor {
	rs := &key.state
	module := b.shader
	if key.program != nil {
		module = key.program.module
	}
	return &hal.RenderPipelineDescriptor{
		Label:  "imdraw_pipeline",
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    b.target.format,
				Blend:     rs.BlendState(),
				WriteMask: rs.WriteMask,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  key.topology.GPUTopology(),
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  rs.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  uint64(rs.SampleMask),
		},
	}
}

// vertexLayout matches backend.Vertex:
//
//	location 0: position  (vec3<f32>) @0
//	location 1: color     (vec4<f32>) @12
//	location 2: uv0       (vec2<f32>) @28
//	location 3: uv1       (vec2<f32>) @36
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: backend.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 28, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 36, ShaderLocation: 3},
		},
	}}
}
