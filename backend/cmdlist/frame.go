package cmdlist

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/backend"
	"github.com/gogpu/imdraw/internal/dx"
)

// End implements backend.Backend. The frame is recorded into one render
// pass that loads the existing target contents, submitted, and waited on.
func (b *Backend) End(f *backend.Frame) error {
	if b.device == nil {
		return backend.ErrNotInitialized
	}
	g := f.Geometry
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return nil
	}
	pipe, err := b.pipeline(g.Topology)
	if err != nil {
		return err
	}

	if err := b.queue.WriteBuffer(b.vb, 0, backend.VertexBytes(g.Vertices)); err != nil {
		return fmt.Errorf("cmdlist: vertex upload: %w", err)
	}
	idx := backend.IndexBytes(g.Indices)
	for len(idx)%4 != 0 {
		idx = append(idx, 0)
	}
	if err := b.queue.WriteBuffer(b.ib, 0, idx); err != nil {
		return fmt.Errorf("cmdlist: index upload: %w", err)
	}
	consts := dx.PackConstants(f.Projection, b.tex != nil, b.mask != nil, b.swap)
	if err := b.queue.WriteBuffer(b.ub, 0, consts); err != nil {
		return fmt.Errorf("cmdlist: uniform upload: %w", err)
	}

	group, err := b.bindGroup()
	if err != nil {
		return err
	}
	defer b.device.DestroyBindGroup(group)

	return b.submit("imdraw_frame", func(enc hal.CommandEncoder) {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "imdraw_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    b.target.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		vp := b.clampedViewport()
		rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
		rp.SetPipeline(pipe)
		rp.SetBindGroup(0, group, nil)
		rp.SetVertexBuffer(0, b.vb, 0)
		rp.SetIndexBuffer(b.ib, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(uint32(len(g.Indices)), 1, 0, 0, 0)
		rp.End()
	})
}

func (b *Backend) bindGroup() (hal.BindGroup, error) {
	tex, mask := b.white, b.white
	if b.tex != nil {
		tex = b.tex
	}
	if b.mask != nil {
		mask = b.mask
	}
	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "imdraw_bind_group",
		Layout: b.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindingUniforms, Resource: gputypes.BufferBinding{Buffer: b.ub.NativeHandle(), Size: uniformSize}},
			{Binding: bindingTexture, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
			{Binding: bindingSampler, Resource: gputypes.SamplerBinding{Sampler: b.sampler.NativeHandle()}},
			{Binding: bindingMask, Resource: gputypes.TextureViewBinding{TextureView: mask.view.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cmdlist: bind group: %w", err)
	}
	return group, nil
}

// clampedViewport keeps the viewport inside the render target, which the
// hal backends require.
func (b *Backend) clampedViewport() backend.Viewport {
	vp := b.viewport
	w, h := float32(b.width), float32(b.height)
	vp.X = min(max(vp.X, 0), w)
	vp.Y = min(max(vp.Y, 0), h)
	vp.Width = min(max(vp.Width, 0), w-vp.X)
	vp.Height = min(max(vp.Height, 0), h-vp.Y)
	vp.MinDepth = min(max(vp.MinDepth, 0), 1)
	vp.MaxDepth = min(max(vp.MaxDepth, vp.MinDepth), 1)
	return vp
}

// submit records commands with record, submits them and waits for the
// device to go idle.
func (b *Backend) submit(label string, record func(enc hal.CommandEncoder)) error {
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		b.markLost(err)
		return fmt.Errorf("cmdlist: command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("cmdlist: begin encoding: %w", err)
	}
	record(enc)
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("cmdlist: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmd)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		b.markLost(err)
		return fmt.Errorf("cmdlist: submit: %w", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		b.markLost(err)
		return fmt.Errorf("cmdlist: wait idle: %w", err)
	}
	return nil
}
