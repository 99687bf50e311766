package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
	"github.com/gekko3d/vct/prepass"
	"github.com/gekko3d/vct/shaders"
)

const VertexStride = 32

// MeshBuffers is the GPU residency of one mesh.
type MeshBuffers struct {
	Vertex     *wgpu.Buffer
	Index      *wgpu.Buffer
	IndexCount uint32
}

func NewMeshBuffers(device *wgpu.Device, mesh *core.Mesh) (*MeshBuffers, error) {
	vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh Vertex Buffer",
		Contents: PackVertices(mesh.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	ib, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Mesh Index Buffer",
		Contents: PackIndices(mesh.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	return &MeshBuffers{Vertex: vb, Index: ib, IndexCount: uint32(len(mesh.Indices))}, nil
}

func (m *MeshBuffers) Release() {
	if m.Vertex != nil {
		m.Vertex.Release()
	}
	if m.Index != nil {
		m.Index.Release()
	}
}

// InstanceDraw is one instance queued for the geometry pass: its mesh buffers
// plus the per-instance uniform bind group.
type InstanceDraw struct {
	Buffers    *MeshBuffers
	UniformBuf *wgpu.Buffer
	BindGroup  *wgpu.BindGroup
}

// GeometryPass owns the pipeline and frame-level resources of the G-buffer
// pass.
type GeometryPass struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline *wgpu.RenderPipeline
	Targets  *GBufferTargets

	FrameBuf       *wgpu.Buffer
	FrameBindGroup *wgpu.BindGroup

	Mode prepass.JitterMode
}

func NewGeometryPass(device *wgpu.Device, queue *wgpu.Queue, width, height uint32, mode prepass.JitterMode) (*GeometryPass, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Prepass Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PrepassWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shader.Release()

	targets := make([]wgpu.ColorTargetState, 0, len(TargetFormats))
	for _, format := range TargetFormats {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Geometry Pass Pipeline",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: VertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			// The same geometry is drawn into the GI volume from three
			// axes; culling would punch holes in thin objects.
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	gbTargets, err := NewGBufferTargets(device, width, height)
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	frameBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Uniforms",
		Size:  FrameUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pipeline.Release()
		gbTargets.Release()
		return nil, err
	}

	frameBindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: frameBuf, Size: FrameUniformsSize},
		},
	})
	if err != nil {
		pipeline.Release()
		gbTargets.Release()
		frameBuf.Release()
		return nil, err
	}

	return &GeometryPass{
		Device:         device,
		Queue:          queue,
		Pipeline:       pipeline,
		Targets:        gbTargets,
		FrameBuf:       frameBuf,
		FrameBindGroup: frameBindGroup,
		Mode:           mode,
	}, nil
}

// NewInstanceDraw allocates the per-instance uniform buffer and bind group.
func (p *GeometryPass) NewInstanceDraw(buffers *MeshBuffers, pose core.InstancePose, index core.InstanceIndex) (*InstanceDraw, error) {
	buf, err := p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Instance Uniforms",
		Contents: PackInstanceUniforms(pose, index),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Instance Bind Group",
		Layout: p.Pipeline.GetBindGroupLayout(1),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: InstanceUniformsSize},
		},
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	return &InstanceDraw{Buffers: buffers, UniformBuf: buf, BindGroup: bg}, nil
}

// UpdateInstance re-uploads an instance's pose after the host moved it.
func (p *GeometryPass) UpdateInstance(draw *InstanceDraw, pose core.InstancePose, index core.InstanceIndex) {
	p.Queue.WriteBuffer(draw.UniformBuf, 0, PackInstanceUniforms(pose, index))
}

// BeginFrame uploads the frame-global uniforms for the snapshot pair.
func (p *GeometryPass) BeginFrame(frame core.FrameParams, current, previous core.ViewParams) {
	jitter, pixelSize := FrameJitter(p.Mode, frame, p.Targets.Width, p.Targets.Height)
	p.Queue.WriteBuffer(p.FrameBuf, 0, PackFrameUniforms(frame, current, previous, jitter, pixelSize))
}

// Encode records the geometry pass: clears all five targets plus depth and
// draws every instance.
func (p *GeometryPass) Encode(encoder *wgpu.CommandEncoder, clearColor mgl32.Vec4, draws []*InstanceDraw) error {
	attachments := make([]wgpu.RenderPassColorAttachment, 0, len(p.Targets.Views))
	for i, view := range p.Targets.Views {
		clear := wgpu.Color{A: 0}
		if i == 0 {
			clear = wgpu.Color{
				R: float64(clearColor.X()),
				G: float64(clearColor.Y()),
				B: float64(clearColor.Z()),
				A: float64(clearColor.W()),
			}
		}
		attachments = append(attachments, wgpu.RenderPassColorAttachment{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear,
		})
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Geometry Pass",
		ColorAttachments: attachments,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            p.Targets.DepthView,
			DepthClearValue: 1.0,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
		},
	})

	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.FrameBindGroup, nil)
	for _, draw := range draws {
		pass.SetBindGroup(1, draw.BindGroup, nil)
		pass.SetVertexBuffer(0, draw.Buffers.Vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(draw.Buffers.Index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(draw.Buffers.IndexCount, 1, 0, 0, 0)
	}
	return pass.End()
}

// Resize recreates the attachments; bind groups reference only uniform
// buffers, so they survive.
func (p *GeometryPass) Resize(width, height uint32) error {
	return p.Targets.Resize(p.Device, width, height)
}

func (p *GeometryPass) Release() {
	if p.FrameBindGroup != nil {
		p.FrameBindGroup.Release()
	}
	if p.FrameBuf != nil {
		p.FrameBuf.Release()
	}
	if p.Targets != nil {
		p.Targets.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}
