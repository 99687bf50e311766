package app

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
	"github.com/gekko3d/vct/gpu"
	"github.com/gekko3d/vct/prepass"
	"github.com/gekko3d/vct/shaders"
)

// Config selects the renderer options the host cannot change mid-run.
type Config struct {
	JitterMode   prepass.JitterMode
	UpscaleRatio float32
	Volume       core.Volume
	FOVDegrees   float32
	Near, Far    float32
	Debug        bool
}

func DefaultConfig() Config {
	return Config{
		JitterMode:   prepass.JitterTemporal,
		UpscaleRatio: 1.0,
		Volume:       core.DefaultVolume(),
		FOVDegrees:   60,
		Near:         0.1,
		Far:          1000.0,
	}
}

// Instance is a mesh placed in the scene, with its GPU residency.
type Instance struct {
	Mesh      *core.Mesh
	Buffers   *gpu.MeshBuffers
	Draw      *gpu.InstanceDraw
	Transform *core.Transform
	Pose      core.InstancePose
	Index     core.InstanceIndex

	aabbMin mgl32.Vec3
	aabbMax mgl32.Vec3
}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Surf     *wgpu.SurfaceConfiguration

	Pass *gpu.GeometryPass

	BlitPipeline  *wgpu.RenderPipeline
	BlitBindGroup *wgpu.BindGroup
	Sampler       *wgpu.Sampler

	Camera    *core.CameraState
	Frame     *core.FrameState
	Cfg       Config
	Instances []*Instance
	Log       core.Logger

	nextInstanceId uint32

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window, cfg Config) *App {
	logger := core.Logger(core.NewNopLogger())
	if cfg.Debug {
		logger = core.NewDefaultLogger("vct", true)
	}
	return &App{
		Window: window,
		Camera: core.NewCameraState(),
		Cfg:    cfg,
		Log:    logger,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)

	surface := a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))
	a.Surface = surface

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	a.Surf = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, a.Device, a.Surf)

	a.Pass, err = gpu.NewGeometryPass(a.Device, a.Queue, uint32(width), uint32(height), a.Cfg.JitterMode)
	if err != nil {
		return err
	}

	// Blit pipeline to show the normal target.
	blitModule, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.FullscreenWGSL},
	})
	if err != nil {
		return err
	}
	defer blitModule.Release()

	a.BlitPipeline, err = a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     blitModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     blitModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    a.Surf.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	a.Sampler, err = a.Device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}
	if err := a.setupBlitBindGroup(); err != nil {
		return err
	}

	view := a.currentViewParams()
	a.Frame = core.NewFrameState(view)
	a.Frame.Params.UpscaleRatio = a.Cfg.UpscaleRatio
	a.LastRenderTime = glfw.GetTime()

	a.Log.Infof("geometry pass initialized: %dx%d, jitter mode %d", width, height, a.Cfg.JitterMode)
	return nil
}

func (a *App) setupBlitBindGroup() error {
	if a.BlitBindGroup != nil {
		a.BlitBindGroup.Release()
	}
	bg, err := a.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Blit Bind Group",
		Layout: a.BlitPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: a.Pass.Targets.Views[1]},
			{Binding: 1, Sampler: a.Sampler},
		},
	})
	if err != nil {
		return err
	}
	a.BlitBindGroup = bg
	return nil
}

func (a *App) currentViewParams() core.ViewParams {
	aspect := float32(a.Surf.Width) / float32(a.Surf.Height)
	if aspect == 0 {
		aspect = 1.0
	}
	proj := mgl32.Perspective(mgl32.DegToRad(a.Cfg.FOVDegrees), aspect, a.Cfg.Near, a.Cfg.Far)
	return core.NewViewParamsKind(a.Camera.ViewMatrix(), proj, core.ProjectionPerspective)
}

// AddInstance places a mesh in the scene and uploads its buffers.
func (a *App) AddInstance(mesh *core.Mesh, transform *core.Transform, materialId uint32) (*Instance, error) {
	buffers, err := gpu.NewMeshBuffers(a.Device, mesh)
	if err != nil {
		return nil, err
	}
	a.nextInstanceId++
	inst := &Instance{
		Mesh:      mesh,
		Buffers:   buffers,
		Transform: transform,
		Pose:      transform.Pose(),
		Index:     core.InstanceIndex{Instance: a.nextInstanceId, Material: materialId},
	}
	inst.aabbMin, inst.aabbMax = worldAABB(mesh, inst.Pose.Model)

	inst.Draw, err = a.Pass.NewInstanceDraw(buffers, inst.Pose, inst.Index)
	if err != nil {
		buffers.Release()
		return nil, err
	}
	a.Instances = append(a.Instances, inst)
	return inst, nil
}

// worldAABB transforms the mesh's local bounds into world space by its model
// matrix, conservatively via the 8 corners.
func worldAABB(mesh *core.Mesh, model mgl32.Mat4) (mgl32.Vec3, mgl32.Vec3) {
	lmin, lmax := mesh.AABB()
	first := true
	var wmin, wmax mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{lmin.X(), lmin.Y(), lmin.Z()}
		if i&1 != 0 {
			c[0] = lmax.X()
		}
		if i&2 != 0 {
			c[1] = lmax.Y()
		}
		if i&4 != 0 {
			c[2] = lmax.Z()
		}
		w := model.Mul4x1(c.Vec4(1)).Vec3()
		if first {
			wmin, wmax = w, w
			first = false
			continue
		}
		for j := 0; j < 3; j++ {
			if w[j] < wmin[j] {
				wmin[j] = w[j]
			}
			if w[j] > wmax[j] {
				wmax[j] = w[j]
			}
		}
	}
	return wmin, wmax
}

// Update advances the frame: rolls instance poses, installs the new view
// snapshot and uploads the frame and instance uniforms. All snapshot writes
// happen here, before Render encodes any work for the frame.
func (a *App) Update() {
	a.Frame.BeginFrame(a.currentViewParams())

	for _, inst := range a.Instances {
		inst.Pose.Move(inst.Transform.ObjectToWorld())
		inst.aabbMin, inst.aabbMax = worldAABB(inst.Mesh, inst.Pose.Model)
		a.Pass.UpdateInstance(inst.Draw, inst.Pose, inst.Index)
	}

	a.Pass.BeginFrame(a.Frame.Params, a.Frame.Current, a.Frame.Previous)
}

// GIVisible returns the instances whose bounds overlap the GI volume; only
// those need revoxelization by the cone-tracing stage.
func (a *App) GIVisible() []*Instance {
	var visible []*Instance
	for _, inst := range a.Instances {
		if a.Cfg.Volume.IntersectsAABB(inst.aabbMin, inst.aabbMax) {
			visible = append(visible, inst)
		}
	}
	return visible
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	// Frustum cull against the camera.
	planes := core.ExtractFrustum(a.Frame.Current.ViewProj)
	draws := make([]*gpu.InstanceDraw, 0, len(a.Instances))
	for _, inst := range a.Instances {
		if core.AABBInPlanes(planes, inst.aabbMin, inst.aabbMax) {
			draws = append(draws, inst.Draw)
		}
	}

	if err := a.Pass.Encode(encoder, a.Frame.Params.ClearColor, draws); err != nil {
		a.Log.Errorf("geometry pass End failed: %v", err)
	}

	// Blit the normal target to the surface.
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	rPass.SetPipeline(a.BlitPipeline)
	rPass.SetBindGroup(0, a.BlitBindGroup, nil)
	rPass.Draw(3, 1, 0, 0)
	if err := rPass.End(); err != nil {
		a.Log.Errorf("blit pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	// The frame's draws are submitted; retain its snapshot for next frame's
	// motion vectors.
	a.Frame.EndFrame()

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			a.Log.Debugf("fps %.1f, %d/%d instances in GI volume", a.FPS, len(a.GIVisible()), len(a.Instances))
		}
	}
	a.LastRenderTime = now
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Surf.Width = uint32(w)
	a.Surf.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Surf)
	if err := a.Pass.Resize(uint32(w), uint32(h)); err != nil {
		a.Log.Errorf("resize failed: %v", err)
		return
	}
	if err := a.setupBlitBindGroup(); err != nil {
		a.Log.Errorf("blit bind group rebuild failed: %v", err)
	}
}
