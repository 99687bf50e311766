package main

import (
	"flag"
	"image"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/app"
	"github.com/gekko3d/vct/core"
	"github.com/gekko3d/vct/prepass"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	noJitter := flag.Bool("no-jitter", false, "Disable temporal jitter")
	dump := flag.Bool("dump", false, "Rasterize one frame on the CPU, write G-buffer channel PNGs and exit")
	flag.Parse()

	cfg := app.DefaultConfig()
	cfg.Debug = *debug
	if *noJitter {
		cfg.JitterMode = prepass.JitterDisabled
	}

	if *dump {
		if err := dumpGBuffer(cfg); err != nil {
			panic(err)
		}
		return
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "VCT Geometry Pass", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg)
	if err := application.Init(); err != nil {
		panic(err)
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	// Input callbacks
	mouseCaptured := false
	var lastX, lastY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if mouseCaptured {
			camera := application.Camera
			camera.Yaw += float32(xpos-lastX) * camera.Sensitivity
			camera.Pitch -= float32(ypos-lastY) * camera.Sensitivity
			camera.Pitch = mgl32.Clamp(camera.Pitch, -1.55, 1.55)
		}
		lastX, lastY = xpos, ypos
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyTab && action == glfw.Press {
			mouseCaptured = !mouseCaptured
			if mouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		}
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	// Ground plane and a cube that circles above it; the cube's motion keeps
	// the velocity channel non-trivial.
	planeTransform := core.NewTransform()
	if _, err := application.AddInstance(core.NewPlaneMesh(5.0), planeTransform, 1); err != nil {
		panic(err)
	}

	cubeTransform := core.NewTransform()
	cubeTransform.Position = mgl32.Vec3{0, 0.5, 0}
	cube, err := application.AddInstance(core.NewCubeMesh(1.0), cubeTransform, 2)
	if err != nil {
		panic(err)
	}

	lastTime := glfw.GetTime()
	for !window.ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		dt := float32(now - lastTime)
		lastTime = now
		moveCamera(window, application.Camera, dt)

		t := float32(now)
		cube.Transform.Position = mgl32.Vec3{mgl32.Clamp(t*0.1, 0, 2), 0.5, 0}
		cube.Transform.Rotation = mgl32.QuatRotate(t*0.4, mgl32.Vec3{0, 1, 0})

		application.Update()
		application.Render()
	}
}

// moveCamera applies WASD plus space/ctrl flight, scaled by the camera speed.
func moveCamera(window *glfw.Window, camera *core.CameraState, dt float32) {
	var move mgl32.Vec3
	if window.GetKey(glfw.KeyW) == glfw.Press {
		move = move.Add(camera.Forward())
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		move = move.Sub(camera.Forward())
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		move = move.Add(camera.Right())
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		move = move.Sub(camera.Right())
	}
	if window.GetKey(glfw.KeySpace) == glfw.Press {
		move[1] += 1
	}
	if window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		move[1] -= 1
	}
	if move.Len() > 0 {
		camera.Position = camera.Position.Add(move.Normalize().Mul(camera.Speed * dt))
	}
}

// dumpGBuffer renders the demo scene once through the CPU reference and
// writes one PNG per channel, plus the normal channel seen from the first GI
// volume view, whose orthographic projection takes the post-projection jitter
// path.
func dumpGBuffer(cfg app.Config) error {
	camera := core.NewCameraState()
	proj := mgl32.Perspective(mgl32.DegToRad(cfg.FOVDegrees), 16.0/9.0, cfg.Near, cfg.Far)
	view := core.NewViewParamsKind(camera.ViewMatrix(), proj, core.ProjectionPerspective)

	cubeTransform := core.NewTransform()
	cubeTransform.Position = mgl32.Vec3{0, 0.5, 0}
	calls := []prepass.DrawCall{
		{Mesh: core.NewPlaneMesh(5.0), Pose: core.PoseAt(mgl32.Ident4()), Index: core.InstanceIndex{Instance: 1, Material: 1}},
		{Mesh: core.NewCubeMesh(1.0), Pose: core.PoseAt(cubeTransform.ObjectToWorld()), Index: core.InstanceIndex{Instance: 2, Material: 2}},
	}

	frame := core.NewFrameParams()
	frame.Number = 1
	frame.UpscaleRatio = cfg.UpscaleRatio
	r := prepass.NewRasterizer(cfg.JitterMode)

	gb := prepass.NewGBuffer(640, 360)
	gb.Clear(frame.ClearColor)
	r.Draw(gb, frame, view, view, calls)

	channels := []struct {
		name string
		ch   prepass.DebugChannel
	}{
		{"gbuffer_position.png", prepass.DebugPosition},
		{"gbuffer_normal.png", prepass.DebugNormal},
		{"gbuffer_depth_gradient.png", prepass.DebugDepthGradient},
		{"gbuffer_velocity.png", prepass.DebugVelocity},
	}
	for _, c := range channels {
		if err := writePNG(c.name, gb.DebugImage(c.ch), frame.UpscaleRatio); err != nil {
			return err
		}
	}

	volumeView := cfg.Volume.Views()[0]
	gb.Clear(frame.ClearColor)
	r.Draw(gb, frame, volumeView, volumeView, calls)
	return writePNG("gbuffer_volume_normal.png", gb.DebugImage(prepass.DebugNormal), frame.UpscaleRatio)
}

func writePNG(name string, img image.Image, upscaleRatio float32) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := prepass.WriteDebugPNG(f, img, upscaleRatio); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
