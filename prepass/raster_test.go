package prepass

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vct/core"
)

// facingQuad builds a quad in the XY plane facing +Z, so a camera on the
// positive Z axis sees it head-on.
func facingQuad(half float32) *core.Mesh {
	n := mgl32.Vec3{0, 0, 1}
	mesh, _ := core.BuildMesh(
		[]mgl32.Vec3{{-half, -half, 0}, {half, -half, 0}, {half, half, 0}, {-half, half, 0}},
		[]mgl32.Vec3{n, n, n, n},
		[]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}},
		[]uint32{0, 1, 2, 0, 2, 3},
		core.TriangleList,
	)
	return mesh
}

func rasterView() core.ViewParams {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1.0, 0.1, 100)
	return core.NewViewParams(view, proj)
}

func drawQuad(t *testing.T, mode JitterMode, pose core.InstancePose, current, previous core.ViewParams) *GBuffer {
	t.Helper()
	gb := NewGBuffer(64, 64)
	gb.Clear(mgl32.Vec4{})

	r := NewRasterizer(mode)
	r.Draw(gb, core.FrameParams{Number: 1, UpscaleRatio: 1}, current, previous, []DrawCall{
		{Mesh: facingQuad(2), Pose: pose, Index: core.InstanceIndex{Instance: 7, Material: 3}},
	})
	require.True(t, gb.Covered(32, 32), "quad must cover the screen center")
	return gb
}

func TestRasterizer_FlatIdsAcrossTriangle(t *testing.T) {
	view := rasterView()
	gb := drawQuad(t, JitterDisabled, core.PoseAt(mgl32.Ident4()), view, view)

	centerUV := gb.At(32, 32).VelocityUV
	for _, p := range [][2]int{{32, 32}, {25, 25}, {40, 30}, {30, 41}} {
		require.True(t, gb.Covered(p[0], p[1]))
		frag := gb.At(p[0], p[1])
		// Ids interpolate flat: identical at every pixel of the instance even
		// though the UVs vary.
		assert.Equal(t, uint32(7), frag.Index.Instance, "pixel %v", p)
		assert.Equal(t, uint32(3), frag.Index.Material, "pixel %v", p)
		if p != [2]int{32, 32} {
			assert.NotEqual(t, centerUV.Z(), frag.VelocityUV.Z(), "uv must vary across the quad, pixel %v", p)
		}
	}
	assert.InDelta(t, 0.5, float64(gb.At(32, 32).VelocityUV.Z()), 0.05, "center pixel samples the middle of the uv range")
	assert.InDelta(t, 0.5, float64(gb.At(32, 32).VelocityUV.W()), 0.05)
}

func TestRasterizer_DepthGradient(t *testing.T) {
	view := rasterView()

	facing := drawQuad(t, JitterDisabled, core.PoseAt(mgl32.Ident4()), view, view)
	grad := facing.At(32, 32).DepthGradient
	assert.InDelta(t, 0.0, float64(grad.X()), 1e-6, "camera-facing surface has constant depth")
	assert.InDelta(t, 0.0, float64(grad.Y()), 1e-6)

	tilted := drawQuad(t, JitterDisabled, core.PoseAt(mgl32.HomogRotate3DY(1.0)), view, view)
	tiltedGrad := tilted.At(32, 32).DepthGradient
	assert.Greater(t, math.Abs(float64(tiltedGrad.X())), 1e-5, "tilting around Y must produce a horizontal depth slope")
}

// ndcDepthAt reprojects the world position stored at a pixel and divides, the
// same post-divide depth the shader differentiates.
func ndcDepthAt(gb *GBuffer, view core.ViewParams, x, y int) float32 {
	world := gb.At(x, y).PositionDepth.Vec3()
	clip := view.ViewProj.Mul4x1(world.Vec4(1))
	return clip.Z() / clip.W()
}

func TestRasterizer_DepthGradientIsNDCDepthSlope(t *testing.T) {
	view := rasterView()
	gb := drawQuad(t, JitterDisabled, core.PoseAt(mgl32.HomogRotate3DY(1.0)), view, view)

	// The stored gradient must equal the per-pixel finite difference of NDC
	// depth, not of pre-divide clip z; under perspective the two differ by
	// roughly a factor of clip w.
	for _, p := range [][2]int{{32, 32}, {30, 28}, {34, 36}} {
		x, y := p[0], p[1]
		require.True(t, gb.Covered(x, y) && gb.Covered(x+1, y) && gb.Covered(x, y+1))
		frag := gb.At(x, y)

		dx := ndcDepthAt(gb, view, x+1, y) - ndcDepthAt(gb, view, x, y)
		dy := ndcDepthAt(gb, view, x, y+1) - ndcDepthAt(gb, view, x, y)
		assert.InDelta(t, float64(dx), float64(frag.DepthGradient.X()), 1e-5, "pixel %v", p)
		assert.InDelta(t, float64(dy), float64(frag.DepthGradient.Y()), 1e-5, "pixel %v", p)
	}
}

func TestRasterizer_StaticSceneZeroVelocity(t *testing.T) {
	view := rasterView()
	// Temporal jitter is on; it shifts the sampling grid but must never leak
	// into the motion vectors of a static scene.
	gb := drawQuad(t, JitterTemporal, core.PoseAt(mgl32.Ident4()), view, view)

	for y := 0; y < gb.Height; y++ {
		for x := 0; x < gb.Width; x++ {
			if !gb.Covered(x, y) {
				continue
			}
			frag := gb.At(x, y)
			require.Equal(t, float32(0), frag.VelocityUV.X(), "pixel (%d, %d)", x, y)
			require.Equal(t, float32(0), frag.VelocityUV.Y(), "pixel (%d, %d)", x, y)
		}
	}
}

func TestRasterizer_DepthTestPrefersNearSurface(t *testing.T) {
	view := rasterView()
	gb := NewGBuffer(64, 64)
	gb.Clear(mgl32.Vec4{})

	r := NewRasterizer(JitterDisabled)
	// Far quad first in the list; the near one must still win the center.
	r.Draw(gb, core.FrameParams{Number: 1, UpscaleRatio: 1}, view, view, []DrawCall{
		{Mesh: facingQuad(2), Pose: core.PoseAt(mgl32.Ident4()), Index: core.InstanceIndex{Instance: 2, Material: 2}},
		{Mesh: facingQuad(1), Pose: core.PoseAt(mgl32.Translate3D(0, 0, 1)), Index: core.InstanceIndex{Instance: 1, Material: 1}},
	})

	require.True(t, gb.Covered(32, 32))
	assert.Equal(t, uint32(1), gb.At(32, 32).Index.Instance)
	// Outside the near quad's footprint the far one shows through.
	require.True(t, gb.Covered(10, 32))
	assert.Equal(t, uint32(2), gb.At(10, 32).Index.Instance)
}

func TestGBuffer_ClearResetsCoverage(t *testing.T) {
	gb := NewGBuffer(4, 4)
	clear := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	gb.Clear(clear)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.False(t, gb.Covered(x, y))
			assert.Equal(t, clear, gb.At(x, y).PositionDepth)
		}
	}

	gb.write(1, 1, 0.5, GBufferFragment{Normal: mgl32.Vec4{0, 1, 0, 1}})
	assert.True(t, gb.Covered(1, 1))

	// A farther fragment must not replace the stored one.
	gb.write(1, 1, 0.8, GBufferFragment{Normal: mgl32.Vec4{1, 0, 0, 1}})
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 1}, gb.At(1, 1).Normal)

	gb.write(1, 1, 0.3, GBufferFragment{Normal: mgl32.Vec4{0, 0, 1, 1}})
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, gb.At(1, 1).Normal)
}
