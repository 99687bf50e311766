package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vct/core"
	"github.com/gekko3d/vct/prepass"
)

func f32At(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func u32At(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset:])
}

func TestPackFrameUniforms_Layout(t *testing.T) {
	view := core.NewViewParams(
		mgl32.LookAtV(mgl32.Vec3{0, 1, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 100),
	)
	prev := core.NewViewParams(
		mgl32.LookAtV(mgl32.Vec3{0, 1, 6}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		view.Projection,
	)
	frame := core.FrameParams{Number: 42, UpscaleRatio: 1.5}

	buf := PackFrameUniforms(frame, view, prev, mgl32.Vec2{0.25, -0.125}, mgl32.Vec2{1.0 / 640, 1.0 / 480})
	require.Len(t, buf, FrameUniformsSize)

	// Matrices are column-major, first element of each lands at its offset.
	assert.Equal(t, view.ViewProj[0], f32At(buf, 0))
	assert.Equal(t, prev.ViewProj[0], f32At(buf, 64))
	assert.Equal(t, view.InvViewProj[0], f32At(buf, 128))
	assert.Equal(t, view.View[0], f32At(buf, 192))
	assert.Equal(t, view.Projection[0], f32At(buf, 256))
	assert.Equal(t, view.Projection[15], f32At(buf, 256+15*4))

	assert.Equal(t, float32(0.25), f32At(buf, 320))
	assert.Equal(t, float32(-0.125), f32At(buf, 324))
	assert.Equal(t, float32(1.0/640), f32At(buf, 328))
	assert.Equal(t, float32(1.0/480), f32At(buf, 332))
	assert.Equal(t, uint32(42), u32At(buf, 336))
	assert.Equal(t, float32(1.5), f32At(buf, 340))
	assert.Equal(t, uint32(0), u32At(buf, 344), "perspective packs kind 0")
}

func TestPackFrameUniforms_OrthographicKind(t *testing.T) {
	view := core.NewViewParams(mgl32.Ident4(), mgl32.Ortho(-5, 5, -5, 5, 0.1, 100))
	require.Equal(t, core.ProjectionOrthographic, view.Kind)

	buf := PackFrameUniforms(core.FrameParams{}, view, view, mgl32.Vec2{}, mgl32.Vec2{})
	assert.Equal(t, uint32(1), u32At(buf, 344))
}

func TestPackInstanceUniforms_Layout(t *testing.T) {
	pose := core.PoseAt(mgl32.Translate3D(1, 2, 3))
	pose.Move(mgl32.Translate3D(4, 5, 6))
	buf := PackInstanceUniforms(pose, core.InstanceIndex{Instance: 7, Material: 3})
	require.Len(t, buf, InstanceUniformsSize)

	assert.Equal(t, pose.Model[0], f32At(buf, 0))
	assert.Equal(t, float32(4), f32At(buf, 12*4), "model translation column")
	assert.Equal(t, pose.PrevModel[0], f32At(buf, 64))
	assert.Equal(t, float32(1), f32At(buf, 64+12*4), "previous model keeps the pre-move translation")
	assert.Equal(t, pose.InvTransposeModel[0], f32At(buf, 128))
	assert.Equal(t, uint32(7), u32At(buf, 192))
	assert.Equal(t, uint32(3), u32At(buf, 196))
}

func TestPackVertices_Stride(t *testing.T) {
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{1, 2, 3}, Normal: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{0.25, 0.75}},
		{Position: mgl32.Vec3{-1, -2, -3}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 0}},
	}
	buf := PackVertices(vertices)
	require.Len(t, buf, 2*VertexStride)

	assert.Equal(t, float32(1), f32At(buf, 0))
	assert.Equal(t, float32(0.75), f32At(buf, 28))
	assert.Equal(t, float32(-1), f32At(buf, VertexStride))
	assert.Equal(t, float32(1), f32At(buf, VertexStride+20))
	assert.Equal(t, float32(1), f32At(buf, VertexStride+24))
}

func TestPackIndices(t *testing.T) {
	buf := PackIndices([]uint32{0, 2, 1})
	require.Len(t, buf, 12)
	assert.Equal(t, uint32(0), u32At(buf, 0))
	assert.Equal(t, uint32(2), u32At(buf, 4))
	assert.Equal(t, uint32(1), u32At(buf, 8))
}

func TestFrameJitter_MatchesReference(t *testing.T) {
	frame := core.FrameParams{Number: 5, UpscaleRatio: 2}
	jitter, pixelSize := FrameJitter(prepass.JitterTemporal, frame, 640, 480)

	wantPixel := prepass.PixelSize(2, 640, 480)
	assert.Equal(t, wantPixel, pixelSize)
	assert.Equal(t, prepass.JitterOffset(prepass.JitterTemporal, 5, wantPixel), jitter)
}
