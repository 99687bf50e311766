package prepass

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
)

// VertexOutput is the per-vertex result interpolated across a triangle and
// consumed by the fragment resolve. It has no identity beyond a single draw.
type VertexOutput struct {
	ClipPos      mgl32.Vec4
	WorldPos     mgl32.Vec3
	PrevWorldPos mgl32.Vec3
	WorldNormal  mgl32.Vec3
	UV           mgl32.Vec2
}

// JitteredProjection folds the jitter offset into a perspective projection
// matrix: the x entry of the z column gains jitter.x and the y entry loses
// jitter.y, so the shift rides through the perspective divide as a uniform
// pixel-space offset. Orthographic matrices are returned untouched; for them
// clip-space offsets map linearly and the jitter is added after projection
// instead (see TransformVertex).
func JitteredProjection(proj mgl32.Mat4, kind core.ProjectionKind, jitter mgl32.Vec2) mgl32.Mat4 {
	if kind == core.ProjectionOrthographic {
		return proj
	}
	p := proj
	p.Set(0, 2, p.At(0, 2)+jitter.X())
	p.Set(1, 2, p.At(1, 2)-jitter.Y())
	return p
}

// TransformVertex maps a local-space vertex to clip space and both world
// positions. The previous world position applies the previous model matrix to
// the same local vertex, which assumes rigid or affine instance motion;
// per-vertex deformation (skinning, displacement) has no history here and
// shows up as rigid-body motion only.
func TransformVertex(v core.Vertex, pose core.InstancePose, view core.ViewParams, jitter mgl32.Vec2) VertexOutput {
	local := v.Position.Vec4(1)
	world := pose.Model.Mul4x1(local)
	prevWorld := pose.PrevModel.Mul4x1(local)
	normal := pose.InvTransposeModel.Mat3().Mul3x1(v.Normal).Normalize()

	proj := JitteredProjection(view.Projection, view.Kind, jitter)
	clip := proj.Mul4(view.View).Mul4x1(world)
	if view.Kind == core.ProjectionOrthographic {
		// Same sign convention as the perspective fold.
		clip[0] += jitter.X()
		clip[1] -= jitter.Y()
	}

	return VertexOutput{
		ClipPos:      clip,
		WorldPos:     world.Vec3(),
		PrevWorldPos: prevWorld.Vec3(),
		WorldNormal:  normal,
		UV:           v.UV,
	}
}
