package prepass

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
)

// GBufferFragment is the five-channel per-pixel output of the geometry pass.
// Channel order is significant; downstream GI and denoise passes index them
// by position.
type GBufferFragment struct {
	// PositionDepth holds world-space xyz plus the post-projection depth in w,
	// so consumers can reconstruct both without a second transform.
	PositionDepth mgl32.Vec4
	// Normal holds the world normal; w is fixed at 1 as a coverage flag.
	Normal mgl32.Vec4
	// DepthGradient holds the screen-space partial derivatives of depth,
	// the edge-stopping input for the denoiser.
	DepthGradient mgl32.Vec2
	// Index carries the flat instance/material ids verbatim.
	Index core.InstanceIndex
	// VelocityUV packs the screen-space motion vector in xy and the original
	// mesh UV in zw.
	VelocityUV mgl32.Vec4
}

// ScreenUV maps a clip-space position to normalized screen coordinates:
// xy/w remapped from [-1,1] to [0,1] with Y flipped to raster convention.
func ScreenUV(clip mgl32.Vec4) mgl32.Vec2 {
	invW := 1.0 / clip.W()
	return mgl32.Vec2{
		clip.X()*invW*0.5 + 0.5,
		0.5 - clip.Y()*invW*0.5,
	}
}

// WorldFromScreenUV inverts ScreenUV for a given NDC depth, using the
// snapshot's inverse view-projection. Round-tripping a world position through
// ScreenUV(ViewProj * p) and back reproduces p up to floating-point error
// whenever the matrices are invertible.
func WorldFromScreenUV(uv mgl32.Vec2, ndcDepth float32, view core.ViewParams) mgl32.Vec3 {
	ndc := mgl32.Vec4{
		uv.X()*2 - 1,
		(0.5-uv.Y())*2,
		ndcDepth,
		1,
	}
	h := view.InvViewProj.Mul4x1(ndc)
	return h.Vec3().Mul(1.0 / h.W())
}

// ResolveFragment computes the five G-buffer channels from interpolated vertex
// output. Motion is derived by reprojecting the current world position through
// the current view-projection and the previous world position through the
// previous frame's view-projection; both matrices are the unjittered ones, so
// the jitter never leaks into the velocity field.
func ResolveFragment(in VertexOutput, index core.InstanceIndex, depthGradient mgl32.Vec2, current, previous core.ViewParams) GBufferFragment {
	currentUV := ScreenUV(current.ViewProj.Mul4x1(in.WorldPos.Vec4(1)))
	previousUV := ScreenUV(previous.ViewProj.Mul4x1(in.PrevWorldPos.Vec4(1)))
	velocity := currentUV.Sub(previousUV)

	return GBufferFragment{
		PositionDepth: in.WorldPos.Vec4(in.ClipPos.Z()),
		Normal:        in.WorldNormal.Vec4(1),
		DepthGradient: depthGradient,
		Index:         index,
		VelocityUV:    mgl32.Vec4{velocity.X(), velocity.Y(), in.UV.X(), in.UV.Y()},
	}
}
