package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Volume is the axis-aligned region the GI voxel grid covers. Instances
// outside the volume contribute nothing to the grid and are culled before the
// geometry pass revoxelizes them.
type Volume struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewVolume(min, max mgl32.Vec3) Volume {
	return Volume{Min: min, Max: max}
}

func DefaultVolume() Volume {
	return Volume{
		Min: mgl32.Vec3{-5, -5, -5},
		Max: mgl32.Vec3{5, 5, 5},
	}
}

func (v Volume) Center() mgl32.Vec3 {
	return v.Max.Add(v.Min).Mul(0.5)
}

func (v Volume) Extent() mgl32.Vec3 {
	return v.Max.Sub(v.Min).Mul(0.5)
}

// Planes expresses the volume as 6 inward-facing planes, in the same
// Ax + By + Cz + D = 0 form ExtractFrustum produces.
func (v Volume) Planes() [6]mgl32.Vec4 {
	return [6]mgl32.Vec4{
		{1, 0, 0, -v.Min.X()},
		{-1, 0, 0, v.Max.X()},
		{0, 1, 0, -v.Min.Y()},
		{0, -1, 0, v.Max.Y()},
		{0, 0, 1, -v.Min.Z()},
		{0, 0, -1, v.Max.Z()},
	}
}

// IntersectsAABB reports whether the box [min, max] overlaps the volume.
func (v Volume) IntersectsAABB(min, max mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if max[i] < v.Min[i] || min[i] > v.Max[i] {
			return false
		}
	}
	return true
}

// Views returns three axis-aligned orthographic snapshots covering the volume,
// one per principal axis. The voxelization pass draws the scene once through
// each so that thin geometry is caught regardless of orientation. All three
// carry ProjectionOrthographic, so jitter for them goes through the
// post-projection clip-space path.
func (v Volume) Views() [3]ViewParams {
	center := v.Center()
	extent := v.Extent()

	rotations := [3]mgl32.Mat4{
		mgl32.Ident4(),
		mgl32.HomogRotate3DY(float32(math.Pi / 2)),
		mgl32.HomogRotate3DX(float32(math.Pi / 2)),
	}

	proj := mgl32.Ortho(
		-extent.X(), extent.X(),
		-extent.Y(), extent.Y(),
		-extent.Z(), extent.Z(),
	)

	var views [3]ViewParams
	for i, rot := range rotations {
		camera := mgl32.Translate3D(center.X(), center.Y(), center.Z()).Mul4(rot)
		views[i] = NewViewParamsKind(camera.Inv(), proj, ProjectionOrthographic)
	}
	return views
}
