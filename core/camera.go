package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{-2, 2.5, 5},
		Yaw:         0,
		Pitch:       0,
		Speed:       10.0,
		Sensitivity: 0.003,
	}
}

func (c *CameraState) Forward() mgl32.Vec3 {
	// Y-up: Yaw in XZ plane, Pitch tilts toward Y
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		float32(math.Sin(float64(c.Yaw))),
	}
}

func (c *CameraState) ViewMatrix() mgl32.Mat4 {
	forward := c.Forward()
	eye := c.Position
	target := eye.Add(forward)
	up := mgl32.Vec3{0, 1, 0}
	return mgl32.LookAtV(eye, target, up)
}

// ExtractFrustum extracts the 6 planes of the frustum from a view-projection
// matrix. Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	// Left plane: Row 3 + Row 0
	planes[0] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(0, 0),
		vp.At(3, 1) + vp.At(0, 1),
		vp.At(3, 2) + vp.At(0, 2),
		vp.At(3, 3) + vp.At(0, 3),
	}
	// Right plane: Row 3 - Row 0
	planes[1] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(0, 0),
		vp.At(3, 1) - vp.At(0, 1),
		vp.At(3, 2) - vp.At(0, 2),
		vp.At(3, 3) - vp.At(0, 3),
	}
	// Bottom plane: Row 3 + Row 1
	planes[2] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(1, 0),
		vp.At(3, 1) + vp.At(1, 1),
		vp.At(3, 2) + vp.At(1, 2),
		vp.At(3, 3) + vp.At(1, 3),
	}
	// Top plane: Row 3 - Row 1
	planes[3] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(1, 0),
		vp.At(3, 1) - vp.At(1, 1),
		vp.At(3, 2) - vp.At(1, 2),
		vp.At(3, 3) - vp.At(1, 3),
	}
	// Near plane: Row 3 + Row 2 (OpenGL-style -1..1)
	planes[4] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(2, 0),
		vp.At(3, 1) + vp.At(2, 1),
		vp.At(3, 2) + vp.At(2, 2),
		vp.At(3, 3) + vp.At(2, 3),
	}
	// Far plane: Row 3 - Row 2
	planes[5] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(2, 0),
		vp.At(3, 1) - vp.At(2, 1),
		vp.At(3, 2) - vp.At(2, 2),
		vp.At(3, 3) - vp.At(2, 3),
	}

	// Normalize planes
	for i := 0; i < 6; i++ {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// AABBInPlanes reports whether the box [min, max] is on the positive side of
// all planes (i.e. not fully outside any of them).
func AABBInPlanes(planes [6]mgl32.Vec4, min, max mgl32.Vec3) bool {
	for _, p := range planes {
		// Positive vertex: the corner furthest along the plane normal.
		v := min
		if p.X() >= 0 {
			v[0] = max.X()
		}
		if p.Y() >= 0 {
			v[1] = max.Y()
		}
		if p.Z() >= 0 {
			v[2] = max.Z()
		}
		if p.X()*v.X()+p.Y()*v.Y()+p.Z()*v.Z()+p.W() < 0 {
			return false
		}
	}
	return true
}
