package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceIndex is the (instance id, material id) pair set at instance
// creation. It is flat data: never interpolated, passed through to the
// G-buffer verbatim.
type InstanceIndex struct {
	Instance uint32
	Material uint32
}

// InstancePose carries the current and previous model matrices of a mesh
// instance, plus the inverse-transpose of each for normal transforms under
// non-uniform scale. The previous matrices must describe where the instance
// was one frame ago; a stale previous pose shows up as spurious velocity.
type InstancePose struct {
	Model             mgl32.Mat4
	InvTransposeModel mgl32.Mat4

	PrevModel             mgl32.Mat4
	PrevInvTransposeModel mgl32.Mat4
}

// NormalMatrixOf returns the inverse-transpose of a model matrix. Applying its
// upper 3x3 to a local normal yields a world normal that stays perpendicular
// under non-uniform scale.
func NormalMatrixOf(model mgl32.Mat4) mgl32.Mat4 {
	return model.Inv().Transpose()
}

// PoseAt creates a pose with no motion: previous equals current.
func PoseAt(model mgl32.Mat4) InstancePose {
	nm := NormalMatrixOf(model)
	return InstancePose{
		Model:                 model,
		InvTransposeModel:     nm,
		PrevModel:             model,
		PrevInvTransposeModel: nm,
	}
}

// Move rolls the current matrices into the previous slots and installs the new
// model. Call once per frame for every instance, moved or not; an unmoved
// instance passes its unchanged model so that previous catches up and its
// velocity stays zero.
func (p *InstancePose) Move(model mgl32.Mat4) {
	p.PrevModel = p.Model
	p.PrevInvTransposeModel = p.InvTransposeModel
	p.Model = model
	p.InvTransposeModel = NormalMatrixOf(model)
}

// Teleport overwrites both current and previous matrices, producing no motion
// vector for the jump. Use when an instance is spawned or warped and temporal
// history should not chase it.
func (p *InstancePose) Teleport(model mgl32.Mat4) {
	*p = PoseAt(model)
}
