package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionKind tags a projection matrix as perspective or orthographic.
// It is computed once when the projection is built and carried alongside the
// matrix, so the hot path never re-inspects matrix elements.
type ProjectionKind uint8

const (
	ProjectionPerspective ProjectionKind = iota
	ProjectionOrthographic
)

func (k ProjectionKind) String() string {
	if k == ProjectionOrthographic {
		return "orthographic"
	}
	return "perspective"
}

// KindOfProjection derives the projection kind structurally: an orthographic
// matrix has 1.0 in the bottom-right homogeneous element, a perspective matrix
// does not. The comparison is exact. A projection assembled through
// floating-point accumulation whose [3][3] only approximates 1.0 is classified
// as perspective; callers that build such matrices should construct ViewParams
// with an explicit kind instead of relying on this check.
func KindOfProjection(proj mgl32.Mat4) ProjectionKind {
	if proj.At(3, 3) == 1.0 {
		return ProjectionOrthographic
	}
	return ProjectionPerspective
}
