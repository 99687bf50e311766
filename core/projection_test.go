package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestKindOfProjection(t *testing.T) {
	persp := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 1000)
	if KindOfProjection(persp) != ProjectionPerspective {
		t.Errorf("perspective matrix misclassified as %v", KindOfProjection(persp))
	}

	ortho := mgl32.Ortho(-5, 5, -5, 5, -5, 5)
	if KindOfProjection(ortho) != ProjectionOrthographic {
		t.Errorf("orthographic matrix misclassified as %v", KindOfProjection(ortho))
	}
}

func TestNewViewParams_DerivesKindAndInverse(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1.0, 0.1, 100)

	vp := NewViewParams(view, proj)
	if vp.Kind != ProjectionPerspective {
		t.Fatalf("expected perspective kind, got %v", vp.Kind)
	}

	// InvViewProj must actually invert ViewProj.
	ident := vp.ViewProj.Mul4(vp.InvViewProj)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			got := ident.At(i, j)
			if got < want-1e-4 || got > want+1e-4 {
				t.Fatalf("ViewProj * InvViewProj not identity at (%d,%d): %f", i, j, got)
			}
		}
	}
}
