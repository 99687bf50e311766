package core

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quadAttributes() ([]mgl32.Vec3, []mgl32.Vec3, []mgl32.Vec2) {
	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	n := mgl32.Vec3{0, 0, 1}
	normals := []mgl32.Vec3{n, n, n, n}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	return positions, normals, uvs
}

func TestBuildMesh_MissingAttributes(t *testing.T) {
	positions, normals, uvs := quadAttributes()

	if _, err := BuildMesh(nil, normals, uvs, nil, TriangleList); !errors.Is(err, ErrMissingPositions) {
		t.Errorf("expected ErrMissingPositions, got %v", err)
	}
	if _, err := BuildMesh(positions, nil, uvs, nil, TriangleList); !errors.Is(err, ErrMissingNormals) {
		t.Errorf("expected ErrMissingNormals, got %v", err)
	}
	if _, err := BuildMesh(positions, normals, nil, nil, TriangleList); !errors.Is(err, ErrMissingUVs) {
		t.Errorf("expected ErrMissingUVs, got %v", err)
	}
	if _, err := BuildMesh(positions, normals[:2], uvs, nil, TriangleList); !errors.Is(err, ErrAttributeCountMismatch) {
		t.Errorf("expected ErrAttributeCountMismatch, got %v", err)
	}
}

func TestBuildMesh_StripExpansion(t *testing.T) {
	positions, normals, uvs := quadAttributes()
	mesh, err := BuildMesh(positions, normals, uvs, []uint32{0, 1, 2, 3}, TriangleStrip)
	if err != nil {
		t.Fatal(err)
	}

	// Two triangles; the second (odd) one has its first pair swapped so the
	// winding stays consistent.
	want := []uint32{0, 1, 2, 2, 1, 3}
	if len(mesh.Indices) != len(want) {
		t.Fatalf("expanded %d indices, want %d", len(mesh.Indices), len(want))
	}
	for i, idx := range want {
		if mesh.Indices[i] != idx {
			t.Fatalf("index %d = %d, want %d (full: %v)", i, mesh.Indices[i], idx, mesh.Indices)
		}
	}
}

func TestBuildMesh_NonIndexed(t *testing.T) {
	positions, normals, uvs := quadAttributes()
	mesh, err := BuildMesh(positions[:3], normals[:3], uvs[:3], nil, TriangleList)
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Indices) != 3 {
		t.Fatalf("expected implicit indices for 3 vertices, got %v", mesh.Indices)
	}
	if mesh.Id == "" {
		t.Error("mesh must be assigned an asset id")
	}
}

func TestCubeMesh_Bounds(t *testing.T) {
	mesh := NewCubeMesh(2.0)
	if len(mesh.Indices)%3 != 0 {
		t.Fatal("cube indices must form whole triangles")
	}
	min, max := mesh.AABB()
	for i := 0; i < 3; i++ {
		if min[i] != -1 || max[i] != 1 {
			t.Fatalf("cube AABB = %v..%v, want -1..1", min, max)
		}
	}
}

func TestPlaneMesh_FacesUp(t *testing.T) {
	mesh := NewPlaneMesh(5.0)
	for i, v := range mesh.Vertices {
		if v.Normal != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("vertex %d normal = %v, want +Y", i, v.Normal)
		}
		if v.Position.Y() != 0 {
			t.Fatalf("vertex %d not in the XZ plane", i)
		}
	}
}
