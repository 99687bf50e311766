package core

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AssetId string

func NewAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// Vertex is the static per-mesh geometry the vertex stage consumes.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

type PrimitiveTopology uint8

const (
	TriangleList PrimitiveTopology = iota
	TriangleStrip
)

var (
	ErrMissingPositions       = errors.New("mesh: missing position attribute")
	ErrMissingNormals         = errors.New("mesh: missing normal attribute")
	ErrMissingUVs             = errors.New("mesh: missing uv attribute")
	ErrAttributeCountMismatch = errors.New("mesh: attribute counts differ")
	ErrIncompatibleTopology   = errors.New("mesh: incompatible primitive topology")
)

// Mesh holds triangle-list geometry. Strips are expanded at build time so the
// rasterizer and the GPU path only ever see lists.
type Mesh struct {
	Id       AssetId
	Vertices []Vertex
	Indices  []uint32
}

// BuildMesh assembles a mesh from raw attribute slices. Indices may be nil for
// non-indexed geometry. Triangle strips are expanded into lists, flipping the
// winding of every odd triangle so all faces keep a consistent orientation.
func BuildMesh(positions, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32, topology PrimitiveTopology) (*Mesh, error) {
	if len(positions) == 0 {
		return nil, ErrMissingPositions
	}
	if len(normals) == 0 {
		return nil, ErrMissingNormals
	}
	if len(uvs) == 0 {
		return nil, ErrMissingUVs
	}
	if len(normals) != len(positions) || len(uvs) != len(positions) {
		return nil, ErrAttributeCountMismatch
	}

	vertices := make([]Vertex, len(positions))
	for i := range positions {
		vertices[i] = Vertex{Position: positions[i], Normal: normals[i], UV: uvs[i]}
	}

	if indices == nil {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	var list []uint32
	switch topology {
	case TriangleList:
		if len(indices)%3 != 0 {
			return nil, ErrIncompatibleTopology
		}
		list = append(list, indices...)
	case TriangleStrip:
		if len(indices) < 3 {
			return nil, ErrIncompatibleTopology
		}
		for i := 0; i+2 < len(indices); i++ {
			if i&1 == 0 {
				list = append(list, indices[i], indices[i+1], indices[i+2])
			} else {
				list = append(list, indices[i+1], indices[i], indices[i+2])
			}
		}
	default:
		return nil, ErrIncompatibleTopology
	}

	return &Mesh{
		Id:       NewAssetId(),
		Vertices: vertices,
		Indices:  list,
	}, nil
}

// AABB returns the local-space bounds of the mesh.
func (m *Mesh) AABB() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min = m.Vertices[0].Position
	max = min
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < min[i] {
				min[i] = v.Position[i]
			}
			if v.Position[i] > max[i] {
				max[i] = v.Position[i]
			}
		}
	}
	return
}

// NewPlaneMesh builds a flat XZ quad of the given size centered at the origin,
// facing +Y.
func NewPlaneMesh(size float32) *Mesh {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	mesh, _ := BuildMesh(
		[]mgl32.Vec3{{-h, 0, -h}, {h, 0, -h}, {h, 0, h}, {-h, 0, h}},
		[]mgl32.Vec3{up, up, up, up},
		[]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[]uint32{0, 2, 1, 0, 3, 2},
		TriangleList,
	)
	return mesh
}

// NewCubeMesh builds an axis-aligned cube of the given edge length centered at
// the origin, 4 vertices per face so normals stay hard.
func NewCubeMesh(size float32) *Mesh {
	h := size / 2

	type face struct {
		normal mgl32.Vec3
		right  mgl32.Vec3
		up     mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(positions))
		center := f.normal.Mul(h)
		corners := [4]mgl32.Vec3{
			center.Sub(f.right.Mul(h)).Sub(f.up.Mul(h)),
			center.Add(f.right.Mul(h)).Sub(f.up.Mul(h)),
			center.Add(f.right.Mul(h)).Add(f.up.Mul(h)),
			center.Sub(f.right.Mul(h)).Add(f.up.Mul(h)),
		}
		for i, c := range corners {
			positions = append(positions, c)
			normals = append(normals, f.normal)
			uvs = append(uvs, [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}[i])
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	mesh, _ := BuildMesh(positions, normals, uvs, indices, TriangleList)
	return mesh
}
