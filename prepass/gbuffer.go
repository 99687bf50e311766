package prepass

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
)

// GBuffer is the CPU-side multi-target buffer: five output channels plus a
// depth buffer for hidden-surface removal. It is overwritten every frame and
// read by downstream passes until the next frame's write.
type GBuffer struct {
	Width  int
	Height int

	Position      []mgl32.Vec4
	Normal        []mgl32.Vec4
	DepthGradient []mgl32.Vec2
	Index         [][2]uint32
	VelocityUV    []mgl32.Vec4

	depth []float32
}

func NewGBuffer(width, height int) *GBuffer {
	n := width * height
	return &GBuffer{
		Width:         width,
		Height:        height,
		Position:      make([]mgl32.Vec4, n),
		Normal:        make([]mgl32.Vec4, n),
		DepthGradient: make([]mgl32.Vec2, n),
		Index:         make([][2]uint32, n),
		VelocityUV:    make([]mgl32.Vec4, n),
		depth:         make([]float32, n),
	}
}

// Clear resets all channels. Normal.w goes to 0 (no coverage), depth to +Inf.
func (g *GBuffer) Clear(clearColor mgl32.Vec4) {
	inf := float32(math.Inf(1))
	for i := range g.depth {
		g.Position[i] = clearColor
		g.Normal[i] = mgl32.Vec4{}
		g.DepthGradient[i] = mgl32.Vec2{}
		g.Index[i] = [2]uint32{}
		g.VelocityUV[i] = mgl32.Vec4{}
		g.depth[i] = inf
	}
}

// At reassembles the fragment stored at (x, y).
func (g *GBuffer) At(x, y int) GBufferFragment {
	i := y*g.Width + x
	return GBufferFragment{
		PositionDepth: g.Position[i],
		Normal:        g.Normal[i],
		DepthGradient: g.DepthGradient[i],
		Index:         core.InstanceIndex{Instance: g.Index[i][0], Material: g.Index[i][1]},
		VelocityUV:    g.VelocityUV[i],
	}
}

// Covered reports whether any geometry wrote to (x, y) this frame.
func (g *GBuffer) Covered(x, y int) bool {
	return g.Normal[y*g.Width+x].W() != 0
}

// write stores a fragment if it passes the depth test against what is already
// at the pixel. ndcDepth is the screen-linear depth used for the comparison.
func (g *GBuffer) write(x, y int, ndcDepth float32, frag GBufferFragment) {
	i := y*g.Width + x
	if ndcDepth >= g.depth[i] {
		return
	}
	g.depth[i] = ndcDepth
	g.Position[i] = frag.PositionDepth
	g.Normal[i] = frag.Normal
	g.DepthGradient[i] = frag.DepthGradient
	g.Index[i] = [2]uint32{frag.Index.Instance, frag.Index.Material}
	g.VelocityUV[i] = frag.VelocityUV
}
