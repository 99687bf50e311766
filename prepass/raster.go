package prepass

import (
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
)

// DrawCall is one visible mesh instance for the current frame.
type DrawCall struct {
	Mesh  *core.Mesh
	Pose  core.InstancePose
	Index core.InstanceIndex
}

// Rasterizer scan-converts draw calls into a GBuffer. It is the CPU twin of
// the WGSL pipeline: barycentric edge functions, perspective-correct varyings,
// flat ids, screen-linear depth with a less-than test. Triangles crossing the
// near plane are skipped rather than clipped; the geometry pass feeds a GI
// volume, not the primary view, so losing camera-intersecting slivers is
// acceptable for the reference path.
type Rasterizer struct {
	// Workers caps the fan-out; 0 means NumCPU. Each worker owns a disjoint
	// band of rows, so no two invocations ever write the same pixel.
	Workers int
	Mode    JitterMode
}

func NewRasterizer(mode JitterMode) *Rasterizer {
	return &Rasterizer{Workers: runtime.NumCPU(), Mode: mode}
}

type screenTriangle struct {
	v       [3]VertexOutput
	sx, sy  [3]float32
	z       [3]float32 // NDC depth, linear in screen space
	invW    [3]float32
	invArea float32
	grad    mgl32.Vec2
	index   core.InstanceIndex
}

func edgeFunction(ax, ay, bx, by, px, py float32) float32 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

// Draw renders all calls for the frame into gb. The snapshots must be stable
// for the duration of the call; the host swaps them only between frames.
func (r *Rasterizer) Draw(gb *GBuffer, frame core.FrameParams, current, previous core.ViewParams, calls []DrawCall) {
	if gb.Width == 0 || gb.Height == 0 {
		return
	}
	pixel := PixelSize(frame.UpscaleRatio, gb.Width, gb.Height)
	jitter := JitterOffset(r.Mode, frame.Number, pixel)

	var tris []screenTriangle
	for _, call := range calls {
		outs := make([]VertexOutput, len(call.Mesh.Vertices))
		for i, v := range call.Mesh.Vertices {
			outs[i] = TransformVertex(v, call.Pose, current, jitter)
		}
		idx := call.Mesh.Indices
		for i := 0; i+2 < len(idx); i += 3 {
			if t, ok := setupTriangle(outs[idx[i]], outs[idx[i+1]], outs[idx[i+2]], call.Index, gb.Width, gb.Height); ok {
				tris = append(tris, t)
			}
		}
	}
	if len(tris) == 0 {
		return
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > gb.Height {
		workers = gb.Height
	}
	rows := (gb.Height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * rows
		y1 := min(y0+rows, gb.Height)
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for i := range tris {
				rasterBand(gb, &tris[i], y0, y1, current, previous)
			}
		}(y0, y1)
	}
	wg.Wait()
}

func setupTriangle(v0, v1, v2 VertexOutput, index core.InstanceIndex, width, height int) (screenTriangle, bool) {
	t := screenTriangle{v: [3]VertexOutput{v0, v1, v2}, index: index}
	for i, v := range t.v {
		w := v.ClipPos.W()
		if w <= 0 {
			return t, false
		}
		invW := 1.0 / w
		ndcX := v.ClipPos.X() * invW
		ndcY := v.ClipPos.Y() * invW
		t.sx[i] = (ndcX*0.5 + 0.5) * float32(width)
		t.sy[i] = (0.5 - ndcY*0.5) * float32(height)
		t.z[i] = v.ClipPos.Z() * invW
		t.invW[i] = invW
	}

	area := edgeFunction(t.sx[0], t.sy[0], t.sx[1], t.sy[1], t.sx[2], t.sy[2])
	if area == 0 {
		return t, false
	}
	if area < 0 {
		// No face culling: flip winding so the inside test stays one-sided.
		t.v[1], t.v[2] = t.v[2], t.v[1]
		t.sx[1], t.sx[2] = t.sx[2], t.sx[1]
		t.sy[1], t.sy[2] = t.sy[2], t.sy[1]
		t.z[1], t.z[2] = t.z[2], t.z[1]
		t.invW[1], t.invW[2] = t.invW[2], t.invW[1]
		area = -area
	}
	t.invArea = 1.0 / area

	// NDC depth is planar in screen space, so its gradient is constant per
	// triangle; this is what dpdx/dpdy observe away from triangle edges.
	dx1, dy1, dz1 := t.sx[1]-t.sx[0], t.sy[1]-t.sy[0], t.z[1]-t.z[0]
	dx2, dy2, dz2 := t.sx[2]-t.sx[0], t.sy[2]-t.sy[0], t.z[2]-t.z[0]
	denom := dx1*dy2 - dx2*dy1
	t.grad = mgl32.Vec2{
		(dz1*dy2 - dz2*dy1) / denom,
		(dx1*dz2 - dx2*dz1) / denom,
	}
	return t, true
}

func rasterBand(gb *GBuffer, t *screenTriangle, y0, y1 int, current, previous core.ViewParams) {
	minX := int(min(t.sx[0], min(t.sx[1], t.sx[2])))
	maxX := int(max(t.sx[0], max(t.sx[1], t.sx[2]))) + 1
	minY := int(min(t.sy[0], min(t.sy[1], t.sy[2])))
	maxY := int(max(t.sy[0], max(t.sy[1], t.sy[2]))) + 1

	minX = max(minX, 0)
	maxX = min(maxX, gb.Width-1)
	minY = max(minY, y0)
	maxY = min(maxY, y1-1)

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5

			w0 := edgeFunction(t.sx[1], t.sy[1], t.sx[2], t.sy[2], px, py)
			w1 := edgeFunction(t.sx[2], t.sy[2], t.sx[0], t.sy[0], px, py)
			w2 := edgeFunction(t.sx[0], t.sy[0], t.sx[1], t.sy[1], px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			b0 := w0 * t.invArea
			b1 := w1 * t.invArea
			b2 := w2 * t.invArea

			ndcDepth := b0*t.z[0] + b1*t.z[1] + b2*t.z[2]

			// Perspective-correct weights.
			q0 := b0 * t.invW[0]
			q1 := b1 * t.invW[1]
			q2 := b2 * t.invW[2]
			qs := q0 + q1 + q2
			interpW := 1.0 / qs
			q0 *= interpW
			q1 *= interpW
			q2 *= interpW

			world := lerp3(t.v[0].WorldPos, t.v[1].WorldPos, t.v[2].WorldPos, q0, q1, q2)
			prevWorld := lerp3(t.v[0].PrevWorldPos, t.v[1].PrevWorldPos, t.v[2].PrevWorldPos, q0, q1, q2)
			normal := lerp3(t.v[0].WorldNormal, t.v[1].WorldNormal, t.v[2].WorldNormal, q0, q1, q2).Normalize()
			uv := mgl32.Vec2{
				q0*t.v[0].UV.X() + q1*t.v[1].UV.X() + q2*t.v[2].UV.X(),
				q0*t.v[0].UV.Y() + q1*t.v[1].UV.Y() + q2*t.v[2].UV.Y(),
			}

			ndcX := (px/float32(gb.Width))*2 - 1
			ndcY := 1 - (py/float32(gb.Height))*2
			in := VertexOutput{
				ClipPos:      mgl32.Vec4{ndcX * interpW, ndcY * interpW, ndcDepth * interpW, interpW},
				WorldPos:     world,
				PrevWorldPos: prevWorld,
				WorldNormal:  normal,
				UV:           uv,
			}

			frag := ResolveFragment(in, t.index, t.grad, current, previous)
			gb.write(x, y, ndcDepth, frag)
		}
	}
}

func lerp3(a, b, c mgl32.Vec3, qa, qb, qc float32) mgl32.Vec3 {
	return mgl32.Vec3{
		qa*a.X() + qb*b.X() + qc*c.X(),
		qa*a.Y() + qb*b.Y() + qc*c.Y(),
		qa*a.Z() + qb*b.Z() + qc*c.Z(),
	}
}
