package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FrameParams is the frame-global data rewritten by the host once per frame.
// Number selects the jitter sample and its parity; UpscaleRatio scales the
// sub-pixel jitter when rendering below presentation resolution. Kernel and
// the validation intervals are carried for the GI integrator, which uploads
// them through its own bindings; the geometry pass never packs them.
type FrameParams struct {
	Number                   uint32
	UpscaleRatio             float32
	ClearColor               mgl32.Vec4
	Kernel                   []mgl32.Vec3
	DirectValidateInterval   uint32
	EmissiveValidateInterval uint32
}

func NewFrameParams() FrameParams {
	return FrameParams{
		UpscaleRatio:             1.0,
		ClearColor:               mgl32.Vec4{0, 0, 0, 0},
		DirectValidateInterval:   3,
		EmissiveValidateInterval: 5,
	}
}

// ViewParams is an immutable-per-frame snapshot of the camera matrices.
type ViewParams struct {
	View        mgl32.Mat4
	Projection  mgl32.Mat4
	Kind        ProjectionKind
	ViewProj    mgl32.Mat4
	InvViewProj mgl32.Mat4
}

// NewViewParams derives the combined and inverse matrices and tags the
// projection kind structurally (see KindOfProjection).
func NewViewParams(view, proj mgl32.Mat4) ViewParams {
	return NewViewParamsKind(view, proj, KindOfProjection(proj))
}

// NewViewParamsKind is for hosts that know the projection kind at construction
// time and want to bypass the structural matrix check.
func NewViewParamsKind(view, proj mgl32.Mat4, kind ProjectionKind) ViewParams {
	vp := proj.Mul4(view)
	return ViewParams{
		View:        view,
		Projection:  proj,
		Kind:        kind,
		ViewProj:    vp,
		InvViewProj: vp.Inv(),
	}
}

// FrameState holds the double-buffered view snapshots. The previous snapshot
// for frame N must equal the current snapshot as it was during frame N-1;
// BeginFrame/EndFrame enforce that ordering as long as the host calls them
// around every frame. Mid-frame mutation of either snapshot corrupts the
// motion vectors of in-flight draws.
type FrameState struct {
	Params   FrameParams
	Current  ViewParams
	Previous ViewParams
}

func NewFrameState(view ViewParams) *FrameState {
	return &FrameState{
		Params:   NewFrameParams(),
		Current:  view,
		Previous: view,
	}
}

// BeginFrame installs the snapshot for the upcoming frame and advances the
// frame counter. The counter wraps without affecting correctness; it is only
// used for jitter sample selection and parity.
func (s *FrameState) BeginFrame(view ViewParams) {
	s.Params.Number++
	s.Current = view
}

// EndFrame retains the current snapshot as next frame's previous snapshot.
// Call after all draws for the frame have been issued.
func (s *FrameState) EndFrame() {
	s.Previous = s.Current
}
