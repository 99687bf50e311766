// Package prepass implements the per-frame geometry pass that feeds the
// voxel-cone-tracing GI pipeline: it transforms mesh vertices into clip space
// with sub-pixel temporal jitter and resolves a five-channel G-buffer holding
// world position, normal, depth gradient, instance/material ids and per-pixel
// motion vectors. The same math is mirrored in shaders/prepass.wgsl for the
// GPU path; this package is the CPU reference the tests run against.
package prepass

import (
	"github.com/go-gl/mathgl/mgl32"
)

// JitterMode selects how the sub-pixel offset is generated. It mirrors a
// build-time switch: exactly one mode is active for the lifetime of the
// renderer.
type JitterMode uint8

const (
	// JitterDisabled produces a zero offset.
	JitterDisabled JitterMode = iota
	// JitterTemporal is the standard TAA jitter: an unbiased centered sample
	// with double amplitude relative to the supersampling mode's base term.
	JitterTemporal
	// JitterSupersample4x adds a full-pixel checkerboard shift on top of the
	// centered sample, alternating sign with frame parity, for 2x2 sparse
	// spatial supersampling across frame pairs.
	JitterSupersample4x
)

// radicalInverse flips the base-b digits of n around the radix point.
func radicalInverse(n, base uint32) float32 {
	var inv float32
	f := 1.0 / float32(base)
	for n > 0 {
		inv += f * float32(n%base)
		f /= float32(base)
		n /= base
	}
	return inv
}

// Halton returns the frame's low-discrepancy sample in [0,1)^2, bases 2 and 3.
// The sequence is offset by one so frame 0 does not land on the origin.
func Halton(frame uint32) mgl32.Vec2 {
	return mgl32.Vec2{
		radicalInverse(frame+1, 2),
		radicalInverse(frame+1, 3),
	}
}

// PixelSize is the NDC extent of one output pixel, scaled by the upscale
// ratio. Both framebuffer dimensions must be positive.
func PixelSize(upscaleRatio float32, width, height int) mgl32.Vec2 {
	return mgl32.Vec2{
		upscaleRatio / float32(width),
		upscaleRatio / float32(height),
	}
}

// JitterOffset computes the frame's sub-pixel offset in normalized device
// coordinates. How the offset is applied depends on the projection kind, see
// JitteredProjection.
func JitterOffset(mode JitterMode, frame uint32, pixelSize mgl32.Vec2) mgl32.Vec2 {
	switch mode {
	case JitterTemporal:
		h := Halton(frame)
		return mgl32.Vec2{
			2 * (h.X() - 0.5) * pixelSize.X(),
			2 * (h.Y() - 0.5) * pixelSize.Y(),
		}
	case JitterSupersample4x:
		h := Halton(frame)
		offset := mgl32.Vec2{
			(h.X() - 0.5) * pixelSize.X(),
			(h.Y() - 0.5) * pixelSize.Y(),
		}
		// Shift by a whole pixel, alternating direction with frame parity, so
		// consecutive frame pairs sample a 2x2 checkerboard.
		if frame%2 == 0 {
			return offset.Add(pixelSize)
		}
		return offset.Sub(pixelSize)
	default:
		return mgl32.Vec2{}
	}
}
