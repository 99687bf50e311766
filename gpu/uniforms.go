package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vct/core"
	"github.com/gekko3d/vct/prepass"
)

// Byte sizes of the uniform blocks, padded to 16. Layouts must match
// shaders/prepass.wgsl.
const (
	FrameUniformsSize    = 352
	InstanceUniformsSize = 208
)

func writeMat(buf []byte, offset int, mat mgl32.Mat4) {
	for i, v := range mat {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
	}
}

func writeF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

// PackFrameUniforms serializes the frame-global snapshot.
//
//	struct FrameUniforms {
//	  view_proj: mat4x4<f32>;      -- 64
//	  prev_view_proj: mat4x4<f32>; -- 128
//	  inv_view_proj: mat4x4<f32>;  -- 192
//	  view: mat4x4<f32>;           -- 256
//	  projection: mat4x4<f32>;     -- 320
//	  jitter: vec2<f32>;           -- 328
//	  pixel_size: vec2<f32>;       -- 336
//	  frame_number: u32;           -- 340
//	  upscale_ratio: f32;          -- 344
//	  projection_kind: u32;        -- 348
//	} -> 352 bytes (padded)
func PackFrameUniforms(frame core.FrameParams, current, previous core.ViewParams, jitter, pixelSize mgl32.Vec2) []byte {
	buf := make([]byte, FrameUniformsSize)

	writeMat(buf, 0, current.ViewProj)
	writeMat(buf, 64, previous.ViewProj)
	writeMat(buf, 128, current.InvViewProj)
	writeMat(buf, 192, current.View)
	writeMat(buf, 256, current.Projection)

	writeF32(buf, 320, jitter.X())
	writeF32(buf, 324, jitter.Y())
	writeF32(buf, 328, pixelSize.X())
	writeF32(buf, 332, pixelSize.Y())

	binary.LittleEndian.PutUint32(buf[336:], frame.Number)
	writeF32(buf, 340, frame.UpscaleRatio)
	var kind uint32
	if current.Kind == core.ProjectionOrthographic {
		kind = 1
	}
	binary.LittleEndian.PutUint32(buf[344:], kind)

	return buf
}

// PackInstanceUniforms serializes one instance's pose and ids.
//
//	struct InstanceUniforms {
//	  model: mat4x4<f32>;      -- 64
//	  prev_model: mat4x4<f32>; -- 128
//	  normal_mat: mat4x4<f32>; -- 192
//	  indices: vec2<u32>;      -- 200
//	} -> 208 bytes (padded)
func PackInstanceUniforms(pose core.InstancePose, index core.InstanceIndex) []byte {
	buf := make([]byte, InstanceUniformsSize)

	writeMat(buf, 0, pose.Model)
	writeMat(buf, 64, pose.PrevModel)
	writeMat(buf, 128, pose.InvTransposeModel)

	binary.LittleEndian.PutUint32(buf[192:], index.Instance)
	binary.LittleEndian.PutUint32(buf[196:], index.Material)

	return buf
}

// PackVertices serializes mesh vertices into the pipeline's vertex layout:
// position (3xf32), normal (3xf32), uv (2xf32), 32 bytes per vertex.
func PackVertices(vertices []core.Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		o := i * VertexStride
		writeF32(buf, o+0, v.Position.X())
		writeF32(buf, o+4, v.Position.Y())
		writeF32(buf, o+8, v.Position.Z())
		writeF32(buf, o+12, v.Normal.X())
		writeF32(buf, o+16, v.Normal.Y())
		writeF32(buf, o+20, v.Normal.Z())
		writeF32(buf, o+24, v.UV.X())
		writeF32(buf, o+28, v.UV.Y())
	}
	return buf
}

// PackIndices serializes triangle-list indices as u32.
func PackIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, v := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// FrameJitter computes the jitter and pixel size uploaded with the frame
// uniforms, from the same inputs the CPU reference uses.
func FrameJitter(mode prepass.JitterMode, frame core.FrameParams, width, height uint32) (jitter, pixelSize mgl32.Vec2) {
	pixelSize = prepass.PixelSize(frame.UpscaleRatio, int(width), int(height))
	jitter = prepass.JitterOffset(mode, frame.Number, pixelSize)
	return
}
