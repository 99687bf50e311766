package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Formats of the five G-buffer targets, in channel order. The index target is
// integer-valued so instance/material ids can never be blended or filtered
// into fractional values.
var TargetFormats = [5]wgpu.TextureFormat{
	wgpu.TextureFormatRGBA32Float, // world position + post-projection depth
	wgpu.TextureFormatRGBA16Float, // world normal + coverage flag
	wgpu.TextureFormatRG16Float,   // screen-space depth gradient
	wgpu.TextureFormatRG32Uint,    // instance id, material id
	wgpu.TextureFormatRGBA32Float, // motion vector + mesh UV
}

const DepthFormat = wgpu.TextureFormatDepth32Float

// GBufferTargets owns the render attachments of the geometry pass.
type GBufferTargets struct {
	Width  uint32
	Height uint32

	Textures [5]*wgpu.Texture
	Views    [5]*wgpu.TextureView

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView
}

func NewGBufferTargets(device *wgpu.Device, width, height uint32) (*GBufferTargets, error) {
	t := &GBufferTargets{Width: width, Height: height}
	if err := t.create(device); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (t *GBufferTargets) create(device *wgpu.Device) error {
	labels := [5]string{"GBuffer Position", "GBuffer Normal", "GBuffer Depth Gradient", "GBuffer Index", "GBuffer Velocity UV"}
	for i, format := range TargetFormats {
		tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         labels[i],
			Size:          wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        format,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			return err
		}
		t.Textures[i] = tex
		view, err := tex.CreateView(nil)
		if err != nil {
			return err
		}
		t.Views[i] = view
	}

	depth, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "GBuffer Depth",
		Size:          wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	t.DepthTexture = depth
	t.DepthView, err = depth.CreateView(nil)
	return err
}

// Resize drops and recreates the attachments at the new size.
func (t *GBufferTargets) Resize(device *wgpu.Device, width, height uint32) error {
	t.Release()
	t.Width = width
	t.Height = height
	return t.create(device)
}

func (t *GBufferTargets) Release() {
	for i := range t.Textures {
		if t.Views[i] != nil {
			t.Views[i].Release()
			t.Views[i] = nil
		}
		if t.Textures[i] != nil {
			t.Textures[i].Release()
			t.Textures[i] = nil
		}
	}
	if t.DepthView != nil {
		t.DepthView.Release()
		t.DepthView = nil
	}
	if t.DepthTexture != nil {
		t.DepthTexture.Release()
		t.DepthTexture = nil
	}
}
