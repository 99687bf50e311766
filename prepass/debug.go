package prepass

import (
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// DebugChannel selects which G-buffer channel DebugImage visualizes.
type DebugChannel uint8

const (
	DebugPosition DebugChannel = iota
	DebugNormal
	DebugDepthGradient
	DebugVelocity
)

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DebugImage renders a channel into an 8-bit image for inspection. Normals
// are remapped from [-1,1], velocity and depth gradient are amplified so
// typical sub-pixel magnitudes become visible.
func (g *GBuffer) DebugImage(ch DebugChannel) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := y*g.Width + x
			var r, gr, b float32
			switch ch {
			case DebugPosition:
				p := g.Position[i]
				r, gr, b = clamp01(p.X()*0.1+0.5), clamp01(p.Y()*0.1+0.5), clamp01(p.Z()*0.1+0.5)
			case DebugNormal:
				n := g.Normal[i]
				r, gr, b = n.X()*0.5+0.5, n.Y()*0.5+0.5, n.Z()*0.5+0.5
			case DebugDepthGradient:
				d := g.DepthGradient[i]
				r, gr = clamp01(d.X()*50+0.5), clamp01(d.Y()*50+0.5)
				b = 0.5
			case DebugVelocity:
				v := g.VelocityUV[i]
				r, gr = clamp01(v.X()*10+0.5), clamp01(v.Y()*10+0.5)
				b = 0.5
			}
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(clamp01(r) * 255),
				G: uint8(clamp01(gr) * 255),
				B: uint8(clamp01(b) * 255),
				A: 255,
			})
		}
	}
	return img
}

// WriteDebugPNG encodes a debug image, rescaling first when the pass renders
// below presentation resolution (upscaleRatio > 1).
func WriteDebugPNG(w io.Writer, img image.Image, upscaleRatio float32) error {
	if upscaleRatio > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0,
			int(float32(b.Dx())*upscaleRatio),
			int(float32(b.Dy())*upscaleRatio)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}
	return png.Encode(w, img)
}
