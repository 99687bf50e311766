package prepass

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vct/core"
)

func TestDebugImage_NormalChannel(t *testing.T) {
	view := rasterView()
	gb := drawQuad(t, JitterDisabled, core.PoseAt(mgl32.Ident4()), view, view)

	img := gb.DebugImage(DebugNormal)
	require.Equal(t, gb.Width, img.Bounds().Dx())
	require.Equal(t, gb.Height, img.Bounds().Dy())

	// The quad faces +Z, so covered pixels encode the normal's Z as full blue.
	center := img.RGBAAt(32, 32)
	assert.Equal(t, uint8(255), center.B)
	assert.Equal(t, uint8(255), center.A)

	// Uncovered pixels hold the zero normal, remapped to mid-gray.
	corner := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(127), corner.B)
}

func TestWriteDebugPNG_UpscaleRescales(t *testing.T) {
	gb := NewGBuffer(8, 8)
	gb.Clear(mgl32.Vec4{})
	img := gb.DebugImage(DebugPosition)

	var buf bytes.Buffer
	require.NoError(t, WriteDebugPNG(&buf, img, 1))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())

	// Rendering below presentation resolution: the dump is scaled back up.
	buf.Reset()
	require.NoError(t, WriteDebugPNG(&buf, img, 2))
	decoded, err = png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 16, decoded.Bounds().Dy())
}
