package snap

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformMask(w, h int, v uint8) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = v
	}
	return mask
}

func TestApplyAlphaSameSize(t *testing.T) {
	img := imaging.New(10, 8, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
	mask := uniformMask(10, 8, 0)
	for x := 0; x < 5; x++ {
		mask.SetGray(x, 0, color.Gray{Y: 200})
	}

	out := ApplyAlpha(img, mask)
	require.Equal(t, 10, out.Rect.Dx())
	require.Equal(t, 8, out.Rect.Dy())

	assert.Equal(t, color.NRGBA{R: 30, G: 60, B: 90, A: 200}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 30, G: 60, B: 90, A: 0}, out.NRGBAAt(9, 7))
}

func TestApplyAlphaResamplesMask(t *testing.T) {
	img := imaging.New(512, 384, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	out := ApplyAlpha(img, uniformMask(256, 256, 128))

	assert.Equal(t, 512, out.Rect.Dx())
	assert.Equal(t, 384, out.Rect.Dy())
	for _, pt := range []image.Point{{0, 0}, {511, 0}, {255, 200}, {511, 383}} {
		px := out.NRGBAAt(pt.X, pt.Y)
		assert.Equal(t, uint8(1), px.R)
		assert.Equal(t, uint8(128), px.A)
	}
}

// A flat mask must survive a resampling round trip without edge artifacts.
func TestResampleFlatMaskRoundTrip(t *testing.T) {
	mask := uniformMask(300, 200, 137)

	down := resampleMask(mask, 256, 256)
	require.Equal(t, 256, down.Rect.Dx())
	require.Equal(t, 256, down.Rect.Dy())
	for _, v := range down.Pix {
		require.Equal(t, uint8(137), v)
	}

	up := resampleMask(down, 300, 200)
	for _, v := range up.Pix {
		require.Equal(t, uint8(137), v)
	}
}
