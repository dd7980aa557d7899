package snap

import (
	"image"

	"github.com/disintegration/imaging"
)

// ApplyAlpha writes mask into the opacity channel of img and returns the
// composited RGBA image at img's resolution. The color channels are left
// untouched. The mask is Lanczos-resampled first if its size differs, so
// this works for masks of any origin, local or remote.
func ApplyAlpha(img image.Image, mask *image.Gray) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	if mask.Rect.Dx() != w || mask.Rect.Dy() != h {
		mask = resampleMask(mask, w, h)
	}
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		maskRow := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := 0; x < w; x++ {
			row[x*4+3] = maskRow[x]
		}
	}
	return out
}

// resampleMask resizes a single-channel mask with a high-quality filter.
func resampleMask(mask *image.Gray, w, h int) *image.Gray {
	resized := imaging.Resize(mask, w, h, imaging.Lanczos)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+w*4]
		outRow := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := 0; x < w; x++ {
			outRow[x] = row[x*4]
		}
	}
	return out
}
