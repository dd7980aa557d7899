package snap

import (
	"fmt"
	"image"

	"github.com/snapbg/snapbg/infer"
)

// fillRGBPlanes writes the three color channels of img into dst as
// channel-first planes scaled to [0,1]. dst must hold 3*w*h values.
func fillRGBPlanes(dst []float32, img *image.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	n := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		base := y * w
		for x := 0; x < w; x++ {
			i := base + x
			dst[i] = float32(row[x*4]) / 255
			dst[n+i] = float32(row[x*4+1]) / 255
			dst[2*n+i] = float32(row[x*4+2]) / 255
		}
	}
}

// fillRGBPlanesNormalized is fillRGBPlanes followed by per-channel
// mean/standard-deviation normalization.
func fillRGBPlanesNormalized(dst []float32, img *image.NRGBA, mean, std [3]float32) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	n := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		base := y * w
		for x := 0; x < w; x++ {
			i := base + x
			dst[i] = (float32(row[x*4])/255 - mean[0]) / std[0]
			dst[n+i] = (float32(row[x*4+1])/255 - mean[1]) / std[1]
			dst[2*n+i] = (float32(row[x*4+2])/255 - mean[2]) / std[2]
		}
	}
}

// fillGrayPlane writes the first channel of img into dst scaled to [0,1].
// dst must hold w*h values.
func fillGrayPlane(dst []float32, img *image.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		base := y * w
		for x := 0; x < w; x++ {
			dst[base+x] = float32(row[x*4]) / 255
		}
	}
}

// maskDims interprets a model output shape as a single-channel spatial map,
// tolerating leading batch/channel axes of size one.
func maskDims(t infer.Tensor) (w, h int, err error) {
	dims := t.Shape
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 || dims[0] <= 0 || dims[1] <= 0 {
		return 0, 0, fmt.Errorf("unexpected output shape %v", t.Shape)
	}
	h, w = int(dims[0]), int(dims[1])
	if w*h != len(t.Data) {
		return 0, 0, fmt.Errorf("output shape %v does not match %d values", t.Shape, len(t.Data))
	}
	return w, h, nil
}

// maskFromOutput converts the first model output, valued in [0,1], to an
// 8-bit mask, clipping anything outside the range.
func maskFromOutput(outs []infer.Tensor) (*image.Gray, error) {
	if len(outs) == 0 {
		return nil, fmt.Errorf("model returned no outputs")
	}
	w, h, err := maskDims(outs[0])
	if err != nil {
		return nil, err
	}
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range outs[0].Data {
		mask.Pix[i] = clipByte(v * 255)
	}
	return mask, nil
}

func clipByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
