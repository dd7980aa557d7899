package snap

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/infer"
)

const (
	depthTargetSize = 518
	// Patch stride of the depth model; input dimensions must be multiples
	// of it.
	depthMultiple  = 14
	depthInputName = "image"
)

// ImageNet statistics, applied only to the depth model's input.
var (
	depthMean = [3]float32{0.485, 0.456, 0.406}
	depthStd  = [3]float32{0.229, 0.224, 0.225}
)

// estimateDepth runs the depth model and returns the inverse-depth map as an
// 8-bit grayscale image at the model's working resolution. Values are
// min-max rescaled per call, so the map is relative within one image and not
// comparable across images.
func estimateDepth(sess Runner, img *image.NRGBA) (*image.Gray, error) {
	w, h := AlignedFit(img.Rect.Dx(), img.Rect.Dy(), depthTargetSize, depthTargetSize, depthMultiple)
	resized := imaging.Resize(img, w, h, imaging.CatmullRom)

	data := make([]float32, 3*w*h)
	fillRGBPlanesNormalized(data, resized, depthMean, depthStd)

	outs, err := sess.Run(map[string]infer.Tensor{
		depthInputName: {Shape: []int64{1, 3, int64(h), int64(w)}, Data: data},
	})
	if err != nil {
		return nil, &InferenceError{Stage: StageDepth, Err: err}
	}
	depth, err := depthFromOutput(outs)
	if err != nil {
		return nil, &InferenceError{Stage: StageDepth, Err: err}
	}
	return depth, nil
}

func depthFromOutput(outs []infer.Tensor) (*image.Gray, error) {
	if len(outs) == 0 {
		return nil, fmt.Errorf("model returned no outputs")
	}
	w, h, err := maskDims(outs[0])
	if err != nil {
		return nil, err
	}

	data := outs[0].Data
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	depth := image.NewGray(image.Rect(0, 0, w, h))
	if hi == lo {
		return depth, nil
	}
	scale := 255 / (hi - lo)
	for i, v := range data {
		depth.Pix[i] = uint8((v - lo) * scale)
	}
	return depth, nil
}
