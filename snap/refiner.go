package snap

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/infer"
)

const refinerInputName = "rgbd_alpha_input"

// refine runs the refiner model on RGB at native resolution plus depth and
// the coarse alpha resampled to match, and returns the final alpha mask at
// the RGB image's resolution.
func refine(sess Runner, rgb *image.NRGBA, depth, coarse *image.Gray) (*image.Gray, error) {
	w, h := rgb.Rect.Dx(), rgb.Rect.Dy()
	depthFull := imaging.Resize(depth, w, h, imaging.Lanczos)
	alphaFull := imaging.Resize(coarse, w, h, imaging.Lanczos)

	n := w * h
	data := make([]float32, 5*n)
	fillRGBPlanes(data[:3*n], rgb)
	fillGrayPlane(data[3*n:4*n], depthFull)
	fillGrayPlane(data[4*n:], alphaFull)

	outs, err := sess.Run(map[string]infer.Tensor{
		refinerInputName: {Shape: []int64{1, 5, int64(h), int64(w)}, Data: data},
	})
	if err != nil {
		return nil, &InferenceError{Stage: StageRefiner, Err: err}
	}
	mask, err := maskFromOutput(outs)
	if err != nil {
		return nil, &InferenceError{Stage: StageRefiner, Err: err}
	}
	return mask, nil
}
