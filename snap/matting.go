package snap

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/infer"
)

const (
	// The matting model works at a fixed square resolution regardless of the
	// input aspect ratio; the refiner recovers the lost detail afterwards.
	mattingSize      = 256
	mattingInputName = "rgbd_input"
)

// matte runs the matting model on RGB plus inverse depth and returns the
// coarse alpha mask at 256×256.
func matte(sess Runner, rgb *image.NRGBA, depth *image.Gray) (*image.Gray, error) {
	rgbSmall := imaging.Resize(rgb, mattingSize, mattingSize, imaging.Lanczos)
	depthSmall := imaging.Resize(depth, mattingSize, mattingSize, imaging.Lanczos)

	n := mattingSize * mattingSize
	data := make([]float32, 4*n)
	fillRGBPlanes(data[:3*n], rgbSmall)
	fillGrayPlane(data[3*n:], depthSmall)

	outs, err := sess.Run(map[string]infer.Tensor{
		mattingInputName: {Shape: []int64{1, 4, mattingSize, mattingSize}, Data: data},
	})
	if err != nil {
		return nil, &InferenceError{Stage: StageMatting, Err: err}
	}
	mask, err := maskFromOutput(outs)
	if err != nil {
		return nil, &InferenceError{Stage: StageMatting, Err: err}
	}
	return mask, nil
}
