// Package snap implements local background removal as a three-stage ONNX
// pipeline: depth estimation, coarse matting, then full-resolution
// refinement.
package snap

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/infer"
)

// Runner executes one loaded model. *infer.Session implements it; tests and
// alternative engines can substitute their own.
type Runner interface {
	Run(inputs map[string]infer.Tensor) ([]infer.Tensor, error)
	Close() error
}

// ModelPaths names the three ONNX model files of the pipeline.
type ModelPaths struct {
	Depth   string
	Matting string
	Refiner string
}

// Pipeline owns the three loaded models for the process lifetime and runs
// them in a fixed depth → matting → refiner sequence. A Pipeline is safe for
// concurrent use; each underlying session serializes its own calls.
type Pipeline struct {
	depth   Runner
	matting Runner
	refiner Runner
}

// NewPipeline loads the three models, binding each to the first available
// device in the preference list. Any load failure closes the models loaded
// so far and returns a *ModelError.
func NewPipeline(paths ModelPaths, devices []infer.Device) (*Pipeline, error) {
	depth, err := infer.Load(paths.Depth, devices)
	if err != nil {
		return nil, &ModelError{Name: StageDepth, Err: err}
	}
	matting, err := infer.Load(paths.Matting, devices)
	if err != nil {
		depth.Close()
		return nil, &ModelError{Name: StageMatting, Err: err}
	}
	refiner, err := infer.Load(paths.Refiner, devices)
	if err != nil {
		depth.Close()
		matting.Close()
		return nil, &ModelError{Name: StageRefiner, Err: err}
	}
	return NewPipelineFromSessions(depth, matting, refiner), nil
}

// NewPipelineFromSessions builds a pipeline from already-loaded models.
func NewPipelineFromSessions(depth, matting, refiner Runner) *Pipeline {
	return &Pipeline{depth: depth, matting: matting, refiner: refiner}
}

// EstimateAlpha runs the full three-stage pipeline on img and returns the
// final alpha mask at img's resolution.
func (p *Pipeline) EstimateAlpha(img image.Image) (*image.Gray, error) {
	rgb := imaging.Clone(img)
	depth, err := estimateDepth(p.depth, rgb)
	if err != nil {
		return nil, err
	}
	coarse, err := matte(p.matting, rgb, depth)
	if err != nil {
		return nil, err
	}
	return refine(p.refiner, rgb, depth, coarse)
}

// RemoveBackground decodes in, estimates its alpha mask, and returns the
// input image with that mask written as its opacity channel. The result
// always has the input's original width and height.
func (p *Pipeline) RemoveBackground(in Input) (*image.NRGBA, error) {
	img, err := in.Decode()
	if err != nil {
		return nil, err
	}
	alpha, err := p.EstimateAlpha(img)
	if err != nil {
		return nil, err
	}
	return ApplyAlpha(img, alpha), nil
}

// Close releases the three models. The pipeline must not be used afterwards.
func (p *Pipeline) Close() error {
	return errors.Join(p.depth.Close(), p.matting.Close(), p.refiner.Close())
}
