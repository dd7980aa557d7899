package snap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/snapbg/snapbg/infer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(map[string]infer.Tensor) ([]infer.Tensor, error)

func (f runnerFunc) Run(in map[string]infer.Tensor) ([]infer.Tensor, error) { return f(in) }

func (f runnerFunc) Close() error { return nil }

// fakeDepth echoes the spatial size of its input and produces a gradient so
// the min-max rescale has a full range to stretch.
func fakeDepth() Runner {
	return runnerFunc(func(in map[string]infer.Tensor) ([]infer.Tensor, error) {
		t, ok := in[depthInputName]
		if !ok {
			return nil, fmt.Errorf("missing %q input", depthInputName)
		}
		if len(t.Shape) != 4 || t.Shape[0] != 1 || t.Shape[1] != 3 {
			return nil, fmt.Errorf("unexpected depth input shape %v", t.Shape)
		}
		if t.Shape[2]%depthMultiple != 0 || t.Shape[3]%depthMultiple != 0 {
			return nil, fmt.Errorf("depth input %v not aligned to %d", t.Shape, depthMultiple)
		}
		h, w := t.Shape[2], t.Shape[3]
		data := make([]float32, h*w)
		for i := range data {
			data[i] = float32(i)
		}
		return []infer.Tensor{{Shape: []int64{1, h, w}, Data: data}}, nil
	})
}

func fakeMatting(value float32) Runner {
	return runnerFunc(func(in map[string]infer.Tensor) ([]infer.Tensor, error) {
		t, ok := in[mattingInputName]
		if !ok {
			return nil, fmt.Errorf("missing %q input", mattingInputName)
		}
		want := []int64{1, 4, mattingSize, mattingSize}
		if len(t.Shape) != 4 || t.Shape[0] != want[0] || t.Shape[1] != want[1] || t.Shape[2] != want[2] || t.Shape[3] != want[3] {
			return nil, fmt.Errorf("unexpected matting input shape %v", t.Shape)
		}
		data := make([]float32, mattingSize*mattingSize)
		for i := range data {
			data[i] = value
		}
		return []infer.Tensor{{Shape: []int64{1, 1, mattingSize, mattingSize}, Data: data}}, nil
	})
}

func fakeRefiner(value float32) Runner {
	return runnerFunc(func(in map[string]infer.Tensor) ([]infer.Tensor, error) {
		t, ok := in[refinerInputName]
		if !ok {
			return nil, fmt.Errorf("missing %q input", refinerInputName)
		}
		if len(t.Shape) != 4 || t.Shape[0] != 1 || t.Shape[1] != 5 {
			return nil, fmt.Errorf("unexpected refiner input shape %v", t.Shape)
		}
		h, w := t.Shape[2], t.Shape[3]
		data := make([]float32, h*w)
		for i := range data {
			data[i] = value
		}
		return []infer.Tensor{{Shape: []int64{1, 1, h, w}, Data: data}}, nil
	})
}

func testPipeline() *Pipeline {
	return NewPipelineFromSessions(fakeDepth(), fakeMatting(0.5), fakeRefiner(0.75))
}

func testImage(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	// a non-uniform region so the image is not degenerate
	for x := 0; x < w/2; x++ {
		img.Set(x, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	}
	return img
}

func TestEstimateAlpha(t *testing.T) {
	p := testPipeline()
	mask, err := p.EstimateAlpha(testImage(512, 384))
	require.NoError(t, err)
	assert.Equal(t, 512, mask.Rect.Dx())
	assert.Equal(t, 384, mask.Rect.Dy())
	for _, v := range mask.Pix {
		assert.Equal(t, uint8(191), v) // 0.75 * 255, truncated
	}
}

func TestRemoveBackground(t *testing.T) {
	p := testPipeline()
	src := testImage(512, 384)
	out, err := p.RemoveBackground(FromImage(src))
	require.NoError(t, err)

	assert.Equal(t, 512, out.Rect.Dx())
	assert.Equal(t, 384, out.Rect.Dy())

	// Color channels untouched, opacity rewritten.
	for _, pt := range []image.Point{{0, 0}, {400, 0}, {511, 383}, {256, 192}} {
		want := src.NRGBAAt(pt.X, pt.Y)
		got := out.NRGBAAt(pt.X, pt.Y)
		assert.Equal(t, want.R, got.R)
		assert.Equal(t, want.G, got.G)
		assert.Equal(t, want.B, got.B)
		assert.Equal(t, uint8(191), got.A)
	}
}

func TestRemoveBackgroundUnsupportedInput(t *testing.T) {
	p := testPipeline()

	_, err := p.RemoveBackground(Input{})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = p.RemoveBackground(FromBytes([]byte("not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestMattingFailureLeavesPipelineUsable(t *testing.T) {
	calls := 0
	flaky := runnerFunc(func(in map[string]infer.Tensor) ([]infer.Tensor, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("engine exploded")
		}
		return fakeMatting(0.5).Run(in)
	})
	p := NewPipelineFromSessions(fakeDepth(), flaky, fakeRefiner(0.75))

	_, err := p.RemoveBackground(FromImage(testImage(64, 48)))
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, StageMatting, infErr.Stage)
	assert.EqualError(t, infErr.Err, "engine exploded")

	// The orchestrator stays usable for an independent call.
	out, err := p.RemoveBackground(FromImage(testImage(64, 48)))
	require.NoError(t, err)
	assert.Equal(t, 64, out.Rect.Dx())
}

func TestMalformedOutputIsInferenceFailure(t *testing.T) {
	badDepth := runnerFunc(func(in map[string]infer.Tensor) ([]infer.Tensor, error) {
		return []infer.Tensor{{Shape: []int64{1, 2, 8, 8}, Data: make([]float32, 128)}}, nil
	})
	p := NewPipelineFromSessions(badDepth, fakeMatting(0.5), fakeRefiner(0.75))

	_, err := p.EstimateAlpha(testImage(64, 48))
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, StageDepth, infErr.Stage)
}

func TestRefinerOutputClipped(t *testing.T) {
	p := NewPipelineFromSessions(fakeDepth(), fakeMatting(0.5), fakeRefiner(1.5))
	mask, err := p.EstimateAlpha(testImage(64, 48))
	require.NoError(t, err)
	for _, v := range mask.Pix {
		assert.Equal(t, uint8(255), v)
	}

	p = NewPipelineFromSessions(fakeDepth(), fakeMatting(0.5), fakeRefiner(-0.25))
	mask, err = p.EstimateAlpha(testImage(64, 48))
	require.NoError(t, err)
	for _, v := range mask.Pix {
		assert.Equal(t, uint8(0), v)
	}
}
