package snap

import (
	"errors"
	"fmt"
)

// ErrUnsupportedInput marks an input representation the pipeline cannot
// load. It is returned before any inference work starts.
var ErrUnsupportedInput = errors.New("unsupported input image")

// Stage names used in inference errors.
const (
	StageDepth   = "depth"
	StageMatting = "matting"
	StageRefiner = "refiner"
)

// ModelError reports a model that could not be loaded. It is only returned
// from pipeline construction, never per call.
type ModelError struct {
	Name string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("failed to load %s model: %v", e.Name, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// InferenceError reports a failed model invocation. It names the stage and
// preserves the originating cause; the pipeline stays usable for subsequent
// calls.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s stage inference failed: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
