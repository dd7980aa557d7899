package infer

import (
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Session is a loaded model. Run calls are serialized with a per-session
// lock, so a single Session may be shared across goroutines even when the
// underlying runtime makes no concurrency promises for a loaded model.
type Session struct {
	path        string
	sess        *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	mu          sync.Mutex
}

// Load opens the ONNX model at path, binding it to the first available
// device in the preference list. The ONNX Runtime environment must already
// be initialized.
func Load(path string, devices []Device) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs or outputs", path)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()
	applyDevices(opts, devices, path)

	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}
	outputNames := make([]string, len(outputs))
	for i, out := range outputs {
		outputNames[i] = out.Name
	}

	sess, err := ort.NewDynamicAdvancedSession(path, inputNames, outputNames, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", path, err)
	}
	return &Session{
		path:        path,
		sess:        sess,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// applyDevices appends execution providers in preference order. Providers
// that cannot be appended on this host are skipped; the runtime always falls
// back to the CPU provider.
func applyDevices(opts *ort.SessionOptions, devices []Device, path string) {
	if len(devices) == 0 {
		devices = DefaultDevices
	}
	for _, d := range devices {
		switch d {
		case DeviceCUDA:
			cudaOpts, err := ort.NewCUDAProviderOptions()
			if err != nil {
				slog.Debug("CUDA provider unavailable", slog.String("model", path), slog.String("error", err.Error()))
				continue
			}
			if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
				slog.Debug("CUDA provider rejected", slog.String("model", path), slog.String("error", err.Error()))
			}
			cudaOpts.Destroy()
		case DeviceCoreML:
			if err := opts.AppendExecutionProviderCoreML(0); err != nil {
				slog.Debug("CoreML provider unavailable", slog.String("model", path), slog.String("error", err.Error()))
			}
		case DeviceCPU:
			// CPU is the implicit fallback provider.
		}
	}
}

// Run executes the model with the given named inputs and returns its output
// tensors in the model's declared order.
func (s *Session) Run(inputs map[string]Tensor) ([]Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ins := make([]ort.Value, len(s.inputNames))
	defer destroyAll(ins)
	for i, name := range s.inputNames {
		t, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("missing input tensor %q", name)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("input tensor %q: %w", name, err)
		}
		v, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to create input tensor %q: %w", name, err)
		}
		ins[i] = v
	}

	outs := make([]ort.Value, len(s.outputNames))
	if err := s.sess.Run(ins, outs); err != nil {
		return nil, fmt.Errorf("session run failed: %w", err)
	}
	defer destroyAll(outs)

	results := make([]Tensor, len(outs))
	for i, out := range outs {
		t, ok := out.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %q is not a float32 tensor", s.outputNames[i])
		}
		src := t.GetData()
		data := make([]float32, len(src))
		copy(data, src)
		results[i] = Tensor{Shape: append([]int64(nil), t.GetShape()...), Data: data}
	}
	return results, nil
}

func destroyAll(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}

// Close releases the loaded model.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	return err
}
