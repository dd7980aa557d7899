// Package infer wraps ONNX Runtime sessions behind a small named-tensor
// interface so the rest of the code never touches the runtime directly.
package infer

import (
	"fmt"
	"log/slog"
)

// Device is an execution provider preference. Devices are tried in order at
// load time; unavailable providers are skipped and the session falls back to
// the next one. CPU is always available.
type Device string

const (
	DeviceCUDA   Device = "cuda"
	DeviceCoreML Device = "coreml"
	DeviceCPU    Device = "cpu"
)

// DefaultDevices prefers an accelerator and falls back to the CPU.
var DefaultDevices = []Device{DeviceCUDA, DeviceCPU}

// ParseDevices maps config strings to devices, dropping anything unknown.
func ParseDevices(names []string) []Device {
	var devices []Device
	for _, n := range names {
		switch Device(n) {
		case DeviceCUDA, DeviceCoreML, DeviceCPU:
			devices = append(devices, Device(n))
		default:
			slog.Warn("Ignoring unknown device", slog.String("device", n))
		}
	}
	if len(devices) == 0 {
		devices = DefaultDevices
	}
	return devices
}

// Tensor is a dense float32 tensor with an explicit shape.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Elems returns the number of elements the shape describes.
func (t Tensor) Elems() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

func (t Tensor) validate() error {
	if len(t.Shape) == 0 {
		return fmt.Errorf("tensor has no shape")
	}
	if t.Elems() != int64(len(t.Data)) {
		return fmt.Errorf("tensor shape %v wants %d elements, data has %d", t.Shape, t.Elems(), len(t.Data))
	}
	return nil
}
