package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapbg/snapbg/config"
	"github.com/snapbg/snapbg/hub"
	"github.com/snapbg/snapbg/infer"
	"github.com/snapbg/snapbg/snap"
)

var pipe *snap.Pipeline

// Init resolves the three model files and loads the pipeline. It must be
// called after the ONNX Runtime environment is initialized.
func Init(ctx context.Context) error {
	c := config.C()
	h := hub.New(c.ModelBaseUrl, c.ModelDir)

	paths := snap.ModelPaths{}
	for _, m := range []struct {
		name string
		dst  *string
	}{
		{c.DepthModelName, &paths.Depth},
		{c.MattingModelName, &paths.Matting},
		{c.RefinerModelName, &paths.Refiner},
	} {
		path, cached, err := h.Resolve(ctx, m.name)
		if err != nil {
			return fmt.Errorf("failed to resolve model: %w", err)
		}
		if cached {
			slog.Info("Model cache hit", slog.String("name", m.name))
		}
		*m.dst = path
	}

	p, err := snap.NewPipeline(paths, infer.ParseDevices(c.Devices))
	if err != nil {
		return err
	}
	pipe = p
	return nil
}

// Close releases the loaded models.
func Close() {
	if pipe != nil {
		if err := pipe.Close(); err != nil {
			slog.Error("Failed to close pipeline", slog.String("error", err.Error()))
		}
		pipe = nil
	}
}
