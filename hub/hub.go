// Package hub resolves logical model names to local files, downloading and
// caching them on first use.
package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NotFoundError reports a model that could not be resolved to a local file.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model %q not found: %v", e.Name, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Hub downloads model files from a base URL into a cache directory.
type Hub struct {
	baseURL string
	dir     string
	client  *http.Client
}

func New(baseURL, dir string) *Hub {
	return &Hub{
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// Resolve returns the local path for name. A cache hit performs no network
// access; a miss downloads the file before returning. The second return
// value reports whether the file came from cache.
func (h *Hub) Resolve(ctx context.Context, name string) (string, bool, error) {
	path := filepath.Join(h.dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}

	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return "", false, &NotFoundError{Name: name, Err: err}
	}
	slog.Info("Downloading model", slog.String("name", name), slog.String("url", h.url(name)))
	if err := h.download(ctx, name, path); err != nil {
		return "", false, &NotFoundError{Name: name, Err: err}
	}
	return path, false, nil
}

func (h *Hub) url(name string) string {
	return h.baseURL + "/" + name
}

func (h *Hub) download(ctx context.Context, name, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url(name), nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Download to a temp file so an interrupted transfer never looks like a
	// cache hit later.
	tmp, err := os.CreateTemp(h.dir, name+".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
