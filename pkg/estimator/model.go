package estimator

import (
	"context"
	"fmt"
	"os"

	"github.com/teslashibe/go-posebear/internal/httpc"
	"github.com/teslashibe/go-posebear/internal/log"
)

// ModelSpec locates a model file. When Path does not exist and URL is set,
// the file is downloaded to Path on first use.
type ModelSpec struct {
	Path string
	URL  string
}

// EnsureModel makes sure the model file is present and returns its path.
// Failures are ModelLoadErrors.
func EnsureModel(ctx context.Context, spec ModelSpec) (string, error) {
	if spec.Path == "" {
		return "", &ModelLoadError{Model: spec.URL, Err: ErrNoModel}
	}

	if _, err := os.Stat(spec.Path); err == nil {
		return spec.Path, nil
	} else if !os.IsNotExist(err) {
		return "", &ModelLoadError{Model: spec.Path, Err: err}
	}

	if spec.URL == "" {
		return "", &ModelLoadError{Model: spec.Path, Err: fmt.Errorf("model file not found: %s", spec.Path)}
	}

	log.Info("downloading model", "url", spec.URL, "path", spec.Path)
	client := httpc.NewClient(httpc.DownloadTimeout)
	n, err := httpc.Download(ctx, client, spec.URL, spec.Path)
	if err != nil {
		return "", &ModelLoadError{Model: spec.URL, Err: err}
	}
	log.Info("model downloaded", "path", spec.Path, "bytes", n)

	return spec.Path, nil
}
