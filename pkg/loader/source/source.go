// Package source resolves event log locations into readable inputs.
// A location is a local path, a glob pattern, or an s3:// URI.
package source

import (
	"context"
	"io"
	"strings"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// Input is a single resolved event log input.
type Input struct {
	// Name identifies the input, used for format detection and logging.
	Name string
	// Size in bytes, -1 when unknown.
	Size int64

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open returns a reader for the input. Each call opens a fresh reader.
func (in Input) Open(ctx context.Context) (io.ReadCloser, error) {
	return in.open(ctx)
}

// Source enumerates event log inputs from some backing store.
type Source interface {
	// Resolve expands the location into concrete inputs. A plain file
	// yields one input, a glob or prefix may yield many.
	Resolve(ctx context.Context, location string) ([]Input, error)
}

// Resolve picks a source implementation from the location scheme and
// expands it. s3:// locations require cfg.S3 to be usable.
func Resolve(ctx context.Context, location string, cfg Config) ([]Input, error) {
	if strings.HasPrefix(location, "s3://") {
		src, err := NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return src.Resolve(ctx, location)
	}
	return NewFileSource().Resolve(ctx, location)
}

// Config carries source settings for all backends.
type Config struct {
	S3 S3Config
}

// errNoInputs builds the shared not-found error for a location.
func errNoInputs(location string) error {
	return dferrors.FileNotFound(location)
}
