package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// FileSource resolves local paths and glob patterns.
type FileSource struct{}

// NewFileSource creates a local filesystem source.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Resolve implements the Source interface. Globs expand in sorted
// order so batch runs are reproducible.
func (s *FileSource) Resolve(_ context.Context, location string) ([]Input, error) {
	if strings.ContainsAny(location, "*?[") {
		matches, err := filepath.Glob(location)
		if err != nil {
			return nil, dferrors.Wrap(err, dferrors.CodeInvalidFormat, "invalid glob pattern").
				WithContext("pattern", location)
		}
		if len(matches) == 0 {
			return nil, errNoInputs(location)
		}
		sort.Strings(matches)

		inputs := make([]Input, 0, len(matches))
		for _, path := range matches {
			in, err := fileInput(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		return inputs, nil
	}

	in, err := fileInput(location)
	if err != nil {
		return nil, err
	}
	return []Input{in}, nil
}

func fileInput(path string) (Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Input{}, errNoInputs(path)
	}
	if info.IsDir() {
		return Input{}, dferrors.New(dferrors.CodeInvalidFormat, "location is a directory").
			WithContext("path", path)
	}

	return Input{
		Name: path,
		Size: info.Size(),
		open: func(_ context.Context) (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, errNoInputs(path)
			}
			return f, nil
		},
	}, nil
}
