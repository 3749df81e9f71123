package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PipelineFileName is the serialized pipeline artifact inside the
// configured model directory.
const PipelineFileName = "pipeline.gob"

// ErrNotTrained distinguishes "no model yet" from real I/O failures, so
// callers can answer 404 instead of 500 before training has happened.
var ErrNotTrained = errors.New("model not trained yet, run training first")

// PipelinePath returns the artifact path inside modelDir.
func PipelinePath(modelDir string) string {
	return filepath.Join(modelDir, PipelineFileName)
}

// Save writes the fitted pipeline to path. The encode goes to a temp file
// in the same directory followed by a rename, so a concurrent reader
// never observes a partially written artifact.
func (p *Pipeline) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pipeline-*.gob")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(p); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// Load reads a fitted pipeline from path. A missing file yields
// ErrNotTrained.
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotTrained
		}
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var p Pipeline
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	return &p, nil
}
