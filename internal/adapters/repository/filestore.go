package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/pkg/metrics"
)

// FileStore keeps the report in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Backend implements PredictionStore.
func (s *FileStore) Backend() string { return "file" }

// Path returns the file the store writes to.
func (s *FileStore) Path() string { return s.path }

// Save writes the report to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, r *prediction.Report) (err error) {
	defer func() { metrics.RecordStoreOperation(s.Backend(), "save", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".racepick-*.yaml")
	if err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err = enc.Encode(r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode predictions: %w", err)
	}
	if err = enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode predictions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}

// Load reads the report back.
func (s *FileStore) Load(ctx context.Context) (r *prediction.Report, err error) {
	defer func() { metrics.RecordStoreOperation(s.Backend(), "load", err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	r = new(prediction.Report)
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptReport, s.path, err)
	}
	return r, nil
}
