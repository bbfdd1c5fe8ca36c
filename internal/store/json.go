package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/scmmishra/geolink/internal/models"
)

// JSONFile keeps the state as a single JSON document on disk.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("json store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("json store: create dir: %w", err)
	}
	return &JSONFile{path: path}, nil
}

// Load returns an empty state when the file does not exist yet.
func (j *JSONFile) Load() (*models.State, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return normalize(&models.State{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", j.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return normalize(&models.State{}), nil
	}

	var s models.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", j.path, err)
	}
	return normalize(&s), nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers of the file never see a partial document.
func (j *JSONFile) Save(state *models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.path), ".geolink-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("replace %s: %w", j.path, err)
	}
	return nil
}

func (j *JSONFile) Close() error { return nil }
