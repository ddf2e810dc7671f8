package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Zachkp/folio/internal/portfolio"
)

// FileBackend keeps the document in one human-readable JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the JSON file at path. The file is
// created on first Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Name() string  { return "file" }
func (f *FileBackend) Durable() bool { return true }

// Path returns the data file location.
func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Load(_ context.Context) (portfolio.Partial, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.Errorf("%s is empty", f.path)
	}
	var p portfolio.Partial
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.path)
	}
	return p, nil
}

// Save writes the document to a temp file next to the target and renames it
// into place, so a failed write never truncates the previous file. The
// directory is not fsynced, so a crash right after rename may still lose the
// update.
func (f *FileBackend) Save(_ context.Context, doc portfolio.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrapf(err, "replace %s", f.path)
	}
	return nil
}
