package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileBackend keeps one JSON file per namespace in a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing namespace
func (b *FileBackend) Path(namespace string) string {
	return filepath.Join(b.dir, filepath.Base(namespace))
}

// Read implements Backend
func (b *FileBackend) Read(ctx context.Context, namespace string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(namespace))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the file through a temp file and rename, so readers in other
// processes never see a half-written document.
func (b *FileBackend) Write(ctx context.Context, namespace string, body []byte) error {
	path := b.Path(namespace)
	tmp, err := os.CreateTemp(b.dir, filepath.Base(namespace)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Quarantine renames the file to <name>.corrupt-<unix>
func (b *FileBackend) Quarantine(ctx context.Context, namespace string) (string, error) {
	path := b.Path(namespace)
	dest := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Close implements Backend
func (b *FileBackend) Close() error { return nil }
