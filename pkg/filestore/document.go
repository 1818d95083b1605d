package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
)

const defaultPerm fs.FileMode = 0o644

// Document is a JSON file read and written as a single value. Every Update is a
// read-modify-write pass under the document's write lock, and the new content
// replaces the old file through a rename so readers never observe a torn write.
type Document[T any] struct {
	mu    sync.RWMutex
	path  string
	empty func() T
	perm  fs.FileMode
}

// New returns a document stored at path. empty builds the value used when the
// file is missing or blank.
func New[T any](path string, empty func() T) *Document[T] {
	if empty == nil {
		empty = func() T {
			var zero T
			return zero
		}
	}
	return &Document[T]{path: path, empty: empty, perm: defaultPerm}
}

// Path returns the file backing the document.
func (d *Document[T]) Path() string {
	return d.path
}

// Read loads the current value.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.load()
}

// Update loads the value, hands it to fn and persists the result. Nothing is
// written when fn returns an error.
func (d *Document[T]) Update(ctx context.Context, fn func(*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	value, err := d.load()
	if err != nil {
		return err
	}
	if err := fn(&value); err != nil {
		return err
	}
	return d.write(value)
}

func (d *Document[T]) load() (T, error) {
	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return d.empty(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read %s: %w", d.path, err)
	}
	value := d.empty()
	if len(bytes.TrimSpace(raw)) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", d.path, err)
	}
	return value, nil
}

func (d *Document[T]) write(value T) (err error) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", d.path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return multierr.Append(fmt.Errorf("write %s: %w", tmpName, err), tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("sync %s: %w", tmpName, err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, d.perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}
