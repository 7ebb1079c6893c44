// internal/storage/local.go
//
// Local filesystem backend.
//
// Context
// -------
// The resolver deliberately never invents a base directory: an unset
// base_path reaches this constructor as-is and is refused here, at the
// first point where a directory would actually be used.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

// ErrBasePathUnset is returned when the workspace document supplied no
// local base_path; the caller must provide a working directory.
var ErrBasePathUnset = errors.New("storage: local base_path is unset, caller must supply a working directory")

// Local stores artifacts under one base directory.
type Local struct {
	base string
}

// NewLocal builds the filesystem backend from the resolved local
// variant.  With create_if_missing set, the base directory is created on
// construction so the first Write does not race a missing parent.
func NewLocal(cfg *workspace.LocalStorage) (*Local, error) {
	if !cfg.HasBasePath() {
		return nil, ErrBasePathUnset
	}
	base, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, err
	}

	if cfg.CreateIfMissing {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create base directory: %w", err)
		}
	} else if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("storage: base directory unavailable: %w", err)
	}

	return &Local{base: base}, nil
}

// path maps a workspace-relative key onto the base directory, refusing
// keys that would escape it.
func (l *Local) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: key %q escapes the base directory", key)
	}
	return filepath.Join(l.base, clean), nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Local) Read(_ context.Context, key string) ([]byte, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return b, err
}

func (l *Local) Write(_ context.Context, key string, data []byte) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// List returns the keys under prefix, in slash form relative to the
// base directory.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	root, err := l.path(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // empty prefix, nothing to list
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.base, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	return keys, err
}
