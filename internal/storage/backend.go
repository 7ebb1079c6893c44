// internal/storage/backend.go
//
// Storage backend abstraction over the resolved storage union.
//
// Context
// -------
// The resolver produces exactly one populated storage variant; this
// package turns it into something that can move media plan artifacts.
// Keys are workspace-relative, forward-slash paths ("plans/q3.json");
// each backend maps them onto its own namespace.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

// ErrUnsupported marks a storage mode this build has no client for.
var ErrUnsupported = errors.New("storage: backend not supported in this build")

// ErrNotFound is returned by Read for a key that does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Backend persists and retrieves media plan artifacts.  Implementations
// are safe for concurrent use.
type Backend interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ForConfig builds the backend selected by the resolved configuration.
// Google Drive documents resolve fine but have no client here; callers
// get ErrUnsupported instead of a half-working stub.
func ForConfig(ctx context.Context, cfg *workspace.ResolvedConfig) (Backend, error) {
	switch cfg.Storage.Mode {
	case workspace.ModeLocal:
		return NewLocal(cfg.Storage.Local)
	case workspace.ModeS3:
		return NewS3(ctx, cfg.Storage.S3)
	case workspace.ModeGDrive:
		return nil, fmt.Errorf("%w: gdrive", ErrUnsupported)
	default:
		return nil, fmt.Errorf("storage: unknown mode %q", cfg.Storage.Mode)
	}
}
