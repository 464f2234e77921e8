// Package photostore spools downloaded photos between fetch and encoding.
package photostore

import (
	"context"
	"io"
)

// Spool holds a photo only for as long as it takes to encode it. Keys are
// opaque and valid until Delete or Purge.
type Spool interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
	// Purge removes leftovers from an earlier run and reports how many it removed.
	Purge() (int, error)
}
