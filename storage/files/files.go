// Package files provides the file-storage backends for uploaded content.
package files

import (
	"context"
	"io"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/content"
)

// Storage persists uploaded files and returns a stable reference for
// later retrieval. It satisfies content.FileStore.
type Storage interface {
	Store(ctx context.Context, key string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

var _ content.FileStore = (Storage)(nil)

// New selects the backend from the configuration: "b2" for Backblaze B2,
// anything else falls back to local disk.
func New(ctx context.Context, conf *core.Config) (Storage, error) {
	if conf.Storage.Backend == "b2" {
		return NewB2Storage(ctx, conf)
	}
	return NewLocalStorage(conf)
}
