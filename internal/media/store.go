// AngelaMos | 2026
// store.go

package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
)

// Store keeps processed uploads. Put returns the value to record for the
// object: a bare file name for local storage, an absolute URL otherwise.
type Store interface {
	Put(
		ctx context.Context,
		key string,
		r io.Reader,
		size int64,
		contentType string,
	) (string, error)
}

// NewStore uses object storage when an endpoint is configured and the
// local directory otherwise.
func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if cfg.Endpoint == "" {
		return NewDiskStore(cfg.Dir)
	}
	return NewMinIOStore(ctx, cfg)
}

type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string {
	return d.dir
}

// Put writes through a temp file so readers never see a partial image.
func (d *DiskStore) Put(
	_ context.Context,
	key string,
	r io.Reader,
	_ int64,
	_ string,
) (string, error) {
	name := filepath.Base(key)

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return "", fmt.Errorf("move upload: %w", err)
	}

	return name, nil
}
