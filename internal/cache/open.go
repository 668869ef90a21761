package cache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the cache backend for driver rooted at dir. SQLite backends
// live in dir/cache.db; callers should close backends implementing io.Closer.
func Open(ctx context.Context, driver, dir string) (Cache, error) {
	switch driver {
	case "", DriverFile:
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverSQLite:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "cache: create directory %s", dir)
		}
		c, err := NewSQLiteCache(ctx, filepath.Join(dir, "cache.db"))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", driver)
	}
}
