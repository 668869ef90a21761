package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// entry is the on-disk document for one cache key.
type entry struct {
	Namespace string          `json:"namespace"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CachedAt  time.Time       `json:"cached_at"`
}

// FileCache stores one JSON document per key in a single directory. The
// directory is the whole store; there is no index or manifest.
type FileCache struct {
	dir     string
	nowFunc func() time.Time
}

// NewFileCache creates the directory if needed and returns a FileCache.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, eris.New("cache: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create directory %s", dir)
	}
	return &FileCache{dir: dir, nowFunc: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) path(key Key) string {
	return filepath.Join(c.dir, key.Namespace+"_"+key.Hash+".json")
}

func (c *FileCache) Get(_ context.Context, key Key) (json.RawMessage, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "cache: read %s", key)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || len(e.Value) == 0 {
		zap.L().Warn("cache: ignoring corrupt entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (c *FileCache) Set(_ context.Context, key Key, value json.RawMessage) error {
	p := c.path(key)
	if _, err := os.Stat(p); err == nil {
		return nil
	}

	data, err := json.Marshal(entry{
		Namespace: key.Namespace,
		Key:       key.Hash,
		Value:     value,
		CachedAt:  c.nowFunc().UTC(),
	})
	if err != nil {
		return eris.Wrap(err, "cache: marshal entry")
	}
	if err := atomicwriter.WriteFile(p, data, 0o644); err != nil {
		return eris.Wrapf(err, "cache: write %s", key)
	}
	return nil
}
