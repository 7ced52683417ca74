// Package cache is the on-disk key/value store backing the client's durable state.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

const cacheSizeMax = 1024 * 1024 // 1MB

// Cache stores JSON values as files under a base directory.
type Cache struct {
	d        *diskv.Diskv
	basePath string
}

// New opens a cache rooted at basePath. Writes go through a temp directory so
// a crash never leaves a half-written value behind.
func New(basePath string) (*Cache, error) {
	if basePath == "" {
		return nil, errors.New("cache base path is required")
	}
	tempDir := filepath.Join(basePath, ".tmp")
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      tempDir,
			Transform:    flatTransform,
			CacheSizeMax: cacheSizeMax,
			PathPerm:     0o700,
			FilePerm:     0o600,
		}),
		basePath: basePath,
	}, nil
}

func flatTransform(string) []string { return []string{} }

// BasePath returns the directory the cache writes to.
func (c *Cache) BasePath() string {
	return c.basePath
}

// Get decodes the value stored under key into v. It reports false when the key is absent.
func (c *Cache) Get(key string, v any) (bool, error) {
	raw, err := c.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Put encodes v as JSON and stores it under key.
func (c *Cache) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.d.Write(key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	if !c.d.Has(key) {
		return nil
	}
	if err := c.d.Erase(key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys.
func (c *Cache) Keys(ctx context.Context) []string {
	var keys []string
	for key := range c.d.Keys(ctx.Done()) {
		keys = append(keys, key)
	}
	return keys
}
