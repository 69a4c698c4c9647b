package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	cacheFilePerm    = fs.FileMode(0o600)
	cacheOpenTimeout = 5 * time.Second
)

var locationsBucket = []byte("locations")

// Cache remembers where an image reference was last found, keyed by vault
// root and reference. Values are paths relative to the vault root.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("vault: create cache dir: %w", err)
	}
	db, err := bolt.Open(path, cacheFilePerm, &bolt.Options{Timeout: cacheOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("vault: open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(locationsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: init cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(root, ref string) []byte {
	return []byte(root + "\x00" + ref)
}

// Get returns the cached relative location for ref.
func (c *Cache) Get(root, ref string) (string, bool, error) {
	var rel string
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(locationsBucket).Get(cacheKey(root, ref)); v != nil {
			rel = string(v)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("vault: cache get: %w", err)
	}
	return rel, rel != "", nil
}

// Put stores the relative location of ref.
func (c *Cache) Put(root, ref, rel string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(locationsBucket).Put(cacheKey(root, ref), []byte(rel))
	})
	if err != nil {
		return fmt.Errorf("vault: cache put: %w", err)
	}
	return nil
}

// Delete drops a stale entry.
func (c *Cache) Delete(root, ref string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(locationsBucket).Delete(cacheKey(root, ref))
	})
	if err != nil {
		return fmt.Errorf("vault: cache delete: %w", err)
	}
	return nil
}
