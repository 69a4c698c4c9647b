// Package storage defines the site file-system abstraction.
package storage

import "github.com/starford/vaultpress/internal/models"

// Provider is the interface for site file operations. Every path is relative
// to the site root and uses forward slashes.
type Provider interface {
	// Glob returns metadata for every file matching a doublestar pattern.
	Glob(pattern string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Copy atomically copies the file at the absolute path src to path.
	Copy(src, path string) error
	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)
	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error
	// Abs resolves path to an absolute path inside the site.
	Abs(path string) (string, error)
}
