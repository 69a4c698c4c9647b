// Package vault finds image files referenced by a note inside the source
// vault it was written in.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/vaultpress/internal/apperr"
)

var errFound = errors.New("found")

// Locator resolves image references to files below a vault root.
type Locator struct {
	root  string
	fsys  fs.FS
	cache *Cache
	log   *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithCache enables the persistent location cache.
func WithCache(c *Cache) Option {
	return func(l *Locator) { l.cache = c }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Locator) { l.log = log }
}

// NewLocator creates a locator for the vault at root, which must exist.
func NewLocator(root string, opts ...Option) (*Locator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	l := &Locator{root: abs, fsys: os.DirFS(abs), log: slog.Default()}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Root returns the absolute vault directory.
func (l *Locator) Root() string { return l.root }

// Locate returns the absolute path of the first file whose path ends with
// ref. Both composed and decomposed Unicode spellings of ref are tried, as
// well as its URL-decoded form. A miss wraps apperr.ErrNotFound.
func (l *Locator) Locate(ref string) (string, error) {
	for _, v := range variants(ref) {
		if rel, ok := l.cached(v); ok {
			return filepath.Join(l.root, filepath.FromSlash(rel)), nil
		}
		rel, err := l.search(v)
		if err != nil {
			return "", err
		}
		if rel == "" {
			continue
		}
		if l.cache != nil {
			if err := l.cache.Put(l.root, v, rel); err != nil {
				l.log.Warn("vault cache write failed", slog.String("ref", v), slog.String("error", err.Error()))
			}
		}
		return filepath.Join(l.root, filepath.FromSlash(rel)), nil
	}
	return "", fmt.Errorf("vault: %s: %w", ref, apperr.ErrNotFound)
}

// cached returns a cache hit that still exists on disk. Stale entries are
// dropped.
func (l *Locator) cached(ref string) (string, bool) {
	if l.cache == nil {
		return "", false
	}
	rel, ok, err := l.cache.Get(l.root, ref)
	if err != nil || !ok {
		return "", false
	}
	info, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err == nil && !info.IsDir() {
		return rel, true
	}
	if err := l.cache.Delete(l.root, ref); err != nil {
		l.log.Warn("vault cache delete failed", slog.String("ref", ref), slog.String("error", err.Error()))
	}
	return "", false
}

func (l *Locator) search(ref string) (string, error) {
	pattern := "**/" + escapeMeta(ref)
	var found string
	err := doublestar.GlobWalk(l.fsys, pattern, func(p string, _ fs.DirEntry) error {
		found = p
		return errFound
	}, doublestar.WithFilesOnly())
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("vault: search %s: %w", ref, err)
	}
	return found, nil
}

// variants lists the spellings of ref worth searching for, without
// duplicates. References that are absolute, remote or climb out of the
// vault yield nothing.
func variants(ref string) []string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	candidates := []string{ref}
	if u, err := url.PathUnescape(ref); err == nil && u != ref {
		candidates = append(candidates, u)
	}

	var out []string
	seen := map[string]bool{}
	for _, c := range candidates {
		for _, v := range []string{norm.NFC.String(c), norm.NFD.String(c)} {
			v = strings.TrimPrefix(path.Clean(filepath.ToSlash(v)), "./")
			if !usable(v) || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func usable(ref string) bool {
	if ref == "" || ref == "." || strings.Contains(ref, "://") {
		return false
	}
	if path.IsAbs(ref) || ref == ".." || strings.HasPrefix(ref, "../") {
		return false
	}
	return true
}

// escapeMeta quotes glob metacharacters so a file name is matched literally.
func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsRemote reports whether ref points outside the file system.
func IsRemote(ref string) bool {
	return strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:")
}
