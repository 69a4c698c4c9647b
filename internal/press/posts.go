package press

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/starford/vaultpress/internal/apperr"
	"github.com/starford/vaultpress/internal/models"
)

// Post returns the ledger record of slug.
func (s *Service) Post(slug string) (*models.Post, error) {
	return s.ledger.GetPost(slug)
}

// Posts lists published posts, newest first.
func (s *Service) Posts(limit, offset int, query string) ([]models.Post, int, error) {
	return s.ledger.ListPosts(limit, offset, query)
}

// Runs lists recent batch runs.
func (s *Service) Runs(limit int) ([]models.Run, error) {
	return s.ledger.ListRuns(limit)
}

// Delete removes a published post: its bundle, its asset directory and its
// ledger record.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if _, err := s.ledger.GetPost(slug); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, dir := range []string{s.layout.BundleDir(slug), s.layout.AssetDir(slug)} {
		if err := s.site.RemoveAll(dir); err != nil {
			return fmt.Errorf("press: delete %s: %w", dir, err)
		}
	}
	if err := s.ledger.DeletePost(slug); err != nil {
		return err
	}
	s.log.Info("press: deleted", slog.String("slug", slug))
	s.emit(EventDeleted, slug)
	return nil
}

// AttachImage stores an image in the bundle of an already published post
// and returns its site path.
func (s *Service) AttachImage(slug, name string, data []byte) (string, error) {
	if !plainName(name) {
		return "", fmt.Errorf("press: file name %q: %w", name, apperr.ErrInvalidPath)
	}
	post, err := s.ledger.GetPost(slug)
	if err != nil {
		return "", err
	}
	dst := path.Join(s.layout.BundleDir(slug), name)
	if err := s.site.Write(dst, data); err != nil {
		return "", fmt.Errorf("press: attach: %w", err)
	}

	if !slices.Contains(post.Images, dst) {
		post.Images = append(post.Images, dst)
		if err := s.ledger.UpsertPost(*post); err != nil {
			return "", err
		}
	}
	s.log.Info("press: attached", slog.String("slug", slug), slog.String("file", name))
	s.emit(EventConverted, slug)
	return dst, nil
}

// BundleFile returns the site path of name inside the bundle of slug.
func (s *Service) BundleFile(slug, name string) (string, error) {
	if !plainName(slug) || !plainName(name) {
		return "", fmt.Errorf("press: bundle file %s/%s: %w", slug, name, apperr.ErrNotFound)
	}
	p := path.Join(s.layout.BundleDir(slug), name)
	ok, err := s.site.Exists(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("press: bundle file %s: %w", p, apperr.ErrNotFound)
	}
	return p, nil
}

// plainName reports whether name is a single path element.
func plainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
