package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/vaultpress/internal/apperr"
	"github.com/starford/vaultpress/internal/models"
)

// UpsertPost inserts or replaces the record of a published bundle.
func (db *DB) UpsertPost(p models.Post) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, _ := json.Marshal(images)
	if p.ConvertedAt.IsZero() {
		p.ConvertedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO posts (slug, source, title, policy, checksum, images, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			source       = excluded.source,
			title        = excluded.title,
			policy       = excluded.policy,
			checksum     = excluded.checksum,
			images       = excluded.images,
			converted_at = excluded.converted_at
	`, p.Slug, p.Source, p.Title, p.Policy, p.Checksum, string(imagesJSON), p.ConvertedAt.UTC())
	if err != nil {
		return fmt.Errorf("ledger: upsert post: %w", err)
	}

	if err := searchUpsert(tx, p.Slug, p.Title, p.Source); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPost returns the record for slug, or apperr.ErrNotFound.
func (db *DB) GetPost(slug string) (*models.Post, error) {
	row := db.conn.QueryRow(`
		SELECT slug, source, title, policy, checksum, images, converted_at
		FROM posts WHERE slug = ?
	`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: post %s: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get post: %w", err)
	}
	return p, nil
}

// GetChecksum returns the checksum recorded for the most recent conversion of
// source, or an empty string if it was never converted.
func (db *DB) GetChecksum(source string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`
		SELECT checksum FROM posts WHERE source = ?
		ORDER BY converted_at DESC LIMIT 1
	`, source).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger: get checksum: %w", err)
	}
	return cs, nil
}

// ListPosts returns a page of posts, newest first, plus the total number of
// matching posts. An empty query matches everything.
func (db *DB) ListPosts(limit, offset int, query string) ([]models.Post, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	where, args := "", []any{}
	if query != "" {
		where, args = searchFilter(query)
		where = " WHERE " + where
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count posts: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT slug, source, title, policy, checksum, images, converted_at
		FROM posts`+where+`
		ORDER BY converted_at DESC, slug
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list posts: %w", err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ledger: scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// DeletePost removes the record for slug.
func (db *DB) DeletePost(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM posts WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("ledger: delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ledger: post %s: %w", slug, apperr.ErrNotFound)
	}
	searchDelete(tx, slug)
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		p      models.Post
		images string
	)
	if err := s.Scan(&p.Slug, &p.Source, &p.Title, &p.Policy, &p.Checksum, &images, &p.ConvertedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if len(p.Images) == 0 {
		p.Images = nil
	}
	return &p, nil
}
