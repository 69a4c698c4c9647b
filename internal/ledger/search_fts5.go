//go:build sqlite_fts5

package ledger

import (
	"database/sql"
	"fmt"
	"strings"
)

func initSearch(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			title,
			source,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func searchUpsert(tx *sql.Tx, slug, title, source string) error {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, slug)
	_, err := tx.Exec(`INSERT INTO posts_fts (slug, title, source) VALUES (?, ?, ?)`, slug, title, source)
	if err != nil {
		return fmt.Errorf("ledger: upsert fts: %w", err)
	}
	return nil
}

func searchDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM posts_fts WHERE slug = ?`, slug)
}

// searchFilter turns free text into a prefix query over every term.
func searchFilter(query string) (string, []any) {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	return `slug IN (SELECT slug FROM posts_fts WHERE posts_fts MATCH ?)`, []any{strings.Join(terms, " ")}
}
