//go:build !sqlite_fts5

package ledger

import (
	"database/sql"
	"strings"
)

func initSearch(_ *sql.DB) error {
	// FTS5 not available; ListPosts filters with LIKE on the posts table.
	return nil
}

func searchUpsert(_ *sql.Tx, _, _, _ string) error { return nil }

func searchDelete(_ *sql.Tx, _ string) {}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchFilter(query string) (string, []any) {
	like := "%" + likeEscaper.Replace(query) + "%"
	return `(title LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\' OR source LIKE ? ESCAPE '\')`,
		[]any{like, like, like}
}
