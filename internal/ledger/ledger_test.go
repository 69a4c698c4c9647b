package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultpress/internal/apperr"
	"github.com/starford/vaultpress/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&count); err != nil {
		t.Fatalf("posts table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
}

func TestUpsertAndGetPost(t *testing.T) {
	db := testDB(t)
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	p := models.Post{
		Slug:        "hello",
		Source:      "/vault/hello.md",
		Title:       "Hello",
		Policy:      "cover",
		Checksum:    "abc",
		Images:      []string{"a.png", "b.png"},
		ConvertedAt: at,
	}
	require.NoError(t, db.UpsertPost(p))

	got, err := db.GetPost("hello")
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Images, got.Images)
	assert.True(t, at.Equal(got.ConvertedAt))

	p.Title = "Hello again"
	p.Images = nil
	require.NoError(t, db.UpsertPost(p))
	got, err = db.GetPost("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Title)
	assert.Nil(t, got.Images)
}

func TestGetPost_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetPost("nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestGetChecksum(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("/vault/a.md")
	require.NoError(t, err)
	assert.Empty(t, cs)

	require.NoError(t, db.UpsertPost(models.Post{Slug: "a", Source: "/vault/a.md", Checksum: "111"}))
	cs, err = db.GetChecksum("/vault/a.md")
	require.NoError(t, err)
	assert.Equal(t, "111", cs)
}

func TestListPosts(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Go Generics", "SQL for Python", "Python Tips"} {
		require.NoError(t, db.UpsertPost(models.Post{
			Slug:        "post-" + string(rune('a'+i)),
			Title:       title,
			ConvertedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, total, err := db.ListPosts(10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "Python Tips", all[0].Title, "newest first")

	page, total, err := db.ListPosts(1, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "SQL for Python", page[0].Title)

	hits, total, err := db.ListPosts(10, 0, "python")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, hits, 2)
}

func TestDeletePost(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.UpsertPost(models.Post{Slug: "gone"}))
	require.NoError(t, db.DeletePost("gone"))

	_, err := db.GetPost("gone")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(db.DeletePost("gone"), apperr.ErrNotFound))
}

func TestRuns(t *testing.T) {
	db := testDB(t)
	run, err := db.StartRun("migrate")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].FinishedAt.IsZero())

	run.Converted, run.Skipped, run.Failed = 3, 2, 1
	require.NoError(t, db.FinishRun(run))

	runs, err = db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "migrate", runs[0].Command)
	assert.Equal(t, 3, runs[0].Converted)
	assert.Equal(t, 2, runs[0].Skipped)
	assert.Equal(t, 1, runs[0].Failed)
	assert.False(t, runs[0].FinishedAt.IsZero())
}
