package press

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultpress/internal/apperr"
)

func TestDelete(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "gone.md", "# Gone\n")
	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), rep.Slug))

	exists, err := f.site.Exists(f.svc.Layout().BundleDir(rep.Slug))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.Post(rep.Slug)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, []string{"converted:gone", "deleted:gone"}, f.events.all())
}

func TestDelete_Unknown(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, f.events.all())
}

func TestAttachImage(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "pics.md", "# Pics\n")
	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input})
	require.NoError(t, err)

	dst, err := f.svc.AttachImage(rep.Slug, "shot.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "content/blog/pics/shot.png", dst)
	assert.Equal(t, "png", f.read(t, dst))

	post, err := f.svc.Post(rep.Slug)
	require.NoError(t, err)
	assert.Contains(t, post.Images, dst)

	// Attaching again does not duplicate the ledger entry.
	_, err = f.svc.AttachImage(rep.Slug, "shot.png", []byte("png2"))
	require.NoError(t, err)
	post, err = f.svc.Post(rep.Slug)
	require.NoError(t, err)
	assert.Len(t, post.Images, 1)
}

func TestAttachImage_Rejects(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AttachImage("nope", "a.png", []byte("x"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, name := range []string{"", "..", "../a.png", "dir/a.png"} {
		_, err := f.svc.AttachImage("nope", name, []byte("x"))
		assert.Error(t, err, name)
		assert.ErrorIs(t, err, apperr.ErrInvalidPath, name)
	}
}

func TestBundleFile(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "files.md", "# Files\n")
	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input})
	require.NoError(t, err)

	p, err := f.svc.BundleFile(rep.Slug, "index.md")
	require.NoError(t, err)
	assert.Equal(t, rep.IndexPath, p)

	_, err = f.svc.BundleFile(rep.Slug, "absent.png")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.BundleFile("..", "index.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostsAndRuns(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"one.md", "two.md"} {
		_, err := f.svc.Publish(context.Background(), PublishRequest{Input: f.note(t, name, "body\n")})
		require.NoError(t, err)
	}
	posts, total, err := f.svc.Posts(10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, posts, 2)

	_, err = f.svc.Migrate(context.Background(), MigrateRequest{DryRun: true})
	require.NoError(t, err)
	runs, err := f.svc.Runs(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "migrate --dry-run", runs[0].Command)
}
