package press

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultpress/internal/apperr"
	"github.com/starford/vaultpress/internal/ledger"
	"github.com/starford/vaultpress/internal/storage"
	"github.com/starford/vaultpress/internal/testutil"
	"github.com/starford/vaultpress/internal/vault"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishPostEvent(kind, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+slug)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fixedPicker []int

func (p fixedPicker) PickFeatures([]string) ([]int, error) { return p, nil }

type fixture struct {
	svc      *Service
	site     *storage.FS
	ledger   *ledger.DB
	events   *recorder
	vaultDir string
	notesDir string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	_, site := testutil.TestSite(t)
	ldg := testutil.TestLedger(t)
	vaultDir := t.TempDir()
	loc, err := vault.NewLocator(vaultDir)
	require.NoError(t, err)

	f := &fixture{site: site, ledger: ldg, events: &recorder{}, vaultDir: vaultDir, notesDir: t.TempDir()}
	layout := Layout{
		ContentDir: "content",
		Section:    "blog",
		AssetsDir:  "assets",
		Author:     "Jamal Hansen",
		BaseURL:    "https://jamalhansen.com",
	}
	base := []Option{
		WithVault(loc),
		WithNotifier(f.events),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.svc = New(site, ldg, layout, append(base, opts...)...)
	return f
}

func (f *fixture) note(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, f.notesDir, name, content)
}

func (f *fixture) read(t *testing.T, p string) string {
	t.Helper()
	data, err := f.site.Read(p)
	require.NoError(t, err)
	return string(data)
}

func TestPublish_CoverFromRawNote(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.vaultDir, "Attachments/cat.png", "png")
	input := f.note(t, "draft.md", "# Hello World\n![[cat.png]]\n![[missing.png]]\n![remote](https://example.com/a.png)\n")

	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", rep.Slug)
	assert.Equal(t, "Hello World", rep.Title)
	assert.Equal(t, "content/blog/hello-world/index.md", rep.IndexPath)
	assert.Equal(t, []string{"content/blog/hello-world/cat.png"}, rep.Copied)
	assert.Equal(t, []string{"missing.png"}, rep.Missing)
	assert.Equal(t, []string{"https://example.com/a.png"}, rep.Skipped)
	assert.Empty(t, rep.Warnings)

	want := `---
title: "Hello World"
date: 2026-10-17
draft: true
description: ""
author: "Jamal Hansen"
tags: []
categories: []
series: []
ShowToc: false
TocOpen: false
cover:
  image: ""
  alt: ""
  caption: ""
  relative: true
---

# Hello World
![Image](cat.png)
![Image](missing.png)
![remote](https://example.com/a.png)
`
	assert.Equal(t, want, f.read(t, rep.IndexPath))
	assert.Equal(t, "png", f.read(t, "content/blog/hello-world/cat.png"))

	post, err := f.ledger.GetPost("hello-world")
	require.NoError(t, err)
	assert.Equal(t, input, post.Source)
	assert.Equal(t, "cover", post.Policy)
	assert.Equal(t, []string{"converted:hello-world"}, f.events.all())
}

func TestPublish_LegacyFeatureImages(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.vaultDir, "hero.png", "hero")
	testutil.WriteFile(t, f.vaultDir, "img/inline.png", "inline")
	input := f.note(t, "my-post.md", "Intro\n![[hero.png]]\n![[inline.png|An inline image]]\n")

	rep, err := f.svc.Publish(context.Background(), PublishRequest{
		Input:   input,
		Slug:    "my-post",
		Policy:  "legacy",
		Feature: []int{1},
	})
	require.NoError(t, err)

	assert.Equal(t, "My Post", rep.Title)
	assert.ElementsMatch(t, []string{"assets/my-post/hero.png", "content/blog/my-post/inline.png"}, rep.Copied)
	text := f.read(t, "content/blog/my-post/index.md")
	assert.Contains(t, text, "canonical_url: https://jamalhansen.com/blog/my-post\n")
	assert.Contains(t, text, "![An inline image](inline.png)")
}

func TestPublish_LegacyFrontmatterImagesGoToAssets(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.vaultDir, "card.png", "card")
	input := f.note(t, "post.md", "---\ntitle: Post\nthumbnail: card.png\n---\nBody\n")

	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, Policy: "qubt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/post/card.png"}, rep.Copied)
	assert.Contains(t, f.read(t, rep.IndexPath), "cardimage: card.png\n")
}

func TestPublish_Picker(t *testing.T) {
	f := newFixture(t, WithPicker(fixedPicker{2}))
	testutil.WriteFile(t, f.vaultDir, "a.png", "a")
	testutil.WriteFile(t, f.vaultDir, "b.png", "b")
	input := f.note(t, "p.md", "![[a.png]] ![[b.png]]")

	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, Policy: "legacy", Pick: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"content/blog/p/a.png", "assets/p/b.png"}, rep.Copied)
}

func TestPublish_FeatureOutOfRange(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "p.md", "![[a.png]]")
	_, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, Policy: "legacy", Feature: []int{2}})
	assert.Error(t, err)
}

func TestPublish_DryRun(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "dry.md", "# Dry\ntext\n")

	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, DryRun: true})
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Contains(t, rep.Diff, "+title: \"Dry\"\n")
	assert.Contains(t, rep.Text, "# Dry\ntext\n")

	ok, err := f.site.Exists(rep.IndexPath)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.ledger.GetPost("dry")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Empty(t, f.events.all())
}

func TestPublish_RefusesForeignBundle(t *testing.T) {
	f := newFixture(t)
	a := f.note(t, "a.md", "# A")
	b := f.note(t, "b.md", "# B")

	_, err := f.svc.Publish(context.Background(), PublishRequest{Input: a, Slug: "same"})
	require.NoError(t, err)

	_, err = f.svc.Publish(context.Background(), PublishRequest{Input: b, Slug: "same"})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	rep, err := f.svc.Publish(context.Background(), PublishRequest{Input: b, Slug: "same", Force: true})
	require.NoError(t, err)
	assert.Contains(t, f.read(t, rep.IndexPath), "# B")
}

func TestPublish_RefusesUntrackedBundle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.site.Write("content/blog/handmade/index.md", []byte("mine")))
	input := f.note(t, "handmade.md", "# Handmade")

	_, err := f.svc.Publish(context.Background(), PublishRequest{Input: input})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))
	assert.Equal(t, "mine", f.read(t, "content/blog/handmade/index.md"))
}

func TestPublish_SkipUnchanged(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "same.md", "# Same")

	first, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, SkipUnchanged: true})
	require.NoError(t, err)
	assert.False(t, first.Unchanged)

	second, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, SkipUnchanged: true})
	require.NoError(t, err)
	assert.True(t, second.Unchanged)

	// A different policy is a different conversion.
	third, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, Policy: "legacy", SkipUnchanged: true})
	require.NoError(t, err)
	assert.False(t, third.Unchanged)
}

func TestPublish_InlineText(t *testing.T) {
	f := newFixture(t)
	rep, err := f.svc.Publish(context.Background(), PublishRequest{Text: "no heading", Filename: "from-api.md"})
	require.NoError(t, err)
	assert.Equal(t, "from-api", rep.Slug)
	assert.Equal(t, "From Api", rep.Title)

	post, err := f.ledger.GetPost("from-api")
	require.NoError(t, err)
	assert.Equal(t, "inline:from-api.md", post.Source)
}

func TestPublish_Errors(t *testing.T) {
	f := newFixture(t)
	input := f.note(t, "x.md", "# X")

	_, err := f.svc.Publish(context.Background(), PublishRequest{Input: input, Policy: "hexo"})
	assert.True(t, errors.Is(err, apperr.ErrUnknownPolicy))

	_, err = f.svc.Publish(context.Background(), PublishRequest{Input: filepath.Join(f.notesDir, "nope.md")})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.Publish(context.Background(), PublishRequest{Input: input, Slug: "!!!"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidSlug))
}

func TestPublish_NoVault(t *testing.T) {
	_, site := testutil.TestSite(t)
	svc := New(site, testutil.TestLedger(t), Layout{ContentDir: "content"},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rep, err := svc.Publish(context.Background(), PublishRequest{Text: "![[a.png]]", Filename: "n.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, rep.Missing)
	assert.Equal(t, "content/blog/n/index.md", rep.IndexPath)
}

func TestBundleRelative(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"cat.png", "cat.png", true},
		{"./img/cat.png", "img/cat.png", true},
		{"img/../cat.png?v=2", "cat.png", true},
		{"../secret.png", "", false},
		{"/etc/passwd", "", false},
	}
	for _, tt := range tests {
		got, ok := bundleRelative(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFeatures(t *testing.T) {
	got, err := ParseFeatures("1, 3,,2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2}, got)

	got, err = ParseFeatures("")
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"0", "-1", "a", "1,x"} {
		_, err := ParseFeatures(bad)
		assert.Error(t, err, bad)
	}
}

func TestPublish_WikiLinkTitle(t *testing.T) {
	f := newFixture(t)
	rep, err := f.svc.Publish(context.Background(), PublishRequest{
		Text:     "---\ntitle: \"[[Wiki]] post\"\n---\nbody\n",
		Filename: "wiki.md",
	})
	require.NoError(t, err)
	assert.Equal(t, "Wiki post", rep.Title)
	assert.Equal(t, "wiki-post", rep.Slug)

	post, err := f.ledger.GetPost("wiki-post")
	require.NoError(t, err)
	assert.Equal(t, "Wiki post", post.Title)
}
