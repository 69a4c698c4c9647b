package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTagHashes(t *testing.T) {
	in := "tags:\n  - \"#python\"\n  - sql\n"
	assert.Equal(t, "tags:\n  - python\n  - sql\n", stripTagHashes.Apply(in))
}

func TestStripTagHashes_StopsAtBlockEnd(t *testing.T) {
	in := "tags:\n  - '#a'\n  - #b\ncategories:\n  - \"#c\""
	want := "tags:\n  - a\n  - b\ncategories:\n  - \"#c\""
	assert.Equal(t, want, stripTagHashes.Apply(in))
}

func TestStripTagHashes_KeepsQuotesWhenNeeded(t *testing.T) {
	in := "tags:\n  - \"#c: lang\""
	assert.Equal(t, "tags:\n  - \"c: lang\"", stripTagHashes.Apply(in))
}

func TestStripTagHashes_RepeatedHashes(t *testing.T) {
	in := "tags:\n  - \"##deep\""
	once := stripTagHashes.Apply(in)
	assert.Equal(t, "tags:\n  - deep", once)
	assert.Equal(t, once, stripTagHashes.Apply(once))
}

func TestStripTagHashes_InlineListUntouched(t *testing.T) {
	in := "tags: [\"#a\"]\n"
	assert.Equal(t, in, stripTagHashes.Apply(in))
}

func TestPromoteImage(t *testing.T) {
	in := "title: A\nimage: \"cat.png\"\ndraft: true"
	want := "title: A\ncover:\n  image: \"cat.png\"\n  alt: \"\"\n  caption: \"\"\n  relative: true\ndraft: true"
	assert.Equal(t, want, promoteImage.Apply(in))
}

func TestPromoteImage_Bare(t *testing.T) {
	want := "cover:\n  image: \"cat.png\"\n  alt: \"\"\n  caption: \"\"\n  relative: true"
	assert.Equal(t, want, promoteImage.Apply(`image: "cat.png"`))
	assert.Equal(t, want, promoteImage.Apply("image: cat.png"))
}

func TestPromoteImage_EmptyRemoved(t *testing.T) {
	assert.Equal(t, "title: A\ndraft: true", promoteImage.Apply("title: A\nimage: \"\"\ndraft: true"))
	assert.Equal(t, "title: A\n", promoteImage.Apply("title: A\nimage:"))
}

func TestPromoteImage_NestedBlockUntouched(t *testing.T) {
	in := "image:\n  src: a.png\n"
	assert.Equal(t, in, promoteImage.Apply(in))
}

func TestPromoteImage_ExistingCover(t *testing.T) {
	in := "cover:\n  image: \"a.png\"\nimage: b.png"
	assert.Equal(t, in, promoteImage.Apply(in))
}

func TestPromoteLegacyImages(t *testing.T) {
	in := "title: \"My Post\"\ncategories:\n  - Python\nfeatureimage: hero.png\ncardimage: card.png\ndraft: false"
	want := "title: \"My Post\"\ncategories:\n  - Python\ncover:\n  image: \"hero.png\"\n  alt: \"My Post\"\n  caption: \"\"\n  relative: true\ndraft: false"
	assert.Equal(t, want, promoteLegacyImages.Apply(in))
}

func TestPromoteLegacyImages_CardFallback(t *testing.T) {
	in := "title: T\nfeatureimage:\ncardimage: card.png\ndraft: true"
	want := "title: T\ncover:\n  image: \"card.png\"\n  alt: \"T\"\n  caption: \"\"\n  relative: true\ndraft: true"
	assert.Equal(t, want, promoteLegacyImages.Apply(in))
}

func TestPromoteLegacyImages_CardFirst(t *testing.T) {
	in := "cardimage: card.png\nfeatureimage: hero.png\ndraft: true"
	want := "cover:\n  image: \"hero.png\"\n  alt: \"Featured Image\"\n  caption: \"\"\n  relative: true\ndraft: true"
	assert.Equal(t, want, promoteLegacyImages.Apply(in))
}

func TestPromoteLegacyImages_BothEmpty(t *testing.T) {
	in := "title: A\nfeatureimage:\ncardimage: \"\"\ndraft: true"
	assert.Equal(t, "title: A\ndraft: true", promoteLegacyImages.Apply(in))
}

func TestRenameToc(t *testing.T) {
	assert.Equal(t, "ShowToc: true\nTocOpen: false", renameToc.Apply("toc: true"))
	assert.Equal(t, "ShowToc: false", renameToc.Apply("toc: false"))
	assert.Equal(t, "toc: maybe", renameToc.Apply("toc: maybe"))
	assert.Equal(t, "ShowToc: true\ntoc: false", renameToc.Apply("ShowToc: true\ntoc: false"))
	assert.Equal(t, "ShowToc: true\nTocOpen: true", renameToc.Apply("toc: true\nTocOpen: true"))
}

func TestNormalize_NoDuplicateKeys(t *testing.T) {
	inputs := []string{
		"toc: true\nTocOpen: true",
		"toc: true\nShowToc: false",
		"summary: a\ndescription: b",
		"description: a\nsummary: b\nfeatured_image: x\nfeatureimage: y\nthumbnail: t\ncardimage: c",
		"image: a.png\ncover:\n  image: \"b.png\"",
		"featureimage: a.png\ncardimage: b.png\ncover:\n  image: \"c.png\"",
	}
	for _, p := range []Policy{Cover, Legacy} {
		for _, in := range inputs {
			out := p.Normalizer.Normalize(in)
			seen := map[string]bool{}
			for _, line := range strings.Split(out, "\n") {
				if line == "" || line[0] == ' ' || line[0] == '\t' {
					continue
				}
				key, _, _ := strings.Cut(line, ":")
				assert.False(t, seen[key], "policy %s: key %q repeated in %q", p.Name, key, out)
				seen[key] = true
			}
		}
	}
}

func TestRemoveFields(t *testing.T) {
	rule := removeFields("canonical_url", "layout", "slug")
	in := "title: A\ncanonical_url: https://x\nlayout: post\nslug: a\nlastmod: \"\"\ndraft: true"
	assert.Equal(t, "title: A\ndraft: true", rule.Apply(in))

	kept := "lastmod: 2024-01-01\nslugline: keep"
	assert.Equal(t, kept, rule.Apply(kept))
}

func TestRenameKey_NoDuplicate(t *testing.T) {
	rule := renameKey("summary", "description")
	assert.Equal(t, "description: x", rule.Apply("summary: x"))
	both := "summary: x\ndescription: y"
	assert.Equal(t, both, rule.Apply(both))
	assert.Equal(t, "summary_long: x", rule.Apply("summary_long: x"))
}

func TestCoverNormalize(t *testing.T) {
	in := `title: "[[Note]] title"
summary: A summary
tags:
  - "#python"
  - sql
image: "cat.png"
toc: true
series: "[[SQL for Python]]"
canonical_url: https://example.com/blog/x
layout: post
slug: x
lastmod: ""`
	want := `title: "Note title"
description: A summary
tags:
  - python
  - sql
cover:
  image: "cat.png"
  alt: ""
  caption: ""
  relative: true
ShowToc: true
TocOpen: false
series: "SQL for Python"`

	got := Cover.Normalizer.Normalize(in)
	require.Equal(t, want, got)
	assert.Equal(t, got, Cover.Normalizer.Normalize(got), "normalizing twice must be a no-op")
}

func TestLegacyNormalize(t *testing.T) {
	in := "title: A\ndescription: d\nfeatured_image: f.png\nthumbnail: t.png\ntags:\n  - \"#go\"\n"
	want := "title: A\nsummary: d\nfeatureimage: f.png\ncardimage: t.png\ntags:\n  - go"
	got := Legacy.Normalizer.Normalize(in)
	require.Equal(t, want, got)
	assert.Equal(t, got, Legacy.Normalizer.Normalize(got))
}

func TestSynthesizedIsFixedPoint(t *testing.T) {
	meta := Meta{
		Title:   `A "quoted" title`,
		Date:    time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		Author:  "Jamal Hansen",
		Slug:    "a-quoted-title",
		BaseURL: "https://jamalhansen.com",
		Section: "blog",
	}
	for _, p := range []Policy{Cover, Legacy} {
		fm := p.Synthesize(meta)
		assert.Equal(t, fm, p.Normalizer.Normalize(fm), "policy %s", p.Name)
	}
}

func TestLegacySynthesize(t *testing.T) {
	fm := Legacy.Synthesize(Meta{
		Title:   "Hello",
		Date:    time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		Author:  "Jamal Hansen",
		Slug:    "hello",
		BaseURL: "https://jamalhansen.com/",
		Section: "blog",
	})
	assert.Contains(t, fm, "canonical_url: https://jamalhansen.com/blog/hello\n")
	assert.Contains(t, fm, "author:\n  - Jamal Hansen\n")
	assert.Contains(t, fm, "date: 2026-10-17\n")
	assert.Contains(t, fm, "slug: hello\nlayout: post")
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("PaperMod")
	require.True(t, ok)
	assert.Equal(t, PolicyCover, p.Name)

	p, ok = ParsePolicy("qubt")
	require.True(t, ok)
	assert.Equal(t, PolicyLegacy, p.Name)

	_, ok = ParsePolicy("hexo")
	assert.False(t, ok)
	assert.Contains(t, PolicyNames(), "cover")
}
