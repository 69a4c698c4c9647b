package convert

import (
	"strings"
	"time"
)

// DateLayout is the date format written into synthesized frontmatter.
const DateLayout = "2006-01-02"

// Meta carries the values a synthesized frontmatter block is built from.
type Meta struct {
	Title   string
	Date    time.Time
	Author  string
	Slug    string
	BaseURL string
	Section string
}

func coverFrontmatter(m Meta) string {
	lines := []string{
		"title: " + quote(m.Title),
		"date: " + m.Date.Format(DateLayout),
		"draft: true",
		`description: ""`,
		"author: " + quote(m.Author),
		"tags: []",
		"categories: []",
		"series: []",
		"ShowToc: false",
		"TocOpen: false",
		coverBlock("", ""),
	}
	return strings.Join(lines, "\n")
}

func legacyFrontmatter(m Meta) string {
	lines := []string{
		"title: " + quote(m.Title),
		`summary: ""`,
		"author:",
		"  - " + m.Author,
		"date: " + m.Date.Format(DateLayout),
		`lastmod: ""`,
		"tags:",
		"  - ",
		"categories:",
		"  - ",
		`featureimage: ""`,
		`cardimage: ""`,
		"draft: true",
		"toc: false",
		`series: ""`,
		"canonical_url: " + canonicalURL(m),
		"slug: " + m.Slug,
		"layout: post",
	}
	return strings.Join(lines, "\n")
}

func canonicalURL(m Meta) string {
	section := strings.Trim(m.Section, "/")
	if section == "" {
		section = "blog"
	}
	return strings.TrimRight(m.BaseURL, "/") + "/" + section + "/" + m.Slug
}
