package convert

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const untitled = "Untitled"

var headingRe = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// HeadingTitle returns the text of the first level-1 heading in body.
func HeadingTitle(body string) (string, bool) {
	m := headingRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	t := strings.TrimSpace(m[1])
	return t, t != ""
}

// FrontmatterTitle returns the unquoted title field with link brackets
// stripped, if set and non-empty.
func FrontmatterTitle(frontmatter string) (string, bool) {
	t, ok := fieldValue(frontmatter, "title")
	t = StripLinkBrackets(t)
	return t, ok && t != ""
}

// FilenameTitle derives a title from a file name: the extension is dropped,
// hyphens become spaces and every word is title-cased.
func FilenameTitle(filename string) string {
	stem := filepath.Base(filename)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	stem = strings.TrimSpace(strings.ReplaceAll(stem, "-", " "))
	if stem == "" || stem == "." {
		return untitled
	}
	return cases.Title(language.English).String(stem)
}

// ResolveTitle picks the title of doc: the frontmatter title when doc has
// frontmatter, otherwise the first heading, and the file name as a last
// resort in both cases.
func ResolveTitle(doc Document, filename string) string {
	if doc.HasFrontmatter {
		if t, ok := FrontmatterTitle(doc.Frontmatter); ok {
			return t
		}
		return FilenameTitle(filename)
	}
	if t, ok := HeadingTitle(doc.Body); ok {
		return t
	}
	return FilenameTitle(filename)
}
