// Package convert rewrites personal-wiki Markdown notes into the frontmatter
// and body conventions of a Hugo blogging theme.
//
// Every function in this package is a pure text-to-text transformation: no
// I/O, no clock reads, no errors. Malformed input degrades to a pass-through.
package convert

import (
	"regexp"
	"strings"
)

const delim = "---"

// frontmatterRe matches the first ----delimited block at the very start of the
// text. The lazy group keeps a horizontal rule in the body from being taken
// for the closing delimiter.
var frontmatterRe = regexp.MustCompile(`(?s)\A---\n(.*?)\n---(?:\n|\z)`)

// Document is a note split into its frontmatter block and its body.
type Document struct {
	HasFrontmatter bool
	Frontmatter    string
	Body           string
}

// Split separates text into frontmatter and body. When no complete delimiter
// block opens the text the whole input is returned as the body.
func Split(text string) Document {
	loc := frontmatterRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return Document{Body: text}
	}
	return Document{
		HasFrontmatter: true,
		Frontmatter:    text[loc[2]:loc[3]],
		Body:           text[loc[1]:],
	}
}

// Assemble serializes doc. An empty frontmatter block is not written.
func Assemble(doc Document) string {
	if doc.Frontmatter == "" {
		return doc.Body
	}
	var b strings.Builder
	b.Grow(len(doc.Frontmatter) + len(doc.Body) + 2*len(delim) + 3)
	b.WriteString(delim + "\n")
	b.WriteString(doc.Frontmatter)
	b.WriteString("\n" + delim + "\n")
	b.WriteString(doc.Body)
	return b.String()
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
