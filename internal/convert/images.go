package convert

import (
	"regexp"
	"strings"
)

var (
	imageRe = regexp.MustCompile(`!\[.*?\]\(((?:\\.|[^)\\])+)\)`)

	frontmatterImageRe = regexp.MustCompile(`(?m)^(?:featureimage|cardimage|[ \t]*image):[ \t]*(.*)$`)
)

// ExtractImages returns the path of every Markdown image in body, in order of
// appearance. Repeated references are kept.
func ExtractImages(body string) []string {
	matches := imageRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// FrontmatterImages returns the non-empty image values of featureimage,
// cardimage, a scalar image field and a cover block's image sub-key.
func FrontmatterImages(frontmatter string) []string {
	var out []string
	for _, m := range frontmatterImageRe.FindAllStringSubmatch(frontmatter, -1) {
		if v := unquote(m[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// unquote trims whitespace and one pair of matching surrounding quotes.
func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if first == '"' && last == '"' {
			inner := strings.ReplaceAll(v[1:len(v)-1], `\"`, `"`)
			return strings.TrimSpace(strings.ReplaceAll(inner, `\\`, `\`))
		}
		if first == '\'' && last == '\'' {
			return strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}

// quote renders v as a double-quoted YAML scalar.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
