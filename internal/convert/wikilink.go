package convert

import "regexp"

var (
	// The alias form must run first: the bare form would otherwise swallow
	// "path|alt" as the path.
	embedAliasRe = regexp.MustCompile(`!\[\[([^\]|]+)\|([^\]]+)\]\]`)
	embedRe      = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	wikilinkRe   = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// defaultAlt is the alt text given to embeds that carry none.
const defaultAlt = "Image"

// ResolveEmbeds rewrites embedded-file wiki syntax into Markdown images.
// Plain [[links]] are left untouched.
func ResolveEmbeds(body string) string {
	body = embedAliasRe.ReplaceAllString(body, "![${2}](${1})")
	return embedRe.ReplaceAllString(body, "!["+defaultAlt+"](${1})")
}

// StripLinkBrackets replaces every [[X]] with X.
func StripLinkBrackets(text string) string {
	return wikilinkRe.ReplaceAllString(text, "${1}")
}
