package convert

import (
	"regexp"
	"strings"
)

// Rule is one named frontmatter rewrite. Apply must be pure and idempotent.
type Rule struct {
	Name  string
	Apply func(frontmatter string) string
}

// Normalizer is an ordered list of rules applied left to right.
type Normalizer []Rule

// Normalize runs every rule over frontmatter.
func (n Normalizer) Normalize(frontmatter string) string {
	for _, r := range n {
		frontmatter = r.Apply(frontmatter)
	}
	return frontmatter
}

// Names lists the rule names in application order.
func (n Normalizer) Names() []string {
	out := make([]string, len(n))
	for i, r := range n {
		out[i] = r.Name
	}
	return out
}

func keyRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `:`)
}

// lineRe matches a whole top-level field line, value in group 1, including
// its line break when there is one.
func lineRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `:[ \t]*(.*)(?:\n|\z)`)
}

func hasKey(frontmatter, key string) bool {
	return keyRe(key).MatchString(frontmatter)
}

// fieldValue returns the unquoted scalar value of a top-level key.
func fieldValue(frontmatter, key string) (string, bool) {
	m := lineRe(key).FindStringSubmatch(frontmatter)
	if m == nil {
		return "", false
	}
	return unquote(m[1]), true
}

var stripLinks = Rule{Name: "strip-link-brackets", Apply: StripLinkBrackets}

// renameKey renames a top-level key unless the new key is already present.
func renameKey(from, to string) Rule {
	fromRe := keyRe(from)
	return Rule{
		Name: "rename-" + from,
		Apply: func(fm string) string {
			if hasKey(fm, to) {
				return fm
			}
			return fromRe.ReplaceAllLiteralString(fm, to+":")
		},
	}
}

var (
	tagsBlockRe = regexp.MustCompile(`(?m)^tags:[ \t]*\n((?:[ \t]*-[^\n]*(?:\n|\z))*)`)
	tagItemRe   = regexp.MustCompile(`^([ \t]*-[ \t]*)(.*?)[ \t]*$`)
)

var stripTagHashes = Rule{
	Name: "strip-tag-hashes",
	Apply: func(fm string) string {
		loc := tagsBlockRe.FindStringSubmatchIndex(fm)
		if loc == nil || loc[2] == loc[3] {
			return fm
		}
		block := fm[loc[2]:loc[3]]
		lines := strings.SplitAfter(block, "\n")
		for i, line := range lines {
			lines[i] = stripTagHash(line)
		}
		return fm[:loc[2]] + strings.Join(lines, "") + fm[loc[3]:]
	},
}

func stripTagHash(line string) string {
	body := strings.TrimSuffix(line, "\n")
	nl := line[len(body):]
	m := tagItemRe.FindStringSubmatch(body)
	if m == nil {
		return line
	}
	prefix, value := m[1], m[2]
	q := byte(0)
	inner := value
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		q = value[0]
		inner = value[1 : len(value)-1]
	}
	if !strings.HasPrefix(inner, "#") {
		return line
	}
	inner = strings.TrimLeft(inner, "#")
	if q == 0 || plainSafe(inner) {
		return prefix + inner + nl
	}
	return prefix + string(q) + inner + string(q) + nl
}

// plainSafe reports whether v can be written as an unquoted YAML scalar.
func plainSafe(v string) bool {
	if v == "" || strings.Contains(v, ": ") || strings.Contains(v, " #") {
		return false
	}
	return !strings.ContainsAny(v[:1], "[]{}&*!|>'\"%@`#,?:-")
}

func coverBlock(image, alt string) string {
	return "cover:\n" +
		"  image: " + quote(image) + "\n" +
		"  alt: " + quote(alt) + "\n" +
		"  caption: \"\"\n" +
		"  relative: true"
}

var imageLineRe = lineRe("image")

// promoteImage turns a scalar image field into a cover block, or drops it
// when empty.
var promoteImage = Rule{
	Name: "promote-image",
	Apply: func(fm string) string {
		if hasKey(fm, "cover") {
			return fm
		}
		loc := imageLineRe.FindStringSubmatchIndex(fm)
		if loc == nil {
			return fm
		}
		value := unquote(fm[loc[2]:loc[3]])
		if value == "" {
			// "image:" opening a nested block is not a scalar field.
			if rest := fm[loc[1]:]; strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t") {
				return fm
			}
			return fm[:loc[0]] + fm[loc[1]:]
		}
		return fm[:loc[0]] + coverBlock(value, "") + lineBreak(fm[loc[0]:loc[1]]) + fm[loc[1]:]
	},
}

var (
	featureLineRe = lineRe("featureimage")
	cardLineRe    = lineRe("cardimage")
)

// defaultCoverAlt is the alt text of a promoted cover when there is no title.
const defaultCoverAlt = "Featured Image"

// promoteLegacyImages folds featureimage and cardimage into one cover block
// placed where the first of them stood. featureimage wins when both are set;
// the alt text is the document title.
var promoteLegacyImages = Rule{
	Name: "promote-legacy-images",
	Apply: func(fm string) string {
		if hasKey(fm, "cover") {
			return fm
		}
		feature := featureLineRe.FindStringSubmatchIndex(fm)
		card := cardLineRe.FindStringSubmatchIndex(fm)
		if feature == nil && card == nil {
			return fm
		}

		var image string
		if feature != nil {
			image = unquote(fm[feature[2]:feature[3]])
		}
		if image == "" && card != nil {
			image = unquote(fm[card[2]:card[3]])
		}

		first := feature
		if first == nil || (card != nil && card[0] < first[0]) {
			first = card
		}
		replacement := ""
		if image != "" {
			title, ok := fieldValue(fm, "title")
			if !ok {
				title = defaultCoverAlt
			}
			replacement = coverBlock(image, title) + lineBreak(fm[first[0]:first[1]])
		}

		// Cut the later span first so the earlier offsets stay valid.
		spans := [][]int{feature, card}
		if feature != nil && card != nil && card[0] > feature[0] {
			spans = [][]int{card, feature}
		}
		for _, s := range spans {
			if s == nil {
				continue
			}
			repl := ""
			if s[0] == first[0] {
				repl = replacement
			}
			fm = fm[:s[0]] + repl + fm[s[1]:]
		}
		return fm
	},
}

func lineBreak(line string) string {
	if strings.HasSuffix(line, "\n") {
		return "\n"
	}
	return ""
}

var (
	tocTrueRe  = regexp.MustCompile(`(?m)^toc:[ \t]*true[ \t]*$`)
	tocFalseRe = regexp.MustCompile(`(?m)^toc:[ \t]*false[ \t]*$`)
)

// renameToc maps a boolean toc field onto ShowToc/TocOpen. Other values are
// left alone, and an existing TocOpen is kept.
var renameToc = Rule{
	Name: "rename-toc",
	Apply: func(fm string) string {
		if hasKey(fm, "ShowToc") {
			return fm
		}
		if tocTrueRe.MatchString(fm) {
			repl := "ShowToc: true\nTocOpen: false"
			if hasKey(fm, "TocOpen") {
				repl = "ShowToc: true"
			}
			return tocTrueRe.ReplaceAllLiteralString(fm, repl)
		}
		return tocFalseRe.ReplaceAllLiteralString(fm, "ShowToc: false")
	},
}

var emptyLastmodRe = regexp.MustCompile(`(?m)^lastmod:[ \t]*(?:""|'')?[ \t]*(?:\n|\z)`)

// removeFields deletes whole field lines.
func removeFields(keys ...string) Rule {
	res := make([]*regexp.Regexp, 0, len(keys))
	for _, k := range keys {
		res = append(res, regexp.MustCompile(`(?m)^`+regexp.QuoteMeta(k)+`:.*(?:\n|\z)`))
	}
	return Rule{
		Name: "remove-deprecated",
		Apply: func(fm string) string {
			for _, re := range res {
				fm = re.ReplaceAllLiteralString(fm, "")
			}
			return emptyLastmodRe.ReplaceAllLiteralString(fm, "")
		},
	}
}

var trimTrailing = Rule{
	Name: "trim-trailing-newlines",
	Apply: func(fm string) string {
		return strings.TrimRight(fm, "\n")
	},
}
