package convert

import (
	"sort"
	"strings"
)

// Policy names.
const (
	PolicyCover  = "cover"
	PolicyLegacy = "legacy"
)

// Policy is one target theme convention: how existing frontmatter is
// normalized and how fresh frontmatter is synthesized. The two policies are
// opposite migration directions and are never combined.
type Policy struct {
	Name       string
	Normalizer Normalizer
	synthesize func(Meta) string
}

// Synthesize builds a fresh frontmatter block for meta.
func (p Policy) Synthesize(meta Meta) string {
	return p.synthesize(meta)
}

// Cover targets the PaperMod cover-block scheme.
var Cover = Policy{
	Name: PolicyCover,
	Normalizer: Normalizer{
		stripLinks,
		renameKey("summary", "description"),
		stripTagHashes,
		promoteImage,
		promoteLegacyImages,
		renameToc,
		removeFields("canonical_url", "layout", "slug"),
		trimTrailing,
	},
	synthesize: coverFrontmatter,
}

// Legacy targets the featureimage/cardimage scheme.
var Legacy = Policy{
	Name: PolicyLegacy,
	Normalizer: Normalizer{
		stripLinks,
		renameKey("description", "summary"),
		renameKey("featured_image", "featureimage"),
		renameKey("thumbnail", "cardimage"),
		stripTagHashes,
		trimTrailing,
	},
	synthesize: legacyFrontmatter,
}

var policyAliases = map[string]Policy{
	PolicyCover:  Cover,
	"papermod":   Cover,
	PolicyLegacy: Legacy,
	"qubt":       Legacy,
}

// ParsePolicy looks a policy up by name or alias, case-insensitively.
func ParsePolicy(name string) (Policy, bool) {
	p, ok := policyAliases[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// PolicyNames returns every accepted policy name, sorted.
func PolicyNames() []string {
	out := make([]string, 0, len(policyAliases))
	for k := range policyAliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
