package convert

import "time"

// Converter turns one note into a theme-conformant post under a Policy.
type Converter struct {
	Policy  Policy
	Author  string
	BaseURL string
	Section string
}

// Input is the raw note handed to Convert.
type Input struct {
	Text     string
	Filename string
	// Slug is only written into legacy synthesized frontmatter.
	Slug string
	Now  time.Time
}

// Result is the converted post.
type Result struct {
	Text           string
	Title          string
	HadFrontmatter bool
	Frontmatter    string
	// Images are the body image references in order of appearance.
	Images []string
	// CoverImages are image references held in frontmatter fields.
	CoverImages []string
}

// Title returns the title Convert resolves for in.
func (c Converter) Title(in Input) string {
	return ResolveTitle(Split(NormalizeNewlines(in.Text)), in.Filename)
}

// Convert applies the policy to in. Running it on its own output returns
// that output unchanged. Frontmatter that normalizes to nothing is replaced
// by a synthesized block, so a post never loses its frontmatter.
func (c Converter) Convert(in Input) Result {
	doc := Split(NormalizeNewlines(in.Text))
	title := ResolveTitle(doc, in.Filename)

	out := Document{HasFrontmatter: true}
	if doc.HasFrontmatter {
		out.Frontmatter = c.Policy.Normalizer.Normalize(doc.Frontmatter)
	}
	if out.Frontmatter != "" {
		out.Body = ResolveEmbeds(doc.Body)
	} else {
		out.Frontmatter = c.Policy.Synthesize(Meta{
			Title:   title,
			Date:    in.Now,
			Author:  c.Author,
			Slug:    in.Slug,
			BaseURL: c.BaseURL,
			Section: c.Section,
		})
		out.Body = "\n" + ResolveEmbeds(doc.Body)
	}

	return Result{
		Text:           Assemble(out),
		Title:          title,
		HadFrontmatter: doc.HasFrontmatter,
		Frontmatter:    out.Frontmatter,
		Images:         ExtractImages(out.Body),
		CoverImages:    FrontmatterImages(out.Frontmatter),
	}
}
