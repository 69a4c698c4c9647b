package press

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"

	"github.com/starford/vaultpress/internal/apperr"
	"github.com/starford/vaultpress/internal/checksum"
	"github.com/starford/vaultpress/internal/convert"
	"github.com/starford/vaultpress/internal/models"
	"github.com/starford/vaultpress/internal/vault"
)

// PublishRequest describes one note to publish. Either Input names a note
// file, or Text carries its content with Filename used for the title
// fallback.
type PublishRequest struct {
	Input    string
	Text     string
	Filename string
	Slug     string
	Policy   string
	// Feature holds 1-based positions of body images that are feature
	// images. Only the legacy policy separates them.
	Feature []int
	// Pick asks the configured FeaturePicker instead of using Feature.
	Pick bool
	// SkipUnchanged returns early when the ledger already holds this exact
	// input under the same policy.
	SkipUnchanged bool
	DryRun        bool
	Force         bool
}

// Report is the outcome of a publish.
type Report struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Policy    string   `json:"policy"`
	IndexPath string   `json:"index_path"`
	Text      string   `json:"text,omitempty"`
	Diff      string   `json:"diff,omitempty"`
	Images    []string `json:"images,omitempty"`
	Copied    []string `json:"copied,omitempty"`
	Missing   []string `json:"missing,omitempty"`
	Skipped   []string `json:"skipped,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Unchanged bool     `json:"unchanged,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

// Publish converts a note and places it in its page bundle.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (*Report, error) {
	policy, err := s.policy(req.Policy)
	if err != nil {
		return nil, err
	}

	text, filename, source, err := s.readInput(req)
	if err != nil {
		return nil, err
	}
	sum := checksum.Keyed([]byte(text), policy.Name)

	if req.SkipUnchanged && !req.Force {
		prev, err := s.ledger.GetChecksum(source)
		if err != nil {
			return nil, err
		}
		if prev == sum {
			s.log.Debug("press: input unchanged", slog.String("source", source))
			return &Report{Policy: policy.Name, Unchanged: true}, nil
		}
	}

	conv := s.converter(policy)
	in := convert.Input{Text: text, Filename: filename, Now: s.now()}
	in.Slug, err = resolveSlug(req.Slug, conv.Title(in), filename)
	if err != nil {
		return nil, err
	}
	postSlug := in.Slug

	res := conv.Convert(in)

	indexPath := s.layout.IndexPath(postSlug)
	rep := &Report{
		Slug:      postSlug,
		Title:     res.Title,
		Policy:    policy.Name,
		IndexPath: indexPath,
		Images:    append(append([]string(nil), res.Images...), res.CoverImages...),
		DryRun:    req.DryRun,
	}
	if err := checkFrontmatter(res.Frontmatter); err != nil {
		rep.Warnings = append(rep.Warnings, err.Error())
	}

	if req.DryRun {
		old, err := s.readExisting(indexPath)
		if err != nil {
			return nil, err
		}
		rep.Text = res.Text
		rep.Diff = Diff(old, res.Text)
		return rep, nil
	}

	if !req.Force {
		if err := s.checkOwner(postSlug, source, indexPath); err != nil {
			return nil, err
		}
	}

	features, err := s.features(req, policy, res.Images)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.site.Write(indexPath, []byte(res.Text)); err != nil {
		return nil, fmt.Errorf("press: write bundle: %w", err)
	}

	placements := s.place(policy, postSlug, res, features)
	s.copyImages(ctx, placements, rep)

	err = s.ledger.UpsertPost(models.Post{
		Slug:        postSlug,
		Source:      source,
		Title:       res.Title,
		Policy:      policy.Name,
		Checksum:    sum,
		Images:      rep.Copied,
		ConvertedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("press: published",
		slog.String("slug", postSlug),
		slog.String("policy", policy.Name),
		slog.Int("copied", len(rep.Copied)),
		slog.Int("missing", len(rep.Missing)))
	s.emit(EventConverted, postSlug)
	return rep, nil
}

func (s *Service) policy(name string) (convert.Policy, error) {
	if name == "" {
		name = s.layout.Policy
	}
	p, ok := convert.ParsePolicy(name)
	if !ok {
		return convert.Policy{}, fmt.Errorf("press: %q: %w", name, apperr.ErrUnknownPolicy)
	}
	return p, nil
}

// readInput returns the note text, the file name used for title fallback,
// and the source identity recorded in the ledger.
func (s *Service) readInput(req PublishRequest) (text, filename, source string, err error) {
	if req.Input == "" {
		filename = req.Filename
		if filename == "" {
			filename = "untitled.md"
		}
		return req.Text, filename, "inline:" + filepath.Base(filename), nil
	}
	abs, err := filepath.Abs(req.Input)
	if err != nil {
		return "", "", "", fmt.Errorf("press: resolve input: %w", err)
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", "", "", fmt.Errorf("press: input %s: %w", req.Input, apperr.ErrNotFound)
	}
	if err != nil {
		return "", "", "", fmt.Errorf("press: read input: %w", err)
	}
	return string(data), filepath.Base(abs), abs, nil
}

func (s *Service) readExisting(p string) (string, error) {
	ok, err := s.site.Exists(p)
	if err != nil || !ok {
		return "", err
	}
	data, err := s.site.Read(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// checkOwner refuses to overwrite a bundle that was published from another
// note, or written by hand.
func (s *Service) checkOwner(postSlug, source, indexPath string) error {
	post, err := s.ledger.GetPost(postSlug)
	if err == nil {
		if post.Source != source {
			return fmt.Errorf("press: %s was published from %s: %w", postSlug, post.Source, apperr.ErrAlreadyExists)
		}
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	exists, err := s.site.Exists(indexPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("press: %s exists and is not tracked: %w", indexPath, apperr.ErrAlreadyExists)
	}
	return nil
}

func (s *Service) features(req PublishRequest, policy convert.Policy, images []string) ([]int, error) {
	if policy.Name != convert.PolicyLegacy || len(images) == 0 {
		return nil, nil
	}
	picked := req.Feature
	if req.Pick && s.picker != nil {
		var err error
		picked, err = s.picker.PickFeatures(images)
		if err != nil {
			return nil, fmt.Errorf("press: pick features: %w", err)
		}
	}
	for _, n := range picked {
		if n < 1 || n > len(images) {
			return nil, fmt.Errorf("press: feature image %d out of range 1..%d", n, len(images))
		}
	}
	return picked, nil
}

type placement struct {
	ref string
	dst string
}

// place decides where each referenced image goes. The cover policy keeps
// every image in the bundle. The legacy policy puts feature images and
// frontmatter images under the assets directory.
func (s *Service) place(policy convert.Policy, postSlug string, res convert.Result, features []int) []placement {
	bundle := s.layout.BundleDir(postSlug)
	assets := s.layout.AssetDir(postSlug)
	legacy := policy.Name == convert.PolicyLegacy

	isFeature := make(map[string]bool)
	for _, n := range features {
		isFeature[res.Images[n-1]] = true
	}

	var out []placement
	for _, ref := range res.Images {
		dir := bundle
		if legacy && isFeature[ref] {
			dir = assets
		}
		out = append(out, placement{ref: ref, dst: dir})
	}
	for _, ref := range res.CoverImages {
		dir := bundle
		if legacy {
			dir = assets
		}
		out = append(out, placement{ref: ref, dst: dir})
	}
	return out
}

func (s *Service) copyImages(ctx context.Context, placements []placement, rep *Report) {
	done := make(map[string]bool)
	for _, p := range placements {
		if ctx.Err() != nil {
			return
		}
		if vault.IsRemote(p.ref) {
			rep.Skipped = append(rep.Skipped, p.ref)
			continue
		}
		rel, ok := bundleRelative(p.ref)
		if !ok {
			rep.Skipped = append(rep.Skipped, p.ref)
			continue
		}
		dst := path.Join(p.dst, rel)
		if done[dst] {
			continue
		}
		if s.vault == nil {
			rep.Missing = append(rep.Missing, p.ref)
			continue
		}
		src, err := s.vault.Locate(p.ref)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				s.log.Warn("press: locate failed", slog.String("ref", p.ref), slog.String("error", err.Error()))
			}
			rep.Missing = append(rep.Missing, p.ref)
			continue
		}
		if err := s.site.Copy(src, dst); err != nil {
			s.log.Warn("press: copy failed", slog.String("ref", p.ref), slog.String("error", err.Error()))
			rep.Missing = append(rep.Missing, p.ref)
			continue
		}
		done[dst] = true
		rep.Copied = append(rep.Copied, dst)
	}
}

// bundleRelative cleans an image reference into a path that stays inside
// the directory it is copied to.
func bundleRelative(ref string) (string, bool) {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	p := path.Clean(filepath.ToSlash(strings.TrimSpace(ref)))
	if p == "." || p == ".." || path.IsAbs(p) || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

// resolveSlug normalizes an explicit slug, or derives one from the title
// and then the file name.
func resolveSlug(explicit, title, filename string) (string, error) {
	if explicit != "" {
		out, err := slug.Normalize(explicit)
		if err != nil || out == "" {
			return "", fmt.Errorf("press: slug %q: %w", explicit, apperr.ErrInvalidSlug)
		}
		return out, nil
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	for _, candidate := range []string{title, stem} {
		if out, err := slug.Normalize(candidate); err == nil && out != "" {
			return out, nil
		}
	}
	return "", fmt.Errorf("press: no slug for %q: %w", filename, apperr.ErrInvalidSlug)
}

// checkFrontmatter reports frontmatter that a YAML reader would reject.
func checkFrontmatter(fm string) error {
	var v map[string]any
	if err := yaml.Unmarshal([]byte(fm), &v); err != nil {
		return fmt.Errorf("frontmatter is not valid YAML: %w", err)
	}
	return nil
}

// ParseFeatures reads a comma separated list of 1-based image positions,
// as given on the command line ("1,3").
func ParseFeatures(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("press: feature %q is not a positive number", field)
		}
		out = append(out, n)
	}
	return out, nil
}
