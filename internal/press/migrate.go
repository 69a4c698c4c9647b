package press

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultpress/internal/convert"
)

// Migration outcome statuses.
const (
	StatusConverted     = "converted"
	StatusUnchanged     = "unchanged"
	StatusNoFrontmatter = "no-frontmatter"
	StatusFailed        = "failed"
)

const defaultWorkers = 4

// MigrateRequest selects the bundles to rewrite.
type MigrateRequest struct {
	// Pattern is a doublestar pattern relative to the site root. Empty
	// means every bundle of the configured section.
	Pattern string
	// Policy defaults to the cover policy.
	Policy  string
	DryRun  bool
	Workers int
}

// MigrateOutcome is what happened to one bundle.
type MigrateOutcome struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Diff   string `json:"diff,omitempty"`
	Error  string `json:"error,omitempty"`
}

// MigrateReport summarizes a migration.
type MigrateReport struct {
	RunID     string           `json:"run_id"`
	Policy    string           `json:"policy"`
	DryRun    bool             `json:"dry_run"`
	Outcomes  []MigrateOutcome `json:"outcomes"`
	Converted int              `json:"converted"`
	Unchanged int              `json:"unchanged"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
}

// Migrate re-normalizes the frontmatter of existing bundles. Files are
// independent, so they are processed in parallel. A failure on one file is
// recorded in its outcome and does not stop the others.
func (s *Service) Migrate(ctx context.Context, req MigrateRequest) (*MigrateReport, error) {
	if req.Policy == "" {
		req.Policy = convert.PolicyCover
	}
	policy, err := s.policy(req.Policy)
	if err != nil {
		return nil, err
	}
	pattern := req.Pattern
	if pattern == "" {
		pattern = s.layout.BundlePattern()
	}
	files, err := s.site.Glob(pattern)
	if err != nil {
		return nil, err
	}

	command := "migrate"
	if req.DryRun {
		command = "migrate --dry-run"
	}
	run, err := s.ledger.StartRun(command)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	outcomes := make([]MigrateOutcome, len(files))
	conv := s.converter(policy)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.migrateOne(conv, f.Path, req.DryRun)
			return nil
		})
	}
	waitErr := g.Wait()

	rep := &MigrateReport{RunID: run.ID, Policy: policy.Name, DryRun: req.DryRun, Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case StatusConverted:
			rep.Converted++
		case StatusUnchanged:
			rep.Unchanged++
		case StatusNoFrontmatter:
			rep.Skipped++
		case StatusFailed:
			rep.Failed++
		}
	}

	run.Converted, run.Skipped, run.Failed = rep.Converted, rep.Skipped+rep.Unchanged, rep.Failed
	if err := s.ledger.FinishRun(run); err != nil {
		s.log.Warn("press: finish run failed", slog.String("run", run.ID), slog.String("error", err.Error()))
	}
	if waitErr != nil {
		return rep, fmt.Errorf("press: migrate: %w", waitErr)
	}

	s.log.Info("press: migrated",
		slog.String("run", run.ID),
		slog.Int("converted", rep.Converted),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("skipped", rep.Skipped),
		slog.Int("failed", rep.Failed))
	return rep, nil
}

func (s *Service) migrateOne(conv convert.Converter, p string, dryRun bool) MigrateOutcome {
	out := MigrateOutcome{Path: p}
	data, err := s.site.Read(p)
	if err != nil {
		out.Status, out.Error = StatusFailed, err.Error()
		return out
	}
	old := string(data)
	postSlug := path.Base(path.Dir(p))
	res := conv.Convert(convert.Input{Text: old, Filename: postSlug + ".md", Slug: postSlug, Now: s.now()})
	if !res.HadFrontmatter {
		out.Status = StatusNoFrontmatter
		return out
	}
	if res.Text == old {
		out.Status = StatusUnchanged
		return out
	}
	out.Status = StatusConverted
	if dryRun {
		out.Diff = Diff(old, res.Text)
		return out
	}
	if err := s.site.Write(p, []byte(res.Text)); err != nil {
		out.Status, out.Error = StatusFailed, err.Error()
		return out
	}
	s.emit(EventMigrated, postSlug)
	return out
}
