// Package console prints human-readable command results.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/vaultpress/internal/models"
	"github.com/starford/vaultpress/internal/press"
)

// Reporter writes styled results to a terminal or plain text elsewhere.
type Reporter struct {
	w io.Writer

	ok    lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
	title lipgloss.Style
	add   lipgloss.Style
	del   lipgloss.Style
}

// New creates a reporter. Colors are used only when w is a terminal.
func New(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:     w,
		ok:    r.NewStyle().Foreground(lipgloss.Color("10")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("8")),
		title: r.NewStyle().Bold(true),
		add:   r.NewStyle().Foreground(lipgloss.Color("10")),
		del:   r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// Publish prints the outcome of one conversion.
func (r *Reporter) Publish(rep *press.Report) {
	if rep.Unchanged {
		r.printf("%s unchanged since last conversion\n", r.dim.Render("="))
		return
	}
	if rep.DryRun {
		r.printf("%s %s (dry run, %s policy)\n", r.title.Render("Would write"), rep.IndexPath, rep.Policy)
		r.Diff(rep.Diff)
		r.list("Images", rep.Images, r.dim, "•")
		r.list("Warnings", rep.Warnings, r.warn, "!")
		return
	}

	r.printf("%s %s %s\n", r.ok.Render("✓"), r.title.Render(rep.Title), r.dim.Render("("+rep.Policy+")"))
	r.printf("  %s\n", rep.IndexPath)
	r.list("Copied", rep.Copied, r.ok, "✓")
	r.list("Not found in vault", rep.Missing, r.fail, "✗")
	r.list("Skipped", rep.Skipped, r.dim, "-")
	r.list("Warnings", rep.Warnings, r.warn, "!")
	if len(rep.Missing) > 0 {
		r.printf("\n%s copy the missing images into the bundle by hand.\n", r.warn.Render("Next:"))
	}
	r.printf("%s set draft: false when the post is ready.\n", r.dim.Render("Tip:"))
}

// Migrate prints a migration summary, with per-file diffs on dry runs.
func (r *Reporter) Migrate(rep *press.MigrateReport) {
	for _, o := range rep.Outcomes {
		switch o.Status {
		case press.StatusConverted:
			r.printf("%s %s\n", r.ok.Render("✓"), o.Path)
			if rep.DryRun {
				r.Diff(o.Diff)
			}
		case press.StatusFailed:
			r.printf("%s %s: %s\n", r.fail.Render("✗"), o.Path, o.Error)
		case press.StatusNoFrontmatter:
			r.printf("%s %s %s\n", r.dim.Render("-"), o.Path, r.dim.Render("(no frontmatter)"))
		}
	}
	verb := "Converted"
	if rep.DryRun {
		verb = "Would convert"
	}
	r.printf("\n%s %d, unchanged %d, skipped %d, failed %d\n",
		r.title.Render(verb), rep.Converted, rep.Unchanged, rep.Skipped, rep.Failed)
}

// Posts prints a page of ledger records.
func (r *Reporter) Posts(posts []models.Post, total int) {
	if len(posts) == 0 {
		r.printf("%s\n", r.dim.Render("no posts"))
		return
	}
	width := 0
	for _, p := range posts {
		width = max(width, len(p.Slug))
	}
	for _, p := range posts {
		r.printf("%-*s  %s  %s  %s\n", width, p.Slug,
			p.ConvertedAt.Format("2006-01-02 15:04"),
			r.dim.Render(p.Policy)+strings.Repeat(" ", max(0, 6-len(p.Policy))),
			p.Title)
	}
	if total > len(posts) {
		r.printf("%s\n", r.dim.Render(fmt.Sprintf("%d of %d shown", len(posts), total)))
	}
}

// Runs prints batch run history.
func (r *Reporter) Runs(runs []models.Run) {
	if len(runs) == 0 {
		r.printf("%s\n", r.dim.Render("no runs"))
		return
	}
	for _, run := range runs {
		state := r.ok.Render("done")
		if run.FinishedAt.IsZero() {
			state = r.warn.Render("open")
		}
		r.printf("%s  %s  %s  converted %d, skipped %d, failed %d  %s\n",
			run.StartedAt.Format("2006-01-02 15:04"), state, run.Command,
			run.Converted, run.Skipped, run.Failed, r.dim.Render(run.ID))
	}
}

// Diff prints a diff produced by press.Diff with added and removed lines
// colored.
func (r *Reporter) Diff(diff string) {
	if diff == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			line = r.add.Render(line)
		case strings.HasPrefix(line, "-"):
			line = r.del.Render(line)
		case line == "...":
			line = r.dim.Render(line)
		}
		r.printf("    %s\n", line)
	}
}

// Error prints a failure.
func (r *Reporter) Error(err error) {
	r.printf("%s %v\n", r.fail.Render("✗"), err)
}

func (r *Reporter) list(label string, items []string, style lipgloss.Style, mark string) {
	if len(items) == 0 {
		return
	}
	r.printf("  %s (%d):\n", label, len(items))
	for _, it := range items {
		r.printf("    %s %s\n", style.Render(mark), it)
	}
}
