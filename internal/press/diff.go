package press

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const diffContext = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// Diff renders a line diff between two texts: removed lines start with "-",
// added lines with "+", and unchanged lines near a change with a space.
// Runs of unchanged lines further away collapse into "...". Equal inputs
// give an empty string.
func Diff(from, to string) string {
	if from == to {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var all []diffLine
	for _, d := range diffs {
		for _, l := range splitLines(d.Text) {
			all = append(all, diffLine{op: d.Type, text: l})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := max(0, i-diffContext); j <= min(len(all)-1, i+diffContext); j++ {
			keep[j] = true
		}
	}

	var out strings.Builder
	last := -1
	for i, l := range all {
		if !keep[i] {
			continue
		}
		if i != last+1 {
			out.WriteString("...\n")
		}
		switch l.op {
		case diffmatchpatch.DiffDelete:
			out.WriteByte('-')
		case diffmatchpatch.DiffInsert:
			out.WriteByte('+')
		default:
			out.WriteByte(' ')
		}
		out.WriteString(l.text)
		out.WriteByte('\n')
		last = i
	}
	if last != len(all)-1 {
		out.WriteString("...\n")
	}
	return out.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
