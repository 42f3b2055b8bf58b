package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// UnifiedDiff renders a plain line-oriented diff of the files that differ
// between before and after. Unchanged files are omitted and changed files
// appear in sorted path order, so the same edit always produces the same
// diff text.
func UnifiedDiff(before, after map[string]string) string {
	paths := make(map[string]bool)
	for p := range before {
		paths[p] = true
	}
	for p := range after {
		paths[p] = true
	}
	var sorted []string
	for p := range paths {
		if before[p] != after[p] {
			sorted = append(sorted, p)
		}
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, p := range sorted {
		old, hadOld := before[p]
		cur, hasNew := after[p]
		switch {
		case !hadOld:
			fmt.Fprintf(&b, "--- /dev/null\n+++ %s\n", p)
		case !hasNew:
			fmt.Fprintf(&b, "--- %s\n+++ /dev/null\n", p)
		default:
			fmt.Fprintf(&b, "--- %s\n+++ %s\n", p, p)
		}
		b.WriteString(diffLines(old, cur))
	}
	return b.String()
}

func diffLines(old, cur string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, cur)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitKeepNonEmpty(d.Text) {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return out.String()
}

func splitKeepNonEmpty(text string) []string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}
