package validator

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff renders a line-oriented diff of two texts, prefixing removed
// lines with "-" and added lines with "+".
func lineDiff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// similarity returns the share of characters the two texts have in
// common, from 0 to 1.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	dmp := diffmatchpatch.New()
	var common, total int
	for _, d := range dmp.DiffMain(a, b, false) {
		total += len(d.Text)
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	if total == 0 {
		return 1
	}
	return float64(common) / float64(total)
}
