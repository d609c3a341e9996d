package terminal

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffFrames returns a line diff between two renderings, with added lines
// prefixed by "+ " and removed lines by "- ". Unchanged lines are omitted.
// The result is empty when the renderings are equal.
func (c Config) DiffFrames(prev, next string) string {
	if prev == next {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(prev, next)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		var prefix string

		var col Color

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, col = "+ ", ColorGreen
		case diffmatchpatch.DiffDelete:
			prefix, col = "- ", ColorRed
		case diffmatchpatch.DiffEqual:
			continue
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(c.Colorize(prefix+strings.TrimSuffix(line, "\n"), col))
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
