package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(indent, width int, str string) string {
	if width == 0 {
		return str
	}
	limit := width - 5
	if limit <= indent {
		limit = width
	}
	prefix := strings.Repeat(" ", indent)

	var ret strings.Builder
	for lineNum, line := range strings.Split(str, "\n") {
		if lineNum > 0 {
			ret.WriteString("\n")
			if line != "" {
				ret.WriteString(prefix)
			}
		}
		// Split on single spaces; an empty word stands for each run of
		// extra whitespace (e.g. double-spaces after sentences), so
		// that intra-line spacing survives wrapping.
		cur := ""
		for _, word := range strings.Split(line, " ") {
			switch {
			case cur == "":
				cur = word
			case indent+len(cur)+1+len(word) >= limit:
				ret.WriteString(strings.TrimRight(cur, " "))
				ret.WriteString("\n")
				ret.WriteString(prefix)
				cur = word
			default:
				cur += " " + word
			}
		}
		ret.WriteString(cur)
	}
	return ret.String()
}
