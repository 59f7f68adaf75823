package format

import (
	"regexp"
	"strings"
	"unicode"

	apperr "icsconv/internal/errors"
)

// DefaultSummaryHeads are the category labels a summary may start with.
var DefaultSummaryHeads = []string{"出張", "往訪", "来訪", "会議", "休み"}

// ExtendedSummaryHeads are added by extend_summary_head.
const ExtendedSummaryHeads = "TODO,MEMO,授業,講義,実験,移動,TEST"

const badLabelChars = `\/[]<>?"'*-@{}`

var labelSeparators = regexp.MustCompile(`[,:]`)

// ParseSummaryHeads splits a comma or colon separated label list. Labels
// must be printable without whitespace or any of \ / [ ] < > ? " ' * - @ { },
// and "Hidden" is reserved.
func ParseSummaryHeads(s string) ([]string, error) {
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			return nil, apperr.Configurationf("summary head %q contains whitespace", s)
		case !unicode.IsPrint(r):
			return nil, apperr.Configurationf("summary head %q contains a control character", s)
		case strings.ContainsRune(badLabelChars, r):
			return nil, apperr.Configurationf("summary head %q contains %q", s, r)
		}
	}
	var out []string
	for _, l := range labelSeparators.Split(s, -1) {
		if l == "" {
			continue
		}
		if l == "Hidden" {
			return nil, apperr.Configurationf("summary head %q is reserved", l)
		}
		out = append(out, l)
	}
	return out, nil
}

// splitSummary splits "label:body" when label is a known head. The ASCII
// colon is tried first, then the full-width one; only the first colon of
// each kind counts.
func splitSummary(summary string, heads map[string]bool) (head, body string) {
	for _, sep := range []string{":", "："} {
		l, r, ok := strings.Cut(summary, sep)
		if !ok {
			continue
		}
		l = strings.TrimSpace(l)
		if heads[l] {
			return l, strings.TrimSpace(r)
		}
	}
	return "", summary
}
