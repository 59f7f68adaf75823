package format

import (
	"strings"
	"unicode"
)

// TeamsRedaction replaces a meeting-join footer.
const TeamsRedaction = "(REMOVE TEAMS INFOMATION)"

var teamsMarkers = []string{
	"Microsoft Teams ヘルプが必要ですか",
	strings.Repeat(".", 27),
	strings.Repeat("_", 27),
}

// scrubOptions are the independent description rewrites.
type scrubOptions struct {
	removeTeams  bool
	maxLines     int
	removeTailCR bool
}

// scrubDescription applies, in order: footer redaction, truncation to
// maxLines lines, trailing whitespace removal.
func scrubDescription(d string, o scrubOptions) string {
	if o.removeTeams {
		lines := splitLines(d)
		kept := make([]string, 0, len(lines))
		for _, l := range lines {
			if containsAny(l, teamsMarkers) {
				kept = append(kept, TeamsRedaction)
				break
			}
			kept = append(kept, l)
		}
		d = strings.Join(kept, "\n") + "\n"
	}

	if o.maxLines > 0 {
		lines := splitLines(d)
		if len(lines) > o.maxLines {
			lines = lines[:o.maxLines]
		}
		d = strings.Join(lines, "\n") + "\n"
	}

	if o.removeTailCR {
		d = strings.TrimRightFunc(d, unicode.IsSpace)
	}
	return d
}

// splitLines splits on "\n" without producing a final empty line for a
// trailing newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
