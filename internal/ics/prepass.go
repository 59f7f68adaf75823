package ics

import (
	"bytes"
	"strings"

	apperr "icsconv/internal/errors"
	appLog "icsconv/internal/log"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a leading UTF-8 BOM and turns CRLF / CR into LF.
func Normalize(body []byte) string {
	body = bytes.TrimPrefix(body, utf8BOM)
	s := strings.ReplaceAll(string(body), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Prepare checks the component structure of a normalized document and, if
// repairExDates is set, rewrites date-only EXDATE lines that lack a VALUE
// parameter into "EXDATE;VALUE=DATE:..." so the parser accepts them.
//
// Structural failures:
//   - no BEGIN:VCALENDAR
//   - BEGIN:VEVENT inside a VEVENT
//   - END:VEVENT without BEGIN:VEVENT
//   - VEVENT not closed at end of input
func Prepare(text string, repairExDates bool) (string, error) {
	lines := strings.Split(text, "\n")

	inEvent := false
	sawCalendar := false
	repaired := 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		upper := strings.ToUpper(strings.TrimRight(line, " \t"))

		switch {
		case upper == "BEGIN:VCALENDAR":
			sawCalendar = true
			continue
		case upper == "BEGIN:VEVENT":
			if inEvent {
				return "", apperr.Structuralf("BEGIN:VEVENT at line %d inside another VEVENT", i+1)
			}
			inEvent = true
			continue
		case upper == "END:VEVENT":
			if !inEvent {
				return "", apperr.Structuralf("END:VEVENT at line %d without BEGIN:VEVENT", i+1)
			}
			inEvent = false
			continue
		}

		if !inEvent || !repairExDates || !strings.HasPrefix(upper, "EXDATE") {
			continue
		}

		// gather the folded continuation to see the whole value
		logical := line
		for j := i + 1; j < len(lines) && isContinuation(lines[j]); j++ {
			logical += lines[j][1:]
		}
		if fixed, ok := repairExDate(logical, line); ok {
			lines[i] = fixed
			repaired++
		}
	}

	if inEvent {
		return "", apperr.Structuralf("VEVENT not closed before end of input")
	}
	if !sawCalendar {
		return "", apperr.Structuralf("input has no BEGIN:VCALENDAR")
	}

	if repaired > 0 {
		appLog.Debug("exdate lines repaired", "count", repaired)
	}
	return strings.Join(lines, "\n"), nil
}

func isContinuation(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// repairExDate returns the rewritten first physical line when the logical
// EXDATE line is parameterless and carries no time component.
func repairExDate(logical, first string) (string, bool) {
	colon := strings.IndexByte(logical, ':')
	if colon < 0 {
		return "", false
	}
	name, value := logical[:colon], logical[colon+1:]
	if !strings.EqualFold(name, "EXDATE") {
		// parameters present (VALUE, TZID, ...): leave as written
		return "", false
	}
	if strings.ContainsAny(value, "Tt") {
		return "", false
	}
	return "EXDATE;VALUE=DATE" + first[len(name):], true
}
