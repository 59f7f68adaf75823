package format

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
)

var (
	regnumMarker = regexp.MustCompile(`[ｇg%％]([0-9０-９]{1,4})[　 \t]*$`)

	numberOnly    = regexp.MustCompile(`^[　 \t]*[0-9０-９]{1,4}[　 \t\n]*$`)
	blankOnly     = regexp.MustCompile(`^[　 \t\r\n]*$`)
	leadingNumber = regexp.MustCompile(`^[　 \t]*[0-9０-９]{1,4}[　 \t]*\n`)
	numberPrefix  = regexp.MustCompile(`^[　 \t]*[0-9０-９]{1,4}[　 \t]*`)
	leadingBlank  = regexp.MustCompile(`^[　 \t]*\n`)
	blankPrefix   = regexp.MustCompile(`^[　 \t]*`)
	urgencyLine   = regexp.MustCompile(`^[　 \t]*([可急])[　 \t]*$`)
)

// regnumShape is the layout of a description before a registration number
// is written into it.
type regnumShape int

const (
	// shapeReplace: blank, "(N/A)…" or just a number; becomes the number.
	shapeReplace regnumShape = iota
	// shapeNumberLine: first line is a number; it is replaced.
	shapeNumberLine
	// shapeBlankLine: first line is blank; the number is written into it.
	shapeBlankLine
	// shapeUrgency: first line is 可 or 急; the number goes above it.
	shapeUrgency
	// shapeOther: the number and an empty line go above the text.
	shapeOther
)

func classifyDescription(d string) regnumShape {
	switch {
	case numberOnly.MatchString(d), strings.HasPrefix(d, model.NotAvailableText), blankOnly.MatchString(d):
		return shapeReplace
	case leadingNumber.MatchString(d):
		return shapeNumberLine
	case leadingBlank.MatchString(d):
		return shapeBlankLine
	}
	if lines := splitLines(d); len(lines) > 0 && urgencyLine.MatchString(lines[0]) {
		return shapeUrgency
	}
	return shapeOther
}

// registrationNumber extracts the number that ends summary ("…g123",
// "…％０４２"), without leading zeros.
func registrationNumber(summary string) (string, bool) {
	m := regnumMarker.FindStringSubmatch(summary)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(width.Narrow.String(m[1]))
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

// injectRegistrationNumber writes the registration number found at the end
// of summary into description. ok is false when summary carries none, in
// which case the description must be left alone.
func injectRegistrationNumber(description, summary string) (out string, ok bool, err error) {
	num, ok := registrationNumber(summary)
	if !ok {
		return description, false, nil
	}
	if strings.Contains(description, "\r") {
		return "", false, apperr.Structuralf("description contains a carriage return")
	}

	switch classifyDescription(description) {
	case shapeReplace:
		return num, true, nil
	case shapeNumberLine:
		return numberPrefix.ReplaceAllLiteralString(description, num), true, nil
	case shapeBlankLine:
		return blankPrefix.ReplaceAllLiteralString(description, num), true, nil
	case shapeUrgency:
		lines := splitLines(description)
		lines[0] = urgencyLine.FindStringSubmatch(lines[0])[1]
		return num + "\n" + strings.Join(lines, "\n") + "\n", true, nil
	default:
		return num + "\n\n" + description, true, nil
	}
}
