package pipeline

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
)

// TimeRange restricts output to one calendar month. The zero value keeps
// everything.
type TimeRange struct {
	Year  int
	Month int
}

// All reports whether the range is unrestricted.
func (r TimeRange) All() bool { return r.Year == 0 }

// String renders the range as it is written on the command line.
func (r TimeRange) String() string {
	if r.All() {
		return "all"
	}
	return strconv.Itoa(r.Year*100 + r.Month)
}

// Contains reports whether a local start falls inside the range.
func (r TimeRange) Contains(start model.Instant) bool {
	if r.All() {
		return true
	}
	t := start.Wall()
	return t.Year() == r.Year && int(t.Month()) == r.Month
}

var sixDigits = regexp.MustCompile(`\d{6}`)

// ParseTimeRange reads a RANGE argument.
//
// Accepted values:
//   - "0" or "all": no restriction
//   - "YYYYMM" with 2000 <= YYYY <= 2099 and 1 <= MM <= 12
//   - "guess": derived from output's file name
//   - "guessin": derived from input's file name
//
// A file name containing "all" means no restriction; otherwise the first
// run of six digits is used.
func ParseTimeRange(arg, input, output string) (TimeRange, error) {
	switch arg {
	case "all":
		return TimeRange{}, nil
	case "guess":
		return guessFromName(output)
	case "guessin":
		return guessFromName(input)
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return TimeRange{}, apperr.Configurationf("invalid time range %q", arg)
		}
	}
	r, ok := fromNumber(arg)
	if !ok {
		return TimeRange{}, apperr.Configurationf("invalid time range %q", arg)
	}
	return r, nil
}

func guessFromName(name string) (TimeRange, error) {
	base := filepath.Base(name)
	if strings.Contains(base, "all") {
		return TimeRange{}, nil
	}
	if r, ok := fromNumber(sixDigits.FindString(base)); ok {
		return r, nil
	}
	return TimeRange{}, apperr.Configurationf("cannot guess a time range from file name %q", name)
}

func fromNumber(s string) (TimeRange, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return TimeRange{}, false
	}
	if n == 0 {
		return TimeRange{}, true
	}
	y, m := n/100, n%100
	if y < 2000 || y >= 2100 || m < 1 || m > 12 {
		return TimeRange{}, false
	}
	return TimeRange{Year: y, Month: m}, true
}
