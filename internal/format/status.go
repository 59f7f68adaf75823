package format

import (
	"strconv"
	"strings"

	apperr "icsconv/internal/errors"
)

// busyCodes maps X-MICROSOFT-CDO-BUSYSTATUS to the Outlook import code.
var busyCodes = map[string]int{
	"WORKINGELSEWHERE": 0,
	"TENTATIVE":        1,
	"BUSY":             2,
	"FREE":             3,
	"OOF":              4,
}

func busyCode(status string) (string, error) {
	code, ok := busyCodes[strings.ToUpper(strings.TrimSpace(status))]
	if !ok {
		return "", apperr.Structuralf("unknown X-MICROSOFT-CDO-BUSYSTATUS %q", status)
	}
	return strconv.Itoa(code), nil
}
