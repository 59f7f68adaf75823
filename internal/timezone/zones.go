package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// windowsZones maps common Windows zone names found in Outlook exports.
var windowsZones = map[string]string{
	"Tokyo Standard Time":            "Asia/Tokyo",
	"Korea Standard Time":            "Asia/Seoul",
	"China Standard Time":            "Asia/Shanghai",
	"Taipei Standard Time":           "Asia/Taipei",
	"Singapore Standard Time":        "Asia/Singapore",
	"India Standard Time":            "Asia/Kolkata",
	"UTC":                            "UTC",
	"GMT Standard Time":              "Europe/London",
	"W. Europe Standard Time":        "Europe/Berlin",
	"Romance Standard Time":          "Europe/Paris",
	"Eastern Standard Time":          "America/New_York",
	"Central Standard Time":          "America/Chicago",
	"Mountain Standard Time":         "America/Denver",
	"Pacific Standard Time":          "America/Los_Angeles",
	"AUS Eastern Standard Time":      "Australia/Sydney",
	"Hawaiian Standard Time":         "Pacific/Honolulu",
	"Alaskan Standard Time":          "America/Anchorage",
	"E. South America Standard Time": "America/Sao_Paulo",
}

// LoadZone loads an IANA zone or a known Windows zone name.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("empty zone name")
	}
	if iana, ok := windowsZones[name]; ok {
		return time.LoadLocation(iana)
	}
	return time.LoadLocation(name)
}

// ParseOffset parses a UTC offset such as "+0900" or "-053000".
func ParseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 && len(s) != 7 {
		return 0, fmt.Errorf("invalid UTC offset %q", s)
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("invalid UTC offset %q", s)
	}
	digits := s[1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid UTC offset %q", s)
		}
	}
	hh := int(digits[0]-'0')*10 + int(digits[1]-'0')
	mm := int(digits[2]-'0')*10 + int(digits[3]-'0')
	ss := 0
	if len(digits) == 6 {
		ss = int(digits[4]-'0')*10 + int(digits[5]-'0')
	}
	return sign * (hh*3600 + mm*60 + ss), nil
}
