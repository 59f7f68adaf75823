package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/sosodev/duration"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

// zoneTable resolves TZID parameters: VTIMEZONEs of the document first,
// then tzdata.
type zoneTable map[string]*time.Location

func (z zoneTable) lookup(tzid string) (*time.Location, error) {
	if loc, ok := z[tzid]; ok {
		return loc, nil
	}
	loc, err := timezone.LoadZone(tzid)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.KindStructural, "unknown TZID %q", tzid)
	}
	z[tzid] = loc
	return loc, nil
}

// param returns the first value of a property parameter, matching the
// name case-insensitively.
func param(p *ical.IANAProperty, name ical.Parameter) string {
	for k, vs := range p.ICalParameters {
		if strings.EqualFold(k, string(name)) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// timeValues parses a DATE / DATE-TIME property, which may hold a
// comma-separated list (EXDATE, RDATE).
func (z zoneTable) timeValues(p *ical.IANAProperty) ([]model.Instant, error) {
	var out []model.Instant
	for _, part := range strings.Split(p.Value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		in, err := z.timeValue(part, param(p, ical.ParameterValue), param(p, ical.ParameterTzid))
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindStructural, "%s", p.IANAToken)
		}
		out = append(out, in)
	}
	return out, nil
}

// timeValue parses one value. A date-only value must be declared with
// VALUE=DATE; Prepare adds the parameter to EXDATE lines that omit it.
func (z zoneTable) timeValue(v, valueType, tzid string) (model.Instant, error) {
	if !strings.EqualFold(valueType, "DATE") && !strings.ContainsAny(v, "Tt") {
		return model.Instant{}, apperr.Structuralf("date value %q without VALUE=DATE", v)
	}
	if strings.EqualFold(valueType, "DATE") {
		t, err := time.Parse("20060102", v)
		if err != nil {
			return model.Instant{}, apperr.Wrapf(err, apperr.KindStructural, "invalid date %q", v)
		}
		return model.Date(t.Year(), t.Month(), t.Day()), nil
	}

	v = strings.ToUpper(v)
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return model.Instant{}, apperr.Wrapf(err, apperr.KindStructural, "invalid UTC date-time %q", v)
		}
		return model.Aware(t), nil
	}

	const layout = "20060102T150405"
	if tzid != "" {
		loc, err := z.lookup(tzid)
		if err != nil {
			return model.Instant{}, err
		}
		t, err := time.ParseInLocation(layout, v, loc)
		if err != nil {
			return model.Instant{}, apperr.Wrapf(err, apperr.KindStructural, "invalid date-time %q", v)
		}
		return model.Aware(t), nil
	}

	t, err := time.Parse(layout, v)
	if err != nil {
		return model.Instant{}, apperr.Wrapf(err, apperr.KindStructural, "invalid date-time %q", v)
	}
	return model.Floating(t), nil
}

// parseDuration parses an RFC5545 DURATION such as "PT1H30M", "P1D" or
// "-P2W". Years and months are not valid in RFC5545 and are rejected.
func parseDuration(s string) (time.Duration, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(v, "-"):
		sign = -1
		v = v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") {
		return 0, apperr.Structuralf("invalid DURATION %q", s)
	}

	d, err := duration.Parse(v)
	if err != nil {
		return 0, apperr.Wrapf(err, apperr.KindStructural, "invalid DURATION %q", s)
	}
	if d.Years != 0 || d.Months != 0 {
		return 0, apperr.Structuralf("DURATION %q uses years or months", s)
	}
	return sign * d.ToTimeDuration(), nil
}
