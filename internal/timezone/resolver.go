// Package timezone decides the single working zone of a document and
// renders instants as local date/time strings.
package timezone

import (
	"time"

	apperr "icsconv/internal/errors"
	appLog "icsconv/internal/log"
	"icsconv/internal/model"
)

// NamedZone is one VTIMEZONE declared by the document, in declaration order.
type NamedZone struct {
	Name     string
	Location *time.Location
}

// Resolver holds the working zone. A Resolver without a zone describes a
// floating-time document.
type Resolver struct {
	loc  *time.Location
	name string
}

// Resolve picks the working zone.
//
// Priority:
//   - override (a declared TZID first, then an IANA/Windows name); an
//     unusable override is a configuration error
//   - exactly one declared zone
//   - no declared zone: floating document
//   - several declared zones: the first one, with a warning
func Resolve(declared []NamedZone, override string) (*Resolver, error) {
	if override != "" {
		for _, z := range declared {
			if z.Name == override {
				appLog.Info("timezone override", "zone", override, "source", "vtimezone")
				return &Resolver{loc: z.Location, name: z.Name}, nil
			}
		}
		loc, err := LoadZone(override)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindConfiguration, "invalid timezone %q", override)
		}
		appLog.Info("timezone override", "zone", override, "source", "tzdata")
		return &Resolver{loc: loc, name: override}, nil
	}

	switch len(declared) {
	case 0:
		appLog.Info("no VTIMEZONE declared; floating time document")
		return &Resolver{}, nil
	case 1:
		return &Resolver{loc: declared[0].Location, name: declared[0].Name}, nil
	default:
		names := make([]string, 0, len(declared))
		for _, z := range declared {
			names = append(names, z.Name)
		}
		appLog.Warn("multiple VTIMEZONE declared; using the first", "zone", declared[0].Name, "declared", names)
		return &Resolver{loc: declared[0].Location, name: declared[0].Name}, nil
	}
}

// Fixed returns a Resolver bound to loc (nil means floating).
func Fixed(loc *time.Location) *Resolver {
	r := &Resolver{loc: loc}
	if loc != nil {
		r.name = loc.String()
	}
	return r
}

// Zone returns the working zone, if any.
func (r *Resolver) Zone() (*time.Location, bool) {
	return r.loc, r.loc != nil
}

// Name returns the zone name, empty for floating documents.
func (r *Resolver) Name() string { return r.name }

// ToLocal converts an aware instant to the working zone. Floating and
// date-only instants pass through.
func (r *Resolver) ToLocal(i model.Instant) (model.Instant, error) {
	if !i.IsAware() {
		return i, nil
	}
	if r.loc == nil {
		return i, apperr.ZoneResolutionf("aware time %s needs a working zone but the document declares none", i)
	}
	return i.In(r.loc), nil
}

// Coerce makes a floating or date-only instant aware in the working zone
// (date-only becomes 00:00:00). Without a zone, strict fails; otherwise
// date-only instants become floating 00:00:00 and floating ones stay as is.
func (r *Resolver) Coerce(i model.Instant, strict bool) (model.Instant, error) {
	if i.IsAware() {
		return i, nil
	}
	if r.loc == nil {
		if strict {
			return i, apperr.ZoneResolutionf("floating time %s must be made aware but no zone is resolvable", i)
		}
		return i.AtMidnight(), nil
	}
	return i.InZone(r.loc), nil
}
