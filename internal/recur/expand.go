// Package recur expands RRULE series into concrete occurrences.
package recur

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	apperr "icsconv/internal/errors"
	appLog "icsconv/internal/log"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

// DefaultMaxOccurrences caps the expansion of a truncated unbounded rule.
const DefaultMaxOccurrences = 5000

// UnboundedPolicy decides what happens to a rule with neither COUNT nor UNTIL.
type UnboundedPolicy int

const (
	// UnboundedReject fails the run with a structural error.
	UnboundedReject UnboundedPolicy = iota
	// UnboundedTruncate keeps the first MaxOccurrences occurrences.
	UnboundedTruncate
)

// ParseUnboundedPolicy maps "reject" / "truncate" (empty means reject).
func ParseUnboundedPolicy(s string) (UnboundedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return UnboundedReject, nil
	case "truncate":
		return UnboundedTruncate, nil
	default:
		return UnboundedReject, apperr.Configurationf("unknown unbounded recurrence policy %q", s)
	}
}

func (p UnboundedPolicy) String() string {
	if p == UnboundedTruncate {
		return "truncate"
	}
	return "reject"
}

// Config controls expansion.
type Config struct {
	Unbounded UnboundedPolicy

	// MaxOccurrences applies to UnboundedTruncate. If zero,
	// DefaultMaxOccurrences is used.
	MaxOccurrences int

	// DisableAwareFix turns off the promotion of a floating DTSTART/DTEND
	// to the working zone when the rule's UNTIL is UTC.
	DisableAwareFix bool
}

// Occurrence is one generated (start, end) pair. Both carry the kind of the
// template event, except for floating templates repaired to aware.
type Occurrence struct {
	Start model.Instant
	End   model.Instant
}

// Expander turns series definitions into occurrences.
type Expander struct {
	zone *timezone.Resolver
	cfg  Config
}

// New returns an Expander using zone for awareness repairs.
func New(zone *timezone.Resolver, cfg Config) *Expander {
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = DefaultMaxOccurrences
	}
	return &Expander{zone: zone, cfg: cfg}
}

type untilKind int

const (
	untilNone untilKind = iota
	untilDate
	untilFloating
	untilAware
)

// classifyUntil reads the raw UNTIL token; the parsed rule does not keep
// whether it was written as a date, a local time or UTC.
func classifyUntil(rule string) untilKind {
	for _, part := range strings.Split(rule, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k != "UNTIL" {
			continue
		}
		switch {
		case strings.HasSuffix(v, "Z"):
			return untilAware
		case strings.Contains(v, "T"):
			return untilFloating
		default:
			return untilDate
		}
	}
	return untilNone
}

// Expand returns the occurrences of ev in generation order. A
// non-recurring event yields itself.
//
// Fatal conditions:
//   - the rule cannot be parsed, or has no COUNT/UNTIL under UnboundedReject
//   - UNTIL is a local time while DTSTART is aware
//   - UNTIL is UTC, DTSTART is floating and no zone is resolvable
//   - a date-only template produces an occurrence off midnight
func (x *Expander) Expand(ev model.CalendarEvent) ([]Occurrence, error) {
	if !ev.IsRecurring() {
		return []Occurrence{{Start: ev.Start, End: ev.End}}, nil
	}

	rule := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(ev.RRule, "RRULE:")))
	dateOnly := ev.Start.IsDateOnly()
	duration := ev.End.WallSub(ev.Start)

	start := ev.Start
	switch classifyUntil(rule) {
	case untilAware:
		if start.IsAware() {
			break
		}
		if x.cfg.DisableAwareFix {
			return nil, apperr.Structuralf("RRULE UNTIL is UTC but DTSTART %s is floating", ev.Start)
		}
		var err error
		if start, err = x.zone.Coerce(start, true); err != nil {
			return nil, err
		}
		appLog.Debug("floating series promoted to aware for UTC UNTIL", "uid", ev.UID, "zone", x.zone.Name())
	case untilFloating:
		if start.IsAware() {
			return nil, apperr.Structuralf("RRULE UNTIL is a local time but DTSTART %s is aware", ev.Start)
		}
	}

	loc := time.UTC
	if start.IsAware() {
		loc = start.Time().Location()
	}

	opt, err := rrule.StrToROptionInLocation(rule, loc)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.KindStructural, "invalid RRULE %q", ev.RRule)
	}
	bounded := opt.Count > 0 || !opt.Until.IsZero()
	if !bounded && x.cfg.Unbounded == UnboundedReject {
		return nil, apperr.Structuralf("RRULE %q has neither COUNT nor UNTIL", ev.RRule)
	}
	opt.Dtstart = start.Time()

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.KindStructural, "invalid RRULE %q", ev.RRule)
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, rd := range ev.RDates {
		set.RDate(x.engineTime(rd, start, loc))
	}

	// date-only EXDATEs against a timed series remove the whole day
	skipDays := map[string]bool{}
	for _, ex := range ev.ExDates {
		if ex.IsDateOnly() && !dateOnly {
			skipDays[ex.String()] = true
			continue
		}
		set.ExDate(x.engineTime(ex, start, loc))
	}

	var out []Occurrence
	next := set.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if !bounded && len(out) >= x.cfg.MaxOccurrences {
			appLog.Warn("unbounded recurrence truncated", "uid", ev.UID, "cap", x.cfg.MaxOccurrences)
			break
		}

		occ := model.Floating(t)
		if start.IsAware() {
			occ = model.Aware(t)
		}
		if skipDays[occ.DateOnly().String()] {
			continue
		}
		if dateOnly {
			if !occ.IsMidnight() {
				return nil, apperr.Expansionf("date-only series produced timed occurrence %s", occ)
			}
			occ = occ.DateOnly()
		}
		out = append(out, Occurrence{Start: occ, End: occ.AddWall(duration)})
	}
	return out, nil
}

// engineTime expresses an EXDATE/RDATE value on the clock the rule engine
// runs on: the series zone for aware series, the UTC wall clock otherwise.
func (x *Expander) engineTime(i model.Instant, start model.Instant, loc *time.Location) time.Time {
	if start.IsAware() {
		if i.IsAware() {
			return i.Time().In(loc)
		}
		return i.InZone(loc).Time()
	}
	if i.IsAware() {
		if z, ok := x.zone.Zone(); ok {
			return i.In(z).Wall()
		}
		return i.Wall()
	}
	return i.Wall()
}
