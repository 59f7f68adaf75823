package model

import "time"

// Instant is a calendar time value that remembers how it was written:
//
//   - date-only values (VALUE=DATE) are always floating
//   - floating date-times carry a wall clock but no zone
//   - aware date-times carry a zone (TZID or UTC)
//
// Floating and date-only values keep their wall clock in time.UTC so that
// calendar arithmetic never crosses a DST transition.
type Instant struct {
	t        time.Time
	aware    bool
	dateOnly bool
}

// Date returns a date-only instant.
func Date(year int, month time.Month, day int) Instant {
	return Instant{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), dateOnly: true}
}

// Floating returns a zone-less date-time using the wall clock of t.
func Floating(t time.Time) Instant {
	return Instant{t: wall(t)}
}

// Aware returns a zone-aware date-time.
func Aware(t time.Time) Instant {
	return Instant{t: t, aware: true}
}

func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (i Instant) IsZero() bool { return i.t.IsZero() }
func (i Instant) IsAware() bool { return i.aware }
func (i Instant) HasTime() bool { return !i.dateOnly }
func (i Instant) IsDateOnly() bool { return i.dateOnly }

// Time returns the underlying time. For floating and date-only instants the
// location is time.UTC and only the wall clock is meaningful.
func (i Instant) Time() time.Time { return i.t }

// Wall returns the wall clock of i expressed in time.UTC.
func (i Instant) Wall() time.Time { return wall(i.t) }

// SameKind reports whether i and o agree on awareness and time-of-day presence.
func (i Instant) SameKind(o Instant) bool {
	return i.aware == o.aware && i.dateOnly == o.dateOnly
}

// Equal is strict equality: both kinds must match; aware values compare as
// absolute instants, the others by wall clock.
func (i Instant) Equal(o Instant) bool {
	if !i.SameKind(o) {
		return false
	}
	return i.t.Equal(o.t)
}

// In converts an aware instant to loc. Other instants are returned unchanged.
func (i Instant) In(loc *time.Location) Instant {
	if !i.aware || loc == nil {
		return i
	}
	return Instant{t: i.t.In(loc), aware: true}
}

// InZone materializes a floating or date-only instant in loc, keeping the
// wall clock (date-only becomes 00:00:00). Aware instants are unchanged.
func (i Instant) InZone(loc *time.Location) Instant {
	if i.aware {
		return i
	}
	w := i.t
	return Instant{t: time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc), aware: true}
}

// AtMidnight turns a date-only instant into a floating 00:00:00 date-time.
func (i Instant) AtMidnight() Instant {
	if !i.dateOnly {
		return i
	}
	return Instant{t: i.t}
}

// DateOnly drops the time of day, keeping the wall-clock date.
func (i Instant) DateOnly() Instant {
	w := i.Wall()
	return Date(w.Year(), w.Month(), w.Day())
}

// IsMidnight reports whether the wall clock is exactly 00:00:00.
func (i Instant) IsMidnight() bool {
	w := i.Wall()
	return w.Hour() == 0 && w.Minute() == 0 && w.Second() == 0 && w.Nanosecond() == 0
}

// WallSub returns the wall-clock distance from o to i.
func (i Instant) WallSub(o Instant) time.Duration {
	return i.Wall().Sub(o.Wall())
}

// AddWall moves i by d on the wall clock, keeping its kind and zone.
// Date-only instants move by whole days.
func (i Instant) AddWall(d time.Duration) Instant {
	w := i.Wall().Add(d)
	switch {
	case i.dateOnly:
		return Date(w.Year(), w.Month(), w.Day())
	case i.aware:
		return Instant{t: time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), i.t.Location()), aware: true}
	default:
		return Instant{t: w}
	}
}

// AddDays moves i by n calendar days.
func (i Instant) AddDays(n int) Instant {
	w := i.Wall().AddDate(0, 0, n)
	switch {
	case i.dateOnly:
		return Date(w.Year(), w.Month(), w.Day())
	case i.aware:
		return Instant{t: time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), i.t.Location()), aware: true}
	default:
		return Instant{t: w}
	}
}

func (i Instant) String() string {
	switch {
	case i.IsZero():
		return "<none>"
	case i.dateOnly:
		return i.t.Format("2006-01-02")
	case i.aware:
		return i.t.Format(time.RFC3339)
	default:
		return i.t.Format("2006-01-02T15:04:05")
	}
}
