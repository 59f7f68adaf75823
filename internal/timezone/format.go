package timezone

import (
	"fmt"
	"strings"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
)

// AllDayPolicy controls how untimed (and midnight-to-midnight) events render.
type AllDayPolicy int

const (
	// AllDayToday renders the inclusive last day (end date minus one).
	AllDayToday AllDayPolicy = iota
	// AllDayNextDay renders the raw exclusive end date.
	AllDayNextDay
	// AllDayAddTime renders 00:00:00 start/end times in the working zone.
	AllDayAddTime
	// AllDayTodayRemTime is AllDayToday that also strips midnight-to-midnight times.
	AllDayTodayRemTime
	// AllDayNextDayRemTime is AllDayNextDay that also strips midnight-to-midnight times.
	AllDayNextDayRemTime
)

var allDayNames = map[string]AllDayPolicy{
	"today":          AllDayToday,
	"nextday":        AllDayNextDay,
	"addtime":        AllDayAddTime,
	"todayremtime":   AllDayTodayRemTime,
	"nextdayremtime": AllDayNextDayRemTime,
}

// ParseAllDayPolicy parses a policy name.
func ParseAllDayPolicy(s string) (AllDayPolicy, error) {
	p, ok := allDayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, apperr.Configurationf("unknown all-day format %q", s)
	}
	return p, nil
}

func (p AllDayPolicy) String() string {
	switch p {
	case AllDayToday:
		return "today"
	case AllDayNextDay:
		return "nextday"
	case AllDayAddTime:
		return "addtime"
	case AllDayTodayRemTime:
		return "todayremtime"
	case AllDayNextDayRemTime:
		return "nextdayremtime"
	default:
		return fmt.Sprintf("AllDayPolicy(%d)", int(p))
	}
}

// DateFormat selects the date/time layout.
type DateFormat int

const (
	// DateSlash is YYYY/MM/DD and HH:MM:SS.
	DateSlash DateFormat = iota
	// DateBasic is YYYYMMDD and HHMMSS.
	DateBasic
	// DateExtended is YYYY-MM-DD and HH:MM:SS.
	DateExtended
)

// ParseDateFormat parses a date format name.
func ParseDateFormat(s string) (DateFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "slash_ymd":
		return DateSlash, nil
	case "basic":
		return DateBasic, nil
	case "extended":
		return DateExtended, nil
	default:
		return 0, apperr.Configurationf("unknown datetime format %q", s)
	}
}

func (f DateFormat) String() string {
	switch f {
	case DateSlash:
		return "slash_ymd"
	case DateBasic:
		return "basic"
	case DateExtended:
		return "extended"
	default:
		return fmt.Sprintf("DateFormat(%d)", int(f))
	}
}

// layouts returns the Go layouts for dates and times.
func (f DateFormat) layouts() (date, clock string) {
	switch f {
	case DateBasic:
		return "20060102", "150405"
	case DateExtended:
		return "2006-01-02", "15:04:05"
	default:
		return "2006/01/02", "15:04:05"
	}
}

// Policy is the rendering policy of one run.
type Policy struct {
	AllDay AllDayPolicy
	Date   DateFormat
	// ShowZone appends the numeric UTC offset to aware times.
	ShowZone bool
}

// Rendered holds the four date/time columns of a row. Time fields are
// empty for untimed renderings.
type Rendered struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
	AllDay    bool
}

// Format renders start/end in local time under p.
func (r *Resolver) Format(start, end model.Instant, p Policy) (Rendered, error) {
	if !start.SameKind(end) {
		return Rendered{}, apperr.Structuralf("start %s and end %s differ in awareness or time presence", start, end)
	}

	s, err := r.ToLocal(start)
	if err != nil {
		return Rendered{}, err
	}
	e, err := r.ToLocal(end)
	if err != nil {
		return Rendered{}, err
	}

	var out Rendered
	if s.HasTime() {
		switch p.AllDay {
		case AllDayTodayRemTime, AllDayNextDayRemTime:
			if s.IsMidnight() && e.IsMidnight() {
				s, e = s.DateOnly(), e.DateOnly()
			}
		case AllDayToday, AllDayNextDay, AllDayAddTime:
		}
	} else {
		out.AllDay = true
		switch p.AllDay {
		case AllDayAddTime:
			if s.Equal(e) {
				return Rendered{}, apperr.Structuralf("all-day event with zero length at %s", s)
			}
			// no zone keeps a floating 00:00:00
			s, _ = r.Coerce(s, false)
			e, _ = r.Coerce(e, false)
		case AllDayToday, AllDayNextDay, AllDayTodayRemTime, AllDayNextDayRemTime:
		}
	}

	dateLayout, timeLayout := p.Date.layouts()

	if s.HasTime() {
		if p.ShowZone && s.IsAware() {
			timeLayout += "-0700"
		}
		out.StartDate = s.Time().Format(dateLayout)
		out.StartTime = s.Time().Format(timeLayout)
		out.EndDate = e.Time().Format(dateLayout)
		out.EndTime = e.Time().Format(timeLayout)
		return out, nil
	}

	switch p.AllDay {
	case AllDayToday, AllDayTodayRemTime:
		e = e.AddDays(-1)
	case AllDayNextDay, AllDayNextDayRemTime, AllDayAddTime:
	}
	out.StartDate = s.Time().Format(dateLayout)
	out.EndDate = e.Time().Format(dateLayout)
	return out, nil
}
