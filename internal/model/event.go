package model

// Sentinel texts written in place of missing data.
const (
	// NotAvailableText marks a source field that was absent.
	NotAvailableText = "(N/A)"
	// UnreferencedText replaces the summary of an override whose series
	// occurrence could not be found.
	UnreferencedText = "(REFERENCE DATA DOES NOT EXIST)"
)

// Field names one free-text value carried by an event.
type Field int

const (
	FieldSummary Field = iota
	FieldDescription
	FieldLocation
	FieldCategories
	FieldBusyStatus
	FieldOrganizer
	// FieldAttendeesAccepted holds ATTENDEE CNs with RSVP=TRUE, ';'-joined.
	FieldAttendeesAccepted
	// FieldAttendeesOptional holds ATTENDEE CNs with RSVP=FALSE, ';'-joined.
	FieldAttendeesOptional

	fieldCount
)

// AllFields lists every Field in declaration order.
func AllFields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

func (f Field) String() string {
	switch f {
	case FieldSummary:
		return "SUMMARY"
	case FieldDescription:
		return "DESCRIPTION"
	case FieldLocation:
		return "LOCATION"
	case FieldCategories:
		return "CATEGORIES"
	case FieldBusyStatus:
		return "X-MICROSOFT-CDO-BUSYSTATUS"
	case FieldOrganizer:
		return "ORGANIZER:CN"
	case FieldAttendeesAccepted:
		return "ATTENDEE:CN:RSVP:TRUE"
	case FieldAttendeesOptional:
		return "ATTENDEE:CN:RSVP:FALSE"
	default:
		return "UNKNOWN"
	}
}

// Value is a field value that can be "not available", which is distinct
// from an empty string.
type Value struct {
	text  string
	valid bool
}

// NotAvailable is the zero Value.
var NotAvailable = Value{}

// Text returns an available value.
func Text(s string) Value { return Value{text: s, valid: true} }

func (v Value) Available() bool { return v.valid }

// String returns the text, or NotAvailableText when absent.
func (v Value) String() string {
	if !v.valid {
		return NotAvailableText
	}
	return v.text
}

// Fields is a fixed bag of values indexed by Field. It is copied by value.
type Fields [fieldCount]Value

func (fs *Fields) Get(f Field) Value {
	if f < 0 || f >= fieldCount {
		return NotAvailable
	}
	return fs[f]
}

func (fs *Fields) Set(f Field, v Value) {
	if f < 0 || f >= fieldCount {
		return
	}
	fs[f] = v
}

// CalendarEvent is one VEVENT as read from the document.
type CalendarEvent struct {
	// UID is shared by a series and its overrides; NotAvailableText when absent.
	UID string

	Start Instant
	End   Instant

	// RRule is the raw RRULE value, empty for single events.
	RRule   string
	ExDates []Instant
	RDates  []Instant

	// RecurrenceID is set when this VEVENT replaces one series occurrence.
	RecurrenceID *Instant

	Fields Fields
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e CalendarEvent) IsRecurring() bool { return e.RRule != "" }

// OccurrenceKey identifies one occurrence of a series before overrides apply.
// Start is the occurrence start resolved to local time.
type OccurrenceKey struct {
	UID   string
	Start Instant
}

// EventInstance is one concrete occurrence flowing through the pipeline.
type EventInstance struct {
	Key OccurrenceKey

	// Start / End are the occurrence bounds before formatting.
	Start Instant
	End   Instant

	AllDay bool

	// Target is the local RECURRENCE-ID for override instances.
	Target *Instant

	Fields Fields

	// Suppressed instances are dropped from output.
	Suppressed bool
}

// IsOverride reports whether the instance replaces a series occurrence.
func (e *EventInstance) IsOverride() bool { return e.Target != nil }

// OverrideRecord is a pending request to merge Instance into the series
// occurrence (UID, Target).
type OverrideRecord struct {
	UID      string
	Target   Instant
	Instance *EventInstance
}
