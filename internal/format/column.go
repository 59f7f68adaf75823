// Package format maps event instances to CSV rows under a selected
// profile.
package format

import (
	"strings"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
)

// Column is one kind of output cell.
type Column int

const (
	// ColNone is a slot of a fixed import layout that is never filled.
	ColNone Column = iota
	ColStartDate
	ColStartTime
	ColEndDate
	ColEndTime
	ColAllDay
	ColSummaryHead
	ColSummary
	ColDescription
	ColBusyStatus
	ColBusyStatusNum
	ColCategories
	ColOrganizer
	ColAttendeesAccepted
	ColAttendeesOptional
	ColLocation

	columnCount
)

var columnNames = [columnCount]string{
	ColNone:              "",
	ColStartDate:         "DTSTART:DAY",
	ColStartTime:         "DTSTART:TIME",
	ColEndDate:           "DTEND:DAY",
	ColEndTime:           "DTEND:TIME",
	ColAllDay:            "X:ALLDAY_EVENT",
	ColSummaryHead:       "SUMMARY:H",
	ColSummary:           "SUMMARY",
	ColDescription:       "DESCRIPTION",
	ColBusyStatus:        "X-MICROSOFT-CDO-BUSYSTATUS",
	ColBusyStatusNum:     "X-MICROSOFT-CDO-BUSYSTATUS:NUM",
	ColCategories:        "CATEGORIES",
	ColOrganizer:         "ORGANIZER:CN",
	ColAttendeesAccepted: "ATTENDEE:CN:RSVP:TRUE",
	ColAttendeesOptional: "ATTENDEE:CN:RSVP:FALSE",
	ColLocation:          "LOCATION",
}

// requiredColumns must appear in every profile.
var requiredColumns = []Column{ColStartDate, ColStartTime, ColEndDate, ColEndTime, ColSummary}

// passthrough columns copy one event field verbatim.
var passthrough = map[Column]model.Field{
	ColBusyStatus:        model.FieldBusyStatus,
	ColCategories:        model.FieldCategories,
	ColOrganizer:         model.FieldOrganizer,
	ColAttendeesAccepted: model.FieldAttendeesAccepted,
	ColAttendeesOptional: model.FieldAttendeesOptional,
	ColLocation:          model.FieldLocation,
}

func (c Column) String() string {
	if c < 0 || c >= columnCount {
		return "UNKNOWN"
	}
	return columnNames[c]
}

// ParseColumn looks up a column by its field name (case-insensitive).
func ParseColumn(name string) (Column, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for c := ColStartDate; c < columnCount; c++ {
		if columnNames[c] == n {
			return c, nil
		}
	}
	return ColNone, apperr.Configurationf("unknown column %q", name)
}
