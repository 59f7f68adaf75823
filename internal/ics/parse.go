package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	apperr "icsconv/internal/errors"
	appLog "icsconv/internal/log"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

// ComponentPropertyExtended prefixes "X-" again, so the full name is used.
var propertyBusyStatus = ical.ComponentProperty("X-MICROSOFT-CDO-BUSYSTATUS")

// Document is a parsed calendar: events in declaration order plus the
// VTIMEZONEs it declares.
type Document struct {
	Events []model.CalendarEvent
	Zones  []timezone.NamedZone
}

// Parse parses a prepared document (see Prepare) with golang-ical.
//
//   - VTIMEZONE components become NamedZones; a TZID that tzdata does not
//     know falls back to the STANDARD TZOFFSETTO as a fixed zone.
//   - DATE / DATE-TIME values are read from the raw property text so that
//     floating times stay floating.
//   - Any malformed VEVENT aborts the parse.
//   - When onlyUID is non-empty, other events are skipped.
func Parse(text, onlyUID string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Structuralf("empty calendar input")
	}

	cal, err := ical.ParseCalendarWithOptions(strings.NewReader(text),
		ical.WithUnknownPropertyHandler(ical.AcceptUnknownPropertyHandler))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStructural, "ics parse failed")
	}

	doc := &Document{}
	zones := zoneTable{}

	for _, vtz := range cal.Timezones() {
		nz, err := namedZone(vtz)
		if err != nil {
			return nil, err
		}
		zones[nz.Name] = nz.Location
		doc.Zones = append(doc.Zones, nz)
	}

	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, zones)
		if err != nil {
			return nil, apperr.WithUID(err, ev.UID)
		}
		if onlyUID != "" && ev.UID != onlyUID {
			continue
		}
		if onlyUID != "" {
			appLog.Debug("debug uid: parsed", "uid", ev.UID, "start", ev.Start, "end", ev.End,
				"rrule", ev.RRule, "recurrence_id", ev.RecurrenceID)
		}
		doc.Events = append(doc.Events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(doc.Events), "zone_count", len(doc.Zones))
	return doc, nil
}

func namedZone(vtz *ical.VTimezone) (timezone.NamedZone, error) {
	idProp := vtz.GetProperty(ical.ComponentPropertyTzid)
	if idProp == nil || strings.TrimSpace(idProp.Value) == "" {
		return timezone.NamedZone{}, apperr.Structuralf("VTIMEZONE without TZID")
	}
	name := idProp.Value

	if loc, err := timezone.LoadZone(name); err == nil {
		return timezone.NamedZone{Name: name, Location: loc}, nil
	}

	// Prefer STANDARD; a zone with only DAYLIGHT still has one offset.
	tzOffsetTo := ical.ComponentProperty(ical.PropertyTzoffsetto)
	var std, dst *ical.IANAProperty
	for _, sub := range vtz.Components {
		switch c := sub.(type) {
		case *ical.Standard:
			if std == nil {
				std = c.GetProperty(tzOffsetTo)
			}
		case *ical.Daylight:
			if dst == nil {
				dst = c.GetProperty(tzOffsetTo)
			}
		}
	}
	offsetProp := std
	if offsetProp == nil {
		offsetProp = dst
	}
	if offsetProp == nil {
		return timezone.NamedZone{}, apperr.Structuralf("VTIMEZONE %q: unknown zone without TZOFFSETTO", name)
	}
	offset, err := timezone.ParseOffset(offsetProp.Value)
	if err != nil {
		return timezone.NamedZone{}, apperr.Wrapf(err, apperr.KindStructural, "VTIMEZONE %q", name)
	}
	appLog.Debug("vtimezone resolved to fixed offset", "tzid", name, "offset", offsetProp.Value)
	return timezone.NamedZone{Name: name, Location: time.FixedZone(name, offset)}, nil
}

func parseVEvent(ve *ical.VEvent, zones zoneTable) (model.CalendarEvent, error) {
	var out model.CalendarEvent

	out.UID = model.NotAvailableText
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		out.UID = p.Value
	}

	// DTSTART / DTEND (or DURATION)
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, apperr.Structuralf("VEVENT without DTSTART")
	}
	start, err := single(zones, startProp)
	if err != nil {
		return out, err
	}
	out.Start = start

	switch endProp, durProp := ve.GetProperty(ical.ComponentPropertyDtEnd), ve.GetProperty(ical.ComponentPropertyDuration); {
	case endProp != nil:
		if out.End, err = single(zones, endProp); err != nil {
			return out, err
		}
	case durProp != nil:
		d, err := parseDuration(durProp.Value)
		if err != nil {
			return out, err
		}
		out.End = start.AddWall(d)
	default:
		return out, apperr.Structuralf("VEVENT without DTEND or DURATION")
	}

	if !out.Start.SameKind(out.End) {
		return out, apperr.Structuralf("DTSTART %s and DTEND %s differ in awareness or time presence", out.Start, out.End)
	}

	// RRULE / RECURRENCE-ID
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		rid, err := single(zones, p)
		if err != nil {
			return out, err
		}
		out.RecurrenceID = &rid
	}
	if out.RRule != "" && out.RecurrenceID != nil {
		return out, apperr.Structuralf("VEVENT carries both RRULE and RECURRENCE-ID")
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		vs, err := zones.timeValues(p)
		if err != nil {
			return out, err
		}
		out.ExDates = append(out.ExDates, vs...)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyRdate) {
		vs, err := zones.timeValues(p)
		if err != nil {
			return out, err
		}
		out.RDates = append(out.RDates, vs...)
	}

	out.Fields = parseFields(ve)
	return out, nil
}

func single(zones zoneTable, p *ical.IANAProperty) (model.Instant, error) {
	vs, err := zones.timeValues(p)
	if err != nil {
		return model.Instant{}, err
	}
	if len(vs) != 1 {
		return model.Instant{}, apperr.Structuralf("%s must hold exactly one value, got %q", p.IANAToken, p.Value)
	}
	return vs[0], nil
}

func parseFields(ve *ical.VEvent) model.Fields {
	var fs model.Fields

	text := func(f model.Field, prop ical.ComponentProperty) {
		if p := ve.GetProperty(prop); p != nil {
			fs.Set(f, model.Text(p.Value))
		}
	}
	text(model.FieldSummary, ical.ComponentPropertySummary)
	text(model.FieldDescription, ical.ComponentPropertyDescription)
	text(model.FieldLocation, ical.ComponentPropertyLocation)
	text(model.FieldBusyStatus, propertyBusyStatus)

	if cats := ve.GetProperties(ical.ComponentPropertyCategories); len(cats) > 0 {
		vals := make([]string, 0, len(cats))
		for _, c := range cats {
			vals = append(vals, c.Value)
		}
		fs.Set(model.FieldCategories, model.Text(strings.Join(vals, ",")))
	}

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		if cn := param(p, ical.ParameterCn); cn != "" {
			fs.Set(model.FieldOrganizer, model.Text(cn))
		}
	}

	if attendees := ve.Attendees(); len(attendees) > 0 {
		var accepted, optional []string
		for _, a := range attendees {
			cn := param(&a.IANAProperty, ical.ParameterCn)
			rsvp := param(&a.IANAProperty, ical.ParameterRsvp)
			if cn == "" || rsvp == "" {
				continue
			}
			switch strings.ToLower(rsvp) {
			case "true":
				accepted = append(accepted, cn)
			case "false":
				optional = append(optional, cn)
			}
		}
		fs.Set(model.FieldAttendeesAccepted, model.Text(strings.Join(accepted, ";")))
		fs.Set(model.FieldAttendeesOptional, model.Text(strings.Join(optional, ";")))
	}

	return fs
}
