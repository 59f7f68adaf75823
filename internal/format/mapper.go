package format

import (
	"strings"
	"unicode"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

// Options are the per-run row transformations. Profile defaults
// (RemoveTailCR, RegistrationNumber, ExtendSummaryHead) are added on top.
type Options struct {
	Policy timezone.Policy

	SplitSummary      bool
	ExtendSummaryHead bool
	// SummaryHeads are extra labels, see ParseSummaryHeads.
	SummaryHeads []string

	RemoveTeams         bool
	MaxDescriptionLines int
	RemoveTailCR        bool
	RegistrationNumber  bool
}

// Row is one mapped instance.
type Row struct {
	Cells []string
	key   [5]string
}

// Less orders rows by start date, start time, end date, end time and
// summary, comparing strings. This matches chronological order only
// because every date format zero-pads its fields.
func (r Row) Less(o Row) bool {
	for i := range r.key {
		if r.key[i] != o.key[i] {
			return r.key[i] < o.key[i]
		}
	}
	return false
}

// Mapper turns instances into rows of one profile.
type Mapper struct {
	profile Profile
	zone    *timezone.Resolver
	policy  timezone.Policy

	split  bool
	heads  map[string]bool
	scrub  *scrubOptions
	tail   bool
	regnum bool

	index map[Column]int
}

// NewMapper checks the options against the profile. Splitting is dropped
// for profiles without SUMMARY:H and description rewrites for profiles
// without DESCRIPTION; asking for registration numbers there is an error.
func NewMapper(p Profile, zone *timezone.Resolver, o Options) (*Mapper, error) {
	m := &Mapper{
		profile: p,
		zone:    zone,
		policy:  o.Policy,
		split:   o.SplitSummary && p.Has(ColSummaryHead),
		tail:    o.RemoveTailCR || p.RemoveTailCR,
		regnum:  o.RegistrationNumber || p.RegistrationNumber,
		index:   map[Column]int{},
	}
	for i, c := range p.Columns {
		if c != ColNone {
			m.index[c] = i
		}
	}

	if m.regnum && !p.Has(ColDescription) {
		return nil, apperr.Configurationf("format %q has no DESCRIPTION column for registration numbers", p.Name)
	}
	if p.Has(ColDescription) {
		m.scrub = &scrubOptions{
			removeTeams:  o.RemoveTeams,
			maxLines:     o.MaxDescriptionLines,
			removeTailCR: m.tail,
		}
	}

	m.heads = map[string]bool{}
	labels := append([]string{}, DefaultSummaryHeads...)
	if o.ExtendSummaryHead || p.ExtendSummaryHead {
		ext, err := ParseSummaryHeads(ExtendedSummaryHeads)
		if err != nil {
			return nil, err
		}
		labels = append(labels, ext...)
	}
	labels = append(labels, o.SummaryHeads...)
	for _, l := range labels {
		m.heads[l] = true
	}
	return m, nil
}

// Header returns the header row.
func (m *Mapper) Header() []string {
	return append([]string(nil), m.profile.Headers...)
}

// Map renders one instance.
func (m *Mapper) Map(in *model.EventInstance) (Row, error) {
	r, err := m.zone.Format(in.Start, in.End, m.policy)
	if err != nil {
		return Row{}, apperr.WithUID(err, in.Key.UID)
	}

	cells := make([]string, len(m.profile.Columns))
	for i, c := range m.profile.Columns {
		v, err := m.cell(c, in, r)
		if err != nil {
			return Row{}, apperr.WithUID(err, in.Key.UID)
		}
		if m.tail && v.Available() {
			v = model.Text(strings.TrimRightFunc(v.String(), unicode.IsSpace))
		}
		cells[i] = v.String()
	}

	summaryText := cells[m.index[ColSummary]]
	if m.split {
		head, body := splitSummary(summaryText, m.heads)
		cells[m.index[ColSummaryHead]] = head
		cells[m.index[ColSummary]] = body
		summaryText = body
	}

	if i, ok := m.index[ColDescription]; ok {
		d := cells[i]
		if in.Fields.Get(model.FieldDescription).Available() {
			d = scrubDescription(d, *m.scrub)
		}
		if m.regnum {
			injected, found, err := injectRegistrationNumber(d, summaryText)
			if err != nil {
				return Row{}, apperr.WithUID(err, in.Key.UID)
			}
			if found {
				d = injected
			}
		}
		cells[i] = d
	}

	return Row{
		Cells: cells,
		key:   [5]string{r.StartDate, r.StartTime, r.EndDate, r.EndTime, summaryText},
	}, nil
}

func (m *Mapper) cell(c Column, in *model.EventInstance, r timezone.Rendered) (model.Value, error) {
	switch c {
	case ColStartDate:
		return model.Text(r.StartDate), nil
	case ColStartTime:
		return model.Text(r.StartTime), nil
	case ColEndDate:
		return model.Text(r.EndDate), nil
	case ColEndTime:
		return model.Text(r.EndTime), nil
	case ColAllDay:
		if r.AllDay {
			return model.Text("True"), nil
		}
		return model.Text("False"), nil
	case ColSummaryHead:
		return model.Text(""), nil
	case ColSummary:
		return in.Fields.Get(model.FieldSummary), nil
	case ColDescription:
		return in.Fields.Get(model.FieldDescription), nil
	case ColBusyStatusNum:
		v := in.Fields.Get(model.FieldBusyStatus)
		if !v.Available() {
			return model.NotAvailable, nil
		}
		code, err := busyCode(v.String())
		if err != nil {
			return model.NotAvailable, err
		}
		return model.Text(code), nil
	case ColNone:
		return model.NotAvailable, nil
	}
	if f, ok := passthrough[c]; ok {
		return in.Fields.Get(f), nil
	}
	return model.NotAvailable, apperr.Configurationf("column %s has no renderer", c)
}
