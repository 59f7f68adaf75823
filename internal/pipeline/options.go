package pipeline

import (
	"icsconv/internal/config"
	apperr "icsconv/internal/errors"
	"icsconv/internal/format"
	appLog "icsconv/internal/log"
	"icsconv/internal/reconcile"
	"icsconv/internal/recur"
	"icsconv/internal/timezone"
)

// Options is the read-only run configuration derived from config.Config.
type Options struct {
	Profile format.Profile
	Row     format.Options

	// Timezone overrides the document's zone when non-empty.
	Timezone string

	Recurrence    recur.Config
	RepairExDates bool
	ReconcileMode reconcile.Policy
	SkipReconcile bool
	DisableSort   bool
	PrintHeader   bool
	DebugUID      string
}

// FromConfig resolves the profile and applies every override in cfg.
// Any inconsistency is a configuration error.
func FromConfig(cfg *config.Config) (Options, error) {
	var (
		p   format.Profile
		err error
	)
	if cfg.Format == format.CustomProfile {
		specs := make([]format.ColumnSpec, 0, len(cfg.Columns))
		for _, c := range cfg.Columns {
			specs = append(specs, format.ColumnSpec{Field: c.Field, Header: c.Header})
		}
		p, err = format.Custom(specs)
	} else {
		p, err = format.Lookup(cfg.Format)
	}
	if err != nil {
		return Options{}, err
	}

	if cfg.Encoding != "" {
		if p.Encoding, err = format.ParseEncoding(cfg.Encoding); err != nil {
			return Options{}, err
		}
	}
	if cfg.AllDayFormat != "" {
		policy, err := timezone.ParseAllDayPolicy(cfg.AllDayFormat)
		if err != nil {
			return Options{}, err
		}
		if p.FixedAllDay && policy != p.AllDay {
			appLog.Warn("format has a fixed all-day policy; override ignored",
				"format", p.Name, "allday_format", cfg.AllDayFormat, "using", p.AllDay)
		} else {
			p.AllDay = policy
		}
	}
	if cfg.DateTimeFormat != "" {
		if p.Date, err = timezone.ParseDateFormat(cfg.DateTimeFormat); err != nil {
			return Options{}, err
		}
	}

	heads, err := format.ParseSummaryHeads(cfg.AddSummaryHeads)
	if err != nil {
		return Options{}, err
	}

	unbounded, err := recur.ParseUnboundedPolicy(cfg.Recurrence.Unbounded)
	if err != nil {
		return Options{}, err
	}
	if cfg.DescriptionMaxLines < 0 {
		return Options{}, apperr.Configurationf("description_max_lines must not be negative")
	}

	mode := reconcile.HideReplaced
	if cfg.ShowHiddenSchedules {
		mode = reconcile.ShowReplaced
	}

	return Options{
		Profile: p,
		Row: format.Options{
			Policy: timezone.Policy{
				AllDay:   p.AllDay,
				Date:     p.Date,
				ShowZone: cfg.ShowTimezone,
			},
			SplitSummary:        !cfg.DisableSplitSummary,
			ExtendSummaryHead:   cfg.ExtendSummaryHead,
			SummaryHeads:        heads,
			RemoveTeams:         !cfg.ShowTeamsInformation,
			MaxDescriptionLines: cfg.DescriptionMaxLines,
			RemoveTailCR:        cfg.RemoveTailCR,
			RegistrationNumber:  cfg.RegistrationNumber,
		},
		Timezone: cfg.Timezone,
		Recurrence: recur.Config{
			Unbounded:       unbounded,
			MaxOccurrences:  cfg.Recurrence.MaxOccurrences,
			DisableAwareFix: cfg.DisableNaiveAwareFix,
		},
		RepairExDates: !cfg.DisableExDateFix,
		ReconcileMode: mode,
		SkipReconcile: cfg.DisableRecurrenceID,
		DisableSort:   cfg.DisableSort,
		PrintHeader:   cfg.PrintHeader,
		DebugUID:      cfg.DebugUID,
	}, nil
}
