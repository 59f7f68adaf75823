// Package pipeline runs one conversion: calendar text in, ordered CSV rows
// out.
package pipeline

import (
	"sort"

	apperr "icsconv/internal/errors"
	"icsconv/internal/format"
	"icsconv/internal/ics"
	appLog "icsconv/internal/log"
	"icsconv/internal/model"
	"icsconv/internal/reconcile"
	"icsconv/internal/recur"
	"icsconv/internal/timezone"
)

// Result is the output of one conversion.
type Result struct {
	// Header is nil unless requested.
	Header []string
	Rows   []format.Row
	Report reconcile.Report
}

// Convert runs every stage over data. Any error aborts the whole batch;
// reconciliation problems are reported, not returned.
//
// Stages:
//  1. text pre-pass (BOM, newlines, nesting check, EXDATE repair)
//  2. parse and zone resolution
//  3. expansion of recurring events into instances
//  4. override reconciliation
//  5. filtering by suppression and time range, row mapping
//  6. stable sort, unless disabled
func Convert(data []byte, tr TimeRange, o Options) (*Result, error) {
	text, err := ics.Prepare(ics.Normalize(data), o.RepairExDates)
	if err != nil {
		return nil, err
	}
	doc, err := ics.Parse(text, o.DebugUID)
	if err != nil {
		return nil, err
	}
	debugf(o, "parsed", "events", len(doc.Events), "zones", len(doc.Zones))

	zone, err := timezone.Resolve(doc.Zones, o.Timezone)
	if err != nil {
		return nil, err
	}
	mapper, err := format.NewMapper(o.Profile, zone, o.Row)
	if err != nil {
		return nil, err
	}

	instances, overrides, err := buildInstances(doc.Events, zone, o)
	if err != nil {
		return nil, err
	}
	debugf(o, "expanded", "instances", len(instances), "overrides", len(overrides))

	var report reconcile.Report
	if !o.SkipReconcile {
		report = reconcile.New(zone, o.ReconcileMode).Reconcile(instances, overrides)
		debugf(o, "reconciled", "matched", report.Matched, "failed", report.Failed())
	}

	rows := make([]format.Row, 0, len(instances))
	for _, in := range instances {
		if in.Suppressed || !tr.Contains(in.Key.Start) {
			continue
		}
		row, err := mapper.Map(in)
		if err != nil {
			return nil, err
		}
		debugf(o, "row", "start", in.Key.Start, "cells", row.Cells)
		rows = append(rows, row)
	}

	if !o.DisableSort {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Less(rows[j]) })
	}

	res := &Result{Rows: rows, Report: report}
	if o.PrintHeader {
		res.Header = mapper.Header()
	}
	return res, nil
}

// buildInstances expands every event in declaration order. A VEVENT with a
// RECURRENCE-ID and no rule of its own also yields an override record,
// unless reconciliation is disabled, in which case it is an ordinary row.
func buildInstances(events []model.CalendarEvent, zone *timezone.Resolver, o Options) ([]*model.EventInstance, []model.OverrideRecord, error) {
	x := recur.New(zone, o.Recurrence)

	var (
		instances []*model.EventInstance
		overrides []model.OverrideRecord
	)
	for _, ev := range events {
		occs, err := x.Expand(ev)
		if err != nil {
			return nil, nil, apperr.WithUID(err, ev.UID)
		}
		for _, occ := range occs {
			in, err := newInstance(ev, occ, zone)
			if err != nil {
				return nil, nil, err
			}
			instances = append(instances, in)
		}

		if ev.RecurrenceID == nil || ev.IsRecurring() || o.SkipReconcile {
			continue
		}
		target, err := zone.ToLocal(*ev.RecurrenceID)
		if err != nil {
			return nil, nil, apperr.WithUID(err, ev.UID)
		}
		in := instances[len(instances)-1]
		in.Target = &target
		overrides = append(overrides, model.OverrideRecord{UID: ev.UID, Target: target, Instance: in})
	}
	return instances, overrides, nil
}

func newInstance(ev model.CalendarEvent, occ recur.Occurrence, zone *timezone.Resolver) (*model.EventInstance, error) {
	local, err := zone.ToLocal(occ.Start)
	if err != nil {
		return nil, apperr.WithUID(err, ev.UID)
	}
	return &model.EventInstance{
		Key:    model.OccurrenceKey{UID: ev.UID, Start: local},
		Start:  occ.Start,
		End:    occ.End,
		AllDay: occ.Start.IsDateOnly(),
		Fields: ev.Fields,
	}, nil
}

func debugf(o Options, stage string, kv ...any) {
	if o.DebugUID == "" {
		return
	}
	appLog.Debug("debug uid "+stage, append([]any{"uid", o.DebugUID}, kv...)...)
}
