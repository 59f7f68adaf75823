// Package reconcile merges RECURRENCE-ID overrides into the series
// occurrences they replace.
package reconcile

import (
	appLog "icsconv/internal/log"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

// HiddenPrefix is prepended to the summary of a replaced occurrence that is
// kept in the output.
const HiddenPrefix = "Hidden: "

// Policy decides what happens to a series occurrence once an override has
// replaced it.
type Policy int

const (
	// HideReplaced drops the replaced occurrence from the output.
	HideReplaced Policy = iota
	// ShowReplaced keeps it with its summary prefixed by HiddenPrefix.
	ShowReplaced
)

type state int

const (
	statePending state = iota
	stateMatched
	stateOrphaned
)

// Warning describes one override that could not be merged.
type Warning struct {
	UID    string
	Target model.Instant
}

// Report summarizes one reconciliation run.
type Report struct {
	Matched int
	// Unmatched overrides had a series with their UID but no occurrence
	// at their RECURRENCE-ID.
	Unmatched []Warning
	// Dangling overrides reference a UID with no series occurrence at all,
	// typically because the series lies outside the processed window.
	Dangling []Warning
}

// Failed returns the number of overrides that were not merged.
func (r Report) Failed() int { return len(r.Unmatched) + len(r.Dangling) }

// Reconciler runs the two-pass matching.
type Reconciler struct {
	zone   *timezone.Resolver
	policy Policy
}

func New(zone *timezone.Resolver, policy Policy) *Reconciler {
	return &Reconciler{zone: zone, policy: policy}
}

type pending struct {
	rec   model.OverrideRecord
	state state
}

type matcher func(base, target model.Instant) bool

// Reconcile merges every override into the series occurrence sharing its
// UID whose start equals the override target. instances holds series and
// override instances alike and is modified in place.
//
// Matching runs in two passes over the still pending overrides:
//
//  1. exact: the occurrence start equals the target (same kind, same instant)
//  2. coerced: floating or date-only starts are first made aware in the
//     working zone (00:00 for dates), recovering series whose date-only
//     occurrences were referenced with a timed RECURRENCE-ID
//
// Overrides left over are orphaned; an orphan without a summary gets
// model.UnreferencedText.
func (r *Reconciler) Reconcile(instances []*model.EventInstance, overrides []model.OverrideRecord) Report {
	series := map[string][]*model.EventInstance{}
	for _, in := range instances {
		if in.IsOverride() {
			continue
		}
		series[in.Key.UID] = append(series[in.Key.UID], in)
	}

	queue := make([]*pending, 0, len(overrides))
	for _, rec := range overrides {
		queue = append(queue, &pending{rec: rec})
	}

	var report Report
	consumed := map[*model.EventInstance]bool{}

	passes := []struct {
		name  string
		match matcher
	}{
		{"exact", func(base, target model.Instant) bool { return base.Equal(target) }},
		{"coerced", r.coercedEqual},
	}
	for _, pass := range passes {
		remaining := 0
		for _, p := range queue {
			if p.state != statePending {
				continue
			}
			base := findBase(series[p.rec.UID], p.rec.Target, consumed, pass.match)
			if base == nil {
				remaining++
				continue
			}
			consumed[base] = true
			r.merge(base, p.rec.Instance)
			p.state = stateMatched
			report.Matched++
			appLog.Debug("override merged", "uid", p.rec.UID, "target", p.rec.Target, "pass", pass.name)
		}
		if remaining == 0 {
			break
		}
	}

	for _, p := range queue {
		if p.state != statePending {
			continue
		}
		p.state = stateOrphaned

		if in := p.rec.Instance; in != nil && !in.Fields.Get(model.FieldSummary).Available() {
			in.Fields.Set(model.FieldSummary, model.Text(model.UnreferencedText))
		}
		w := Warning{UID: p.rec.UID, Target: p.rec.Target}
		if len(series[p.rec.UID]) == 0 {
			report.Dangling = append(report.Dangling, w)
			appLog.Warn("override references no series occurrence", "uid", w.UID, "target", w.Target)
			continue
		}
		report.Unmatched = append(report.Unmatched, w)
		appLog.Warn("override could not be matched", "uid", w.UID, "target", w.Target)
	}

	return report
}

func findBase(candidates []*model.EventInstance, target model.Instant, consumed map[*model.EventInstance]bool, match matcher) *model.EventInstance {
	for _, c := range candidates {
		if consumed[c] {
			continue
		}
		if match(c.Key.Start, target) {
			return c
		}
	}
	return nil
}

func (r *Reconciler) coercedEqual(base, target model.Instant) bool {
	b, err := r.zone.Coerce(base, false)
	if err != nil {
		return false
	}
	t, err := r.zone.Coerce(target, false)
	if err != nil {
		return false
	}
	return b.Equal(t)
}

// merge fills the override's missing fields from base and retires base.
func (r *Reconciler) merge(base, override *model.EventInstance) {
	if override != nil {
		for _, f := range model.AllFields() {
			if !override.Fields.Get(f).Available() {
				override.Fields.Set(f, base.Fields.Get(f))
			}
		}
	}

	switch r.policy {
	case ShowReplaced:
		summary := base.Fields.Get(model.FieldSummary).String()
		base.Fields.Set(model.FieldSummary, model.Text(HiddenPrefix+summary))
	default:
		base.Suppressed = true
	}
}
