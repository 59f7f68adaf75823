package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

var tokyo = time.FixedZone("JST", 9*3600)

func base(uid string, start model.Instant, summary, description string) *model.EventInstance {
	in := &model.EventInstance{Key: model.OccurrenceKey{UID: uid, Start: start}, Start: start, End: start.AddWall(time.Hour)}
	in.Fields.Set(model.FieldSummary, model.Text(summary))
	in.Fields.Set(model.FieldDescription, model.Text(description))
	return in
}

func override(uid string, target, start model.Instant) (*model.EventInstance, model.OverrideRecord) {
	in := &model.EventInstance{Key: model.OccurrenceKey{UID: uid, Start: start}, Start: start, End: start.AddWall(time.Hour)}
	in.Target = &target
	return in, model.OverrideRecord{UID: uid, Target: target, Instance: in}
}

func at(d, h int) model.Instant {
	return model.Aware(time.Date(2025, 1, d, h, 0, 0, 0, tokyo))
}

func TestReconcileExactMerge(t *testing.T) {
	t.Parallel()

	b1 := base("s", at(6, 9), "standup", "(empty)")
	b2 := base("s", at(7, 9), "standup", "(empty)")
	ov, rec := override("s", at(7, 9), at(7, 11))
	ov.Fields.Set(model.FieldSummary, model.Text("standup moved"))

	report := New(timezone.Fixed(tokyo), HideReplaced).Reconcile(
		[]*model.EventInstance{b1, b2, ov}, []model.OverrideRecord{rec})

	assert.Equal(t, 1, report.Matched)
	assert.Zero(t, report.Failed())
	assert.False(t, b1.Suppressed)
	assert.True(t, b2.Suppressed)
	assert.Equal(t, "standup moved", ov.Fields.Get(model.FieldSummary).String())
	assert.Equal(t, "(empty)", ov.Fields.Get(model.FieldDescription).String())
}

func TestReconcileShowReplaced(t *testing.T) {
	t.Parallel()

	b := base("s", at(6, 9), "lunch", "")
	ov, rec := override("s", at(6, 9), at(6, 12))

	report := New(timezone.Fixed(tokyo), ShowReplaced).Reconcile(
		[]*model.EventInstance{b, ov}, []model.OverrideRecord{rec})

	assert.Equal(t, 1, report.Matched)
	assert.False(t, b.Suppressed)
	assert.Equal(t, "Hidden: lunch", b.Fields.Get(model.FieldSummary).String())
	assert.Equal(t, "lunch", ov.Fields.Get(model.FieldSummary).String())
}

func TestReconcileCoercedPass(t *testing.T) {
	t.Parallel()

	b := base("d", model.Date(2025, 1, 6), "holiday", "")
	ov, rec := override("d", at(6, 0), model.Date(2025, 1, 6))
	ov.Fields.Set(model.FieldDescription, model.Text("moved"))

	report := New(timezone.Fixed(tokyo), HideReplaced).Reconcile(
		[]*model.EventInstance{b, ov}, []model.OverrideRecord{rec})

	assert.Equal(t, 1, report.Matched)
	assert.True(t, b.Suppressed)
	assert.Equal(t, "holiday", ov.Fields.Get(model.FieldSummary).String())
	assert.Equal(t, "moved", ov.Fields.Get(model.FieldDescription).String())
}

func TestReconcileOccurrenceIsConsumedOnce(t *testing.T) {
	t.Parallel()

	b := base("s", at(6, 9), "x", "")
	ov1, rec1 := override("s", at(6, 9), at(6, 10))
	ov2, rec2 := override("s", at(6, 9), at(6, 11))

	report := New(timezone.Fixed(tokyo), HideReplaced).Reconcile(
		[]*model.EventInstance{b, ov1, ov2}, []model.OverrideRecord{rec1, rec2})

	assert.Equal(t, 1, report.Matched)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, model.UnreferencedText, ov2.Fields.Get(model.FieldSummary).String())
}

func TestReconcileOrphansAndDangling(t *testing.T) {
	t.Parallel()

	b := base("s", at(6, 9), "x", "")
	orphan, recOrphan := override("s", at(20, 9), at(20, 10))
	titled, recTitled := override("s", at(21, 9), at(21, 10))
	titled.Fields.Set(model.FieldSummary, model.Text("kept"))
	dangling, recDangling := override("gone", at(6, 9), at(6, 10))

	report := New(timezone.Fixed(tokyo), HideReplaced).Reconcile(
		[]*model.EventInstance{b, orphan, titled, dangling},
		[]model.OverrideRecord{recOrphan, recTitled, recDangling})

	assert.Zero(t, report.Matched)
	assert.Len(t, report.Unmatched, 2)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, "gone", report.Dangling[0].UID)
	assert.Equal(t, 3, report.Failed())

	assert.False(t, b.Suppressed)
	assert.Equal(t, model.UnreferencedText, orphan.Fields.Get(model.FieldSummary).String())
	assert.Equal(t, "kept", titled.Fields.Get(model.FieldSummary).String())
	assert.Equal(t, model.UnreferencedText, dangling.Fields.Get(model.FieldSummary).String())
}

func TestReconcileFloatingDocument(t *testing.T) {
	t.Parallel()

	start := model.Floating(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	b := base("f", start, "x", "")
	ov, rec := override("f", start, start.AddWall(time.Hour))

	report := New(timezone.Fixed(nil), HideReplaced).Reconcile(
		[]*model.EventInstance{b, ov}, []model.OverrideRecord{rec})
	assert.Equal(t, 1, report.Matched)
	assert.True(t, b.Suppressed)
}

func TestReconcileFloatingTargetMatchesPromotedSeries(t *testing.T) {
	t.Parallel()

	// a series made aware because its UNTIL is UTC, overridden with a
	// floating RECURRENCE-ID
	b := base("p", at(8, 9), "review", "agenda")
	ov, rec := override("p", model.Floating(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)), at(8, 13))

	report := New(timezone.Fixed(tokyo), HideReplaced).Reconcile(
		[]*model.EventInstance{b, ov}, []model.OverrideRecord{rec})

	assert.Equal(t, 1, report.Matched)
	assert.True(t, b.Suppressed)
	assert.Equal(t, "agenda", ov.Fields.Get(model.FieldDescription).String())
}
