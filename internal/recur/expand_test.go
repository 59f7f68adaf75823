package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
	"icsconv/internal/timezone"
)

func floating(y int, m time.Month, d, h, min int) model.Instant {
	return model.Floating(time.Date(y, m, d, h, min, 0, 0, time.UTC))
}

func starts(occs []Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.Start.String())
	}
	return out
}

func TestExpandSingleEvent(t *testing.T) {
	t.Parallel()

	ev := model.CalendarEvent{UID: "s", Start: floating(2025, 1, 6, 9, 0), End: floating(2025, 1, 6, 10, 0)}
	occs, err := New(timezone.Fixed(nil), Config{}).Expand(ev)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.True(t, occs[0].Start.Equal(ev.Start))
}

func TestExpandDailyCount(t *testing.T) {
	t.Parallel()

	x := New(timezone.Fixed(nil), Config{})

	t.Run("timed", func(t *testing.T) {
		t.Parallel()
		occs, err := x.Expand(model.CalendarEvent{
			UID:   "d",
			Start: floating(2025, 1, 6, 9, 0),
			End:   floating(2025, 1, 6, 10, 30),
			RRule: "FREQ=DAILY;COUNT=3",
		})
		require.NoError(t, err)
		require.Len(t, occs, 3)
		for i := 1; i < len(occs); i++ {
			assert.Equal(t, 24*time.Hour, occs[i].Start.WallSub(occs[i-1].Start))
		}
		assert.Equal(t, "2025-01-08T10:30:00", occs[2].End.String())
	})

	t.Run("date only", func(t *testing.T) {
		t.Parallel()
		occs, err := x.Expand(model.CalendarEvent{
			UID:   "a",
			Start: model.Date(2025, 1, 31),
			End:   model.Date(2025, 2, 1),
			RRule: "FREQ=DAILY;COUNT=3",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-01-31", "2025-02-01", "2025-02-02"}, starts(occs))
		for _, o := range occs {
			assert.True(t, o.Start.IsDateOnly())
			assert.True(t, o.End.IsDateOnly())
		}
		assert.Equal(t, "2025-02-03", occs[2].End.String())
	})
}

func TestExpandKeepsWallClockAcrossDST(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	occs, err := New(timezone.Fixed(ny), Config{}).Expand(model.CalendarEvent{
		UID:   "w",
		Start: model.Aware(time.Date(2025, 3, 4, 9, 0, 0, 0, ny)),
		End:   model.Aware(time.Date(2025, 3, 4, 10, 0, 0, 0, ny)),
		RRule: "FREQ=WEEKLY;COUNT=2",
	})
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, "2025-03-11T09:00:00-04:00", occs[1].Start.String())
	assert.Equal(t, "2025-03-11T10:00:00-04:00", occs[1].End.String())
}

func TestExpandExceptionsAndExtraDates(t *testing.T) {
	t.Parallel()

	occs, err := New(timezone.Fixed(nil), Config{}).Expand(model.CalendarEvent{
		UID:     "x",
		Start:   floating(2025, 1, 6, 9, 0),
		End:     floating(2025, 1, 6, 10, 0),
		RRule:   "FREQ=DAILY;COUNT=4",
		ExDates: []model.Instant{model.Date(2025, 1, 7), floating(2025, 1, 9, 9, 0)},
		RDates:  []model.Instant{floating(2025, 1, 20, 14, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-06T09:00:00", "2025-01-08T09:00:00", "2025-01-20T14:00:00"}, starts(occs))
	assert.Equal(t, "2025-01-20T15:00:00", occs[2].End.String())
}

func TestExpandUntil(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("Tokyo Standard Time", 9*3600)

	t.Run("utc until promotes floating start", func(t *testing.T) {
		t.Parallel()
		occs, err := New(timezone.Fixed(tokyo), Config{}).Expand(model.CalendarEvent{
			UID:   "u",
			Start: floating(2025, 1, 6, 9, 0),
			End:   floating(2025, 1, 6, 10, 0),
			RRule: "FREQ=DAILY;UNTIL=20250108T000000Z",
		})
		require.NoError(t, err)
		require.Len(t, occs, 3)
		assert.True(t, occs[0].Start.IsAware())
		assert.Equal(t, "2025-01-08T09:00:00+09:00", occs[2].Start.String())
	})

	t.Run("utc until keeps date-only series as dates", func(t *testing.T) {
		t.Parallel()
		occs, err := New(timezone.Fixed(tokyo), Config{}).Expand(model.CalendarEvent{
			UID:   "ud",
			Start: model.Date(2025, 1, 6),
			End:   model.Date(2025, 1, 7),
			RRule: "FREQ=WEEKLY;UNTIL=20250119T150000Z",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-01-06", "2025-01-13", "2025-01-20"}, starts(occs))
	})

	t.Run("utc until without zone", func(t *testing.T) {
		t.Parallel()
		_, err := New(timezone.Fixed(nil), Config{}).Expand(model.CalendarEvent{
			UID:   "u2",
			Start: floating(2025, 1, 6, 9, 0),
			End:   floating(2025, 1, 6, 10, 0),
			RRule: "FREQ=DAILY;UNTIL=20250108T000000Z",
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindZoneResolution))
	})

	t.Run("utc until with fix disabled", func(t *testing.T) {
		t.Parallel()
		_, err := New(timezone.Fixed(tokyo), Config{DisableAwareFix: true}).Expand(model.CalendarEvent{
			UID:   "u3",
			Start: floating(2025, 1, 6, 9, 0),
			End:   floating(2025, 1, 6, 10, 0),
			RRule: "FREQ=DAILY;UNTIL=20250108T000000Z",
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindStructural))
	})

	t.Run("local until with aware start", func(t *testing.T) {
		t.Parallel()
		_, err := New(timezone.Fixed(tokyo), Config{}).Expand(model.CalendarEvent{
			UID:   "u4",
			Start: model.Aware(time.Date(2025, 1, 6, 9, 0, 0, 0, tokyo)),
			End:   model.Aware(time.Date(2025, 1, 6, 10, 0, 0, 0, tokyo)),
			RRule: "FREQ=DAILY;UNTIL=20250108T090000",
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindStructural))
	})

	t.Run("local until with floating start", func(t *testing.T) {
		t.Parallel()
		occs, err := New(timezone.Fixed(nil), Config{}).Expand(model.CalendarEvent{
			UID:   "u5",
			Start: floating(2025, 1, 6, 9, 0),
			End:   floating(2025, 1, 6, 10, 0),
			RRule: "FREQ=DAILY;UNTIL=20250107T090000",
		})
		require.NoError(t, err)
		assert.Len(t, occs, 2)
	})
}

func TestExpandUnbounded(t *testing.T) {
	t.Parallel()

	ev := model.CalendarEvent{
		UID:   "forever",
		Start: floating(2025, 1, 6, 9, 0),
		End:   floating(2025, 1, 6, 10, 0),
		RRule: "FREQ=DAILY",
	}

	_, err := New(timezone.Fixed(nil), Config{}).Expand(ev)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStructural))

	occs, err := New(timezone.Fixed(nil), Config{Unbounded: UnboundedTruncate, MaxOccurrences: 10}).Expand(ev)
	require.NoError(t, err)
	assert.Len(t, occs, 10)
}

func TestExpandDateOnlyOffMidnightFails(t *testing.T) {
	t.Parallel()

	_, err := New(timezone.Fixed(nil), Config{}).Expand(model.CalendarEvent{
		UID:   "bad",
		Start: model.Date(2025, 1, 6),
		End:   model.Date(2025, 1, 7),
		RRule: "FREQ=DAILY;COUNT=2;BYHOUR=9",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExpansion))
}

func TestExpandInvalidRule(t *testing.T) {
	t.Parallel()

	_, err := New(timezone.Fixed(nil), Config{}).Expand(model.CalendarEvent{
		UID:   "bad",
		Start: floating(2025, 1, 6, 9, 0),
		End:   floating(2025, 1, 6, 10, 0),
		RRule: "COUNT=2",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStructural))
}

func TestParseUnboundedPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseUnboundedPolicy("Truncate")
	require.NoError(t, err)
	assert.Equal(t, UnboundedTruncate, p)

	p, err = ParseUnboundedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnboundedReject, p)

	_, err = ParseUnboundedPolicy("forever")
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
}
