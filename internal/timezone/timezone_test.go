package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "icsconv/internal/errors"
	"icsconv/internal/model"
)

var jst = time.FixedZone("JST", 9*3600)

func TestResolve(t *testing.T) {
	t.Parallel()

	tokyo := NamedZone{Name: "Tokyo Standard Time", Location: jst}
	utc := NamedZone{Name: "UTC", Location: time.UTC}

	t.Run("override matches declared zone", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve([]NamedZone{utc, tokyo}, "Tokyo Standard Time")
		require.NoError(t, err)
		loc, ok := r.Zone()
		require.True(t, ok)
		assert.Same(t, jst, loc)
	})

	t.Run("override from tzdata", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve(nil, "Asia/Seoul")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Seoul", r.Name())
	})

	t.Run("invalid override", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve([]NamedZone{tokyo}, "Mars/Olympus")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	})

	t.Run("single declared", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve([]NamedZone{tokyo}, "")
		require.NoError(t, err)
		assert.Equal(t, "Tokyo Standard Time", r.Name())
	})

	t.Run("none declared is floating", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve(nil, "")
		require.NoError(t, err)
		_, ok := r.Zone()
		assert.False(t, ok)
	})

	t.Run("several declared takes first", func(t *testing.T) {
		t.Parallel()
		r, err := Resolve([]NamedZone{utc, tokyo}, "")
		require.NoError(t, err)
		assert.Equal(t, "UTC", r.Name())
	})
}

func TestToLocalAndCoerce(t *testing.T) {
	t.Parallel()

	aware := model.Aware(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := Fixed(nil).ToLocal(aware)
	assert.True(t, apperr.Is(err, apperr.KindZoneResolution))

	got, err := Fixed(jst).ToLocal(aware)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Time().Hour())

	floating := model.Floating(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	got, err = Fixed(nil).ToLocal(floating)
	require.NoError(t, err)
	assert.True(t, got.Equal(floating))

	_, err = Fixed(nil).Coerce(model.Date(2025, 1, 1), true)
	assert.True(t, apperr.Is(err, apperr.KindZoneResolution))

	got, err = Fixed(nil).Coerce(model.Date(2025, 1, 1), false)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00", got.String())

	got, err = Fixed(jst).Coerce(model.Date(2025, 1, 1), true)
	require.NoError(t, err)
	assert.True(t, got.IsAware())
	assert.Equal(t, "2025-01-01T00:00:00+09:00", got.String())
}

func TestFormatAllDayPolicies(t *testing.T) {
	t.Parallel()

	start := model.Date(2025, 4, 10)
	end := model.Date(2025, 4, 11)

	tests := []struct {
		policy AllDayPolicy
		want   Rendered
	}{
		{AllDayNextDay, Rendered{StartDate: "2025/04/10", EndDate: "2025/04/11", AllDay: true}},
		{AllDayToday, Rendered{StartDate: "2025/04/10", EndDate: "2025/04/10", AllDay: true}},
		{AllDayTodayRemTime, Rendered{StartDate: "2025/04/10", EndDate: "2025/04/10", AllDay: true}},
		{AllDayNextDayRemTime, Rendered{StartDate: "2025/04/10", EndDate: "2025/04/11", AllDay: true}},
		{AllDayAddTime, Rendered{StartDate: "2025/04/10", StartTime: "00:00:00", EndDate: "2025/04/11", EndTime: "00:00:00", AllDay: true}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.policy.String(), func(t *testing.T) {
			t.Parallel()
			got, err := Fixed(jst).Format(start, end, Policy{AllDay: tt.policy, Date: DateSlash})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAddTimeZeroLength(t *testing.T) {
	t.Parallel()

	d := model.Date(2025, 4, 10)
	_, err := Fixed(jst).Format(d, d, Policy{AllDay: AllDayAddTime})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStructural))

	// other policies accept it
	_, err = Fixed(jst).Format(d, d, Policy{AllDay: AllDayNextDay})
	assert.NoError(t, err)
}

func TestFormatRemTimeStripsMidnight(t *testing.T) {
	t.Parallel()

	start := model.Aware(time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC))
	end := model.Aware(time.Date(2025, 4, 10, 15, 0, 0, 0, time.UTC))

	got, err := Fixed(jst).Format(start, end, Policy{AllDay: AllDayTodayRemTime, Date: DateExtended})
	require.NoError(t, err)
	assert.Equal(t, Rendered{StartDate: "2025-04-10", EndDate: "2025-04-10"}, got)

	got, err = Fixed(jst).Format(start, end, Policy{AllDay: AllDayNextDayRemTime, Date: DateExtended})
	require.NoError(t, err)
	assert.Equal(t, Rendered{StartDate: "2025-04-10", EndDate: "2025-04-11"}, got)

	// plain today keeps the times
	got, err = Fixed(jst).Format(start, end, Policy{AllDay: AllDayToday, Date: DateBasic})
	require.NoError(t, err)
	assert.Equal(t, Rendered{StartDate: "20250410", StartTime: "000000", EndDate: "20250411", EndTime: "000000"}, got)
}

func TestFormatTimed(t *testing.T) {
	t.Parallel()

	start := model.Aware(time.Date(2025, 4, 10, 1, 30, 0, 0, time.UTC))
	end := model.Aware(time.Date(2025, 4, 10, 2, 0, 0, 0, time.UTC))

	got, err := Fixed(jst).Format(start, end, Policy{AllDay: AllDayToday, Date: DateSlash, ShowZone: true})
	require.NoError(t, err)
	assert.Equal(t, Rendered{StartDate: "2025/04/10", StartTime: "10:30:00+0900", EndDate: "2025/04/10", EndTime: "11:00:00+0900"}, got)

	fs := model.Floating(time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC))
	fe := model.Floating(time.Date(2025, 4, 10, 10, 0, 0, 0, time.UTC))
	got, err = Fixed(nil).Format(fs, fe, Policy{AllDay: AllDayToday, Date: DateSlash, ShowZone: true})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", got.StartTime)

	_, err = Fixed(jst).Format(fs, model.Date(2025, 4, 11), Policy{})
	assert.True(t, apperr.Is(err, apperr.KindStructural))
}

func TestParsePolicyNames(t *testing.T) {
	t.Parallel()

	for name, want := range allDayNames {
		got, err := ParseAllDayPolicy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}
	_, err := ParseAllDayPolicy("tomorrow")
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))

	for _, name := range []string{"slash_ymd", "basic", "extended"} {
		f, err := ParseDateFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}
	_, err = ParseDateFormat("iso")
	assert.Error(t, err)
}

func TestLoadZoneAndOffset(t *testing.T) {
	t.Parallel()

	loc, err := LoadZone("Tokyo Standard Time")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())

	_, err = LoadZone("")
	assert.Error(t, err)

	off, err := ParseOffset("+0900")
	require.NoError(t, err)
	assert.Equal(t, 9*3600, off)

	off, err = ParseOffset("-053000")
	require.NoError(t, err)
	assert.Equal(t, -(5*3600 + 30*60), off)

	_, err = ParseOffset("0900")
	assert.Error(t, err)
}
