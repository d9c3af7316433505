package location_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
)

func TestLocationDefaultsToMoscow(t *testing.T) {
	loc := location.Location()
	require.NotNil(t, loc)

	// Moscow is UTC+3 year round.
	_, offset := time.Date(2026, 3, 2, 12, 0, 0, 0, loc).Zone()
	assert.Equal(t, 3*60*60, offset)
}

func TestDayRange(t *testing.T) {
	loc := location.Location()

	// 00:30 local is still the same local day even though UTC is the day before.
	instant := time.Date(2026, 3, 2, 0, 30, 0, 0, loc)
	begin, end := location.DayRange(instant)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc).UTC(), begin)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, loc).Add(-time.Nanosecond).UTC(), end)
	assert.True(t, begin.Before(instant.UTC()))
	assert.True(t, end.After(instant.UTC()))
}

func TestStartOfDay(t *testing.T) {
	loc := location.Location()

	// 21:30 UTC on Mar 1 is 00:30 Mar 2 local.
	instant := time.Date(2026, 3, 1, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), location.StartOfDay(instant))
}

func TestDayNumber(t *testing.T) {
	loc := location.Location()
	start := time.Date(2026, 3, 2, 23, 30, 0, 0, loc)

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{name: "same instant", ref: start, want: 1},
		{name: "minutes later but next local day", ref: time.Date(2026, 3, 3, 0, 10, 0, 0, loc), want: 2},
		{name: "a week in", ref: start.AddDate(0, 0, 6), want: 7},
		{name: "day before start is not clamped", ref: start.AddDate(0, 0, -1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, location.DayNumber(start, tt.ref))
		})
	}
}

func TestDayNumberInDSTZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// CEST starts Mar 29 2026, making Mar 29 a 23-hour day; CET returns
	// Oct 25 2026, a 25-hour day. Neither may shift the count.
	springStart := time.Date(2026, 3, 28, 9, 0, 0, 0, berlin)
	assert.Equal(t, 2, location.DayNumberIn(berlin, springStart, springStart.AddDate(0, 0, 1)))
	assert.Equal(t, 3, location.DayNumberIn(berlin, springStart, time.Date(2026, 3, 30, 9, 0, 0, 0, berlin)))

	fallStart := time.Date(2026, 10, 24, 9, 0, 0, 0, berlin)
	assert.Equal(t, 3, location.DayNumberIn(berlin, fallStart, time.Date(2026, 10, 26, 9, 0, 0, 0, berlin)))
}

func TestSameDay(t *testing.T) {
	loc := location.Location()

	a := time.Date(2026, 3, 2, 1, 0, 0, 0, loc)
	b := time.Date(2026, 3, 2, 23, 59, 0, 0, loc)
	c := time.Date(2026, 3, 3, 0, 1, 0, 0, loc)

	assert.True(t, location.SameDay(a, b))
	assert.False(t, location.SameDay(b, c))

	// The comparison is zone-local, not UTC.
	utcEvening := time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC) // Mar 3 local
	assert.True(t, location.SameDay(utcEvening, c))
}
