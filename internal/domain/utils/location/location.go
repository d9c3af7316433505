package location

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	location *time.Location
	once     sync.Once
)

// Location returns the fixed time zone every "day" in the bot is defined in.
// The zone comes from settings.timezone and defaults to Europe/Moscow, so day
// boundaries do not depend on the server locale.
func Location() *time.Location {
	once.Do(func() {
		name := viper.GetString("settings.timezone")
		if name == "" {
			name = "Europe/Moscow"
		}
		var err error
		location, err = time.LoadLocation(name)
		if err != nil {
			location = time.FixedZone("MSK", 3*60*60)
		}
	})
	return location
}

// DayRange returns the UTC instants bounding the zone-local calendar day that
// contains t.
func DayRange(t time.Time) (time.Time, time.Time) {
	local := t.In(Location())
	begin := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
	end := begin.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return begin.UTC(), end.UTC()
}

// StartOfDay returns the zone-local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// DayNumber returns the 1-indexed ordinal of the zone-local day of ref relative
// to the zone-local day of startAt. The value is not clamped: it is zero or
// negative when ref falls on a day before startAt.
func DayNumber(startAt, ref time.Time) int {
	return DayNumberIn(Location(), startAt, ref)
}

// DayNumberIn counts calendar days in loc. Both dates are re-pinned to UTC
// before subtracting, so a 23- or 25-hour DST day cannot shift the ordinal.
func DayNumberIn(loc *time.Location, startAt, ref time.Time) int {
	start := startAt.In(loc)
	day := ref.In(loc)
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	dayDate := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return int(dayDate.Sub(startDate).Hours()/24) + 1
}

// SameDay reports whether both instants fall on the same zone-local day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}
