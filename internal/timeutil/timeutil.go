// Package timeutil implements the unix-seconds time arithmetic shared by the
// scheduler, the daily rollup, and the analytics queries. All timestamps in
// this codebase are integer unix seconds, UTC.
package timeutil

import "time"

// FloorToMinute returns t rounded down to the start of its minute.
func FloorToMinute(t int64) int64 {
	return t - (t % 60)
}

// DayStart returns the unix second of the UTC midnight that begins the day
// containing t.
func DayStart(t int64) int64 {
	tm := time.Unix(t, 0).UTC()
	day := time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix()
}

// DayEnd returns the unix second of the UTC midnight that ends the day
// containing t (i.e. the start of the next day).
func DayEnd(t int64) int64 {
	return DayStart(t) + 86400
}

// PreviousDay returns the [start, end) bounds of the UTC day before the one
// containing now. The daily rollup always operates on "yesterday" relative
// to the trigger time.
func PreviousDay(now int64) (start, end int64) {
	todayStart := DayStart(now)
	return todayStart - 86400, todayStart
}

// RangeSeconds converts a range token ("24h", "7d", "30d", "90d") into a
// duration in seconds. It returns false for unrecognized tokens so callers
// can surface an INVALID_ARGUMENT error.
func RangeSeconds(rangeToken string) (int64, bool) {
	switch rangeToken {
	case "24h":
		return 86400, true
	case "7d":
		return 7 * 86400, true
	case "30d":
		return 30 * 86400, true
	case "90d":
		return 90 * 86400, true
	default:
		return 0, false
	}
}

// Clock returns the current unix second. It exists so callers depend on an
// injectable clock rather than calling time.Now directly, which keeps the
// scheduler and rollup trigger paths testable.
type Clock func() int64

// RealClock is the production Clock implementation.
func RealClock() int64 {
	return time.Now().UTC().Unix()
}
