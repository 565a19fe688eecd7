package billing

import "time"

// AdvanceFunc computes the next cycle's due time from the previous cycle's
// scheduled time. It must never return a time in the past relative to now.
type AdvanceFunc func(now, last time.Time) time.Time

// FirstOfNextMonth schedules the next cycle for midnight UTC on the first
// day of the month after the base date. A base that already passed is
// normalized to now, so the result is always in the future.
func FirstOfNextMonth(now, last time.Time) time.Time {
	base := last
	if base.Before(now) {
		base = now
	}
	base = base.UTC()
	return time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
