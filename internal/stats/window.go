package stats

import (
	"time"

	"shoptrack/internal/model"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayWindows slices [from, to) into one window per calendar day. Each window
// runs from midnight to the following midnight minus one millisecond, so
// consecutive windows are disjoint and contiguous. The day containing to is
// excluded. Recomputed on every call, never cached.
func DayWindows(from, to time.Time) []model.TimeWindow {
	var windows []model.TimeWindow
	cur := DayStart(from)
	end := DayStart(to)
	for cur.Before(end) {
		start := cur.UnixMilli()
		windows = append(windows, model.TimeWindow{From: start, To: start + dayMillis - 1})
		cur = cur.Add(24 * time.Hour)
	}
	return windows
}
