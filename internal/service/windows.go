package service

import "time"

// Windows bound the admin reporting periods. Each period runs from its lower
// bound up to Now.
type Windows struct {
	Today   time.Time
	Weekly  time.Time
	Monthly time.Time
	Now     time.Time
}

// TrailingWindows anchors "today" at local midnight in loc and the others at
// rolling 7 and 30 day offsets from now. All of them end at now.
func TrailingWindows(now time.Time, loc *time.Location) Windows {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return Windows{
		Today:   midnight,
		Weekly:  now.Add(-7 * 24 * time.Hour),
		Monthly: now.Add(-30 * 24 * time.Hour),
		Now:     now,
	}
}
