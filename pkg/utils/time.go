package utils

import (
	"fmt"
	"time"
)

var agoUnits = []struct {
	size time.Duration
	name string
}{
	{7 * 24 * time.Hour, "week"},
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// TimeAgo renders t relative to now in its largest whole unit, e.g.
// "3 hours ago". Times in the future read "in 5 minutes".
func TimeAgo(t time.Time) string {
	d := time.Since(t)
	future := d < 0
	if future {
		d = -d
	}

	for _, u := range agoUnits {
		n := int(d / u.size)
		if n < 1 {
			continue
		}
		if n == 1 && u.name == "day" && !future {
			return "yesterday"
		}
		unit := u.name
		if n > 1 {
			unit += "s"
		}
		if future {
			return fmt.Sprintf("in %d %s", n, unit)
		}
		return fmt.Sprintf("%d %s ago", n, unit)
	}
	return "just now"
}

// FormatTimestamp prints t in local time: the clock for today, weekday and
// clock within a week either side of now, the full date otherwise.
func FormatTimestamp(t time.Time) string {
	t = t.Local()
	now := time.Now()

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}

	d := now.Sub(t)
	if d < 0 {
		d = -d
	}
	if d < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("2006-01-02 15:04")
}
