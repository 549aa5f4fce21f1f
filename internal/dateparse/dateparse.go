// Package dateparse turns date shorthands typed on the command line into
// ISO (YYYY-MM-DD) dates.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the stored date format
const Layout = "2006-01-02"

var offsetRe = regexp.MustCompile(`^([+-])(\d+)([dwm])$`)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Parse resolves input relative to the current day.
func Parse(input string) (string, error) {
	return ParseFrom(input, time.Now())
}

// ParseFrom resolves input relative to now. Empty input yields "".
//
// Accepted forms:
//   - "2025-03-01"
//   - "today", "tomorrow", "yesterday"
//   - "+3d", "-1w", "+2m" (days, weeks, months)
//   - weekday names ("fri", "monday"): the next such day, never today
func ParseFrom(input string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return t.Format(Layout), nil
	}

	switch s {
	case "today":
		return now.Format(Layout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(Layout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(Layout), nil
	}

	if m := offsetRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", fmt.Errorf("invalid offset %q", input)
		}
		if m[1] == "-" {
			n = -n
		}
		switch m[3] {
		case "d":
			return now.AddDate(0, 0, n).Format(Layout), nil
		case "w":
			return now.AddDate(0, 0, 7*n).Format(Layout), nil
		default:
			return now.AddDate(0, n, 0).Format(Layout), nil
		}
	}

	if wd, ok := weekdays[s]; ok {
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead).Format(Layout), nil
	}

	return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD, today, +3d, or a weekday)", input)
}
