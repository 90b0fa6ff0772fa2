package analytics

import (
	"slices"
	"time"

	"github.com/conorfennell/knolstudy/internal/sm2"
)

// Streaks computes the current and longest runs of consecutive study days.
// A study day is the calendar day of any session start. The current streak
// is active only while the latest study day is today or yesterday.
func Streaks(starts []time.Time, now time.Time, loc *time.Location) (current, longest int) {
	if len(starts) == 0 {
		return 0, 0
	}
	if loc == nil {
		loc = time.Local
	}

	days := make([]int, 0, len(starts))
	for _, t := range starts {
		days = append(days, sm2.DayNumber(t, loc))
	}
	slices.Sort(days)
	slices.Reverse(days)
	days = slices.Compact(days)

	today := sm2.DayNumber(now, loc)
	if gap := today - days[0]; gap == 0 || gap == 1 {
		current = 1
		for i := 1; i < len(days) && days[i-1]-days[i] == 1; i++ {
			current++
		}
	}

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return current, max(longest, current)
}
