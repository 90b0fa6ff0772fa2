package sm2

import (
	"fmt"
	"time"
)

// Describe renders the time until nextReview as a coarse human readable bucket.
func (p *Params) Describe(nextReview, ref time.Time) string {
	days := -p.OverdueDays(nextReview, ref)
	switch {
	case days < 0:
		return plural("overdue by %d day", -days)
	case days == 0:
		return "due today"
	case days == 1:
		return "tomorrow"
	case days < 7:
		return plural("in %d day", days)
	case days < 30:
		return plural("in %d week", days/7)
	default:
		return plural("in %d month", days/30)
	}
}

func plural(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}
