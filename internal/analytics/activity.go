package analytics

import (
	"math"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/sm2"
)

// DateLayout formats the days of the activity series.
const DateLayout = "2006-01-02"

// Retention returns the rounded percentage of successful reviews, 0 without reviews.
func Retention(total, successful int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(successful) / float64(total)))
}

// DailyActivity buckets reviews into the last days calendar days ending with
// now's day, oldest first. Reviews outside that window are ignored.
func DailyActivity(reviews []*domain.Review, now time.Time, days int, loc *time.Location) []domain.DayActivity {
	if days <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}

	first := sm2.StartOfDay(now, loc).AddDate(0, 0, -(days - 1))
	firstDay := sm2.DayNumber(first, loc)
	counts := make([]int, days)
	sums := make([]int, days)
	for _, r := range reviews {
		i := sm2.DayNumber(r.ReviewedAt, loc) - firstDay
		if i < 0 || i >= days {
			continue
		}
		counts[i]++
		sums[i] += r.Quality
	}

	activity := make([]domain.DayActivity, days)
	for i := range activity {
		activity[i] = domain.DayActivity{
			Date:         first.AddDate(0, 0, i).Format(DateLayout),
			CardsStudied: counts[i],
		}
		if counts[i] > 0 {
			activity[i].AverageQuality = math.Round(float64(sums[i])/float64(counts[i])*10) / 10
		}
	}
	return activity
}
