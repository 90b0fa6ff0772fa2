// Package sm2 implements the SuperMemo-2 interval recurrence.
//
// Everything here is pure: the caller supplies the current time and the
// reference location defines where calendar days begin.
package sm2

import (
	"math"
	"time"
)

// Quality bounds. A review with quality below PassingQuality is a lapse.
const (
	MinQuality     = 0
	MaxQuality     = 5
	PassingQuality = 3
)

// Params holds the parameters of the SM-2 recurrence.
type Params struct {
	InitialEaseFactor float64
	MinEaseFactor     float64
	FirstInterval     int // days after the first successful review
	SecondInterval    int // days after the second consecutive successful review
	Location          *time.Location
}

// DefaultParams returns the classic SM-2 constants with days in the process' local zone.
func DefaultParams() *Params {
	return &Params{
		InitialEaseFactor: 2.5,
		MinEaseFactor:     1.3,
		FirstInterval:     1,
		SecondInterval:    6,
		Location:          time.Local,
	}
}

// CardState holds the scheduling state of a card.
type CardState struct {
	Repetitions int
	EaseFactor  float64
	Interval    int
	NextReview  time.Time
}

// ClampQuality rounds q to the nearest integer and clamps it into [MinQuality, MaxQuality].
func ClampQuality(q float64) int {
	if math.IsNaN(q) {
		return MinQuality
	}
	r := math.Round(q)
	if r < MinQuality {
		return MinQuality
	}
	if r > MaxQuality {
		return MaxQuality
	}
	return int(r)
}

// NextState computes the state following a review of the given quality at now.
// It never fails: out of range qualities are clamped.
func (p *Params) NextState(current CardState, quality float64, now time.Time) CardState {
	q := ClampQuality(quality)
	ef := p.nextEaseFactor(current.EaseFactor, q)

	next := CardState{EaseFactor: ef}
	if q < PassingQuality {
		// A lapse restarts the run and brings the card back tomorrow.
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions = current.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = p.FirstInterval
		case 2:
			next.Interval = p.SecondInterval
		default:
			next.Interval = int(math.Round(float64(current.Interval) * ef))
			if next.Interval < 1 {
				next.Interval = 1
			}
		}
	}
	next.NextReview = p.NextDueDate(next.Interval, now)
	return next
}

// nextEaseFactor applies EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)),
// rounded to two decimals and floored at MinEaseFactor.
func (p *Params) nextEaseFactor(ef float64, q int) float64 {
	d := float64(MaxQuality - q)
	ef = ef + (0.1 - d*(0.08+d*0.02))
	ef = math.Round(ef*100) / 100
	if ef < p.MinEaseFactor {
		ef = p.MinEaseFactor
	}
	return ef
}

// NextDueDate returns the start of the day that lies interval days after now.
func (p *Params) NextDueDate(interval int, now time.Time) time.Time {
	return StartOfDay(now, p.location()).AddDate(0, 0, interval)
}

// IsDue reports whether nextReview falls at or before the last millisecond of ref's day.
func (p *Params) IsDue(nextReview, ref time.Time) bool {
	return !nextReview.After(EndOfDay(ref, p.location()))
}

// OverdueDays returns how many calendar days nextReview lies before ref.
// The result is negative for reviews scheduled in the future.
func (p *Params) OverdueDays(nextReview, ref time.Time) int {
	loc := p.location()
	return DayNumber(ref, loc) - DayNumber(nextReview, loc)
}

func (p *Params) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}
