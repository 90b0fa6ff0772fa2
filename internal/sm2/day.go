package sm2

import "time"

// StartOfDay returns 00:00:00.000 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// DayNumber maps t's calendar day in loc to a day count, so that
// consecutive calendar days differ by exactly one regardless of DST.
func DayNumber(t time.Time, loc *time.Location) int {
	t = t.In(loc)
	return int(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// StartOfDay returns the start of t's day in the reference location.
func (p *Params) StartOfDay(t time.Time) time.Time {
	return StartOfDay(t, p.location())
}

// EndOfDay returns the last millisecond of t's day in the reference location.
func (p *Params) EndOfDay(t time.Time) time.Time {
	return EndOfDay(t, p.location())
}

// DayNumber returns the day count of t in the reference location.
func (p *Params) DayNumber(t time.Time) int {
	return DayNumber(t, p.location())
}
