package service

import "time"

// Schedule описывает еженедельное расписание перерывов.
type Schedule struct {
	Weekday    time.Weekday
	Hour       int
	Minute     int
	Location   *time.Location
	Place      string
	WeeksAhead int
}

// Next возвращает ближайшее после from время перерыва.
func (s Schedule) Next(from time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	local := from.In(loc)
	days := (int(s.Weekday) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+days, s.Hour, s.Minute, 0, 0, loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Upcoming возвращает n ближайших после from перерывов.
// Время считается в часовом поясе расписания, поэтому переход на летнее время не сдвигает час перерыва.
func (s Schedule) Upcoming(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}

	first := s.Next(from)
	res := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, first.AddDate(0, 0, 7*i))
	}
	return res
}
