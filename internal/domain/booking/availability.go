package booking

import (
	"sort"
	"time"
)

type DayStatus string

const (
	DayFree      DayStatus = "free"
	DayPending   DayStatus = "pending"
	DayConfirmed DayStatus = "confirmed"
	DayPast      DayStatus = "past"
)

// Availability maps UTC-midnight dates to their occupancy.
type Availability map[time.Time]DayStatus

type Day struct {
	Date   time.Time
	Status DayStatus
}

// BuildAvailability derives the calendar from scratch. Dates before today
// are past within the lookback; dates in the forward window start free;
// active bookings then mark their nights inside the window, confirmed
// winning over pending.
func BuildAvailability(active []*Booking, today time.Time, lookbackDays, windowDays int) Availability {
	today = NormalizeDate(today)
	out := make(Availability, lookbackDays+windowDays)

	for i := 1; i <= lookbackDays; i++ {
		out[today.AddDate(0, 0, -i)] = DayPast
	}
	for i := 0; i < windowDays; i++ {
		out[today.AddDate(0, 0, i)] = DayFree
	}
	windowEnd := today.AddDate(0, 0, windowDays)

	for _, b := range active {
		if b == nil || !b.IsActive() {
			continue
		}
		mark := DayPending
		if b.Status() == StatusConfirmed {
			mark = DayConfirmed
		}
		// Only nights inside [today, windowEnd) are rendered.
		stay := b.Stay()
		start, end := stay.From(), stay.To()
		if start.Before(today) {
			start = today
		}
		if end.After(windowEnd) {
			end = windowEnd
		}
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			if out[day] == DayConfirmed {
				continue
			}
			out[day] = mark
		}
	}
	return out
}

// Days returns the calendar in date order.
func (a Availability) Days() []Day {
	days := make([]Day, 0, len(a))
	for d, s := range a {
		days = append(days, Day{Date: d, Status: s})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

func (a Availability) StatusOn(day time.Time) (DayStatus, bool) {
	s, ok := a[NormalizeDate(day)]
	return s, ok
}
