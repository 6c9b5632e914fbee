package resource

import (
	"errors"
	"time"
)

var (
	ErrInvalidKind     = errors.New("invalid resource kind")
	ErrNegativeRate    = errors.New("rate cannot be negative")
	ErrMissingRateTier = errors.New("weekday and weekend rates need a value or a flat fallback")
)

type Kind string

const (
	KindRentable    Kind = "rentable"
	KindNonRentable Kind = "non_rentable"
)

func (k Kind) String() string {
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindRentable, KindNonRentable:
		return true
	default:
		return false
	}
}

func NewKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// RateSchedule holds nightly rates in minor currency units. A zero tier means
// "unset" and falls back to the flat rate.
type RateSchedule struct {
	weekday int64
	weekend int64
	flat    int64
}

func NewRateSchedule(weekday, weekend, flat int64) (RateSchedule, error) {
	if weekday < 0 || weekend < 0 || flat < 0 {
		return RateSchedule{}, ErrNegativeRate
	}
	return RateSchedule{weekday: weekday, weekend: weekend, flat: flat}, nil
}

// NewBookableRateSchedule additionally requires every night to resolve to a price.
func NewBookableRateSchedule(weekday, weekend, flat int64) (RateSchedule, error) {
	rs, err := NewRateSchedule(weekday, weekend, flat)
	if err != nil {
		return RateSchedule{}, err
	}
	if rs.WeekdayRate() == 0 || rs.WeekendRate() == 0 {
		return RateSchedule{}, ErrMissingRateTier
	}
	return rs, nil
}

func (rs RateSchedule) Weekday() int64 { return rs.weekday }
func (rs RateSchedule) Weekend() int64 { return rs.weekend }
func (rs RateSchedule) Flat() int64    { return rs.flat }

// WeekdayRate is the effective weekday price after the flat fallback.
func (rs RateSchedule) WeekdayRate() int64 {
	if rs.weekday > 0 {
		return rs.weekday
	}
	return rs.flat
}

// WeekendRate is the effective weekend price after the flat fallback.
func (rs RateSchedule) WeekendRate() int64 {
	if rs.weekend > 0 {
		return rs.weekend
	}
	return rs.flat
}

// IsWeekend reports whether a night falls in the weekend tier: Friday,
// Saturday and Sunday.
func IsWeekend(day time.Time) bool {
	switch day.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// NightlyRate returns the price of the night starting on day.
func (rs RateSchedule) NightlyRate(day time.Time) int64 {
	if IsWeekend(day) {
		return rs.WeekendRate()
	}
	return rs.WeekdayRate()
}
