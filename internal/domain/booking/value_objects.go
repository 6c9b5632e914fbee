package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDate          = errors.New("date must be a calendar date in YYYY-MM-DD format")
	ErrInvalidDateRange     = errors.New("check-in must not be after check-out")
	ErrEmptyStay            = errors.New("check-out must be after check-in")
	ErrStayInPast           = errors.New("check-in cannot be before today")
	ErrNegativePrice        = errors.New("price cannot be negative")
	ErrInvalidRequesterName = errors.New("requester name must be 1-100 characters")
)

const (
	DateLayout             = "2006-01-02"
	MaxRequesterNameLength = 100

	secondsPerDay = 24 * 60 * 60
)

// ParseDate accepts ISO calendar dates only; impossible dates such as
// 2024-02-30 are rejected by time.Parse.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDate drops the time of day and pins the date to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is the half-open interval [from, to) of calendar dates.
type DateRange struct {
	from time.Time
	to   time.Time
}

func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() || to.IsZero() {
		return DateRange{}, ErrInvalidDate
	}
	from, to = NormalizeDate(from), NormalizeDate(to)
	if from.After(to) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{from: from, to: to}, nil
}

func ParseDateRange(from, to string) (DateRange, error) {
	f, err := ParseDate(from)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(f, t)
}

func (r DateRange) From() time.Time { return r.from }
func (r DateRange) To() time.Time   { return r.to }

// Nights counts calendar days between the bounds. Both ends are UTC midnight,
// so the Unix difference is an exact multiple of a day at any distance.
func (r DateRange) Nights() int {
	return int((r.to.Unix() - r.from.Unix()) / secondsPerDay)
}

func (r DateRange) IsEmpty() bool {
	return !r.from.Before(r.to)
}

// Overlaps uses half-open semantics: ranges that only touch do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.from.Before(other.to) && other.from.Before(r.to)
}

func (r DateRange) Contains(day time.Time) bool {
	day = NormalizeDate(day)
	return !day.Before(r.from) && day.Before(r.to)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s,%s)", FormatDate(r.from), FormatDate(r.to))
}

// Money is an amount in minor currency units.
type Money struct {
	amount int64
}

func NewMoney(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativePrice
	}
	return Money{amount: amount}, nil
}

func (m Money) Amount() int64 {
	return m.amount
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount + other.amount}
}

func NewRequesterName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > MaxRequesterNameLength {
		return "", ErrInvalidRequesterName
	}
	return s, nil
}
