package booking

import (
	"villa-booking/internal/domain/resource"
)

const daysPerWeek = 7

type Quote struct {
	Total  Money
	Nights int
}

type QuoteCalculator interface {
	Quote(rates resource.RateSchedule, stay DateRange) (Quote, error)
}

// TieredQuoteCalculator prices each night by its weekday/weekend tier.
type TieredQuoteCalculator struct{}

func NewTieredQuoteCalculator() *TieredQuoteCalculator {
	return &TieredQuoteCalculator{}
}

func (TieredQuoteCalculator) Quote(rates resource.RateSchedule, stay DateRange) (Quote, error) {
	if stay.From().IsZero() || stay.To().IsZero() {
		return Quote{}, ErrInvalidDate
	}
	if stay.From().After(stay.To()) {
		return Quote{}, ErrInvalidDateRange
	}

	// A zero-night range is charged as one night on the check-in date.
	if stay.IsEmpty() {
		total, err := NewMoney(rates.NightlyRate(stay.From()))
		if err != nil {
			return Quote{}, err
		}
		return Quote{Total: total, Nights: 1}, nil
	}

	nights := stay.Nights()
	weeks := nights / daysPerWeek

	// Any seven consecutive nights cover each weekday once.
	var weekTotal int64
	for i := 0; i < daysPerWeek; i++ {
		weekTotal += rates.NightlyRate(stay.From().AddDate(0, 0, i))
	}

	sum := int64(weeks) * weekTotal
	for day := stay.From().AddDate(0, 0, weeks*daysPerWeek); day.Before(stay.To()); day = day.AddDate(0, 0, 1) {
		sum += rates.NightlyRate(day)
	}

	total, err := NewMoney(sum)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Total: total, Nights: nights}, nil
}
