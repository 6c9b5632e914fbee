package booking

import (
	"errors"
	"time"

	"villa-booking/internal/domain/resource"
	"villa-booking/internal/pkg/clock"

	"github.com/google/uuid"
)

var ErrNotRentable = errors.New("resource cannot be booked")

type Factory struct {
	Clock    clock.Clock
	Quotes   QuoteCalculator
	Location *time.Location
}

func NewFactory(clk clock.Clock, quotes QuoteCalculator, loc *time.Location) *Factory {
	return &Factory{
		Clock:    clk,
		Quotes:   quotes,
		Location: loc,
	}
}

func (f *Factory) Today() time.Time {
	return clock.Today(f.Clock, f.Location)
}

// ValidateStay enforces today <= from < to.
func (f *Factory) ValidateStay(stay DateRange) error {
	if stay.IsEmpty() {
		return ErrEmptyStay
	}
	if stay.From().Before(f.Today()) {
		return ErrStayInPast
	}
	return nil
}

// NewPendingBooking prices the stay with the resource's current rates. The
// price is fixed from here on.
func (f *Factory) NewPendingBooking(
	res *resource.Resource,
	requesterID uuid.UUID,
	requesterName string,
	stay DateRange,
) (*Booking, error) {
	if !res.IsRentable() {
		return nil, ErrNotRentable
	}
	if err := f.ValidateStay(stay); err != nil {
		return nil, err
	}
	name, err := NewRequesterName(requesterName)
	if err != nil {
		return nil, err
	}

	q, err := f.Quotes.Quote(res.Rates(), stay)
	if err != nil {
		return nil, err
	}

	now := f.Clock.Now()
	return &Booking{
		id:            uuid.New(),
		resourceID:    res.ID(),
		requesterID:   requesterID,
		requesterName: name,
		stay:          stay,
		totalPrice:    q.Total,
		status:        StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}
