//go:build unit || e2e

package builder

import (
	"time"

	"villa-booking/internal/domain/booking"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID            uuid.UUID
	ResourceID    uuid.UUID
	RequesterID   uuid.UUID
	RequesterName string
	From          string
	To            string
	TotalPrice    int64
	Status        booking.Status
	CreatedAt     time.Time
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		ID:            uuid.New(),
		ResourceID:    uuid.New(),
		RequesterID:   uuid.New(),
		RequesterName: "Ana Guest",
		From:          "2024-07-01",
		To:            "2024-07-05",
		TotalPrice:    500,
		Status:        booking.StatusPending,
		CreatedAt:     time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) ForResource(resourceID uuid.UUID) *BookingBuilder {
	b.ResourceID = resourceID
	return b
}

func (b *BookingBuilder) WithStay(from, to string) *BookingBuilder {
	b.From, b.To = from, to
	return b
}

func (b *BookingBuilder) WithStatus(status booking.Status) *BookingBuilder {
	b.Status = status
	return b
}

// Build methods
func (b *BookingBuilder) BuildDomain() *booking.Booking {
	stay, err := booking.ParseDateRange(b.From, b.To)
	if err != nil {
		panic(err)
	}
	price, err := booking.NewMoney(b.TotalPrice)
	if err != nil {
		panic(err)
	}
	return booking.ReconstructBooking(b.ID, b.ResourceID, b.RequesterID, b.RequesterName, stay, price, b.Status, b.CreatedAt, b.CreatedAt)
}
