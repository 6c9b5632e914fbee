package request

import (
	"villa-booking/internal/domain/booking"
	"villa-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// Dates are calendar days in YYYY-MM-DD; parsing happens in the usecase so
// that bad dates surface as InvalidDateRange.
type QuoteRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type CreateBookingRequest struct {
	RequesterID   *uuid.UUID `json:"requesterId,omitempty"`
	RequesterName string     `json:"requesterName" binding:"required,max=100"`
	From          string     `json:"from" binding:"required"`
	To            string     `json:"to" binding:"required"`
}

func (r CreateBookingRequest) ToInput(resourceID uuid.UUID, actor booking.Actor, idempotencyKey string) commands.CreateReservationInput {
	return commands.CreateReservationInput{
		ResourceID:     resourceID,
		RequesterID:    r.RequesterID,
		RequesterName:  r.RequesterName,
		From:           r.From,
		To:             r.To,
		Actor:          actor,
		IdempotencyKey: idempotencyKey,
	}
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
