package events

import (
	"encoding/json"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const envelopeVersion = 1

// Envelope is the JSON document published for every booking event.
type Envelope struct {
	ID             uuid.UUID      `json:"id"`
	Type           string         `json:"type"`
	Version        int            `json:"version"`
	OccurredAt     time.Time      `json:"occurredAt"`
	Booking        BookingPayload `json:"booking"`
	PreviousStatus string         `json:"previousStatus,omitempty"`
}

type BookingPayload struct {
	ID            uuid.UUID `json:"id"`
	ResourceID    uuid.UUID `json:"resourceId"`
	RequesterID   uuid.UUID `json:"requesterId"`
	RequesterName string    `json:"requesterName"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	TotalPrice    int64     `json:"totalPrice"`
	Status        string    `json:"status"`
}

func BookingCreated(b *booking.Booking, at time.Time) (shared.OutboxEvent, error) {
	return newBookingEvent(shared.EventBookingCreated, b, "", at)
}

func BookingStatusChanged(b *booking.Booking, previous booking.Status, at time.Time) (shared.OutboxEvent, error) {
	return newBookingEvent(shared.EventBookingStatusChanged, b, previous.String(), at)
}

func newBookingEvent(eventType string, b *booking.Booking, previous string, at time.Time) (shared.OutboxEvent, error) {
	env := Envelope{
		ID:         uuid.New(),
		Type:       eventType,
		Version:    envelopeVersion,
		OccurredAt: at.UTC(),
		Booking: BookingPayload{
			ID:            b.ID(),
			ResourceID:    b.ResourceID(),
			RequesterID:   b.RequesterID(),
			RequesterName: b.RequesterName(),
			From:          booking.FormatDate(b.Stay().From()),
			To:            booking.FormatDate(b.Stay().To()),
			TotalPrice:    b.TotalPrice().Amount(),
			Status:        b.Status().String(),
		},
		PreviousStatus: previous,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return shared.OutboxEvent{}, err
	}

	return shared.OutboxEvent{
		ID:          env.ID,
		AggregateID: b.ID(),
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   env.OccurredAt,
	}, nil
}
