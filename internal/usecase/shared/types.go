package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// OutboxEvent is a domain event stored in the same transaction as the change
// that produced it.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	EventType   string
	Payload     []byte
	Attempts    int
	CreatedAt   time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, events []OutboxEvent) error
}

type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "processing"
	IdempotencyCompleted  IdempotencyStatus = "completed"
)

type IdempotencyRecord struct {
	Key         string
	ActorID     uuid.UUID
	Status      IdempotencyStatus
	RequestHash string
	BookingID   uuid.UUID
}

type IdempotencyStore interface {
	// Acquire claims the key for this actor. When the key already exists the
	// stored record is returned with acquired=false.
	Acquire(ctx context.Context, key string, actorID uuid.UUID, requestHash string) (existing *IdempotencyRecord, acquired bool, err error)
	Complete(ctx context.Context, key string, actorID uuid.UUID, requestHash string, bookingID uuid.UUID) error
	// Release drops a processing claim so the client can retry after a failure.
	Release(ctx context.Context, key string, actorID uuid.UUID) error
}
