package shared

import (
	"context"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/domain/user"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Bookings() BookingRepository
	Resources() ResourceRepository
	Users() UserRepository
	Outbox() OutboxRepository
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// LockByID reads the row with SELECT ... FOR UPDATE.
	LockByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, b *booking.Booking) error
	// ListActiveByResource returns pending and confirmed bookings only.
	ListActiveByResource(ctx context.Context, resourceID uuid.UUID) ([]*booking.Booking, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*booking.Booking, error)
}

type ResourceRepository interface {
	Create(ctx context.Context, r *resource.Resource) error
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
	// LockByID serializes writers on one resource until the transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByEmail(ctx context.Context, email user.Email) (*user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, evt OutboxEvent) error
	// ClaimPending locks due events with SKIP LOCKED so relays never share work.
	ClaimPending(ctx context.Context, now time.Time, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt time.Time) error
}
