package booking

import (
	"errors"
	"time"

	"villa-booking/internal/domain/user"

	"github.com/google/uuid"
)

var ErrNotAuthorized = errors.New("only the resource owner or an admin can change a booking")

// Actor is the authenticated user acting on a booking.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func (a Actor) CanManage(resourceOwnerID uuid.UUID) bool {
	return a.Role.IsAdmin() || (a.ID != uuid.Nil && a.ID == resourceOwnerID)
}

type Booking struct {
	id            uuid.UUID
	resourceID    uuid.UUID
	requesterID   uuid.UUID
	requesterName string
	stay          DateRange
	totalPrice    Money
	status        Status
	createdAt     time.Time
	updatedAt     time.Time
}

func ReconstructBooking(
	id, resourceID, requesterID uuid.UUID,
	requesterName string,
	stay DateRange,
	totalPrice Money,
	status Status,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		resourceID:    resourceID,
		requesterID:   requesterID,
		requesterName: requesterName,
		stay:          stay,
		totalPrice:    totalPrice,
		status:        status,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// TransitionTo moves the booking along the lifecycle. Authorization is
// checked before the transition table.
func (b *Booking) TransitionTo(target Status, actor Actor, resourceOwnerID uuid.UUID, now time.Time) error {
	if !actor.CanManage(resourceOwnerID) {
		return ErrNotAuthorized
	}
	if !target.IsValid() {
		return ErrUnknownStatus
	}
	if !b.status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	b.status = target
	b.updatedAt = now
	return nil
}

func (b *Booking) IsActive() bool {
	return b.status.IsActive()
}

func (b *Booking) ID() uuid.UUID          { return b.id }
func (b *Booking) ResourceID() uuid.UUID  { return b.resourceID }
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }
func (b *Booking) RequesterName() string  { return b.requesterName }
func (b *Booking) Stay() DateRange        { return b.stay }
func (b *Booking) TotalPrice() Money      { return b.totalPrice }
func (b *Booking) Status() Status         { return b.status }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }
