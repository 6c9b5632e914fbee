package queries

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/domain/user"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID            uuid.UUID
	ResourceID    uuid.UUID
	RequesterID   uuid.UUID
	RequesterName string
	From          time.Time
	To            time.Time
	Nights        int
	TotalPrice    int64
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type QuoteView struct {
	ResourceID uuid.UUID
	From       time.Time
	To         time.Time
	Nights     int
	TotalPrice int64
}

type DayView struct {
	Date   time.Time
	Status string
}

type AvailabilityView struct {
	ResourceID uuid.UUID
	Today      time.Time
	Days       []DayView
}

type ResourceView struct {
	ID          uuid.UUID
	Name        string
	Kind        string
	WeekdayRate int64
	WeekendRate int64
	FlatRate    int64
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AuthorizedUserView struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	IsActive    bool
	LastLogin   *time.Time
}

func NewBookingView(b *booking.Booking) BookingView {
	return BookingView{
		ID:            b.ID(),
		ResourceID:    b.ResourceID(),
		RequesterID:   b.RequesterID(),
		RequesterName: b.RequesterName(),
		From:          b.Stay().From(),
		To:            b.Stay().To(),
		Nights:        b.Stay().Nights(),
		TotalPrice:    b.TotalPrice().Amount(),
		Status:        b.Status().String(),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}
}

func NewResourceView(r *resource.Resource) ResourceView {
	return ResourceView{
		ID:          r.ID(),
		Name:        r.Name(),
		Kind:        r.Kind().String(),
		WeekdayRate: r.Rates().Weekday(),
		WeekendRate: r.Rates().Weekend(),
		FlatRate:    r.Rates().Flat(),
		OwnerID:     r.OwnerID(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func NewAuthorizedUserView(u *user.User) AuthorizedUserView {
	return AuthorizedUserView{
		ID:          u.ID(),
		Email:       u.Email().Value(),
		DisplayName: u.DisplayName(),
		Role:        u.Role().String(),
		IsActive:    u.IsActive(),
		LastLogin:   u.LastLogin(),
	}
}
