package shared

import (
	"errors"
	"fmt"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// ConflictError carries the clashing dates. It is always marked with
// errs.ErrDateRangeConflict.
type ConflictError struct {
	BookingID uuid.UUID
	From      time.Time
	To        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates [%s,%s) are already booked",
		booking.FormatDate(e.From), booking.FormatDate(e.To))
}

func NewConflictError(bookingID uuid.UUID, stay booking.DateRange) error {
	return errs.Mark(&ConflictError{
		BookingID: bookingID,
		From:      stay.From(),
		To:        stay.To(),
	}, errs.ErrDateRangeConflict)
}

// ParseStay parses YYYY-MM-DD bounds and enforces today <= from < to.
func ParseStay(f *booking.Factory, from, to string) (booking.DateRange, error) {
	stay, err := booking.ParseDateRange(from, to)
	if err != nil {
		return booking.DateRange{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	if err := f.ValidateStay(stay); err != nil {
		return booking.DateRange{}, errs.Mark(err, errs.ErrInvalidDateRange)
	}
	return stay, nil
}

// CheckOverlap fails with a ConflictError naming the first clashing booking.
func CheckOverlap(active []*booking.Booking, stay booking.DateRange) error {
	if clash := booking.FindConflict(active, stay); clash != nil {
		return NewConflictError(clash.ID(), clash.Stay())
	}
	return nil
}

// MapDomainError attaches the shared sentinel matching a domain rule error.
// Unknown errors are returned unchanged.
func MapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidDateRange),
		errors.Is(err, booking.ErrEmptyStay),
		errors.Is(err, booking.ErrStayInPast):
		return errs.Mark(err, errs.ErrInvalidDateRange)
	case errors.Is(err, booking.ErrNotRentable):
		return errs.Mark(err, errs.ErrResourceNotRentable)
	case errors.Is(err, booking.ErrNotAuthorized):
		return errs.Mark(err, errs.ErrUnauthorized)
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrUnknownStatus):
		return errs.Mark(err, errs.ErrInvalidTransition)
	case errors.Is(err, booking.ErrInvalidRequesterName),
		errors.Is(err, resource.ErrMissingRateTier):
		return errs.Mark(err, errs.ErrValidation)
	default:
		return err
	}
}
