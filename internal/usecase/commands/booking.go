package commands

//go:generate mockgen -destination=../../pkg/testutil/mock/commands/mock_commands.go -package=commandsmock villa-booking/internal/usecase/commands AuthCommands,BookingCommands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/pkg/patch"
	"villa-booking/internal/usecase/events"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrIdempotencyInProgress = errs.New("a request with this idempotency key is still being processed")
	ErrIdempotencyKeyReused  = errs.New("idempotency key was already used with a different request")
	ErrRequesterNotFound     = errs.New("requester does not exist")

	// errStayTaken marks an insert rejected by the exclusion constraint.
	errStayTaken = errs.New("stay rejected by the overlap constraint")
)

const completeAttempts = 2

type CreateReservationInput struct {
	ResourceID uuid.UUID
	// RequesterID defaults to the actor. Only admins may book for others.
	RequesterID    *uuid.UUID
	RequesterName  string
	From           string
	To             string
	Actor          booking.Actor
	IdempotencyKey string
}

type CreateReservationResult struct {
	Booking    queries.BookingView
	TotalPrice int64
	IsReplayed bool
}

type BookingCommands interface {
	CreateReservation(ctx context.Context, in CreateReservationInput) (*CreateReservationResult, error)
	TransitionStatus(ctx context.Context, bookingID uuid.UUID, status string, actor booking.Actor) (*queries.BookingView, error)
}

type bookingCommandsImpl struct {
	uow            shared.UnitOfWork
	factory        *booking.Factory
	idempotency    shared.IdempotencyStore
	bookingQueries queries.BookingQueries
	metrics        *metrics.Metrics
	clock          clock.Clock
	logger         *slog.Logger
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	factory *booking.Factory,
	idempotency shared.IdempotencyStore,
	bookingQueries queries.BookingQueries,
	m *metrics.Metrics,
	clk clock.Clock,
	logger *slog.Logger,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:            uow,
		factory:        factory,
		idempotency:    idempotency,
		bookingQueries: bookingQueries,
		metrics:        m,
		clock:          clk,
		logger:         logger,
	}
}

func (c *bookingCommandsImpl) CreateReservation(ctx context.Context, in CreateReservationInput) (*CreateReservationResult, error) {
	result, err := c.createReservation(ctx, in)
	c.metrics.ObserveReservation(reservationResult(result, err))
	return result, err
}

func (c *bookingCommandsImpl) createReservation(ctx context.Context, in CreateReservationInput) (*CreateReservationResult, error) {
	requesterID, err := resolveRequester(in)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" || c.idempotency == nil {
		return c.executeReservation(ctx, in, requesterID)
	}

	requestHash := calculateRequestHash(in, requesterID)
	existing, acquired, err := c.idempotency.Acquire(ctx, in.IdempotencyKey, in.Actor.ID, requestHash)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInternal)
	}
	if !acquired {
		return c.replay(ctx, existing, requestHash)
	}

	result, err := c.executeReservation(ctx, in, requesterID)
	if err != nil {
		if releaseErr := c.idempotency.Release(ctx, in.IdempotencyKey, in.Actor.ID); releaseErr != nil {
			c.logger.Warn("failed to release idempotency key", "key", in.IdempotencyKey, "error", releaseErr.Error())
		}
		return nil, err
	}

	if err := c.completeIdempotency(ctx, in, requestHash, result.Booking.ID); err != nil {
		// The booking is committed. The key stays processing until its TTL, so
		// retries with it get ErrIdempotencyInProgress rather than a second booking.
		c.logger.Error("failed to complete idempotency key",
			"key", in.IdempotencyKey,
			"booking_id", result.Booking.ID,
			"error", err.Error())
	}
	return result, nil
}

// completeIdempotency outlives a cancelled request: the booking it records
// is already committed.
func (c *bookingCommandsImpl) completeIdempotency(ctx context.Context, in CreateReservationInput, requestHash string, bookingID uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= completeAttempts; attempt++ {
		if err = c.idempotency.Complete(ctx, in.IdempotencyKey, in.Actor.ID, requestHash, bookingID); err == nil {
			return nil
		}
		c.logger.Warn("idempotency completion attempt failed",
			"key", in.IdempotencyKey,
			"attempt", attempt,
			"error", err.Error())
	}
	return err
}

func (c *bookingCommandsImpl) replay(ctx context.Context, existing *shared.IdempotencyRecord, requestHash string) (*CreateReservationResult, error) {
	if existing.Status != shared.IdempotencyCompleted {
		return nil, ErrIdempotencyInProgress
	}
	if existing.RequestHash != requestHash {
		return nil, ErrIdempotencyKeyReused
	}

	view, err := c.bookingQueries.GetByIDSystem(ctx, existing.BookingID)
	if err != nil {
		return nil, err
	}
	return &CreateReservationResult{
		Booking:    *view,
		TotalPrice: view.TotalPrice,
		IsReplayed: true,
	}, nil
}

func (c *bookingCommandsImpl) executeReservation(ctx context.Context, in CreateReservationInput, requesterID uuid.UUID) (*CreateReservationResult, error) {
	var (
		created *booking.Booking
		stay    booking.DateRange
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		created = nil

		// Row lock: concurrent reservations on one resource run one at a time.
		res, err := lockResource(ctx, tx, in.ResourceID)
		if err != nil {
			return err
		}

		stay, err = shared.ParseStay(c.factory, in.From, in.To)
		if err != nil {
			return err
		}
		if !res.IsRentable() {
			return errs.Mark(booking.ErrNotRentable, errs.ErrResourceNotRentable)
		}

		if requesterID != in.Actor.ID {
			if err := ensureRequesterExists(ctx, tx, requesterID); err != nil {
				return err
			}
		}

		active, err := tx.Bookings().ListActiveByResource(ctx, res.ID())
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}
		if err := shared.CheckOverlap(active, stay); err != nil {
			return err
		}

		b, err := c.factory.NewPendingBooking(res, requesterID, in.RequesterName, stay)
		if err != nil {
			return shared.MapDomainError(err)
		}

		if err := tx.Bookings().Create(ctx, b); err != nil {
			switch {
			case infra.IsKind(err, infra.KindConflict):
				return errs.Mark(err, errStayTaken)
			case infra.IsKind(err, infra.KindForeignKeyViolated):
				return errs.Mark(errs.Mark(err, ErrRequesterNotFound), errs.ErrValidation)
			default:
				return errs.Mark(err, errs.ErrInternal)
			}
		}

		evt, err := events.BookingCreated(b, c.clock.Now())
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}
		if err := tx.Outbox().Enqueue(ctx, evt); err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		created = b
		return nil
	})
	if errs.Is(err, errStayTaken) {
		return nil, c.describeConflict(ctx, in.ResourceID, stay, err)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("booking created",
		"booking_id", created.ID(),
		"resource_id", created.ResourceID(),
		"stay", created.Stay().String(),
		"total_price", created.TotalPrice().Amount())

	return &CreateReservationResult{
		Booking:    queries.NewBookingView(created),
		TotalPrice: created.TotalPrice().Amount(),
	}, nil
}

func (c *bookingCommandsImpl) TransitionStatus(ctx context.Context, bookingID uuid.UUID, status string, actor booking.Actor) (*queries.BookingView, error) {
	var updated *booking.Booking

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		updated = nil

		b, err := tx.Bookings().LockByID(ctx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrBookingNotFound)
			}
			return errs.Mark(err, errs.ErrInternal)
		}

		res, err := tx.Resources().FindByID(ctx, b.ResourceID())
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		previous := b.Status()
		// Authorization is checked before the target status is validated.
		if err := b.TransitionTo(booking.Status(status), actor, res.OwnerID(), c.clock.Now()); err != nil {
			return shared.MapDomainError(err)
		}

		if err := tx.Bookings().UpdateStatus(ctx, b); err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		evt, err := events.BookingStatusChanged(b, previous, c.clock.Now())
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}
		if err := tx.Outbox().Enqueue(ctx, evt); err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveTransition(updated.Status().String())
	c.logger.Info("booking status changed",
		"booking_id", updated.ID(),
		"status", updated.Status().String(),
		"actor_id", actor.ID)

	view := queries.NewBookingView(updated)
	return &view, nil
}

func resolveRequester(in CreateReservationInput) (uuid.UUID, error) {
	requesterID := patch.Coalesce(in.RequesterID, in.Actor.ID)
	if requesterID != in.Actor.ID && !in.Actor.Role.IsAdmin() {
		return uuid.Nil, errs.Mark(booking.ErrNotAuthorized, errs.ErrUnauthorized)
	}
	return requesterID, nil
}

// describeConflict runs after the constraint rejected the insert and the
// transaction rolled back. It looks up the booking that won so the error names
// its dates; if that booking is already gone the conflict carries no dates.
func (c *bookingCommandsImpl) describeConflict(ctx context.Context, resourceID uuid.UUID, stay booking.DateRange, cause error) error {
	var conflict error
	err := c.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		active, err := tx.Bookings().ListActiveByResource(ctx, resourceID)
		if err != nil {
			return err
		}
		conflict = shared.CheckOverlap(active, stay)
		return nil
	})
	if err != nil {
		c.logger.Warn("failed to look up conflicting booking", "resource_id", resourceID, "error", err.Error())
	}
	if conflict != nil {
		return conflict
	}
	return errs.Mark(cause, errs.ErrDateRangeConflict)
}

func ensureRequesterExists(ctx context.Context, tx shared.Tx, id uuid.UUID) error {
	if _, err := tx.Users().FindByID(ctx, id); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(errs.Mark(err, ErrRequesterNotFound), errs.ErrValidation)
		}
		return errs.Mark(err, errs.ErrInternal)
	}
	return nil
}

func lockResource(ctx context.Context, tx shared.Tx, id uuid.UUID) (*resource.Resource, error) {
	res, err := tx.Resources().LockByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return nil, errs.Mark(err, errs.ErrInternal)
	}
	return res, nil
}

func calculateRequestHash(in CreateReservationInput, requesterID uuid.UUID) string {
	data, _ := json.Marshal(struct {
		ResourceID    uuid.UUID `json:"resource_id"`
		RequesterID   uuid.UUID `json:"requester_id"`
		RequesterName string    `json:"requester_name"`
		From          string    `json:"from"`
		To            string    `json:"to"`
	}{in.ResourceID, requesterID, in.RequesterName, in.From, in.To})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func reservationResult(result *CreateReservationResult, err error) string {
	switch {
	case err == nil && result.IsReplayed:
		return metrics.ResultReplayed
	case err == nil:
		return metrics.ResultCreated
	case errs.Is(err, errs.ErrDateRangeConflict):
		return metrics.ResultConflict
	case errs.Is(err, errs.ErrInternal):
		return metrics.ResultError
	default:
		return metrics.ResultRejected
	}
}
