package queries

//go:generate mockgen -destination=../../pkg/testutil/mock/queries/mock_queries.go -package=queriesmock villa-booking/internal/usecase/queries BookingQueries,UserQueries

import (
	"context"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingQueries interface {
	Quote(ctx context.Context, resourceID uuid.UUID, from, to string) (*QuoteView, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, actor booking.Actor) ([]BookingView, error)
	Availability(ctx context.Context, resourceID uuid.UUID) (*AvailabilityView, error)
	// GetByIDSystem skips authorization; used for idempotent replays.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	GetResource(ctx context.Context, id uuid.UUID) (*ResourceView, error)
}

type bookingQueriesImpl struct {
	uow          shared.UnitOfWork
	factory      *booking.Factory
	lookbackDays int
	windowDays   int
}

func NewBookingQueries(uow shared.UnitOfWork, factory *booking.Factory, cfg config.Config) BookingQueries {
	return &bookingQueriesImpl{
		uow:          uow,
		factory:      factory,
		lookbackDays: cfg.Booking.LookbackDays,
		windowDays:   cfg.Booking.WindowDays,
	}
}

func (q *bookingQueriesImpl) Quote(ctx context.Context, resourceID uuid.UUID, from, to string) (*QuoteView, error) {
	var view QuoteView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := findResource(ctx, tx, resourceID)
		if err != nil {
			return err
		}

		stay, err := shared.ParseStay(q.factory, from, to)
		if err != nil {
			return err
		}
		if !res.IsRentable() {
			return errs.Mark(booking.ErrNotRentable, errs.ErrResourceNotRentable)
		}

		active, err := tx.Bookings().ListActiveByResource(ctx, resourceID)
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}
		if err := shared.CheckOverlap(active, stay); err != nil {
			return err
		}

		quote, err := q.factory.Quotes.Quote(res.Rates(), stay)
		if err != nil {
			return shared.MapDomainError(err)
		}

		view = QuoteView{
			ResourceID: resourceID,
			From:       stay.From(),
			To:         stay.To(),
			Nights:     quote.Nights,
			TotalPrice: quote.Total.Amount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (q *bookingQueriesImpl) ListByResource(ctx context.Context, resourceID uuid.UUID, actor booking.Actor) ([]BookingView, error) {
	var views []BookingView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := findResource(ctx, tx, resourceID)
		if err != nil {
			return err
		}
		if !actor.CanManage(res.OwnerID()) {
			return errs.Mark(booking.ErrNotAuthorized, errs.ErrUnauthorized)
		}

		all, err := tx.Bookings().ListByResource(ctx, resourceID)
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		views = make([]BookingView, len(all))
		for i, b := range all {
			views[i] = NewBookingView(b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (q *bookingQueriesImpl) Availability(ctx context.Context, resourceID uuid.UUID) (*AvailabilityView, error) {
	var view AvailabilityView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := findResource(ctx, tx, resourceID); err != nil {
			return err
		}

		active, err := tx.Bookings().ListActiveByResource(ctx, resourceID)
		if err != nil {
			return errs.Mark(err, errs.ErrInternal)
		}

		today := q.factory.Today()
		calendar := booking.BuildAvailability(active, today, q.lookbackDays, q.windowDays)

		days := calendar.Days()
		view = AvailabilityView{
			ResourceID: resourceID,
			Today:      today,
			Days:       make([]DayView, len(days)),
		}
		for i, d := range days {
			view.Days[i] = DayView{Date: d.Date, Status: string(d.Status)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	var view BookingView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrBookingNotFound)
			}
			return errs.Mark(err, errs.ErrInternal)
		}
		view = NewBookingView(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (q *bookingQueriesImpl) GetResource(ctx context.Context, id uuid.UUID) (*ResourceView, error) {
	var view ResourceView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := findResource(ctx, tx, id)
		if err != nil {
			return err
		}
		view = NewResourceView(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func findResource(ctx context.Context, tx shared.Tx, id uuid.UUID) (*resource.Resource, error) {
	res, err := tx.Resources().FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return nil, errs.Mark(err, errs.ErrInternal)
	}
	return res, nil
}
