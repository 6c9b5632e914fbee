package repository

import (
	"context"
	"log/slog"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingsTable = "bookings"

var bookingColumns = []string{
	"id", "resource_id", "requester_id", "requester_name",
	"check_in", "check_out", "total_price", "status",
	"created_at", "updated_at",
}

type BookingRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewBookingRepository(dbtx db.DBTX, logger *slog.Logger) *BookingRepository {
	return &BookingRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query, args, err := psql.Insert(bookingsTable).
		Columns(bookingColumns...).
		Values(
			b.ID(), b.ResourceID(), b.RequesterID(), b.RequesterName(),
			pgconv.DateToPgtype(b.Stay().From()), pgconv.DateToPgtype(b.Stay().To()),
			b.TotalPrice().Amount(), b.Status().String(),
			b.CreatedAt(), b.UpdatedAt(),
		).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build booking insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, psql.Select(bookingColumns...).From(bookingsTable).Where(sq.Eq{"id": id}))
}

func (r *BookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, psql.Select(bookingColumns...).From(bookingsTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking) error {
	query, args, err := psql.Update(bookingsTable).
		Set("status", b.Status().String()).
		Set("updated_at", b.UpdatedAt()).
		Where(sq.Eq{"id": b.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build booking status update", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "booking not found", nil)
	}
	return nil
}

func (r *BookingRepository) ListActiveByResource(ctx context.Context, resourceID uuid.UUID) ([]*booking.Booking, error) {
	return r.findMany(ctx, psql.Select(bookingColumns...).
		From(bookingsTable).
		Where(sq.Eq{"resource_id": resourceID}).
		Where(sq.NotEq{"status": booking.StatusCancelled.String()}).
		OrderBy("check_in", "created_at"))
}

func (r *BookingRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*booking.Booking, error) {
	return r.findMany(ctx, psql.Select(bookingColumns...).
		From(bookingsTable).
		Where(sq.Eq{"resource_id": resourceID}).
		OrderBy("check_in", "created_at"))
}

func (r *BookingRepository) findOne(ctx context.Context, builder sq.SelectBuilder) (*booking.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build booking query", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find booking", err)
	}
	return b, nil
}

func (r *BookingRepository) findMany(ctx context.Context, builder sq.SelectBuilder) ([]*booking.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build booking query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list bookings", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan booking", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate bookings", err)
	}
	return result, nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, resourceID, requesterID uuid.UUID
		requesterName, status       string
		checkIn, checkOut           pgtype.Date
		totalPrice                  int64
		createdAt, updatedAt        pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &resourceID, &requesterID, &requesterName,
		&checkIn, &checkOut, &totalPrice, &status,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	from, err := pgconv.DateFromPgtype(checkIn)
	if err != nil {
		return nil, err
	}
	to, err := pgconv.DateFromPgtype(checkOut)
	if err != nil {
		return nil, err
	}
	stay, err := booking.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	price, err := booking.NewMoney(totalPrice)
	if err != nil {
		return nil, err
	}
	st, err := booking.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id, resourceID, requesterID, requesterName,
		stay, price, st,
		createdAt.Time, updatedAt.Time,
	), nil
}
