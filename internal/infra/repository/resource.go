package repository

import (
	"context"
	"log/slog"

	"villa-booking/internal/domain/resource"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const resourcesTable = "resources"

var resourceColumns = []string{
	"id", "name", "kind", "weekday_rate", "weekend_rate", "flat_rate", "owner_id",
	"created_at", "updated_at",
}

type ResourceRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewResourceRepository(dbtx db.DBTX, logger *slog.Logger) *ResourceRepository {
	return &ResourceRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *ResourceRepository) Create(ctx context.Context, res *resource.Resource) error {
	query, args, err := psql.Insert(resourcesTable).
		Columns("id", "name", "kind", "weekday_rate", "weekend_rate", "flat_rate", "owner_id").
		Values(
			res.ID(), res.Name(), res.Kind().String(),
			res.Rates().Weekday(), res.Rates().Weekend(), res.Rates().Flat(),
			res.OwnerID(),
		).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build resource insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to create resource", err)
	}
	return nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return r.findOne(ctx, psql.Select(resourceColumns...).From(resourcesTable).Where(sq.Eq{"id": id}))
}

func (r *ResourceRepository) LockByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return r.findOne(ctx, psql.Select(resourceColumns...).From(resourcesTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *ResourceRepository) findOne(ctx context.Context, builder sq.SelectBuilder) (*resource.Resource, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build resource query", err)
	}

	res, err := scanResource(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "resource not found", err)
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find resource by ID", err)
	}
	return res, nil
}

func scanResource(row pgx.Row) (*resource.Resource, error) {
	var (
		id, ownerID          uuid.UUID
		name, kind           string
		weekday, weekend     int64
		flat                 int64
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &kind, &weekday, &weekend, &flat, &ownerID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	k, err := resource.NewKind(kind)
	if err != nil {
		return nil, err
	}
	rates, err := resource.NewRateSchedule(weekday, weekend, flat)
	if err != nil {
		return nil, err
	}
	return resource.ReconstructResource(id, name, k, rates, ownerID, createdAt.Time, updatedAt.Time), nil
}
