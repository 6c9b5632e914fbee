package repository

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/usecase/shared"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const outboxTable = "outbox_events"

const (
	outboxStatusQueued    = "queued"
	outboxStatusPublished = "published"
	maxLastErrorLength    = 500
)

type OutboxRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxRepository(dbtx db.DBTX, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, evt shared.OutboxEvent) error {
	query, args, err := psql.Insert(outboxTable).
		Columns("id", "aggregate_id", "event_type", "payload", "status", "run_at", "created_at").
		Values(evt.ID, evt.AggregateID, evt.EventType, evt.Payload, outboxStatusQueued, evt.CreatedAt, evt.CreatedAt).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build outbox insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to enqueue outbox event", err)
	}
	return nil
}

func (r *OutboxRepository) ClaimPending(ctx context.Context, now time.Time, limit int) ([]shared.OutboxEvent, error) {
	query, args, err := psql.Select("id", "aggregate_id", "event_type", "payload", "attempts", "created_at").
		From(outboxTable).
		Where(sq.Eq{"status": outboxStatusQueued}).
		Where(sq.LtOrEq{"run_at": now}).
		OrderBy("created_at").
		Limit(uint64(max(limit, 1))).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build outbox claim", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to claim outbox events", err)
	}
	defer rows.Close()

	var events []shared.OutboxEvent
	for rows.Next() {
		var evt shared.OutboxEvent
		if err := rows.Scan(&evt.ID, &evt.AggregateID, &evt.EventType, &evt.Payload, &evt.Attempts, &evt.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan outbox event", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate outbox events", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Update(outboxTable).
		Set("status", outboxStatusPublished).
		Set("published_at", at).
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build outbox publish update", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to mark outbox events published", err)
	}
	return nil
}

// MarkFailed keeps the event queued and pushes run_at back to retryAt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt time.Time) error {
	if len(reason) > maxLastErrorLength {
		reason = reason[:maxLastErrorLength]
	}
	query, args, err := psql.Update(outboxTable).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("run_at", retryAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build outbox failure update", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to mark outbox event failed", err)
	}
	return nil
}
