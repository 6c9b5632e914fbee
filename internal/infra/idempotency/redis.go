package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:booking"

type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

type storedRecord struct {
	Status      shared.IdempotencyStatus `json:"status"`
	RequestHash string                   `json:"request_hash"`
	BookingID   uuid.UUID                `json:"booking_id"`
}

// Keys are scoped per actor so two users cannot collide on the same key.
func redisKey(key string, actorID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, actorID, key)
}

func (s *RedisStore) Acquire(ctx context.Context, key string, actorID uuid.UUID, requestHash string) (*shared.IdempotencyRecord, bool, error) {
	rk := redisKey(key, actorID)
	payload, err := json.Marshal(storedRecord{Status: shared.IdempotencyProcessing, RequestHash: requestHash})
	if err != nil {
		return nil, false, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to encode idempotency record", err)
	}

	// The key can expire between SETNX and GET; one extra round covers it.
	for range 2 {
		ok, err := s.client.SetNX(ctx, rk, payload, s.ttl).Result()
		if err != nil {
			return nil, false, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to claim idempotency key", err)
		}
		if ok {
			return nil, true, nil
		}

		raw, err := s.client.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to read idempotency key", err)
		}

		var rec storedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to decode idempotency record", err)
		}
		return &shared.IdempotencyRecord{
			Key:         key,
			ActorID:     actorID,
			Status:      rec.Status,
			RequestHash: rec.RequestHash,
			BookingID:   rec.BookingID,
		}, false, nil
	}

	return nil, false, infra.WrapRepoErr(s.logger, infra.KindConflict, "idempotency key churned during claim", nil)
}

func (s *RedisStore) Complete(ctx context.Context, key string, actorID uuid.UUID, requestHash string, bookingID uuid.UUID) error {
	payload, err := json.Marshal(storedRecord{
		Status:      shared.IdempotencyCompleted,
		RequestHash: requestHash,
		BookingID:   bookingID,
	})
	if err != nil {
		return infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to encode idempotency record", err)
	}

	if err := s.client.Set(ctx, redisKey(key, actorID), payload, s.ttl).Err(); err != nil {
		return infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to complete idempotency key", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string, actorID uuid.UUID) error {
	if err := s.client.Del(ctx, redisKey(key, actorID)).Err(); err != nil {
		return infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to release idempotency key", err)
	}
	return nil
}
