package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const maxRetryDelay = 5 * time.Minute

type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Relay drains the outbox table into the event publisher. Each batch is
// claimed, published and marked inside one transaction, so a crash before
// commit only causes a redelivery.
type Relay struct {
	uow       shared.UnitOfWork
	publisher shared.EventPublisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       RelayConfig

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewRelay(
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg RelayConfig,
) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		uow:       uow,
		publisher: publisher,
		clock:     clk,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Relay) Start() {
	go r.loop()
}

// Stop waits for the in-flight batch or until ctx expires.
func (r *Relay) Stop(ctx context.Context) error {
	r.once.Do(func() { close(r.stop) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Interval*5)
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("outbox relay batch failed", "error", err.Error())
			}
			cancel()
		}
	}
}

// RunOnce publishes one batch and returns how many events were delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	published := 0
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		published = 0
		now := r.clock.Now()

		batch, err := tx.Outbox().ClaimPending(ctx, now, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := r.publisher.Publish(ctx, batch); err != nil {
			r.metrics.OutboxFailed.Add(float64(len(batch)))
			for _, evt := range batch {
				if markErr := tx.Outbox().MarkFailed(ctx, evt.ID, err.Error(), now.Add(retryDelay(evt.Attempts))); markErr != nil {
					return markErr
				}
			}
			r.logger.Warn("outbox publish failed, batch rescheduled", "count", len(batch), "error", err.Error())
			return nil
		}

		ids := make([]uuid.UUID, len(batch))
		for i, evt := range batch {
			ids[i] = evt.ID
		}
		if err := tx.Outbox().MarkPublished(ctx, ids, now); err != nil {
			return err
		}
		published = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		r.metrics.OutboxPublished.Add(float64(published))
		r.logger.Debug("outbox events published", "count", published)
	}
	return published, nil
}

// retryDelay doubles per attempt starting at one second.
func retryDelay(attempts int) time.Duration {
	if attempts > 8 {
		return maxRetryDelay
	}
	d := time.Second << attempts
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
