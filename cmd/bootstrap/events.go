package bootstrap

import (
	"context"
	"log/slog"

	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/events"
	"villa-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewRelay,
	),
	fx.Invoke(func(*events.Relay) {}),
)

func NewRelay(
	lc fx.Lifecycle,
	cfg config.Config,
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
) *events.Relay {
	relay := events.NewRelay(uow, publisher, clk, m, logger, events.RelayConfig{
		Interval:  cfg.Kafka.RelayInterval,
		BatchSize: cfg.Kafka.RelayBatch,
	})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			relay.Start()
			logger.Info("Outbox relay started", "interval", cfg.Kafka.RelayInterval, "topic", cfg.Kafka.Topic)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return relay.Stop(ctx)
		},
	})

	return relay
}
