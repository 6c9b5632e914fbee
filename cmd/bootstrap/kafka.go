package bootstrap

import (
	"context"
	"log/slog"

	"villa-booking/internal/infra/messaging"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var KafkaModule = fx.Module("kafka",
	fx.Provide(
		fx.Annotate(
			NewKafkaPublisher,
			fx.As(new(shared.EventPublisher)),
		),
	),
)

func NewKafkaPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) *messaging.KafkaPublisher {
	publisher := messaging.NewKafkaPublisher(
		messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic),
		logger,
	)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	return publisher
}
