package components

import (
	"log/slog"

	"villa-booking/internal/infra/idempotency"
	"villa-booking/internal/infra/uow"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		// UnitOfWork (repositories are bound per transaction inside it)
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		// Idempotency
		fx.Annotate(
			NewIdempotencyStore,
			fx.As(new(shared.IdempotencyStore)),
		),
	),
)

func NewIdempotencyStore(client redis.UniversalClient, cfg config.Config, logger *slog.Logger) *idempotency.RedisStore {
	return idempotency.NewRedisStore(client, cfg.Booking.IdempotencyTTL, logger)
}
