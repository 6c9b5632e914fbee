package components

import (
	"villa-booking/internal/domain/booking"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/usecase"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		booking.NewTieredQuoteCalculator,
		fx.As(new(booking.QuoteCalculator)),
	),
	func(clk clock.Clock, quotes booking.QuoteCalculator, cfg config.Config) *booking.Factory {
		return booking.NewFactory(clk, quotes, cfg.Booking.Location())
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewBookingCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		queries.NewBookingQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
