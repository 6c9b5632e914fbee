//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/pkg/testutil/builder"
	"villa-booking/internal/pkg/testutil/memstore"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BookingCommandsTestSuite struct {
	suite.Suite
	store    *memstore.Store
	idem     *memstore.IdempotencyStore
	clock    *clock.MockClock
	metrics  *metrics.Metrics
	commands commands.BookingCommands

	owner booking.Actor
	guest booking.Actor
	admin booking.Actor
	villa *resource.Resource
	shed  *resource.Resource
	ctx   context.Context
}

func (s *BookingCommandsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.New()
	s.idem = memstore.NewIdempotencyStore()
	s.clock = clock.NewMockClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	s.metrics = metrics.New()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := booking.NewFactory(s.clock, booking.NewTieredQuoteCalculator(), time.UTC)
	bq := queries.NewBookingQueries(s.store, factory, config.NewTestConfig())
	s.commands = commands.NewBookingCommands(s.store, factory, s.idem, bq, s.metrics, s.clock, logger)

	s.owner = s.newActor(user.RoleHost)
	s.guest = s.newActor(user.RoleGuest)
	s.admin = s.newActor(user.RoleAdmin)

	s.villa = builder.NewResourceBuilder().WithOwner(s.owner.ID).MustBuildDomain()
	s.shed = builder.NewResourceBuilder().WithOwner(s.owner.ID).AsNonRentable().MustBuildDomain()
	s.store.AddResource(s.villa)
	s.store.AddResource(s.shed)
}

// newActor registers a user row, which bookings reference as requester.
func (s *BookingCommandsTestSuite) newActor(role user.Role) booking.Actor {
	actor := booking.Actor{ID: uuid.New(), Role: role}
	s.store.AddUser(newUser(s.T(), actor))
	return actor
}

func newUser(t *testing.T, actor booking.Actor) *user.User {
	t.Helper()
	email, err := user.NewEmail(actor.ID.String() + "@example.com")
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return user.ReconstructUser(actor.ID, email, "Test User", "unused-hash", actor.Role, nil, true, now, now)
}

func (s *BookingCommandsTestSuite) input(from, to string) commands.CreateReservationInput {
	return commands.CreateReservationInput{
		ResourceID:    s.villa.ID(),
		RequesterName: "Ana Guest",
		From:          from,
		To:            to,
		Actor:         s.guest,
	}
}

func (s *BookingCommandsTestSuite) reservations(result string) float64 {
	return testutil.ToFloat64(s.metrics.Reservations.WithLabelValues(result))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_Success() {
	// 2024-07-01 is a Monday: four weekday nights.
	result, err := s.commands.CreateReservation(s.ctx, s.input("2024-07-01", "2024-07-05"))

	s.Require().NoError(err)
	s.False(result.IsReplayed)
	s.Equal(int64(400), result.TotalPrice)
	s.Equal(int64(400), result.Booking.TotalPrice)
	s.Equal("pending", result.Booking.Status)
	s.Equal(s.guest.ID, result.Booking.RequesterID)
	s.Equal(4, result.Booking.Nights)

	stored := s.store.Bookings()
	s.Require().Len(stored, 1)
	s.Equal(result.Booking.ID, stored[0].ID())

	evts := s.store.OutboxEvents()
	s.Require().Len(evts, 1)
	s.Equal(shared.EventBookingCreated, evts[0].EventType)
	s.Equal(result.Booking.ID, evts[0].AggregateID)

	s.Equal(1.0, s.reservations(metrics.ResultCreated))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_Overlap() {
	s.store.AddBooking(builder.NewBookingBuilder().
		ForResource(s.villa.ID()).
		WithStay("2024-07-01", "2024-07-05").
		WithStatus(booking.StatusConfirmed).
		BuildDomain())

	_, err := s.commands.CreateReservation(s.ctx, s.input("2024-07-03", "2024-07-06"))
	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrDateRangeConflict))

	var conflict *shared.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal("2024-07-01", booking.FormatDate(conflict.From))
	s.Equal("2024-07-05", booking.FormatDate(conflict.To))

	_, err = s.commands.CreateReservation(s.ctx, s.input("2024-07-05", "2024-07-08"))
	s.NoError(err, "touching the previous check-out is not an overlap")

	s.Equal(1.0, s.reservations(metrics.ResultConflict))
	s.Equal(1.0, s.reservations(metrics.ResultCreated))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_Rejections() {
	testCases := []struct {
		name string
		in   func() commands.CreateReservationInput
		want error
	}{
		{
			name: "yesterday",
			in:   func() commands.CreateReservationInput { return s.input("2024-05-31", "2024-06-03") },
			want: errs.ErrInvalidDateRange,
		},
		{
			name: "same day",
			in:   func() commands.CreateReservationInput { return s.input("2024-06-10", "2024-06-10") },
			want: errs.ErrInvalidDateRange,
		},
		{
			name: "impossible calendar date",
			in:   func() commands.CreateReservationInput { return s.input("2025-02-29", "2025-03-02") },
			want: errs.ErrInvalidDateRange,
		},
		{
			name: "unknown resource",
			in: func() commands.CreateReservationInput {
				in := s.input("2024-07-01", "2024-07-02")
				in.ResourceID = uuid.New()
				return in
			},
			want: errs.ErrResourceNotFound,
		},
		{
			name: "non rentable resource",
			in: func() commands.CreateReservationInput {
				in := s.input("2024-07-01", "2024-07-02")
				in.ResourceID = s.shed.ID()
				return in
			},
			want: errs.ErrResourceNotRentable,
		},
		{
			name: "guest booking for someone else",
			in: func() commands.CreateReservationInput {
				in := s.input("2024-07-01", "2024-07-02")
				other := uuid.New()
				in.RequesterID = &other
				return in
			},
			want: errs.ErrUnauthorized,
		},
		{
			name: "blank requester name",
			in: func() commands.CreateReservationInput {
				in := s.input("2024-07-01", "2024-07-02")
				in.RequesterName = " "
				return in
			},
			want: errs.ErrValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.commands.CreateReservation(s.ctx, tc.in())
			s.Require().Error(err)
			s.True(errs.Is(err, tc.want), "got %v", err)
		})
	}

	s.Empty(s.store.Bookings())
	s.Empty(s.store.OutboxEvents())
	s.Equal(float64(len(testCases)), s.reservations(metrics.ResultRejected))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_AdminBooksOnBehalf() {
	onBehalf := s.newActor(user.RoleGuest).ID
	in := s.input("2024-07-01", "2024-07-02")
	in.Actor = s.admin
	in.RequesterID = &onBehalf

	result, err := s.commands.CreateReservation(s.ctx, in)

	s.Require().NoError(err)
	s.Equal(onBehalf, result.Booking.RequesterID)
}

func (s *BookingCommandsTestSuite) TestCreateReservation_ExplicitSelfRequester() {
	in := s.input("2024-07-01", "2024-07-02")
	self := s.guest.ID
	in.RequesterID = &self

	_, err := s.commands.CreateReservation(s.ctx, in)
	s.NoError(err)
}

func (s *BookingCommandsTestSuite) TestCreateReservation_AdminBooksForUnknownRequester() {
	ghost := uuid.New()
	in := s.input("2024-07-01", "2024-07-02")
	in.Actor = s.admin
	in.RequesterID = &ghost

	_, err := s.commands.CreateReservation(s.ctx, in)

	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrValidation), "got %v", err)
	s.True(errs.Is(err, commands.ErrRequesterNotFound))
	s.False(errs.Is(err, errs.ErrInternal))
	s.Empty(s.store.Bookings())
	s.Equal(1.0, s.reservations(metrics.ResultRejected))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_ForeignKeyViolationIsValidation() {
	s.store.CreateBookingErr = infra.RepositoryError{Kind: infra.KindForeignKeyViolated}

	_, err := s.commands.CreateReservation(s.ctx, s.input("2024-07-01", "2024-07-03"))

	s.Require().Error(err)
	s.True(errs.Is(err, errs.ErrValidation), "got %v", err)
	s.False(errs.Is(err, errs.ErrInternal))
}

func (s *BookingCommandsTestSuite) TestCreateReservation_ExclusionConstraintBackstop() {
	s.Run("names the booking that won the race", func() {
		winner := builder.NewBookingBuilder().
			ForResource(s.villa.ID()).
			WithStay("2024-07-02", "2024-07-04").
			WithStatus(booking.StatusConfirmed).
			BuildDomain()
		s.store.RacingBooking = winner

		_, err := s.commands.CreateReservation(s.ctx, s.input("2024-07-01", "2024-07-03"))

		s.Require().Error(err)
		s.True(errs.Is(err, errs.ErrDateRangeConflict))
		var conflict *shared.ConflictError
		s.Require().True(errors.As(err, &conflict))
		s.Equal(winner.ID(), conflict.BookingID)
		s.Equal("2024-07-02", booking.FormatDate(conflict.From))
		s.Equal("2024-07-04", booking.FormatDate(conflict.To))
	})

	s.Run("no dates when the winner is gone", func() {
		s.store.CreateBookingErr = infra.RepositoryError{Kind: infra.KindConflict}

		_, err := s.commands.CreateReservation(s.ctx, s.input("2024-08-01", "2024-08-03"))

		s.Require().Error(err)
		s.True(errs.Is(err, errs.ErrDateRangeConflict))
		var conflict *shared.ConflictError
		s.False(errors.As(err, &conflict), "requested dates must not be reported as the clash")
	})

	s.Len(s.store.Bookings(), 1, "only the racing booking is stored")
	s.Empty(s.store.OutboxEvents(), "a failed insert must not leave an event behind")
	s.Equal(2.0, s.reservations(metrics.ResultConflict))
}

func (s *BookingCommandsTestSuite) TestCancelFreesTheRange() {
	created, err := s.commands.CreateReservation(s.ctx, s.input("2024-07-01", "2024-07-05"))
	s.Require().NoError(err)

	_, err = s.commands.CreateReservation(s.ctx, s.input("2024-07-02", "2024-07-03"))
	s.Require().True(errs.Is(err, errs.ErrDateRangeConflict))

	cancelled, err := s.commands.TransitionStatus(s.ctx, created.Booking.ID, "cancelled", s.owner)
	s.Require().NoError(err)
	s.Equal("cancelled", cancelled.Status)

	_, err = s.commands.CreateReservation(s.ctx, s.input("2024-07-02", "2024-07-03"))
	s.NoError(err)
}

func (s *BookingCommandsTestSuite) TestConcurrentOverlappingRequests_ExactlyOneWins() {
	const n = 25

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	actors := make([]booking.Actor, n)
	for i := range actors {
		actors[i] = s.newActor(user.RoleGuest)
	}

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			in := s.input("2024-08-01", "2024-08-05")
			in.Actor = actors[i]
			// Every request overlaps the others by at least one night.
			if i%2 == 1 {
				in.From, in.To = "2024-08-03", "2024-08-07"
			}
			_, err := s.commands.CreateReservation(s.ctx, in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errs.Is(err, errs.ErrDateRangeConflict):
				conflicts++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(n-1, conflicts)
	s.Len(s.store.Bookings(), 1)
}

func (s *BookingCommandsTestSuite) TestIdempotency() {
	in := s.input("2024-07-01", "2024-07-03")
	in.IdempotencyKey = "0b6f7a2e-5f0e-4c55-8a3c-3c7d7f0e9e11"

	s.Run("replay returns the original booking", func() {
		first, err := s.commands.CreateReservation(s.ctx, in)
		s.Require().NoError(err)
		s.False(first.IsReplayed)

		second, err := s.commands.CreateReservation(s.ctx, in)
		s.Require().NoError(err)
		s.True(second.IsReplayed)
		s.Equal(first.Booking.ID, second.Booking.ID)
		s.Equal(first.TotalPrice, second.TotalPrice)
		s.Len(s.store.Bookings(), 1)
		s.Equal(1.0, s.reservations(metrics.ResultReplayed))
	})

	s.Run("different body with the same key", func() {
		other := in
		other.From, other.To = "2024-07-10", "2024-07-12"

		_, err := s.commands.CreateReservation(s.ctx, other)
		s.ErrorIs(err, commands.ErrIdempotencyKeyReused)
	})

	s.Run("key still processing", func() {
		pending := s.input("2024-09-01", "2024-09-03")
		pending.IdempotencyKey = "busy-key"
		_, acquired, err := s.idem.Acquire(s.ctx, pending.IdempotencyKey, pending.Actor.ID, "")
		s.Require().NoError(err)
		s.Require().True(acquired)

		_, err = s.commands.CreateReservation(s.ctx, pending)
		s.ErrorIs(err, commands.ErrIdempotencyInProgress)
	})

	s.Run("completion is retried once", func() {
		retried := s.input("2024-10-01", "2024-10-03")
		retried.IdempotencyKey = "flaky-complete"
		s.idem.FailComplete = 1
		calls := s.idem.CompleteCalls()

		first, err := s.commands.CreateReservation(s.ctx, retried)
		s.Require().NoError(err)
		s.Equal(calls+2, s.idem.CompleteCalls())

		again, err := s.commands.CreateReservation(s.ctx, retried)
		s.Require().NoError(err)
		s.True(again.IsReplayed)
		s.Equal(first.Booking.ID, again.Booking.ID)
	})

	s.Run("lost completion keeps the key in progress", func() {
		stuck := s.input("2024-11-01", "2024-11-03")
		stuck.IdempotencyKey = "lost-complete"
		s.idem.FailComplete = 2

		_, err := s.commands.CreateReservation(s.ctx, stuck)
		s.Require().NoError(err, "the booking itself is committed")

		rec, ok := s.idem.Record(stuck.IdempotencyKey, stuck.Actor.ID)
		s.Require().True(ok)
		s.Equal(shared.IdempotencyProcessing, rec.Status)

		before := len(s.store.Bookings())
		_, err = s.commands.CreateReservation(s.ctx, stuck)
		s.ErrorIs(err, commands.ErrIdempotencyInProgress)
		s.Len(s.store.Bookings(), before, "a retry must not book twice")
	})

	s.Run("failed request releases the key", func() {
		bad := s.input("2024-05-01", "2024-05-03")
		bad.IdempotencyKey = "retry-me"

		_, err := s.commands.CreateReservation(s.ctx, bad)
		s.Require().True(errs.Is(err, errs.ErrInvalidDateRange))

		_, acquired, err := s.idem.Acquire(s.ctx, bad.IdempotencyKey, bad.Actor.ID, "x")
		s.Require().NoError(err)
		s.True(acquired)
	})
}

func (s *BookingCommandsTestSuite) TestTransitionStatus() {
	pending := builder.NewBookingBuilder().ForResource(s.villa.ID()).WithStay("2024-07-01", "2024-07-05").BuildDomain()
	cancelled := builder.NewBookingBuilder().ForResource(s.villa.ID()).WithStay("2024-07-10", "2024-07-12").WithStatus(booking.StatusCancelled).BuildDomain()
	s.store.AddBooking(pending)
	s.store.AddBooking(cancelled)

	testCases := []struct {
		name   string
		id     uuid.UUID
		status string
		actor  booking.Actor
		want   error
	}{
		{name: "stranger cannot confirm", id: pending.ID(), status: "confirmed", actor: s.guest, want: errs.ErrUnauthorized},
		{name: "stranger with unknown status is still unauthorized", id: pending.ID(), status: "archived", actor: s.guest, want: errs.ErrUnauthorized},
		{name: "owner with unknown status", id: pending.ID(), status: "archived", actor: s.owner, want: errs.ErrInvalidTransition},
		{name: "cancelled is terminal", id: cancelled.ID(), status: "confirmed", actor: s.owner, want: errs.ErrInvalidTransition},
		{name: "unknown booking", id: uuid.New(), status: "confirmed", actor: s.owner, want: errs.ErrBookingNotFound},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.commands.TransitionStatus(s.ctx, tc.id, tc.status, tc.actor)
			s.Require().Error(err)
			s.True(errs.Is(err, tc.want), "got %v", err)
		})
	}

	s.Run("owner confirms then admin cancels", func() {
		confirmed, err := s.commands.TransitionStatus(s.ctx, pending.ID(), "confirmed", s.owner)
		s.Require().NoError(err)
		s.Equal("confirmed", confirmed.Status)

		done, err := s.commands.TransitionStatus(s.ctx, pending.ID(), "cancelled", s.admin)
		s.Require().NoError(err)
		s.Equal("cancelled", done.Status)

		s.Equal(1.0, testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("confirmed")))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("cancelled")))

		evts := s.store.OutboxEvents()
		s.Require().Len(evts, 2)
		s.Equal(shared.EventBookingStatusChanged, evts[1].EventType)
	})
}

func TestBookingCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(BookingCommandsTestSuite))
}

func TestCreateReservation_WithoutIdempotencyStore(t *testing.T) {
	store := memstore.New()
	clk := clock.NewMockClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	factory := booking.NewFactory(clk, booking.NewTieredQuoteCalculator(), time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmds := commands.NewBookingCommands(store, factory, nil, queries.NewBookingQueries(store, factory, config.NewTestConfig()), metrics.New(), clk, logger)

	villa := builder.NewResourceBuilder().MustBuildDomain()
	store.AddResource(villa)
	guest := booking.Actor{ID: uuid.New(), Role: user.RoleGuest}
	store.AddUser(newUser(t, guest))

	result, err := cmds.CreateReservation(context.Background(), commands.CreateReservationInput{
		ResourceID:     villa.ID(),
		RequesterName:  "Ana",
		From:           "2024-06-07",
		To:             "2024-06-09",
		Actor:          guest,
		IdempotencyKey: "ignored-without-store",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), result.TotalPrice)
}
