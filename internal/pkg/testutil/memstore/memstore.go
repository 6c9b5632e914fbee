//go:build unit || e2e

// Package memstore is an in-memory UnitOfWork for usecase tests. Write
// transactions are serialized and staged on a copy that replaces the committed
// state only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/resource"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type outboxRow struct {
	evt       shared.OutboxEvent
	published bool
	runAt     time.Time
	lastError string
}

type state struct {
	users     map[uuid.UUID]*user.User
	resources map[uuid.UUID]*resource.Resource
	bookings  map[uuid.UUID]*booking.Booking
	outbox    []outboxRow
}

func (s *state) clone() *state {
	c := &state{
		users:     make(map[uuid.UUID]*user.User, len(s.users)),
		resources: make(map[uuid.UUID]*resource.Resource, len(s.resources)),
		bookings:  make(map[uuid.UUID]*booking.Booking, len(s.bookings)),
		outbox:    append([]outboxRow(nil), s.outbox...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = copyBooking(v)
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state

	// CreateBookingErr, when set, is returned by the next booking insert.
	CreateBookingErr error
	// RacingBooking, when set, is committed just before the next booking
	// insert, which then fails on the exclusion constraint. It simulates a
	// transaction that won between the overlap check and the insert.
	RacingBooking *booking.Booking
}

func New() *Store {
	return &Store{state: &state{
		users:     map[uuid.UUID]*user.User{},
		resources: map[uuid.UUID]*resource.Resource{},
		bookings:  map[uuid.UUID]*booking.Booking{},
	}}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(ctx, &memTx{store: s, st: staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *Store) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx, &memTx{store: s, st: s.state.clone()})
}

// Seed helpers write straight into the committed state.

func (s *Store) AddUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID()] = u
}

func (s *Store) AddResource(r *resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resources[r.ID()] = r
}

func (s *Store) AddBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.bookings[b.ID()] = copyBooking(b)
}

func (s *Store) Bookings() []*booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*booking.Booking, 0, len(s.state.bookings))
	for _, b := range s.state.bookings {
		out = append(out, copyBooking(b))
	}
	sortBookings(out)
	return out
}

func (s *Store) OutboxEvents() []shared.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shared.OutboxEvent, len(s.state.outbox))
	for i, row := range s.state.outbox {
		out[i] = row.evt
	}
	return out
}

func (s *Store) PublishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.state.outbox {
		if row.published {
			n++
		}
	}
	return n
}

type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) Bookings() shared.BookingRepository   { return &bookingRepo{t} }
func (t *memTx) Resources() shared.ResourceRepository { return &resourceRepo{t} }
func (t *memTx) Users() shared.UserRepository         { return &userRepo{t} }
func (t *memTx) Outbox() shared.OutboxRepository      { return &outboxRepo{t} }

func notFound() error {
	return infra.RepositoryError{Kind: infra.KindNotFound}
}

type bookingRepo struct{ tx *memTx }

func (r *bookingRepo) Create(_ context.Context, b *booking.Booking) error {
	if err := r.tx.store.CreateBookingErr; err != nil {
		r.tx.store.CreateBookingErr = nil
		return err
	}
	if racing := r.tx.store.RacingBooking; racing != nil {
		r.tx.store.RacingBooking = nil
		// Within holds the store lock while the callback runs.
		r.tx.store.state.bookings[racing.ID()] = copyBooking(racing)
		return infra.RepositoryError{Kind: infra.KindConflict}
	}
	if _, ok := r.tx.st.resources[b.ResourceID()]; !ok {
		return infra.RepositoryError{Kind: infra.KindForeignKeyViolated}
	}
	if _, ok := r.tx.st.users[b.RequesterID()]; !ok {
		return infra.RepositoryError{Kind: infra.KindForeignKeyViolated}
	}
	// Mirrors the exclusion constraint on (resource_id, stay).
	for _, existing := range r.tx.st.bookings {
		if existing.ResourceID() == b.ResourceID() && existing.IsActive() && existing.Stay().Overlaps(b.Stay()) {
			return infra.RepositoryError{Kind: infra.KindConflict}
		}
	}
	r.tx.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.tx.st.bookings[id]
	if !ok {
		return nil, notFound()
	}
	return copyBooking(b), nil
}

func (r *bookingRepo) LockByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) UpdateStatus(_ context.Context, b *booking.Booking) error {
	if _, ok := r.tx.st.bookings[b.ID()]; !ok {
		return notFound()
	}
	r.tx.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r *bookingRepo) ListActiveByResource(_ context.Context, resourceID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.tx.st.bookings {
		if b.ResourceID() == resourceID && b.IsActive() {
			out = append(out, copyBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *bookingRepo) ListByResource(_ context.Context, resourceID uuid.UUID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range r.tx.st.bookings {
		if b.ResourceID() == resourceID {
			out = append(out, copyBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

type resourceRepo struct{ tx *memTx }

func (r *resourceRepo) Create(_ context.Context, res *resource.Resource) error {
	if _, ok := r.tx.st.resources[res.ID()]; ok {
		return infra.RepositoryError{Kind: infra.KindDuplicateKey}
	}
	r.tx.st.resources[res.ID()] = res
	return nil
}

func (r *resourceRepo) FindByID(_ context.Context, id uuid.UUID) (*resource.Resource, error) {
	res, ok := r.tx.st.resources[id]
	if !ok {
		return nil, notFound()
	}
	return res, nil
}

func (r *resourceRepo) LockByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return r.FindByID(ctx, id)
}

type userRepo struct{ tx *memTx }

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.tx.st.users {
		if existing.Email() == u.Email() {
			return infra.RepositoryError{Kind: infra.KindDuplicateKey}
		}
	}
	r.tx.st.users[u.ID()] = u
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email user.Email) (*user.User, error) {
	for _, u := range r.tx.st.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, notFound()
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.tx.st.users[id]
	if !ok {
		return nil, notFound()
	}
	return u, nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := r.tx.st.users[id]
	if !ok {
		return notFound()
	}
	r.tx.st.users[id] = user.ReconstructUser(
		u.ID(), u.Email(), u.DisplayName(), u.PasswordHash(), u.Role(),
		&at, u.IsActive(), u.CreatedAt(), at,
	)
	return nil
}

type outboxRepo struct{ tx *memTx }

func (r *outboxRepo) Enqueue(_ context.Context, evt shared.OutboxEvent) error {
	r.tx.st.outbox = append(r.tx.st.outbox, outboxRow{evt: evt, runAt: evt.CreatedAt})
	return nil
}

func (r *outboxRepo) ClaimPending(_ context.Context, now time.Time, limit int) ([]shared.OutboxEvent, error) {
	var out []shared.OutboxEvent
	for _, row := range r.tx.st.outbox {
		if len(out) >= limit {
			break
		}
		if !row.published && !row.runAt.After(now) {
			out = append(out, row.evt)
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range r.tx.st.outbox {
		if want[r.tx.st.outbox[i].evt.ID] {
			r.tx.st.outbox[i].published = true
			r.tx.st.outbox[i].evt.Attempts++
		}
	}
	return nil
}

func (r *outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, retryAt time.Time) error {
	for i := range r.tx.st.outbox {
		if r.tx.st.outbox[i].evt.ID == id {
			r.tx.st.outbox[i].evt.Attempts++
			r.tx.st.outbox[i].lastError = reason
			r.tx.st.outbox[i].runAt = retryAt
		}
	}
	return nil
}

func copyBooking(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(
		b.ID(), b.ResourceID(), b.RequesterID(), b.RequesterName(),
		b.Stay(), b.TotalPrice(), b.Status(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func sortBookings(bs []*booking.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].Stay().From().Equal(bs[j].Stay().From()) {
			return bs[i].Stay().From().Before(bs[j].Stay().From())
		}
		return bs[i].CreatedAt().Before(bs[j].CreatedAt())
	})
}
