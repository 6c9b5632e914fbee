//go:build unit || e2e

package memstore

import (
	"context"
	"errors"
	"sync"

	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]shared.IdempotencyRecord

	// FailComplete makes that many upcoming Complete calls fail.
	FailComplete  int
	completeCalls int
}

var ErrStoreUnavailable = errors.New("idempotency store unavailable")

func (s *IdempotencyStore) CompleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeCalls
}

func (s *IdempotencyStore) Record(key string, actorID uuid.UUID) (shared.IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[storeKey(key, actorID)]
	return rec, ok
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: map[string]shared.IdempotencyRecord{}}
}

func storeKey(key string, actorID uuid.UUID) string {
	return actorID.String() + "/" + key
}

func (s *IdempotencyStore) Acquire(_ context.Context, key string, actorID uuid.UUID, requestHash string) (*shared.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[storeKey(key, actorID)]; ok {
		return &rec, false, nil
	}
	s.records[storeKey(key, actorID)] = shared.IdempotencyRecord{
		Key:         key,
		ActorID:     actorID,
		Status:      shared.IdempotencyProcessing,
		RequestHash: requestHash,
	}
	return nil, true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, actorID uuid.UUID, requestHash string, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completeCalls++
	if s.FailComplete > 0 {
		s.FailComplete--
		return ErrStoreUnavailable
	}

	s.records[storeKey(key, actorID)] = shared.IdempotencyRecord{
		Key:         key,
		ActorID:     actorID,
		Status:      shared.IdempotencyCompleted,
		RequestHash: requestHash,
		BookingID:   bookingID,
	}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string, actorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, storeKey(key, actorID))
	return nil
}

// Publisher records published batches and can be told to fail.
type Publisher struct {
	mu        sync.Mutex
	Published []shared.OutboxEvent
	Err       error
}

func (p *Publisher) Publish(_ context.Context, events []shared.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.Published = append(p.Published, events...)
	return nil
}
