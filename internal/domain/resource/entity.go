package resource

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrMissingOwner        = errors.New("resource owner is required")
)

const (
	MaxResourceNameLength = 255
)

// Resource is a villa or any other unit guests can book or buy.
type Resource struct {
	id        uuid.UUID
	name      string
	kind      Kind
	rates     RateSchedule
	ownerID   uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

func NewResource(id uuid.UUID, name string, kind Kind, rates RateSchedule, ownerID uuid.UUID) (*Resource, error) {
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if kind == KindRentable {
		if _, err := NewBookableRateSchedule(rates.Weekday(), rates.Weekend(), rates.Flat()); err != nil {
			return nil, err
		}
	}

	return &Resource{
		id:      id,
		name:    strings.TrimSpace(name),
		kind:    kind,
		rates:   rates,
		ownerID: ownerID,
	}, nil
}

func ReconstructResource(
	id uuid.UUID,
	name string,
	kind Kind,
	rates RateSchedule,
	ownerID uuid.UUID,
	createdAt, updatedAt time.Time,
) *Resource {
	return &Resource{
		id:        id,
		name:      name,
		kind:      kind,
		rates:     rates,
		ownerID:   ownerID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *Resource) IsRentable() bool {
	return r.kind == KindRentable
}

func (r *Resource) IsOwnedBy(userID uuid.UUID) bool {
	return r.ownerID == userID
}

func validateResourceName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return ErrResourceNameTooLong
	}
	return nil
}

func (r *Resource) ID() uuid.UUID        { return r.id }
func (r *Resource) Name() string         { return r.name }
func (r *Resource) Kind() Kind           { return r.kind }
func (r *Resource) Rates() RateSchedule  { return r.rates }
func (r *Resource) OwnerID() uuid.UUID   { return r.ownerID }
func (r *Resource) CreatedAt() time.Time { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time { return r.updatedAt }
