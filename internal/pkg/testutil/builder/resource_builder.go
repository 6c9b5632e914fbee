//go:build unit || e2e

package builder

import (
	"time"

	"villa-booking/internal/domain/resource"

	"github.com/google/uuid"
)

type ResourceBuilder struct {
	ID          uuid.UUID
	Name        string
	Kind        string
	WeekdayRate int64
	WeekendRate int64
	FlatRate    int64
	OwnerID     uuid.UUID
	CreatedAt   time.Time
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{
		ID:          uuid.New(),
		Name:        "Villa Aurora",
		Kind:        string(resource.KindRentable),
		WeekdayRate: 100,
		WeekendRate: 150,
		OwnerID:     uuid.New(),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *ResourceBuilder) With(mutate func(*ResourceBuilder)) *ResourceBuilder {
	mutate(b)
	return b
}

func (b *ResourceBuilder) WithOwner(ownerID uuid.UUID) *ResourceBuilder {
	b.OwnerID = ownerID
	return b
}

func (b *ResourceBuilder) WithRates(weekday, weekend, flat int64) *ResourceBuilder {
	b.WeekdayRate, b.WeekendRate, b.FlatRate = weekday, weekend, flat
	return b
}

func (b *ResourceBuilder) AsNonRentable() *ResourceBuilder {
	b.Kind = string(resource.KindNonRentable)
	return b
}

// Build methods
func (b *ResourceBuilder) BuildDomain() (*resource.Resource, error) {
	kind, err := resource.NewKind(b.Kind)
	if err != nil {
		return nil, err
	}
	rates, err := resource.NewRateSchedule(b.WeekdayRate, b.WeekendRate, b.FlatRate)
	if err != nil {
		return nil, err
	}
	return resource.NewResource(b.ID, b.Name, kind, rates, b.OwnerID)
}

// MustBuildDomain reconstructs without validation, as the store would.
func (b *ResourceBuilder) MustBuildDomain() *resource.Resource {
	rates, err := resource.NewRateSchedule(b.WeekdayRate, b.WeekendRate, b.FlatRate)
	if err != nil {
		panic(err)
	}
	return resource.ReconstructResource(b.ID, b.Name, resource.Kind(b.Kind), rates, b.OwnerID, b.CreatedAt, b.CreatedAt)
}
