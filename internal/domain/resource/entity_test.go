//go:build unit

package resource_test

import (
	"strings"
	"testing"
	"time"

	"villa-booking/internal/domain/resource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRates(t *testing.T, weekday, weekend, flat int64) resource.RateSchedule {
	t.Helper()
	rs, err := resource.NewRateSchedule(weekday, weekend, flat)
	require.NoError(t, err)
	return rs
}

func TestNewResource(t *testing.T) {
	owner := uuid.New()

	testCases := []struct {
		name  string
		rname string
		kind  resource.Kind
		rates resource.RateSchedule
		owner uuid.UUID
		errIs error
	}{
		{name: "rentable with both tiers", rname: "Villa Sol", kind: resource.KindRentable, rates: mustRates(t, 100, 150, 0), owner: owner},
		{name: "rentable with flat only", rname: "Villa Luna", kind: resource.KindRentable, rates: mustRates(t, 0, 0, 120), owner: owner},
		{name: "non rentable needs no rates", rname: "Plot 7", kind: resource.KindNonRentable, rates: mustRates(t, 0, 0, 0), owner: owner},
		{name: "rentable missing weekend tier", rname: "Villa Mar", kind: resource.KindRentable, rates: mustRates(t, 100, 0, 0), owner: owner, errIs: resource.ErrMissingRateTier},
		{name: "empty name", rname: "  ", kind: resource.KindRentable, rates: mustRates(t, 100, 150, 0), owner: owner, errIs: resource.ErrEmptyResourceName},
		{name: "name too long", rname: strings.Repeat("v", resource.MaxResourceNameLength+1), kind: resource.KindRentable, rates: mustRates(t, 100, 150, 0), owner: owner, errIs: resource.ErrResourceNameTooLong},
		{name: "unknown kind", rname: "Villa Sol", kind: resource.Kind("leasable"), rates: mustRates(t, 100, 150, 0), owner: owner, errIs: resource.ErrInvalidKind},
		{name: "missing owner", rname: "Villa Sol", kind: resource.KindRentable, rates: mustRates(t, 100, 150, 0), owner: uuid.Nil, errIs: resource.ErrMissingOwner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := resource.NewResource(uuid.New(), tc.rname, tc.kind, tc.rates, tc.owner)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				assert.Nil(t, actual)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind == resource.KindRentable, actual.IsRentable())
			assert.True(t, actual.IsOwnedBy(tc.owner))
		})
	}
}

func TestRateSchedule_NightlyRate(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		rates    resource.RateSchedule
		expected []int64 // Monday through Sunday
	}{
		{
			name:     "two tiers",
			rates:    mustRates(t, 100, 150, 0),
			expected: []int64{100, 100, 100, 100, 150, 150, 150},
		},
		{
			name:     "weekend tier unset falls back to flat",
			rates:    mustRates(t, 100, 0, 80),
			expected: []int64{100, 100, 100, 100, 80, 80, 80},
		},
		{
			name:     "flat only",
			rates:    mustRates(t, 0, 0, 90),
			expected: []int64{90, 90, 90, 90, 90, 90, 90},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.expected {
				day := monday.AddDate(0, 0, i)
				assert.Equal(t, want, tc.rates.NightlyRate(day), "day %s", day.Weekday())
			}
		})
	}
}

func TestNewRateSchedule_Negative(t *testing.T) {
	_, err := resource.NewRateSchedule(-1, 100, 0)
	assert.ErrorIs(t, err, resource.ErrNegativeRate)
}
