//go:build unit

package offer_test

import (
	"testing"

	"pharmex/internal/domain/offer"
	"pharmex/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveCapacity(t *testing.T) {
	spec := offer.BundleSpec{Quantity: 50, Bonus: 5} // unit = 55

	cases := []struct {
		name         string
		totalClaimed int
		maxMultiple  int
		expected     int
	}{
		{name: "empty pool holds one bundle", totalClaimed: 0, maxMultiple: 0, expected: 55},
		{name: "claims within first bundle", totalClaimed: 40, maxMultiple: 0, expected: 55},
		{name: "exact bundle boundary", totalClaimed: 55, maxMultiple: 0, expected: 55},
		{name: "one past the boundary grows the pool", totalClaimed: 56, maxMultiple: 0, expected: 110},
		{name: "claimed 60 needs two bundles", totalClaimed: 60, maxMultiple: 0, expected: 110},
		{name: "operational cap stops growth", totalClaimed: 600, maxMultiple: 3, expected: 165},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			capacity, err := offer.EffectiveCapacity(spec, tc.totalClaimed, tc.maxMultiple)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, capacity)
		})
	}

	t.Run("zero bundle unit is a configuration error", func(t *testing.T) {
		_, err := offer.EffectiveCapacity(offer.BundleSpec{}, 10, 0)
		assert.ErrorIs(t, err, errs.ErrInvalidBundle)

		_, err = offer.RemainingCapacity(offer.BundleSpec{}, 10, 0)
		assert.ErrorIs(t, err, errs.ErrInvalidBundle)

		_, err = offer.UsagePercent(offer.BundleSpec{}, 10, 0)
		assert.ErrorIs(t, err, errs.ErrInvalidBundle)
	})

	t.Run("monotonically non-decreasing in total claimed", func(t *testing.T) {
		prev := 0
		for claimed := 0; claimed <= 500; claimed++ {
			capacity, err := offer.EffectiveCapacity(spec, claimed, 0)
			require.NoError(t, err)
			require.GreaterOrEqual(t, capacity, prev, "capacity shrank at claimed=%d", claimed)
			prev = capacity
		}
	})
}

func TestRemainingCapacity(t *testing.T) {
	spec := offer.BundleSpec{Quantity: 50, Bonus: 5}

	t.Run("claimed 60 leaves 50 of the second bundle", func(t *testing.T) {
		remaining, err := offer.RemainingCapacity(spec, 60, 0)
		require.NoError(t, err)
		assert.Equal(t, 50, remaining)
	})

	t.Run("never negative under a capped pool", func(t *testing.T) {
		// Cap at 1 bundle while 80 units are already committed.
		remaining, err := offer.RemainingCapacity(spec, 80, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})

	t.Run("never negative for any claim sequence", func(t *testing.T) {
		for claimed := 0; claimed <= 300; claimed += 7 {
			remaining, err := offer.RemainingCapacity(spec, claimed, 2)
			require.NoError(t, err)
			require.GreaterOrEqual(t, remaining, 0)
		}
	})
}

func TestUsagePercent(t *testing.T) {
	spec := offer.BundleSpec{Quantity: 50, Bonus: 5}

	cases := []struct {
		name         string
		totalClaimed int
		maxMultiple  int
		expected     float64
	}{
		{name: "empty pool", totalClaimed: 0, expected: 0},
		{name: "half of two bundles", totalClaimed: 55, expected: 100},
		{name: "partial second bundle", totalClaimed: 66, expected: 60},
		{name: "capped pool never exceeds 100", totalClaimed: 200, maxMultiple: 1, expected: 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pct, err := offer.UsagePercent(spec, tc.totalClaimed, tc.maxMultiple)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, pct, 0.001)
		})
	}
}
