package offer

import "pharmex/internal/pkg/errs"

// BundleSpec is the minimum increment (quantity plus bonus units) a depot
// sells pooled offers in. Pool capacity is always a whole multiple of it.
type BundleSpec struct {
	Quantity int
	Bonus    int
}

func (b BundleSpec) Unit() int {
	return b.Quantity + b.Bonus
}

// EffectiveCapacity returns the pool capacity justified by current demand:
// the smallest whole number of bundle units covering totalClaimed, never
// fewer than one. maxMultiple (0 = uncapped) bounds pool growth.
//
// A non-positive bundle unit is seller-authored misconfiguration and is
// reported as such rather than treated as an empty pool.
func EffectiveCapacity(spec BundleSpec, totalClaimed int, maxMultiple int) (int, error) {
	unit := spec.Unit()
	if unit <= 0 {
		return 0, errs.ErrInvalidBundle
	}

	multiple := 1
	if totalClaimed > 0 {
		multiple = (totalClaimed + unit - 1) / unit
	}
	if maxMultiple > 0 && multiple > maxMultiple {
		multiple = maxMultiple
	}

	return unit * multiple, nil
}

// RemainingCapacity never reports negative room, even when a capped pool is
// over-subscribed by already-committed claims.
func RemainingCapacity(spec BundleSpec, totalClaimed int, maxMultiple int) (int, error) {
	capacity, err := EffectiveCapacity(spec, totalClaimed, maxMultiple)
	if err != nil {
		return 0, err
	}

	remaining := capacity - totalClaimed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// UsagePercent is a display figure, capped at 100.
func UsagePercent(spec BundleSpec, totalClaimed int, maxMultiple int) (float64, error) {
	capacity, err := EffectiveCapacity(spec, totalClaimed, maxMultiple)
	if err != nil {
		return 0, err
	}
	if totalClaimed <= 0 {
		return 0, nil
	}

	pct := float64(totalClaimed) / float64(capacity) * 100
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}
