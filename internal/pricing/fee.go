package pricing

import (
	"errors"
	"math"
)

// ErrInvalidInput is returned when the caller hands the fee engine
// something it cannot price: a negative duration, an unknown charge mode,
// or a tiered schedule with no tier usable for the space class.  The engine
// performs no partial computation in these cases.
var ErrInvalidInput = errors.New("pricing: invalid input")

// FeeResult carries the outcome of a fee computation.  DiscountRate is the
// VIP rate actually applied (0 when the vehicle had none); FreeParking is
// set when a full waiver short-circuited the computation.
type FeeResult struct {
	AmountCents  int64
	DiscountRate float64
	FreeParking  bool
}

// ComputeFee prices a stay of durationMinutes in a space of the given class
// under the schedule.  vipRate, when non-nil, is the vehicle's discount in
// [0,1]: 1 waives the fee entirely, 0.5 halves it, 0 charges full price.
//
// Rules, in order:
//   - a full waiver (rate >= 1) returns 0 immediately;
//   - a stay within the free period returns 0;
//   - fixed mode bills ceil(duration/60) hours at the hourly rate; the free
//     period does not shorten the billable time in this mode, it only acts
//     as the all-or-nothing threshold above;
//   - tiered mode deducts the free minutes once, shifts every tier boundary
//     left by the same amount, and bills each tier's portion with its own
//     ceil-to-hour rounding (partial hours never carry between tiers);
//   - the VIP discount multiplies the total, rounded half-up to a cent;
//   - the daily cap, when configured, clamps the final amount.
func ComputeFee(durationMinutes int, sched Schedule, spaceClass string, vipRate *float64) (FeeResult, error) {
	if durationMinutes < 0 {
		return FeeResult{}, ErrInvalidInput
	}
	if vipRate != nil && *vipRate >= 1 {
		return FeeResult{DiscountRate: 1, FreeParking: true}, nil
	}
	if durationMinutes <= sched.FreeMinutes {
		return FeeResult{}, nil
	}

	var fee int64
	switch sched.Mode {
	case ChargeFixed:
		if sched.HourlyRateCents <= 0 {
			return FeeResult{}, ErrInvalidInput
		}
		fee = int64(ceilHours(durationMinutes)) * sched.HourlyRateCents
	case ChargeTiered:
		tiers := sched.tiersFor(spaceClass)
		if len(tiers) == 0 {
			return FeeResult{}, ErrInvalidInput
		}
		fee = tieredFee(durationMinutes-sched.FreeMinutes, sched.FreeMinutes, tiers)
	default:
		return FeeResult{}, ErrInvalidInput
	}

	var applied float64
	if vipRate != nil && *vipRate > 0 {
		applied = *vipRate
		fee = roundHalfUp(float64(fee) * (1 - applied))
	}
	if sched.DailyMaxFeeCents > 0 && fee > sched.DailyMaxFeeCents {
		fee = sched.DailyMaxFeeCents
	}
	return FeeResult{AmountCents: fee, DiscountRate: applied}, nil
}

// tieredFee walks the tiers in start order and bills the portion of the
// remaining minutes that falls inside each one.  Tier boundaries are
// shifted left by freeMinutes (clamped at zero) so they line up with the
// remaining counter, from which the free period has already been deducted.
func tieredFee(remaining, freeMinutes int, tiers []Tier) int64 {
	var total int64
	for _, t := range tiers {
		if remaining <= 0 {
			break
		}
		if t.EndMinute == nil {
			// Unbounded tail: everything left bills at this rate.
			total += int64(ceilHours(remaining)) * t.RateCents
			break
		}
		start := t.StartMinute - freeMinutes
		if start < 0 {
			start = 0
		}
		end := *t.EndMinute - freeMinutes
		if remaining <= start {
			continue
		}
		portion := remaining
		if portion > end {
			portion = end
		}
		portion -= start
		if portion <= 0 {
			continue
		}
		total += int64(ceilHours(portion)) * t.RateCents
		remaining -= portion
	}
	return total
}

// ceilHours rounds a positive minute count up to whole hours.
func ceilHours(minutes int) int {
	return (minutes + 59) / 60
}

// roundHalfUp rounds to the nearest integer cent, halves away from zero.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
