package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidSchedule is the sentinel wrapped by every validation failure.
// Callers match it with errors.Is and surface the wrapped reason verbatim.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Validate checks a schedule's configuration invariants.  It runs when a
// schedule is created or edited, never during billing, so billing can
// assume every persisted schedule already passed here.
//
// Checks performed:
//   - free minutes must not be negative;
//   - the daily cap, when set, must be strictly positive;
//   - fixed mode requires a strictly positive hourly rate;
//   - tiered mode requires at least one tier, every tier rate strictly
//     positive, end > start whenever end is present, start >= 0, and no two
//     tiers covering the same minute for the same space class (a tier for
//     ClassAll shares minutes with every class).
func Validate(sched Schedule) error {
	if sched.FreeMinutes < 0 {
		return fmt.Errorf("%w: free minutes must not be negative", ErrInvalidSchedule)
	}
	if sched.DailyMaxFeeCents < 0 {
		return fmt.Errorf("%w: daily max fee must be positive when set", ErrInvalidSchedule)
	}
	switch sched.Mode {
	case ChargeFixed:
		if sched.HourlyRateCents <= 0 {
			return fmt.Errorf("%w: hourly rate must be positive", ErrInvalidSchedule)
		}
		return nil
	case ChargeTiered:
		return validateTiers(sched.Tiers)
	default:
		return fmt.Errorf("%w: unknown charge mode", ErrInvalidSchedule)
	}
}

func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: tiered mode requires at least one tier", ErrInvalidSchedule)
	}
	for i, t := range tiers {
		if t.StartMinute < 0 {
			return fmt.Errorf("%w: tier %d start minute must not be negative", ErrInvalidSchedule, i+1)
		}
		if t.EndMinute != nil && *t.EndMinute <= t.StartMinute {
			return fmt.Errorf("%w: tier %d end minute must be greater than its start", ErrInvalidSchedule, i+1)
		}
		if t.RateCents <= 0 {
			return fmt.Errorf("%w: tier %d rate must be positive", ErrInvalidSchedule, i+1)
		}
	}
	for i := 0; i < len(tiers); i++ {
		for j := i + 1; j < len(tiers); j++ {
			if !classesShareMinutes(tiers[i].SpaceClass, tiers[j].SpaceClass) {
				continue
			}
			if rangesOverlap(tiers[i], tiers[j]) {
				return fmt.Errorf("%w: tiers %d and %d overlap", ErrInvalidSchedule, i+1, j+1)
			}
		}
	}
	return nil
}

// classesShareMinutes reports whether two tiers can ever be consulted for
// the same space, in which case their minute ranges must not overlap.
func classesShareMinutes(a, b string) bool {
	if a == "" || a == ClassAll || b == "" || b == ClassAll {
		return true
	}
	return a == b
}

// rangesOverlap treats [start, end) intervals, nil end as unbounded.
func rangesOverlap(a, b Tier) bool {
	aEnd := a.EndMinute == nil
	bEnd := b.EndMinute == nil
	if aEnd && bEnd {
		return true
	}
	if aEnd {
		return *b.EndMinute > a.StartMinute
	}
	if bEnd {
		return *a.EndMinute > b.StartMinute
	}
	return a.StartMinute < *b.EndMinute && b.StartMinute < *a.EndMinute
}
