// Package pricing implements the fee computation for a parking stay and the
// validation of rate schedules.  It is a pure computation package: no I/O,
// no clocks, no database access.  All monetary amounts are expressed in
// cents (int64) to avoid floating point drift; the only place fractions can
// appear is when a VIP discount multiplier is applied, and the result is
// rounded half-up back to a whole cent.
package pricing

import "sort"

// ChargeMode selects how a facility charges for a stay.  It is a closed
// enum: ComputeFee and Validate reject any other value instead of silently
// falling back to fixed charging, so adding a third mode forces every
// switch in this package to be revisited.
type ChargeMode int

const (
	// ChargeFixed bills a single hourly rate over the whole stay.
	ChargeFixed ChargeMode = iota
	// ChargeTiered bills each minute range of the stay at its tier's rate.
	ChargeTiered
)

// String returns the storage representation of the mode ("fixed"/"tiered").
func (m ChargeMode) String() string {
	switch m {
	case ChargeFixed:
		return "fixed"
	case ChargeTiered:
		return "tiered"
	}
	return "unknown"
}

// ParseChargeMode converts a stored mode string back into a ChargeMode.
// The boolean reports whether the input named a known mode.
func ParseChargeMode(s string) (ChargeMode, bool) {
	switch s {
	case "fixed":
		return ChargeFixed, true
	case "tiered":
		return ChargeTiered, true
	}
	return ChargeFixed, false
}

// ClassAll marks a tier as applicable to every space class.  Specific
// classes ("standard", "vip", "large", "disabled") live in the model
// package; pricing only compares strings.
const ClassAll = "all"

// Tier is one minute range of a tiered schedule.  StartMinute is inclusive,
// EndMinute exclusive; a nil EndMinute means the tier is unbounded.
type Tier struct {
	StartMinute int
	EndMinute   *int   // nil = unbounded
	RateCents   int64  // hourly rate in cents, > 0
	SpaceClass  string // class this tier applies to, or ClassAll
}

// appliesTo reports whether the tier covers the given space class.
func (t Tier) appliesTo(class string) bool {
	return t.SpaceClass == "" || t.SpaceClass == ClassAll || t.SpaceClass == class
}

// Schedule is a facility's complete rate configuration.
//
// In fixed mode only HourlyRateCents is consulted.  In tiered mode the
// Tiers list is consulted and HourlyRateCents is ignored.  FreeMinutes and
// DailyMaxFeeCents apply to both modes; a DailyMaxFeeCents of zero means
// no cap.
type Schedule struct {
	Mode             ChargeMode
	FreeMinutes      int
	HourlyRateCents  int64
	DailyMaxFeeCents int64 // 0 = uncapped
	Tiers            []Tier
}

// tiersFor returns the tiers usable for a space class, ordered by ascending
// start minute.  The receiver's slice is not modified.
func (s Schedule) tiersFor(class string) []Tier {
	out := make([]Tier, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		if t.appliesTo(class) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out
}
