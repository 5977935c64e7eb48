package model

import (
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/pricing"
)

// RateSchedule is the persisted rate configuration of a facility.  Exactly
// one schedule row exists per configured facility; facilities without one
// fall back to their fixed HourlyRateCents.  Schedules are validated by
// pricing.Validate when created or edited, never at billing time.
//
// Fields:
//  ID               – primary key identifier.
//  FacilityID       – owning facility, unique.
//  ChargeType       – "fixed" or "tiered".
//  FreeMinutes      – grace period during which no fee accrues.
//  HourlyRateCents  – hourly rate for fixed mode, in cents.
//  DailyMaxFeeCents – per-stay fee cap in cents; 0 = uncapped.
//  Tiers            – ordered tier rows for tiered mode.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last modification timestamp.
type RateSchedule struct {
	ID               uint64     `json:"id"`                  // rate_schedules.id
	FacilityID       uint64     `json:"facility_id"`         // rate_schedules.facility_id
	ChargeType       string     `json:"charge_type"`         // rate_schedules.charge_type
	FreeMinutes      int        `json:"free_minutes"`        // rate_schedules.free_minutes
	HourlyRateCents  int64      `json:"hourly_rate_cents"`   // rate_schedules.hourly_rate_cents
	DailyMaxFeeCents int64      `json:"daily_max_fee_cents"` // rate_schedules.daily_max_fee_cents
	Tiers            []RateTier `json:"tiers,omitempty"`
	CreatedAt        time.Time  `json:"created_at"` // rate_schedules.created_at
	UpdatedAt        time.Time  `json:"updated_at"` // rate_schedules.updated_at
}

// RateTier is one persisted minute range of a tiered schedule.
//
// Fields:
//  ID          – primary key identifier.
//  ScheduleID  – owning schedule.
//  StartMinute – inclusive start of the range.
//  EndMinute   – exclusive end of the range; nil = unbounded.
//  RateCents   – hourly rate in cents for this range.
//  SpaceClass  – space class the tier applies to, or "all".
//  Position    – ordering hint for display; billing sorts by StartMinute.
type RateTier struct {
	ID          uint64 `json:"id"`                   // rate_tiers.id
	ScheduleID  uint64 `json:"schedule_id"`          // rate_tiers.schedule_id
	StartMinute int    `json:"start_minute"`         // rate_tiers.start_minute
	EndMinute   *int   `json:"end_minute,omitempty"` // rate_tiers.end_minute (nullable)
	RateCents   int64  `json:"rate_cents"`           // rate_tiers.rate_cents
	SpaceClass  string `json:"space_class"`          // rate_tiers.space_class
	Position    int    `json:"position"`             // rate_tiers.position
}

// Pricing converts the persisted schedule into the pure pricing form
// consumed by the fee engine.  Unknown charge types map to an invalid mode
// that the engine rejects rather than silently billing as fixed.
func (s *RateSchedule) Pricing() pricing.Schedule {
	mode, ok := pricing.ParseChargeMode(s.ChargeType)
	if !ok {
		mode = pricing.ChargeMode(-1)
	}
	out := pricing.Schedule{
		Mode:             mode,
		FreeMinutes:      s.FreeMinutes,
		HourlyRateCents:  s.HourlyRateCents,
		DailyMaxFeeCents: s.DailyMaxFeeCents,
	}
	for _, t := range s.Tiers {
		out.Tiers = append(out.Tiers, pricing.Tier{
			StartMinute: t.StartMinute,
			EndMinute:   t.EndMinute,
			RateCents:   t.RateCents,
			SpaceClass:  t.SpaceClass,
		})
	}
	return out
}
