package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFixed(t *testing.T) {
	assert.NoError(t, Validate(Schedule{Mode: ChargeFixed, HourlyRateCents: 500}))
	assert.ErrorIs(t, Validate(Schedule{Mode: ChargeFixed}), ErrInvalidSchedule)
	assert.ErrorIs(t, Validate(Schedule{Mode: ChargeFixed, HourlyRateCents: -500}), ErrInvalidSchedule)
}

func TestValidateTiered(t *testing.T) {
	cases := []struct {
		name  string
		sched Schedule
		ok    bool
	}{
		{
			name: "well formed tiers",
			sched: Schedule{Mode: ChargeTiered, FreeMinutes: 15, Tiers: []Tier{
				{StartMinute: 0, EndMinute: minutes(60), RateCents: 500, SpaceClass: ClassAll},
				{StartMinute: 60, RateCents: 800, SpaceClass: ClassAll},
			}},
			ok: true,
		},
		{
			name:  "no tiers",
			sched: Schedule{Mode: ChargeTiered},
		},
		{
			name: "zero rate",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 0, RateCents: 0, SpaceClass: ClassAll},
			}},
		},
		{
			name: "end not after start",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 60, EndMinute: minutes(60), RateCents: 500, SpaceClass: ClassAll},
			}},
		},
		{
			name: "negative start",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: -1, RateCents: 500, SpaceClass: ClassAll},
			}},
		},
		{
			name: "overlapping same class",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 0, EndMinute: minutes(90), RateCents: 500, SpaceClass: "standard"},
				{StartMinute: 60, EndMinute: minutes(120), RateCents: 800, SpaceClass: "standard"},
			}},
		},
		{
			name: "bounded tier under an unbounded one",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 0, RateCents: 500, SpaceClass: ClassAll},
				{StartMinute: 60, EndMinute: minutes(120), RateCents: 800, SpaceClass: ClassAll},
			}},
		},
		{
			name: "class all overlaps a specific class",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 0, EndMinute: minutes(60), RateCents: 500, SpaceClass: ClassAll},
				{StartMinute: 30, EndMinute: minutes(90), RateCents: 800, SpaceClass: "vip"},
			}},
		},
		{
			name: "same minutes for disjoint classes is fine",
			sched: Schedule{Mode: ChargeTiered, Tiers: []Tier{
				{StartMinute: 0, EndMinute: minutes(60), RateCents: 500, SpaceClass: "standard"},
				{StartMinute: 0, EndMinute: minutes(60), RateCents: 800, SpaceClass: "large"},
			}},
			ok: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.sched)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			}
		})
	}
}

func TestValidateScheduleLevelFields(t *testing.T) {
	assert.ErrorIs(t, Validate(Schedule{Mode: ChargeFixed, HourlyRateCents: 500, FreeMinutes: -1}), ErrInvalidSchedule)
	assert.ErrorIs(t, Validate(Schedule{Mode: ChargeFixed, HourlyRateCents: 500, DailyMaxFeeCents: -1}), ErrInvalidSchedule)
	assert.ErrorIs(t, Validate(Schedule{Mode: ChargeMode(7), HourlyRateCents: 500}), ErrInvalidSchedule)
	assert.NoError(t, Validate(Schedule{Mode: ChargeFixed, HourlyRateCents: 500, DailyMaxFeeCents: 2000, FreeMinutes: 30}))
}
