package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minutes(n int) *int { return &n }

func rate(r float64) *float64 { return &r }

// tieredSchedule mirrors the reference configuration used throughout these
// tests: 15 free minutes, then [0,60) at 5.00/hr, [60,120) at 8.00/hr and
// 120+ at 10.00/hr.
func tieredSchedule() Schedule {
	return Schedule{
		Mode:        ChargeTiered,
		FreeMinutes: 15,
		Tiers: []Tier{
			{StartMinute: 0, EndMinute: minutes(60), RateCents: 500, SpaceClass: ClassAll},
			{StartMinute: 60, EndMinute: minutes(120), RateCents: 800, SpaceClass: ClassAll},
			{StartMinute: 120, RateCents: 1000, SpaceClass: ClassAll},
		},
	}
}

func TestComputeFeeFixed(t *testing.T) {
	sched := Schedule{Mode: ChargeFixed, HourlyRateCents: 500}

	cases := []struct {
		name     string
		duration int
		want     int64
	}{
		{"45 minutes rounds up to one hour", 45, 500},
		{"exactly one hour", 60, 500},
		{"61 minutes rounds up to two hours", 61, 1000},
		{"zero minutes is free", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ComputeFee(tc.duration, sched, "standard", nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.AmountCents)
			assert.Zero(t, res.DiscountRate)
		})
	}
}

func TestComputeFeeFixedIgnoresFreeMinutesAboveThreshold(t *testing.T) {
	// Fixed mode treats the free period as an all-or-nothing threshold:
	// once exceeded, the full duration is billable.
	sched := Schedule{Mode: ChargeFixed, FreeMinutes: 15, HourlyRateCents: 500}

	res, err := ComputeFee(15, sched, "standard", nil)
	require.NoError(t, err)
	assert.Zero(t, res.AmountCents)

	res, err = ComputeFee(75, sched, "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.AmountCents, "75 billable minutes, not 60")
}

func TestComputeFeeTiered(t *testing.T) {
	// 130 minutes: 115 remain after the free period. Tier one bills 45
	// minutes as one hour, tier two 25 minutes as one hour, the unbounded
	// tail bills the last 45 minutes as one hour.
	res, err := ComputeFee(130, tieredSchedule(), "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2300), res.AmountCents)
}

func TestComputeFeeTieredStopsWithinBoundedTiers(t *testing.T) {
	res, err := ComputeFee(50, tieredSchedule(), "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.AmountCents, "35 remaining minutes stay inside tier one")

	// 75 minutes leaves 60 on the counter: tier one consumes 45, dropping
	// the counter to 15, which is below tier two's shifted start of 45, so
	// the leftover bills at the unbounded tail rate.
	res, err = ComputeFee(75, tieredSchedule(), "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), res.AmountCents)
}

func TestComputeFeeDailyCap(t *testing.T) {
	sched := tieredSchedule()
	sched.DailyMaxFeeCents = 2000

	res, err := ComputeFee(130, sched, "standard", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), res.AmountCents, "23.00 clamps to the 20.00 cap")
}

func TestComputeFeeCapLaw(t *testing.T) {
	sched := tieredSchedule()
	sched.DailyMaxFeeCents = 2000
	for d := 0; d <= 3000; d += 37 {
		res, err := ComputeFee(d, sched, "standard", nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.AmountCents, sched.DailyMaxFeeCents, "duration %d", d)
	}
}

func TestComputeFeeFreePeriodLaw(t *testing.T) {
	sched := tieredSchedule()
	for d := 0; d <= sched.FreeMinutes; d++ {
		res, err := ComputeFee(d, sched, "standard", nil)
		require.NoError(t, err)
		assert.Zero(t, res.AmountCents, "duration %d", d)
	}
}

func TestComputeFeeVIPWaiver(t *testing.T) {
	for _, d := range []int{0, 1, 45, 130, 100000} {
		res, err := ComputeFee(d, tieredSchedule(), "standard", rate(1.0))
		require.NoError(t, err)
		assert.Zero(t, res.AmountCents, "duration %d", d)
		assert.True(t, res.FreeParking)
		assert.Equal(t, 1.0, res.DiscountRate)
	}
}

func TestComputeFeeVIPDiscount(t *testing.T) {
	sched := Schedule{Mode: ChargeFixed, HourlyRateCents: 500}

	res, err := ComputeFee(45, sched, "standard", rate(0.5))
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.AmountCents)
	assert.Equal(t, 0.5, res.DiscountRate)
	assert.False(t, res.FreeParking)

	// Half-cent results round half-up: 25% off 5.00 over one hour.
	res, err = ComputeFee(45, Schedule{Mode: ChargeFixed, HourlyRateCents: 125}, "standard", rate(0.5))
	require.NoError(t, err)
	assert.Equal(t, int64(63), res.AmountCents, "62.5 cents rounds to 63")
}

func TestComputeFeeDiscountAppliedBeforeCap(t *testing.T) {
	sched := tieredSchedule()
	sched.DailyMaxFeeCents = 1000

	res, err := ComputeFee(130, sched, "standard", rate(0.5))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.AmountCents, "11.50 after discount still clamps to the cap")
}

func TestComputeFeeTierClassFiltering(t *testing.T) {
	sched := Schedule{
		Mode:        ChargeTiered,
		FreeMinutes: 0,
		Tiers: []Tier{
			{StartMinute: 0, RateCents: 500, SpaceClass: "standard"},
			{StartMinute: 0, RateCents: 2000, SpaceClass: "large"},
		},
	}

	res, err := ComputeFee(30, sched, "large", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), res.AmountCents)

	// No tier covers this class at all.
	_, err = ComputeFee(30, Schedule{
		Mode:  ChargeTiered,
		Tiers: []Tier{{StartMinute: 0, RateCents: 500, SpaceClass: "large"}},
	}, "standard", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeFeeInvalidInput(t *testing.T) {
	_, err := ComputeFee(-1, tieredSchedule(), "standard", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeFee(60, Schedule{Mode: ChargeTiered}, "standard", nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "tiered mode with no tiers")

	_, err = ComputeFee(60, Schedule{Mode: ChargeMode(42), HourlyRateCents: 500}, "standard", nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "unknown charge mode")
}

func TestParseChargeMode(t *testing.T) {
	m, ok := ParseChargeMode("fixed")
	require.True(t, ok)
	assert.Equal(t, ChargeFixed, m)

	m, ok = ParseChargeMode("tiered")
	require.True(t, ok)
	assert.Equal(t, ChargeTiered, m)

	_, ok = ParseChargeMode("hourly")
	assert.False(t, ok)
}
