package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/queue"
)

// newTestParking builds a coordinator over the store with a controllable
// clock.  Tests move time by reassigning through the returned pointer.
func newTestParking(store Store) (*Parking, *time.Time) {
	p := NewParking(store, nil, nil, nil)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	cur := &now
	p.now = func() time.Time { return *cur }
	return p, cur
}

func intPtr(n int) *int { return &n }

// tieredRates mirrors a typical downtown tariff: 15 free minutes, then
// 5 yuan for the first hour, 8 for the second, 10 per hour after that.
func tieredRates() model.RateSchedule {
	return model.RateSchedule{
		ChargeType:  "tiered",
		FreeMinutes: 15,
		Tiers: []model.RateTier{
			{StartMinute: 0, EndMinute: intPtr(60), RateCents: 500, SpaceClass: "all"},
			{StartMinute: 60, EndMinute: intPtr(120), RateCents: 800, SpaceClass: "all"},
			{StartMinute: 120, RateCents: 1000, SpaceClass: "all"},
		},
	}
}

func TestEnterVehicleAllocatesLowestFreeSpace(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, true, false)
	store.addSpace(fac, "A3", model.SpaceClassStandard, false, false)
	a2 := store.addSpace(fac, "A2", model.SpaceClassStandard, false, false)
	p, _ := newTestParking(store)

	res, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)
	assert.Equal(t, a2, res.SpaceID)
	assert.Equal(t, "A2", res.SpaceNumber)
	assert.Equal(t, "North Lot", res.FacilityName)
	assert.True(t, store.spaces[a2].IsOccupied)
	assert.NotZero(t, res.RecordID)
}

func TestEnterVehicleClaimsSpecificSpace(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	a2 := store.addSpace(fac, "A2", model.SpaceClassVIP, false, false)
	p, _ := newTestParking(store)

	res, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: "京A12345", FacilityID: fac, SpaceID: a2})
	require.NoError(t, err)
	assert.Equal(t, a2, res.SpaceID)

	// The same space cannot be claimed again.
	_, err = p.EnterVehicle(context.Background(), EntryRequest{Plate: "粤B67890", FacilityID: fac, SpaceID: a2})
	assert.ErrorIs(t, err, ErrSpaceUnavailable)
}

func TestEnterVehicleRejections(t *testing.T) {
	store := newMemStore()
	active := store.addFacility("North Lot", 500, true)
	closed := store.addFacility("Old Lot", 500, false)
	store.addSpace(active, "A1", model.SpaceClassStandard, false, false)
	store.addSpace(closed, "B1", model.SpaceClassStandard, false, false)
	p, _ := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "not-a-plate", FacilityID: active})
	assert.ErrorIs(t, err, ErrInvalidPlate)

	_, err = p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: 999})
	assert.ErrorIs(t, err, ErrFacilityNotFound)

	_, err = p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: closed})
	assert.ErrorIs(t, err, ErrFacilityInactive)

	// First entry succeeds, second one for the same plate is rejected
	// even though the lot still has room.
	store.addSpace(active, "A2", model.SpaceClassStandard, false, false)
	_, err = p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: active})
	require.NoError(t, err)
	_, err = p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: active})
	assert.ErrorIs(t, err, ErrVehicleAlreadyParked)
}

func TestEnterVehicleFacilityFull(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Tiny Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, true, false)
	store.addSpace(fac, "A2", model.SpaceClassStandard, false, true) // reserved, not claimable
	p, _ := newTestParking(store)

	_, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: "京A12345", FacilityID: fac})
	assert.ErrorIs(t, err, ErrNoAvailableSpace)
}

func TestConcurrentEntriesSingleSpace(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Tiny Lot", 500, true)
	spaceID := store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, _ := newTestParking(store)

	const workers = 16
	plates := []string{
		"京A00001", "京A00002", "京A00003", "京A00004",
		"京A00005", "京A00006", "京A00007", "京A00008",
		"京A00009", "京A00010", "京A00011", "京A00012",
		"京A00013", "京A00014", "京A00015", "京A00016",
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(plate string) {
			defer wg.Done()
			_, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: plate, FacilityID: fac})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case assert.ErrorIs(t, err, ErrNoAvailableSpace):
				rejected++
			}
		}(plates[i])
	}
	wg.Wait()

	assert.Equal(t, 1, won, "exactly one entry may win the space")
	assert.Equal(t, workers-1, rejected)
	assert.True(t, store.spaces[spaceID].IsOccupied)

	open := 0
	for _, rec := range store.records {
		if rec.ExitTime == nil {
			open++
		}
	}
	assert.Equal(t, 1, open, "exactly one open record")
}

func TestConcurrentEntriesSamePlate(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Big Lot", 500, true)
	for _, n := range []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8"} {
		store.addSpace(fac, n, model.SpaceClassStandard, false, false)
	}
	p, _ := newTestParking(store)

	const workers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: "粤B88888", FacilityID: fac})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, ErrVehicleAlreadyParked)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won, "one plate may hold only one open record")
	occupied := 0
	for _, sp := range store.spaces {
		if sp.IsOccupied {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied)
	open := 0
	for _, rec := range store.records {
		if rec.ExitTime == nil {
			open++
		}
	}
	assert.Equal(t, 1, open, "losers must not commit a second open record")
}

func TestExitVehicleFixedFallbackRate(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true) // no schedule: fixed 5 yuan/h
	spaceID := store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(61 * time.Minute)
	res, err := p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345", AutoMarkPaid: true})
	require.NoError(t, err)

	assert.Equal(t, 61, res.DurationMinutes)
	assert.Equal(t, int64(1000), res.FeeCents, "61 minutes bill as two started hours")
	assert.True(t, res.IsPaid)
	assert.False(t, res.FreeParking)
	assert.False(t, store.spaces[spaceID].IsOccupied, "space must be freed on exit")

	rec := store.records[res.RecordID]
	require.NotNil(t, rec.ExitTime)
	assert.Equal(t, int64(1000), *rec.FeeCents)
	assert.True(t, rec.IsPaid)
}

func TestExitVehicleTieredWithVIPDiscount(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Downtown", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	store.setSchedule(fac, tieredRates())
	store.addVIP("沪AD12345", 0.5, nil)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "沪AD12345", FacilityID: fac})
	require.NoError(t, err)

	// 130 minutes: 15 free, then 45 in the first shifted tier, 25 in the
	// second, 45 in the tail, each rounded up to a started hour:
	// 500 + 800 + 1000 = 2300, halved for the VIP.
	*clock = clock.Add(130 * time.Minute)
	res, err := p.ExitVehicle(ctx, ExitRequest{Plate: "沪AD12345"})
	require.NoError(t, err)

	assert.Equal(t, int64(1150), res.FeeCents)
	assert.Equal(t, 0.5, res.DiscountRate)
	assert.False(t, res.FreeParking)
}

func TestExitVehicleFreeWithinGracePeriod(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Downtown", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	store.setSchedule(fac, tieredRates())
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(10 * time.Minute)
	res, err := p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345"})
	require.NoError(t, err)
	assert.Zero(t, res.FeeCents)
}

func TestExitVehicleFullWaiver(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Downtown", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	store.addVIP("苏B1234D", 1.0, nil)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "苏B1234D", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(3 * time.Hour)
	res, err := p.ExitVehicle(ctx, ExitRequest{Plate: "苏B1234D"})
	require.NoError(t, err)
	assert.Zero(t, res.FeeCents)
	assert.True(t, res.FreeParking)
	assert.Equal(t, 1.0, res.DiscountRate)
}

func TestExitVehicleExpiredVIPPaysFull(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	expired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.addVIP("京A12345", 1.0, &expired)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(30 * time.Minute)
	res, err := p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.FeeCents)
	assert.Zero(t, res.DiscountRate)
}

func TestExitVehicleByRecordID(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, clock := newTestParking(store)
	ctx := context.Background()

	entry, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(20 * time.Minute)
	res, err := p.ExitVehicle(ctx, ExitRequest{RecordID: entry.RecordID})
	require.NoError(t, err)
	assert.Equal(t, entry.RecordID, res.RecordID)

	// Settling the same record twice must fail.
	_, err = p.ExitVehicle(ctx, ExitRequest{RecordID: entry.RecordID})
	assert.ErrorIs(t, err, ErrAlreadyExited)
}

func TestExitVehicleLookupFailures(t *testing.T) {
	store := newMemStore()
	store.addFacility("North Lot", 500, true)
	p, _ := newTestParking(store)
	ctx := context.Background()

	_, err := p.ExitVehicle(ctx, ExitRequest{})
	assert.ErrorIs(t, err, ErrMissingIdentifier)

	_, err = p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345"})
	assert.ErrorIs(t, err, ErrNoActiveRecord)

	_, err = p.ExitVehicle(ctx, ExitRequest{RecordID: 42})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestExitVehicleRejectsClockSkew(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	spaceID := store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(-time.Hour)
	_, err = p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345"})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.True(t, store.spaces[spaceID].IsOccupied, "failed exit must not free the space")
}

func TestExitReleasesSpaceForReuse(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("Tiny Lot", 500, true)
	spaceID := store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, clock := newTestParking(store)
	ctx := context.Background()

	_, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	// Lot is full now.
	_, err = p.EnterVehicle(ctx, EntryRequest{Plate: "粤B67890", FacilityID: fac})
	require.ErrorIs(t, err, ErrNoAvailableSpace)

	*clock = clock.Add(30 * time.Minute)
	_, err = p.ExitVehicle(ctx, ExitRequest{Plate: "京A12345"})
	require.NoError(t, err)

	res, err := p.EnterVehicle(ctx, EntryRequest{Plate: "粤B67890", FacilityID: fac})
	require.NoError(t, err)
	assert.Equal(t, spaceID, res.SpaceID)
}

type recordingWatch struct {
	mu      sync.Mutex
	matches []model.WantedVehicle
	checked []string
}

func (w *recordingWatch) Check(ctx context.Context, plate string, recordID uint64) ([]model.WantedVehicle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.checked = append(w.checked, plate)
	return w.matches, nil
}

type recordingInvalidator struct {
	mu         sync.Mutex
	facilities []uint64
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, facilityID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities = append(r.facilities, facilityID)
}

func TestEnterVehiclePublishesWatchAlerts(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)

	watch := &recordingWatch{matches: []model.WantedVehicle{
		{ID: 7, LicensePlate: "京A12345", Reason: "stolen", Priority: 9, Status: model.WantedStatusActive},
	}}
	inv := &recordingInvalidator{}
	var published []queue.EntryAlertEvent
	p := NewParking(store, watch, inv, func(ctx context.Context, ev queue.EntryAlertEvent) error {
		published = append(published, ev)
		return nil
	})

	res, err := p.EnterVehicle(context.Background(), EntryRequest{Plate: "京a12345", FacilityID: fac})
	require.NoError(t, err)

	assert.Equal(t, []string{"京A12345"}, watch.checked, "watch list sees the normalized plate")
	require.Len(t, published, 1)
	assert.Equal(t, res.RecordID, published[0].RecordID)
	assert.Equal(t, "京A12345", published[0].LicensePlate)
	assert.Equal(t, "stolen", published[0].Reason)
	assert.Equal(t, 9, published[0].Priority)
	assert.Equal(t, []uint64{fac}, inv.facilities, "dashboard cache invalidated after entry")
}

func TestQueryVehicleStatus(t *testing.T) {
	store := newMemStore()
	fac := store.addFacility("North Lot", 500, true)
	store.addSpace(fac, "A1", model.SpaceClassStandard, false, false)
	p, clock := newTestParking(store)
	ctx := context.Background()

	status, err := p.QueryVehicleStatus(ctx, "京A12345")
	require.NoError(t, err)
	assert.False(t, status.IsParked)

	entry, err := p.EnterVehicle(ctx, EntryRequest{Plate: "京A12345", FacilityID: fac})
	require.NoError(t, err)

	*clock = clock.Add(30 * time.Minute)
	status, err = p.QueryVehicleStatus(ctx, " 京a12345 ")
	require.NoError(t, err)
	assert.True(t, status.IsParked)
	assert.Equal(t, entry.RecordID, status.RecordID)
	assert.Equal(t, "A1", status.SpaceNumber)
	assert.Equal(t, 30, status.DurationMinutes)
	assert.Equal(t, int64(500), status.CurrentFeeCents, "running estimate bills the started hour")

	_, err = p.QueryVehicleStatus(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidPlate)
}
