package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/plate"
	"github.com/HeZaoCha/ParkingManagement/internal/pricing"
	"github.com/HeZaoCha/ParkingManagement/internal/queue"
)

// AlertPublishFunc delivers a watch-list alert event to the message broker.
// Publishing is fire-and-forget: failures are logged, never propagated.
type AlertPublishFunc func(ctx context.Context, ev queue.EntryAlertEvent) error

// Parking coordinates vehicle entry and exit.  Each operation runs as one
// transaction against the Store; the watch-list lookup, alert publishing
// and cache invalidation run after commit and can never fail an operation.
type Parking struct {
	store   Store
	watch   WatchList        // optional
	cache   Invalidator      // optional
	publish AlertPublishFunc // optional
	now     func() time.Time
}

// NewParking wires the coordinator.  watch, cache and publish may be nil;
// the corresponding side effects are then skipped.
func NewParking(store Store, watch WatchList, cache Invalidator, publish AlertPublishFunc) *Parking {
	if store == nil {
		panic("nil store passed to NewParking")
	}
	return &Parking{
		store:   store,
		watch:   watch,
		cache:   cache,
		publish: publish,
		now:     time.Now,
	}
}

// EntryRequest describes an "enter vehicle" command.  SpaceID zero asks
// for automatic allocation; a non-zero SpaceID claims that exact space.
type EntryRequest struct {
	Plate       string
	FacilityID  uint64
	VehicleType string
	SpaceID     uint64
	OperatorID  *uint64
}

// EntryResult is the success payload of EnterVehicle.
type EntryResult struct {
	RecordID     uint64    `json:"record_id"`
	Plate        string    `json:"license_plate"`
	FacilityID   uint64    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	SpaceID      uint64    `json:"space_id"`
	SpaceNumber  string    `json:"space_number"`
	EntryTime    time.Time `json:"entry_time"`
}

// ExitRequest describes an "exit vehicle" command.  Exactly one of Plate
// and RecordID must be set; RecordID wins when both are.
type ExitRequest struct {
	Plate        string
	RecordID     uint64
	AutoMarkPaid bool
	OperatorID   *uint64
}

// ExitResult is the success payload of ExitVehicle.
type ExitResult struct {
	RecordID        uint64    `json:"record_id"`
	Plate           string    `json:"license_plate"`
	SpaceNumber     string    `json:"space_number"`
	EntryTime       time.Time `json:"entry_time"`
	ExitTime        time.Time `json:"exit_time"`
	DurationMinutes int       `json:"duration_minutes"`
	FeeCents        int64     `json:"fee_cents"`
	DiscountRate    float64   `json:"discount_rate"`
	FreeParking     bool      `json:"free_parking"`
	IsPaid          bool      `json:"is_paid"`
}

// EnterVehicle admits a vehicle into a facility.  The plate is normalized
// and validated first; the vehicle resolution, parked-elsewhere check,
// space claim and record creation then run as one transaction.  If any
// step after the claim fails, the claim rolls back with everything else.
func (p *Parking) EnterVehicle(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	normalized := plate.Normalize(req.Plate)
	if err := plate.Validate(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlate, err)
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin entry transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Resolving the vehicle first takes its row lock, so concurrent
	// entries for one plate serialize here instead of racing past a
	// snapshot read of the open-record check below.
	vehicleType := req.VehicleType
	if vehicleType == "" {
		vehicleType = "car"
	}
	veh, err := tx.GetOrCreateVehicle(ctx, normalized, vehicleType)
	if err != nil {
		return nil, err
	}

	// The parked check is system-wide: one open record per plate, no
	// matter the facility.  The locking read sees a concurrent winner's
	// committed record rather than this transaction's snapshot.
	if open, err := tx.OpenRecordByPlate(ctx, normalized, true); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrVehicleAlreadyParked
	}

	fac, err := tx.FacilityByID(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if !fac.IsActive {
		return nil, ErrFacilityInactive
	}

	sp, err := tx.ClaimSpace(ctx, req.FacilityID, req.SpaceID)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		VehicleID:  veh.ID,
		SpaceID:    sp.ID,
		EntryTime:  p.now().UTC(),
		OperatorID: req.OperatorID,
	}
	if err := tx.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry transaction: %w", err)
	}
	committed = true

	p.afterEntry(ctx, normalized, rec, fac, sp)

	return &EntryResult{
		RecordID:     rec.ID,
		Plate:        normalized,
		FacilityID:   fac.ID,
		FacilityName: fac.Name,
		SpaceID:      sp.ID,
		SpaceNumber:  sp.SpaceNumber,
		EntryTime:    rec.EntryTime,
	}, nil
}

// afterEntry runs the post-commit side effects of a successful entry: the
// watch-list lookup with alert publishing, then the cache invalidation
// signal.  None of them can fail the entry.
func (p *Parking) afterEntry(ctx context.Context, normalized string, rec *model.Record, fac *model.Facility, sp *model.Space) {
	if p.watch != nil {
		matches, err := p.watch.Check(ctx, normalized, rec.ID)
		if err != nil {
			log.Printf("parking: watch-list check failed for %s: %v", normalized, err)
		}
		for _, w := range matches {
			log.Printf("parking: wanted vehicle entered: plate=%s priority=%d record=%d", normalized, w.Priority, rec.ID)
			if p.publish == nil {
				continue
			}
			ev := queue.EntryAlertEvent{
				RecordID:     rec.ID,
				LicensePlate: normalized,
				FacilityID:   fac.ID,
				FacilityName: fac.Name,
				SpaceNumber:  sp.SpaceNumber,
				Priority:     w.Priority,
				Reason:       w.Reason,
				EnteredAt:    rec.EntryTime.Format(time.RFC3339),
			}
			if err := p.publish(ctx, ev); err != nil {
				log.Printf("parking: publish alert failed for %s: %v", normalized, err)
			}
		}
	}
	if p.cache != nil {
		p.cache.Invalidate(ctx, fac.ID)
	}
}

// ExitVehicle closes a stay.  The record is located under a row lock so
// two concurrent exits cannot both pass the already-exited check; the
// close, fee computation and space release commit together or not at all.
func (p *Parking) ExitVehicle(ctx context.Context, req ExitRequest) (*ExitResult, error) {
	if req.RecordID == 0 && plate.Normalize(req.Plate) == "" {
		return nil, ErrMissingIdentifier
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin exit transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rec *model.Record
	if req.RecordID != 0 {
		rec, err = tx.RecordByID(ctx, req.RecordID, true)
		if err != nil {
			return nil, err
		}
	} else {
		normalized := plate.Normalize(req.Plate)
		rec, err = tx.OpenRecordByPlate(ctx, normalized, true)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrNoActiveRecord
		}
	}
	if !rec.Open() {
		return nil, ErrAlreadyExited
	}

	exitAt := p.now().UTC()
	if exitAt.Before(rec.EntryTime) {
		return nil, ErrInvalidTimeRange
	}
	duration := int(exitAt.Sub(rec.EntryTime).Minutes())

	sp, err := tx.SpaceByID(ctx, rec.SpaceID)
	if err != nil {
		return nil, err
	}
	veh, err := tx.VehicleByID(ctx, rec.VehicleID)
	if err != nil {
		return nil, err
	}
	sched, err := p.scheduleFor(ctx, tx, sp.FacilityID)
	if err != nil {
		return nil, err
	}
	vipRate, err := p.vipRateFor(ctx, tx, veh.LicensePlate, exitAt)
	if err != nil {
		return nil, err
	}

	fee, err := pricing.ComputeFee(duration, sched, sp.SpaceClass, vipRate)
	if err != nil {
		return nil, err
	}

	rec.ExitTime = &exitAt
	rec.DurationMinutes = &duration
	rec.FeeCents = &fee.AmountCents
	rec.IsFreeParking = fee.FreeParking
	if fee.DiscountRate > 0 {
		rate := fee.DiscountRate
		rec.DiscountRate = &rate
	}
	if req.AutoMarkPaid {
		rec.IsPaid = true
	}
	if req.OperatorID != nil {
		rec.OperatorID = req.OperatorID
	}
	if err := tx.CloseRecord(ctx, rec); err != nil {
		return nil, err
	}
	if err := tx.ReleaseSpace(ctx, rec.SpaceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit exit transaction: %w", err)
	}
	committed = true

	if p.cache != nil {
		p.cache.Invalidate(ctx, sp.FacilityID)
	}

	return &ExitResult{
		RecordID:        rec.ID,
		Plate:           veh.LicensePlate,
		SpaceNumber:     sp.SpaceNumber,
		EntryTime:       rec.EntryTime,
		ExitTime:        exitAt,
		DurationMinutes: duration,
		FeeCents:        fee.AmountCents,
		DiscountRate:    fee.DiscountRate,
		FreeParking:     fee.FreeParking,
		IsPaid:          rec.IsPaid,
	}, nil
}

// scheduleFor resolves the pricing schedule for a facility.  Facilities
// without a configured schedule bill fixed at their fallback hourly rate.
func (p *Parking) scheduleFor(ctx context.Context, tx Tx, facilityID uint64) (pricing.Schedule, error) {
	sched, err := tx.ScheduleForFacility(ctx, facilityID)
	if err != nil {
		return pricing.Schedule{}, err
	}
	if sched != nil {
		return sched.Pricing(), nil
	}
	fac, err := tx.FacilityByID(ctx, facilityID)
	if err != nil {
		return pricing.Schedule{}, err
	}
	return pricing.Schedule{Mode: pricing.ChargeFixed, HourlyRateCents: fac.HourlyRateCents}, nil
}

// vipRateFor returns the discount rate valid for a plate at the given
// instant, or nil when none applies.
func (p *Parking) vipRateFor(ctx context.Context, tx Tx, normalizedPlate string, at time.Time) (*float64, error) {
	vip, err := tx.VIPByPlate(ctx, normalizedPlate, at)
	if err != nil {
		return nil, err
	}
	if vip == nil || !vip.ValidAt(at) {
		return nil, nil
	}
	rate := vip.DiscountRate
	return &rate, nil
}

// VehicleStatus describes where a vehicle currently is, or when it last
// visited.  CurrentFeeCents is a running estimate priced as if the vehicle
// exited now; the authoritative fee is only computed at exit.
type VehicleStatus struct {
	Plate           string     `json:"license_plate"`
	IsParked        bool       `json:"is_parked"`
	RecordID        uint64     `json:"record_id,omitempty"`
	FacilityID      uint64     `json:"facility_id,omitempty"`
	SpaceNumber     string     `json:"space_number,omitempty"`
	EntryTime       *time.Time `json:"entry_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	CurrentFeeCents int64      `json:"current_fee_cents,omitempty"`
}

// QueryVehicleStatus reports the current stay of a plate, with a running
// fee estimate.  The read runs in its own transaction, rolled back at the
// end; nothing is mutated.
func (p *Parking) QueryVehicleStatus(ctx context.Context, rawPlate string) (*VehicleStatus, error) {
	normalized := plate.Normalize(rawPlate)
	if err := plate.Validate(normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlate, err)
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := tx.OpenRecordByPlate(ctx, normalized, false)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &VehicleStatus{Plate: normalized}, nil
	}

	sp, err := tx.SpaceByID(ctx, rec.SpaceID)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	duration := int(now.Sub(rec.EntryTime).Minutes())
	if duration < 0 {
		duration = 0
	}
	sched, err := p.scheduleFor(ctx, tx, sp.FacilityID)
	if err != nil {
		return nil, err
	}
	vipRate, err := p.vipRateFor(ctx, tx, normalized, now)
	if err != nil {
		return nil, err
	}
	fee, err := pricing.ComputeFee(duration, sched, sp.SpaceClass, vipRate)
	if err != nil {
		return nil, err
	}

	entry := rec.EntryTime
	return &VehicleStatus{
		Plate:           normalized,
		IsParked:        true,
		RecordID:        rec.ID,
		FacilityID:      sp.FacilityID,
		SpaceNumber:     sp.SpaceNumber,
		EntryTime:       &entry,
		DurationMinutes: duration,
		CurrentFeeCents: fee.AmountCents,
	}, nil
}
