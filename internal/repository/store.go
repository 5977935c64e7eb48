package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
	"github.com/HeZaoCha/ParkingManagement/internal/service"
)

// Store adapts the MySQL repositories to the coordinator's storage
// contract.  Each Begin opens a real database transaction; every method
// of the returned Tx runs on that transaction, so claims, record writes
// and releases commit or roll back as one unit.
type Store struct {
	db         *sql.DB
	facilities *FacilityRepo
	spaces     *SpaceRepo
	records    *RecordRepo
	vehicles   *VehicleRepo
	schedules  *ScheduleRepo
}

// NewStore wires the repositories into a coordinator-facing store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		facilities: NewFacilityRepo(db),
		spaces:     NewSpaceRepo(db),
		records:    NewRecordRepo(db),
		vehicles:   NewVehicleRepo(db),
		schedules:  NewScheduleRepo(db),
	}
}

// Begin starts a database transaction wrapped in the service.Tx contract.
func (s *Store) Begin(ctx context.Context) (service.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &storeTx{store: s, tx: tx}, nil
}

type storeTx struct {
	store *Store
	tx    *sql.Tx
}

func (t *storeTx) Commit() error   { return t.tx.Commit() }
func (t *storeTx) Rollback() error { return t.tx.Rollback() }

func (t *storeTx) FacilityByID(ctx context.Context, id uint64) (*model.Facility, error) {
	f, err := t.store.facilities.GetByIDTx(ctx, t.tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrFacilityNotFound
		}
		return nil, err
	}
	return f, nil
}

func (t *storeTx) ClaimSpace(ctx context.Context, facilityID, spaceID uint64) (*model.Space, error) {
	if spaceID != 0 {
		sp, err := t.store.spaces.ClaimSpecificTx(ctx, t.tx, facilityID, spaceID)
		if err != nil {
			if errors.Is(err, ErrSpaceTaken) {
				return nil, service.ErrSpaceUnavailable
			}
			return nil, err
		}
		return sp, nil
	}
	sp, err := t.store.spaces.ClaimFirstFreeTx(ctx, t.tx, facilityID)
	if err != nil {
		if errors.Is(err, ErrNoFreeSpace) {
			return nil, service.ErrNoAvailableSpace
		}
		return nil, err
	}
	return sp, nil
}

func (t *storeTx) ReleaseSpace(ctx context.Context, spaceID uint64) error {
	return t.store.spaces.ReleaseTx(ctx, t.tx, spaceID)
}

func (t *storeTx) SpaceByID(ctx context.Context, id uint64) (*model.Space, error) {
	sp, err := t.store.spaces.GetByIDTx(ctx, t.tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrSpaceUnavailable
		}
		return nil, err
	}
	return sp, nil
}

func (t *storeTx) OpenRecordByPlate(ctx context.Context, plate string, lock bool) (*model.Record, error) {
	return t.store.records.OpenByPlateTx(ctx, t.tx, plate, lock)
}

func (t *storeTx) RecordByID(ctx context.Context, id uint64, lock bool) (*model.Record, error) {
	rec, err := t.store.records.GetByIDTx(ctx, t.tx, id, lock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (t *storeTx) CreateRecord(ctx context.Context, rec *model.Record) error {
	return t.store.records.CreateTx(ctx, t.tx, rec)
}

func (t *storeTx) CloseRecord(ctx context.Context, rec *model.Record) error {
	return t.store.records.CloseTx(ctx, t.tx, rec)
}

func (t *storeTx) GetOrCreateVehicle(ctx context.Context, plate, vehicleType string) (*model.Vehicle, error) {
	return t.store.vehicles.GetOrCreateTx(ctx, t.tx, plate, vehicleType)
}

func (t *storeTx) VehicleByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return t.store.vehicles.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) ScheduleForFacility(ctx context.Context, facilityID uint64) (*model.RateSchedule, error) {
	return t.store.schedules.ForFacilityTx(ctx, t.tx, facilityID)
}

func (t *storeTx) VIPByPlate(ctx context.Context, plate string, at time.Time) (*model.VIPVehicle, error) {
	v, err := t.store.vehicles.VIPByPlateTx(ctx, t.tx, plate)
	if err != nil {
		return nil, err
	}
	if v == nil || !v.ValidAt(at) {
		return nil, nil
	}
	return v, nil
}

// WatchList exposes the wanted-vehicle check in the coordinator's
// collaborator shape: matches are logged as alerts here so the caller
// only has to publish notifications.
type WatchList struct {
	wanted *WantedRepo
}

// NewWatchList returns a WatchList over the wanted-vehicle repository.
func NewWatchList(wanted *WantedRepo) *WatchList { return &WatchList{wanted: wanted} }

// Check returns active watch-list entries for the plate and logs an
// alert row for each against the record.
func (w *WatchList) Check(ctx context.Context, plate string, recordID uint64) ([]model.WantedVehicle, error) {
	matches, err := w.wanted.ActiveByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if err := w.wanted.LogAlert(ctx, m.ID, recordID); err != nil {
			return matches, err
		}
	}
	return matches, nil
}
