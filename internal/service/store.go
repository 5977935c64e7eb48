package service

import (
	"context"
	"time"

	"github.com/HeZaoCha/ParkingManagement/internal/model"
)

// Store is the transactional storage contract the coordinator runs on.
// The production implementation lives in the repository package on top of
// MySQL; tests run the same coordinator against an in-memory store.  Every
// unit of work begins with Begin and ends with exactly one Commit or
// Rollback; mutations made through a Tx must not be observable by other
// transactions until Commit.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work.  Methods returning domain objects return
// the service package's sentinel errors for the not-found and conflict
// cases documented on each method; any other error is an infrastructure
// fault.
type Tx interface {
	Commit() error
	Rollback() error

	// FacilityByID loads a facility.  Returns ErrFacilityNotFound when
	// no such facility exists.
	FacilityByID(ctx context.Context, id uint64) (*model.Facility, error)

	// ClaimSpace atomically marks a space occupied and returns it.  When
	// spaceID is zero the first free, unreserved space of the facility in
	// ascending space-number order is claimed, skipping rows locked by
	// concurrent in-flight claims; no candidate yields
	// ErrNoAvailableSpace.  A non-zero spaceID claims exactly that space
	// or fails with ErrSpaceUnavailable.
	ClaimSpace(ctx context.Context, facilityID, spaceID uint64) (*model.Space, error)

	// ReleaseSpace marks a space unoccupied.  Releasing an already-free
	// space is a no-op.
	ReleaseSpace(ctx context.Context, spaceID uint64) error

	// SpaceByID loads a space.  Returns ErrSpaceUnavailable when missing.
	SpaceByID(ctx context.Context, id uint64) (*model.Space, error)

	// OpenRecordByPlate finds the open record for a normalized plate, or
	// (nil, nil) when the vehicle is not currently parked.  With lock set
	// the lookup is a locking read: it observes the latest committed state
	// rather than this transaction's snapshot and holds the rows it
	// touched for the remainder of the transaction.
	OpenRecordByPlate(ctx context.Context, plate string, lock bool) (*model.Record, error)

	// RecordByID loads a record by primary key, optionally locking it.
	// Returns ErrRecordNotFound when missing.
	RecordByID(ctx context.Context, id uint64, lock bool) (*model.Record, error)

	// CreateRecord inserts an open record and fills in its ID.
	CreateRecord(ctx context.Context, rec *model.Record) error

	// CloseRecord persists the exit fields of a record in one statement.
	CloseRecord(ctx context.Context, rec *model.Record) error

	// GetOrCreateVehicle resolves a vehicle by normalized plate, creating
	// it on first sight.  The resolution locks the vehicle identity, so
	// concurrent transactions entering the same plate serialize on it
	// until commit.
	GetOrCreateVehicle(ctx context.Context, plate, vehicleType string) (*model.Vehicle, error)

	// VehicleByID loads a vehicle by primary key.
	VehicleByID(ctx context.Context, id uint64) (*model.Vehicle, error)

	// ScheduleForFacility loads the facility's rate schedule with its
	// tiers, or (nil, nil) when none has been configured.
	ScheduleForFacility(ctx context.Context, facilityID uint64) (*model.RateSchedule, error)

	// VIPByPlate returns the VIP membership valid for the plate at the
	// given instant, or (nil, nil) when none applies.
	VIPByPlate(ctx context.Context, plate string, at time.Time) (*model.VIPVehicle, error)
}

// WatchList is the police watch-list collaborator.  Check records any
// alerts it produces (alert logs are its own responsibility) and returns
// the matched entries ordered by descending priority.  It is invoked once
// per entry, after commit, and its failure never affects the entry.
type WatchList interface {
	Check(ctx context.Context, plate string, recordID uint64) ([]model.WantedVehicle, error)
}

// Invalidator receives the cache invalidation signal emitted after every
// successful enter or exit.  Dashboard and reporting collaborators consume
// it; the coordinator only guarantees the signal fires after commit.
type Invalidator interface {
	Invalidate(ctx context.Context, facilityID uint64)
}
