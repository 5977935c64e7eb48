// Package service contains the occupancy transaction coordinator: the
// component that turns "enter vehicle" and "exit vehicle" commands into
// all-or-nothing units of work against the storage layer.  Handlers call
// into this package; it in turn talks only to the Store contract and to the
// fire-and-forget collaborators (watch list, cache invalidation, alert
// publisher), never to HTTP or SQL directly.
package service

import "errors"

// Business-rule and input sentinels.  Handlers translate these into HTTP
// status codes with errors.Is; anything not matching one of them is an
// infrastructure fault and maps to a 500 plus caller-side retry.
var (
	// ErrInvalidPlate rejects a plate failing the jurisdiction grammar.
	ErrInvalidPlate = errors.New("invalid plate")
	// ErrVehicleAlreadyParked rejects an entry while the plate has an
	// open record anywhere in the system.
	ErrVehicleAlreadyParked = errors.New("vehicle already parked")
	// ErrFacilityNotFound rejects operations against unknown facilities.
	ErrFacilityNotFound = errors.New("facility not found")
	// ErrFacilityInactive rejects entries into a facility taken out of
	// operation.
	ErrFacilityInactive = errors.New("facility inactive")
	// ErrNoAvailableSpace is returned when automatic allocation finds no
	// free, unreserved, unlocked space in the facility.
	ErrNoAvailableSpace = errors.New("no available space")
	// ErrSpaceUnavailable is returned when a specifically requested space
	// is occupied, reserved, locked by a concurrent claim, or missing.
	ErrSpaceUnavailable = errors.New("space unavailable")
	// ErrRecordNotFound is returned when an exit names a record id that
	// does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrNoActiveRecord is returned when an exit names a plate with no
	// open record.
	ErrNoActiveRecord = errors.New("no active record for plate")
	// ErrAlreadyExited rejects a second exit of the same record.
	ErrAlreadyExited = errors.New("record already exited")
	// ErrInvalidTimeRange flags exit timestamps earlier than the entry
	// timestamp; a data-integrity fault, never silently priced.
	ErrInvalidTimeRange = errors.New("exit time before entry time")
	// ErrMissingIdentifier rejects an exit naming neither plate nor record.
	ErrMissingIdentifier = errors.New("plate or record id required")
)
