package model

import "time"

// Wanted-vehicle statuses.
const (
	WantedStatusActive    = "active"
	WantedStatusCancelled = "cancelled"
	WantedStatusCaptured  = "captured"
)

// WantedVehicle is a watch-list entry maintained by the police desk.  When
// a matching plate enters any facility, an alert log is written and an
// alert event is published; the entry itself is never blocked.
//
// Fields:
//  ID           – primary key identifier.
//  LicensePlate – normalized plate being watched.
//  Reason       – why the vehicle is wanted.
//  Priority     – higher numbers alert first.
//  Status       – active, cancelled or captured.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last modification timestamp.
type WantedVehicle struct {
	ID           uint64    `json:"id"`            // wanted_vehicles.id
	LicensePlate string    `json:"license_plate"` // wanted_vehicles.license_plate
	Reason       string    `json:"reason"`        // wanted_vehicles.reason
	Priority     int       `json:"priority"`      // wanted_vehicles.priority
	Status       string    `json:"status"`        // wanted_vehicles.status
	CreatedAt    time.Time `json:"created_at"`    // wanted_vehicles.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // wanted_vehicles.updated_at
}

// AlertLog records one sighting of a wanted vehicle: the watch-list entry
// that matched and the parking record created by the entry that matched it.
//
// Fields:
//  ID        – primary key identifier.
//  WantedID  – the watch-list entry that fired.
//  RecordID  – the parking record of the sighting.
//  CreatedAt – when the alert fired.
type AlertLog struct {
	ID        uint64    `json:"id"`         // alert_logs.id
	WantedID  uint64    `json:"wanted_id"`  // alert_logs.wanted_id
	RecordID  uint64    `json:"record_id"`  // alert_logs.record_id
	CreatedAt time.Time `json:"created_at"` // alert_logs.created_at
}
