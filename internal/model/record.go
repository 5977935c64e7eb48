package model

import "time"

// Record is one vehicle stay, from entry to exit.  It is created OPEN
// (exit fields nil) and mutated exactly once when the vehicle exits; after
// that only the paid flag may change.  A vehicle has at most one open
// record system-wide, and a space has at most one open record, at any
// instant.
//
// Fields:
//  ID              – primary key identifier.
//  VehicleID       – the vehicle staying.
//  SpaceID         – the space held for the duration of the stay.
//  EntryTime       – when the vehicle entered, UTC.
//  ExitTime        – when the vehicle exited; nil while the stay is open.
//  DurationMinutes – exit minus entry, truncated to whole minutes.
//  FeeCents        – amount owed in cents, computed at exit.
//  DiscountRate    – VIP discount applied at exit, if any.
//  IsPaid          – whether the fee has been settled.
//  IsFreeParking   – set when a full VIP waiver zeroed the fee.
//  OperatorID      – operator who handled the entry, when known.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last modification timestamp.
type Record struct {
	ID              uint64     `json:"id"`                      // records.id
	VehicleID       uint64     `json:"vehicle_id"`              // records.vehicle_id
	SpaceID         uint64     `json:"space_id"`                // records.space_id
	EntryTime       time.Time  `json:"entry_time"`              // records.entry_time
	ExitTime        *time.Time `json:"exit_time,omitempty"`     // records.exit_time (nullable)
	DurationMinutes *int       `json:"duration_minutes,omitempty"` // records.duration_minutes (nullable)
	FeeCents        *int64     `json:"fee_cents,omitempty"`     // records.fee_cents (nullable)
	DiscountRate    *float64   `json:"discount_rate,omitempty"` // records.discount_rate (nullable)
	IsPaid          bool       `json:"is_paid"`                 // records.is_paid
	IsFreeParking   bool       `json:"is_free_parking"`         // records.is_free_parking
	OperatorID      *uint64    `json:"operator_id,omitempty"`   // records.operator_id (nullable)
	CreatedAt       time.Time  `json:"created_at"`              // records.created_at
	UpdatedAt       time.Time  `json:"updated_at"`              // records.updated_at
}

// Open reports whether the stay is still in progress.
func (r *Record) Open() bool { return r.ExitTime == nil }
