package model

import "time"

// Facility is a single parking facility (one parking lot).  Spaces and the
// rate schedule are owned by the facility; records reference it through
// their space.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name, unique per deployment.
//  Address         – street address, optional.
//  HourlyRateCents – fallback fixed hourly rate in cents, used when no
//                    rate schedule has been configured for the facility.
//  IsActive        – facilities can be taken out of operation; entries
//                    into an inactive facility are rejected.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last modification timestamp.
type Facility struct {
	ID              uint64    `json:"id"`                // facilities.id
	Name            string    `json:"name"`              // facilities.name
	Address         *string   `json:"address,omitempty"` // facilities.address (nullable)
	HourlyRateCents int64     `json:"hourly_rate_cents"` // facilities.hourly_rate_cents
	IsActive        bool      `json:"is_active"`         // facilities.is_active
	CreatedAt       time.Time `json:"created_at"`        // facilities.created_at
	UpdatedAt       time.Time `json:"updated_at"`        // facilities.updated_at
}
