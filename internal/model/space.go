package model

import "time"

// Space classes.  ClassAll is only valid on rate tiers, never on a space.
const (
	SpaceClassStandard = "standard"
	SpaceClassDisabled = "disabled"
	SpaceClassVIP      = "vip"
	SpaceClassLarge    = "large"
)

// ValidSpaceClass reports whether s names a space class a space row may carry.
func ValidSpaceClass(s string) bool {
	switch s {
	case SpaceClassStandard, SpaceClassDisabled, SpaceClassVIP, SpaceClassLarge:
		return true
	}
	return false
}

// Space is one physical parking slot inside a facility.  The pair
// (FacilityID, SpaceNumber) is unique.  At most one open record references
// a space at any time: IsOccupied is flipped inside the same transaction
// that creates or closes that record.
//
// Fields:
//  ID          – primary key identifier.
//  FacilityID  – owning facility.
//  SpaceNumber – the facility-local number painted on the ground.
//  SpaceClass  – standard, disabled, vip or large.
//  Floor       – optional level label ("B2", "1F"); empty for open lots.
//  Area        – optional zone label ("A", "B").
//  IsOccupied  – a vehicle currently holds the space.
//  IsReserved  – the space is blocked from automatic allocation.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last modification timestamp.
type Space struct {
	ID          uint64    `json:"id"`              // spaces.id
	FacilityID  uint64    `json:"facility_id"`     // spaces.facility_id
	SpaceNumber string    `json:"space_number"`    // spaces.space_number
	SpaceClass  string    `json:"space_class"`     // spaces.space_class
	Floor       *string   `json:"floor,omitempty"` // spaces.floor (nullable)
	Area        *string   `json:"area,omitempty"`  // spaces.area (nullable)
	IsOccupied  bool      `json:"is_occupied"`     // spaces.is_occupied
	IsReserved  bool      `json:"is_reserved"`     // spaces.is_reserved
	CreatedAt   time.Time `json:"created_at"`      // spaces.created_at
	UpdatedAt   time.Time `json:"updated_at"`      // spaces.updated_at
}
