package model

import "time"

// Vehicle identifies a vehicle by its normalized license plate (uppercase,
// trimmed).  Vehicles are created lazily on first entry; owner details are
// optional metadata filled in later by operators.
//
// Fields:
//  ID           – primary key identifier.
//  LicensePlate – normalized plate, unique.
//  VehicleType  – free-form type label ("car", "truck", ...).
//  OwnerName    – optional owner name.
//  OwnerPhone   – optional owner phone number.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last modification timestamp.
type Vehicle struct {
	ID           uint64    `json:"id"`            // vehicles.id
	LicensePlate string    `json:"license_plate"` // vehicles.license_plate
	VehicleType  string    `json:"vehicle_type"`  // vehicles.vehicle_type
	OwnerName    string    `json:"owner_name"`    // vehicles.owner_name
	OwnerPhone   string    `json:"owner_phone"`   // vehicles.owner_phone
	CreatedAt    time.Time `json:"created_at"`    // vehicles.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // vehicles.updated_at
}

// VIPVehicle grants a plate a discount on parking fees within a validity
// window.  DiscountRate follows the configuration convention: 1.00 waives
// the fee entirely, 0.50 halves it, 0.00 charges full price.
//
// Fields:
//  ID           – primary key identifier.
//  LicensePlate – normalized plate, unique among VIP entries.
//  VIPType      – membership category (employee, vip, partner, ...).
//  OwnerName    – person the membership was issued to.
//  DiscountRate – discount multiplier in [0,1].
//  ValidFrom    – first day the discount applies.
//  ValidUntil   – last day the discount applies; nil = open-ended.
//  IsActive     – memberships can be suspended without deleting them.
//  CreatedAt    – creation timestamp.
type VIPVehicle struct {
	ID           uint64     `json:"id"`                    // vip_vehicles.id
	LicensePlate string     `json:"license_plate"`         // vip_vehicles.license_plate
	VIPType      string     `json:"vip_type"`              // vip_vehicles.vip_type
	OwnerName    string     `json:"owner_name"`            // vip_vehicles.owner_name
	DiscountRate float64    `json:"discount_rate"`         // vip_vehicles.discount_rate
	ValidFrom    time.Time  `json:"valid_from"`            // vip_vehicles.valid_from
	ValidUntil   *time.Time `json:"valid_until,omitempty"` // vip_vehicles.valid_until (nullable)
	IsActive     bool       `json:"is_active"`             // vip_vehicles.is_active
	CreatedAt    time.Time  `json:"created_at"`            // vip_vehicles.created_at
}

// ValidAt reports whether the membership grants its discount at t.
func (v *VIPVehicle) ValidAt(t time.Time) bool {
	if !v.IsActive {
		return false
	}
	if t.Before(v.ValidFrom) {
		return false
	}
	if v.ValidUntil != nil && t.After(*v.ValidUntil) {
		return false
	}
	return true
}
