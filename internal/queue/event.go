// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// EntryAlertEvent is published when a vehicle on the police watch list
// enters a facility.  It carries enough information for downstream
// consumers to notify staff or feed analytics without querying the primary
// database.  Publishing happens after the entry transaction commits and is
// fire-and-forget: the entry itself is never blocked.
type EntryAlertEvent struct {
	RecordID     uint64 `json:"record_id"`
	LicensePlate string `json:"license_plate"`
	FacilityID   uint64 `json:"facility_id"`
	FacilityName string `json:"facility_name"`
	SpaceNumber  string `json:"space_number"`
	Priority     int    `json:"priority"`
	Reason       string `json:"reason"`
	EnteredAt    string `json:"entered_at"`
}
