package model

import "time"

// Device is a lendable device registered by its owner.
//
// Relations are identifier-based: OwnerID is the foreign key, and the Owner /
// Reservations fields are only populated when a repository query explicitly
// joins them. The core never builds cyclic object graphs: a loaded
// reservation under a device does not point back at it.
type Device struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Owner is filled by queries that join the owning user.
	Owner *User `json:"owner,omitempty"`
	// Reservations holds the device's ACTIVE reservations (CREATED or
	// IN_PROGRESS) when a query loads them. Terminal reservations are never
	// carried here.
	Reservations []Reservation `json:"reservations,omitempty"`
}

// IsBookedOn reports whether the device has an active reservation whose
// inclusive date range contains day. It derives the answer from the loaded
// Reservations slice, so callers must have fetched active reservations first.
//
// This is the single "booked today" derivation shared by the global device
// listing and the per-user device listing; the flag is recomputed on every
// read and never stored.
func (d *Device) IsBookedOn(day Date) bool {
	for i := range d.Reservations {
		r := &d.Reservations[i]
		if r.Status.IsActive() && r.Covers(day) {
			return true
		}
	}
	return false
}

// HasActiveReservations reports whether any loaded reservation is active.
// Device deletion is refused while this holds.
func (d *Device) HasActiveReservations() bool {
	for i := range d.Reservations {
		if d.Reservations[i].Status.IsActive() {
			return true
		}
	}
	return false
}
