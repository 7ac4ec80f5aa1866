package model

import "time"

// Reservation books a device for an inclusive calendar date range.
//
// The creator (UserID) is usually NOT the device owner: any authenticated
// user may reserve someone else's device, and the owner then approves,
// finishes or cancels it. DateStart and DateEnd are day-granular and both
// bounds are inclusive. Reservations are never physically deleted by the
// core; cancellation is a terminal status, not a removal. The only storage
// delete happens as a cascade when a device is removed.
type Reservation struct {
	ID        string    `json:"id"`
	DateStart Date      `json:"dateStart"`
	DateEnd   Date      `json:"dateEnd"`
	Status    Status    `json:"status"`
	DeviceID  string    `json:"deviceId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Device and User are filled by queries that join them (the status
	// transitions load device+owner, the incoming/outgoing listings load both).
	Device *Device `json:"device,omitempty"`
	User   *User   `json:"user,omitempty"`
}

// Overlaps reports whether r's inclusive range shares a day with [start, end].
func (r *Reservation) Overlaps(start, end Date) bool {
	return RangesOverlap(r.DateStart, r.DateEnd, start, end)
}

// Covers reports whether day falls within r's inclusive range.
func (r *Reservation) Covers(day Date) bool {
	return rangeContains(r.DateStart, r.DateEnd, day)
}
