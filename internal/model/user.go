// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account known to the lending system.
//
// Identity comes from the institutional OAuth provider: the username is the
// provider's stable login and is unique here. Profile fields (names, email)
// are copies of external directory data, written on first login and
// overwritten by an explicit profile refresh, never edited directly.
//
// We still generate our own internal string ID (xid) rather than keying rows
// on the username, so a directory-side rename doesn't orphan foreign keys.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Devices holds the user's owned devices when a query loads them
	// (statistics, per-user device listing). Nil otherwise.
	Devices []Device `json:"devices,omitempty"`
}
