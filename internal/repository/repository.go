// Package repository declares the persistence interfaces consumed by the
// service layer. The sqlite subpackage implements them; tests substitute
// in-memory fakes.
package repository

import (
	"context"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
)

// ListOptions is the offset/limit pagination contract for paged queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByUsername returns apperror.UserNotFound on miss.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// UpdateUser overwrites the profile fields (username, names, email).
	UpdateUser(ctx context.Context, user *model.User) error

	// GetUserWithDevicesAndActiveReservations loads the user together with their
	// owned devices, each carrying its ACTIVE reservations. Used by the
	// statistics and per-user device listing operations.
	GetUserWithDevicesAndActiveReservations(ctx context.Context, username string) (*model.User, error)
}

// DeviceRepository persists devices.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device *model.Device) error

	// GetDeviceByID loads the device with its owner joined.
	GetDeviceByID(ctx context.Context, id string) (*model.Device, error)

	// GetDeviceWithActiveReservations loads the device with owner and ACTIVE
	// reservations joined.
	GetDeviceWithActiveReservations(ctx context.Context, id string) (*model.Device, error)

	// UpdateDevice persists name/description changes.
	UpdateDevice(ctx context.Context, device *model.Device) error

	// DeleteDevice removes the device; the schema cascade removes its remaining
	// reservations. Callers must have verified no active reservations exist.
	DeleteDevice(ctx context.Context, id string) error

	// ListDevices returns one page of devices (owner and active reservations joined)
	// plus the unfiltered total count.
	ListDevices(ctx context.Context, opts ListOptions) ([]model.Device, int, error)
}

// ReservationRepository persists reservations and answers the collision query.
type ReservationRepository interface {
	// CreateReservation inserts the reservation in CREATED status. The insert
	// and a collision re-check run in one transaction: if a competing
	// reservation committed an overlapping active range since the caller's
	// pre-check, it fails with apperror.ReservationCollision and nothing is
	// written.
	CreateReservation(ctx context.Context, reservation *model.Reservation) error

	// GetReservationByID loads the reservation with its creator, device and device
	// owner joined.
	GetReservationByID(ctx context.Context, id string) (*model.Reservation, error)

	// UpdateReservationStatus persists a status transition.
	UpdateReservationStatus(ctx context.Context, reservation *model.Reservation) error

	// CountCollisions counts ACTIVE reservations on the device whose
	// inclusive ranges overlap [start, end]. Pure query, no side effects.
	CountCollisions(ctx context.Context, start, end model.Date, deviceID string) (int, error)

	// ListIncomingForOwner returns reservations in the given status on
	// devices owned by ownerUsername, with device and creator joined.
	ListIncomingForOwner(ctx context.Context, ownerUsername string, status model.Status) ([]model.Reservation, error)

	// ListCreatedBy returns reservations in the given status created by the
	// user, with device and device owner joined.
	ListCreatedBy(ctx context.Context, username string, status model.Status) ([]model.Reservation, error)
}
