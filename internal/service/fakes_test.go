package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/directory"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for all three repositories, so service
// tests run without a database. It mirrors the real repository contracts:
// NotFound errors on misses, collision re-check on reservation insert, joined
// owner/creator on reads.
type fakeStore struct {
	users        []*model.User
	devices      []*model.Device
	reservations []*model.Reservation
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("fake-%d", f.nextID)
}

// --- seeding helpers ---

func (f *fakeStore) addUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		ID:        f.id(),
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
	}
	f.users = append(f.users, u)
	return u
}

func (f *fakeStore) addDevice(t *testing.T, name string, owner *model.User) *model.Device {
	t.Helper()
	d := &model.Device{
		ID:      f.id(),
		Name:    name,
		OwnerID: owner.ID,
	}
	f.devices = append(f.devices, d)
	return d
}

func (f *fakeStore) addReservation(t *testing.T, device *model.Device, creator *model.User, start, end string, status model.Status) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		ID:        f.id(),
		DateStart: date(t, start),
		DateEnd:   date(t, end),
		Status:    status,
		DeviceID:  device.ID,
		UserID:    creator.ID,
	}
	f.reservations = append(f.reservations, r)
	return r
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// --- lookups ---

func (f *fakeStore) userByID(id string) *model.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeStore) activeReservationsFor(deviceID string) []model.Reservation {
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.DeviceID == deviceID && r.Status.IsActive() {
			out = append(out, *r)
		}
	}
	return out
}

func (f *fakeStore) deviceView(d *model.Device, withReservations bool) *model.Device {
	view := *d
	if owner := f.userByID(d.OwnerID); owner != nil {
		o := *owner
		view.Owner = &o
	}
	if withReservations {
		view.Reservations = f.activeReservationsFor(d.ID)
	}
	return &view
}

// --- repository.UserRepository ---

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	user.ID = f.id()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			view := *u
			return &view, nil
		}
	}
	return nil, apperror.UserNotFound(username)
}

func (f *fakeStore) UpdateUser(_ context.Context, user *model.User) error {
	stored := f.userByID(user.ID)
	if stored == nil {
		return apperror.UserNotFound(user.Username)
	}
	stored.Username = user.Username
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = user.Email
	return nil
}

func (f *fakeStore) GetUserWithDevicesAndActiveReservations(ctx context.Context, username string) (*model.User, error) {
	user, err := f.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.Devices = []model.Device{}
	for _, d := range f.devices {
		if d.OwnerID == user.ID {
			view := *d
			view.Reservations = f.activeReservationsFor(d.ID)
			user.Devices = append(user.Devices, view)
		}
	}
	return user, nil
}

// --- repository.DeviceRepository ---

func (f *fakeStore) CreateDevice(_ context.Context, device *model.Device) error {
	device.ID = f.id()
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now
	stored := *device
	f.devices = append(f.devices, &stored)
	return nil
}

func (f *fakeStore) GetDeviceByID(_ context.Context, id string) (*model.Device, error) {
	for _, d := range f.devices {
		if d.ID == id {
			return f.deviceView(d, false), nil
		}
	}
	return nil, apperror.DeviceNotFound(id)
}

func (f *fakeStore) GetDeviceWithActiveReservations(_ context.Context, id string) (*model.Device, error) {
	for _, d := range f.devices {
		if d.ID == id {
			return f.deviceView(d, true), nil
		}
	}
	return nil, apperror.DeviceNotFound(id)
}

func (f *fakeStore) UpdateDevice(_ context.Context, device *model.Device) error {
	for _, d := range f.devices {
		if d.ID == device.ID {
			d.Name = device.Name
			d.Description = device.Description
			return nil
		}
	}
	return apperror.DeviceNotFound(device.ID)
}

func (f *fakeStore) DeleteDevice(_ context.Context, id string) error {
	for i, d := range f.devices {
		if d.ID == id {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			return nil
		}
	}
	return apperror.DeviceNotFound(id)
}

func (f *fakeStore) ListDevices(_ context.Context, opts repository.ListOptions) ([]model.Device, int, error) {
	total := len(f.devices)
	if opts.Offset >= total {
		return []model.Device{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	out := make([]model.Device, 0, end-opts.Offset)
	for _, d := range f.devices[opts.Offset:end] {
		out = append(out, *f.deviceView(d, true))
	}
	return out, total, nil
}

// --- repository.ReservationRepository ---

func (f *fakeStore) CreateReservation(ctx context.Context, reservation *model.Reservation) error {
	count, _ := f.CountCollisions(ctx, reservation.DateStart, reservation.DateEnd, reservation.DeviceID)
	if count > 0 {
		return apperror.ReservationCollision()
	}
	reservation.ID = f.id()
	reservation.Status = model.StatusCreated
	now := time.Now()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	stored := *reservation
	f.reservations = append(f.reservations, &stored)
	return nil
}

func (f *fakeStore) GetReservationByID(_ context.Context, id string) (*model.Reservation, error) {
	for _, r := range f.reservations {
		if r.ID == id {
			return f.reservationView(r), nil
		}
	}
	return nil, apperror.ReservationNotFound(id)
}

func (f *fakeStore) reservationView(r *model.Reservation) *model.Reservation {
	view := *r
	for _, d := range f.devices {
		if d.ID == r.DeviceID {
			view.Device = f.deviceView(d, false)
			break
		}
	}
	if creator := f.userByID(r.UserID); creator != nil {
		c := *creator
		view.User = &c
	}
	return &view
}

func (f *fakeStore) UpdateReservationStatus(_ context.Context, reservation *model.Reservation) error {
	for _, r := range f.reservations {
		if r.ID == reservation.ID {
			r.Status = reservation.Status
			return nil
		}
	}
	return apperror.ReservationNotFound(reservation.ID)
}

func (f *fakeStore) CountCollisions(_ context.Context, start, end model.Date, deviceID string) (int, error) {
	count := 0
	for _, r := range f.reservations {
		if r.DeviceID == deviceID && r.Status.IsActive() && r.Overlaps(start, end) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListIncomingForOwner(_ context.Context, ownerUsername string, status model.Status) ([]model.Reservation, error) {
	out := []model.Reservation{}
	for _, r := range f.reservations {
		if r.Status != status {
			continue
		}
		view := f.reservationView(r)
		if view.Device != nil && view.Device.Owner != nil && view.Device.Owner.Username == ownerUsername {
			out = append(out, *view)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCreatedBy(_ context.Context, username string, status model.Status) ([]model.Reservation, error) {
	out := []model.Reservation{}
	for _, r := range f.reservations {
		if r.Status != status {
			continue
		}
		view := f.reservationView(r)
		if view.User != nil && view.User.Username == username {
			out = append(out, *view)
		}
	}
	return out, nil
}

// fakeDirectory is an in-memory directory.Client.
type fakeDirectory struct {
	people   map[string]*directory.UserData
	err      error
	lookups  int
	gotToken string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{people: map[string]*directory.UserData{}}
}

func (f *fakeDirectory) add(username, first, last, email string) {
	f.people[username] = &directory.UserData{
		Username:       username,
		FirstName:      first,
		LastName:       last,
		PreferredEmail: email,
	}
}

func (f *fakeDirectory) Lookup(_ context.Context, accessToken, username string) (*directory.UserData, error) {
	f.lookups++
	f.gotToken = accessToken
	if f.err != nil {
		return nil, f.err
	}
	return f.people[username], nil
}
