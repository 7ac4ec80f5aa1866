package sqlite

import (
	"context"
	"testing"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
)

// newTestDB opens a fresh in-memory database for one test. ":memory:" keeps
// tests fast and isolated; t.Cleanup closes the pool even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return u
}

func createTestDevice(t *testing.T, db *DB, name string, owner *model.User) *model.Device {
	t.Helper()
	d := &model.Device{
		Name:        name,
		Description: "test device",
		OwnerID:     owner.ID,
	}
	if err := db.CreateDevice(context.Background(), d); err != nil {
		t.Fatalf("failed to create test device %s: %v", name, err)
	}
	return d
}

func createTestReservation(t *testing.T, db *DB, device *model.Device, creator *model.User, start, end string) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		DateStart: date(t, start),
		DateEnd:   date(t, end),
		DeviceID:  device.ID,
		UserID:    creator.ID,
	}
	if err := db.CreateReservation(context.Background(), r); err != nil {
		t.Fatalf("failed to create test reservation: %v", err)
	}
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
