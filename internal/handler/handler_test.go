package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/directory"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository/sqlite"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

// testEnv wires real services over an in-memory database, so handler tests
// exercise the same stack the server runs, minus HTTP routing and auth
// middleware.
type testEnv struct {
	db           *sqlite.DB
	devices      *service.DeviceService
	reservations *service.ReservationService
	users        *service.UserService
	identity     *service.IdentityService
	people       *stubDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	people := &stubDirectory{people: map[string]*directory.UserData{}}

	return &testEnv{
		db:           db,
		devices:      service.NewDeviceService(db, db, logger),
		reservations: service.NewReservationService(db, db, db, logger),
		users:        service.NewUserService(db, db, logger),
		identity:     service.NewIdentityService(db, people, logger),
		people:       people,
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, FirstName: "Test", LastName: "User", Email: username + "@example.com"}
	if err := e.db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) seedDevice(t *testing.T, owner *model.User, name string) *model.Device {
	t.Helper()
	device := &model.Device{Name: name, Description: "seeded", OwnerID: owner.ID}
	if err := e.db.CreateDevice(context.Background(), device); err != nil {
		t.Fatalf("seeding device %s: %v", name, err)
	}
	return device
}

func (e *testEnv) seedReservation(t *testing.T, device *model.Device, creator *model.User, start, end string, status model.Status) *model.Reservation {
	t.Helper()
	reservation := &model.Reservation{
		DateStart: date(t, start),
		DateEnd:   date(t, end),
		DeviceID:  device.ID,
		UserID:    creator.ID,
	}
	if err := e.db.CreateReservation(context.Background(), reservation); err != nil {
		t.Fatalf("seeding reservation: %v", err)
	}
	if status != model.StatusCreated {
		reservation.Status = status
		if err := e.db.UpdateReservationStatus(context.Background(), reservation); err != nil {
			t.Fatalf("seeding reservation status: %v", err)
		}
	}
	return reservation
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %q: %v", s, err)
	}
	return d
}

// authedRequest builds a request carrying the identity RequireAuth would
// have stored, bypassing the middleware itself.
func authedRequest(method, target, username, body string) *http.Request {
	r := newRequest(method, target, body)
	return r.WithContext(auth.ContextWithIdentity(r.Context(), auth.Identity{Username: username, AccessToken: "provider-token"}))
}

func newRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// stubDirectory implements directory.Client for profile refresh tests.
type stubDirectory struct {
	people map[string]*directory.UserData
	err    error
}

func (s *stubDirectory) Lookup(_ context.Context, _ string, username string) (*directory.UserData, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.people[username], nil
}
