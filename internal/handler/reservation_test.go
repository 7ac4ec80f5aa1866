package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/handler"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationHandler_HandleCreate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")

	h := handler.NewReservationHandler(env.reservations, testLogger())

	req := authedRequest(http.MethodPost, "/api/reservations", "bob",
		`{"deviceId":"`+device.ID+`","dateStart":"2026-09-01","dateEnd":"2026-09-05"}`)
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var res struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		DateStart string `json:"dateStart"`
		DateEnd   string `json:"dateEnd"`
		User      struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "CREATED", res.Status)
	assert.Equal(t, "2026-09-01", res.DateStart)
	assert.Equal(t, "2026-09-05", res.DateEnd)
	assert.Equal(t, "bob", res.User.Username)
}

func TestReservationHandler_HandleCreate_Collision(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	borrower := env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")
	env.seedReservation(t, device, borrower, "2026-09-01", "2026-09-05", model.StatusCreated)

	h := handler.NewReservationHandler(env.reservations, testLogger())

	// The new range touches the existing end date; inclusive bounds collide.
	req := authedRequest(http.MethodPost, "/api/reservations", "bob",
		`{"deviceId":"`+device.ID+`","dateStart":"2026-09-05","dateEnd":"2026-09-07"}`)
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReservationHandler_HandleCreate_BadDates(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")

	h := handler.NewReservationHandler(env.reservations, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing dates", `{"deviceId":"` + device.ID + `"}`},
		{"end before start", `{"deviceId":"` + device.ID + `","dateStart":"2026-09-05","dateEnd":"2026-09-01"}`},
		{"malformed date", `{"deviceId":"` + device.ID + `","dateStart":"09/01/2026","dateEnd":"2026-09-05"}`},
		{"missing device", `{"dateStart":"2026-09-01","dateEnd":"2026-09-05"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/reservations", "bob", tt.body)
			rr := httptest.NewRecorder()
			h.HandleCreate(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestReservationHandler_Transitions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	borrower := env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")
	reservation := env.seedReservation(t, device, borrower, "2026-09-01", "2026-09-05", model.StatusCreated)

	h := handler.NewReservationHandler(env.reservations, testLogger())

	do := func(handle http.HandlerFunc, username string) *httptest.ResponseRecorder {
		req := authedRequest(http.MethodPut, "/api/reservations/"+reservation.ID+"/status", username, "")
		req.SetPathValue("id", reservation.ID)
		rr := httptest.NewRecorder()
		handle(rr, req)
		return rr
	}

	// Only the device owner may approve.
	rr := do(h.HandleApprove, "bob")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(h.HandleApprove, "anna")
	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "IN_PROGRESS", res.Status)

	// A running reservation cannot be cancelled, even by its creator.
	rr = do(h.HandleCancel, "bob")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(h.HandleFinish, "anna")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "FINISHED", res.Status)

	// Terminal states refuse further transitions.
	rr = do(h.HandleFinish, "anna")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReservationHandler_CancelByCreator(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	borrower := env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")
	reservation := env.seedReservation(t, device, borrower, "2026-09-01", "2026-09-05", model.StatusCreated)

	h := handler.NewReservationHandler(env.reservations, testLogger())

	req := authedRequest(http.MethodPut, "/api/reservations/"+reservation.ID+"/status-cancel", "bob", "")
	req.SetPathValue("id", reservation.ID)
	rr := httptest.NewRecorder()
	h.HandleCancel(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "CANCELLED", res.Status)
}

func TestReservationHandler_Transition_MissingIsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "anna")
	h := handler.NewReservationHandler(env.reservations, testLogger())

	req := authedRequest(http.MethodPut, "/api/reservations/missing/status-approve", "anna", "")
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	h.HandleApprove(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReservationHandler_Incoming(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "anna")
	borrower := env.seedUser(t, "bob")
	device := env.seedDevice(t, owner, "Oscilloscope")
	env.seedReservation(t, device, borrower, "2026-09-01", "2026-09-05", model.StatusCreated)
	env.seedReservation(t, device, borrower, "2026-09-10", "2026-09-12", model.StatusInProgress)

	h := handler.NewReservationHandler(env.reservations, testLogger())

	req := authedRequest(http.MethodGet, "/api/reservations/anna/created", "anna", "")
	req.SetPathValue("username", "anna")
	rr := httptest.NewRecorder()
	h.HandleIncomingCreated(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var created []struct {
		Status string `json:"status"`
		User   struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.Len(t, created, 1)
	assert.Equal(t, "CREATED", created[0].Status)
	assert.Equal(t, "bob", created[0].User.Username)

	req = authedRequest(http.MethodGet, "/api/reservations/anna/in-progress", "anna", "")
	req.SetPathValue("username", "anna")
	rr = httptest.NewRecorder()
	h.HandleIncomingInProgress(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var inProgress []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&inProgress))
	require.Len(t, inProgress, 1)
	assert.Equal(t, "IN_PROGRESS", inProgress[0].Status)
}

func TestReservationHandler_Incoming_OtherUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "anna")
	env.seedUser(t, "bob")
	h := handler.NewReservationHandler(env.reservations, testLogger())

	req := authedRequest(http.MethodGet, "/api/reservations/anna/created", "bob", "")
	req.SetPathValue("username", "anna")
	rr := httptest.NewRecorder()
	h.HandleIncomingCreated(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
