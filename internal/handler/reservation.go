package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

// ReservationHandler serves reservation creation, the status transitions and
// the owner's incoming queues.
type ReservationHandler struct {
	reservations *service.ReservationService
	logger       *slog.Logger
}

func NewReservationHandler(reservations *service.ReservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, logger: logger}
}

type createReservationPayload struct {
	DeviceID  string     `json:"deviceId"`
	DateStart model.Date `json:"dateStart"`
	DateEnd   model.Date `json:"dateEnd"`
}

// HandleCreate books a device for the authenticated user.
//
// POST /api/reservations {"deviceId": "...", "dateStart": "2026-09-01", "dateEnd": "2026-09-05"}
func (h *ReservationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var payload createReservationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if payload.DeviceID == "" {
		writeError(w, apperror.ValidationFailed("deviceId", "deviceId is required"))
		return
	}

	reservation, err := h.reservations.Create(r.Context(), identity.Username,
		payload.DeviceID, payload.DateStart, payload.DateEnd)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

// HandleApprove moves CREATED to IN_PROGRESS, device owner only.
//
// PUT /api/reservations/{id}/status-approve
func (h *ReservationHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.reservations.Approve)
}

// HandleFinish moves IN_PROGRESS to FINISHED, device owner only.
//
// PUT /api/reservations/{id}/status-finish
func (h *ReservationHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.reservations.Finish)
}

// HandleCancel moves CREATED to CANCELLED, device owner or creator.
//
// PUT /api/reservations/{id}/status-cancel
func (h *ReservationHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.reservations.Cancel)
}

func (h *ReservationHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	do func(ctx context.Context, requester, id string) (*model.Reservation, error),
) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	reservation, err := do(r.Context(), identity.Username, r.PathValue("id"))
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

// HandleIncomingCreated lists pending requests on devices owned by {username}.
//
// GET /api/reservations/{username}/created
func (h *ReservationHandler) HandleIncomingCreated(w http.ResponseWriter, r *http.Request) {
	h.incoming(w, r, model.StatusCreated)
}

// HandleIncomingInProgress lists active lendings of devices owned by {username}.
//
// GET /api/reservations/{username}/in-progress
func (h *ReservationHandler) HandleIncomingInProgress(w http.ResponseWriter, r *http.Request) {
	h.incoming(w, r, model.StatusInProgress)
}

func (h *ReservationHandler) incoming(w http.ResponseWriter, r *http.Request, status model.Status) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	reservations, err := h.reservations.ListIncoming(r.Context(), identity.Username, r.PathValue("username"), status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}
