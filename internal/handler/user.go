package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

// UserHandler serves user profiles and the per-user views: owned devices,
// lending statistics and the user's outgoing reservations.
type UserHandler struct {
	users    *service.UserService
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewUserHandler(users *service.UserService, identity *service.IdentityService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, identity: identity, logger: logger}
}

// HandleGet returns a user's profile.
//
// GET /api/users/{username}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleRefresh re-reads the user's profile from the directory and stores it.
// Users can only refresh their own record.
//
// PUT /api/users/{username}/update
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.identity.RefreshProfile(r.Context(), identity.AccessToken, identity.Username, r.PathValue("username"))
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleDevices returns a page of the devices owned by {username}.
//
// GET /api/users/{username}/devices?limit=20&offset=0
func (h *UserHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	devices, total, err := h.users.DevicesPaged(r.Context(), identity.Username, r.PathValue("username"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deviceListResponse{Total: total, Results: newDeviceResponses(devices)})
}

// HandleStatistics returns {count, lent, available} over the user's devices.
//
// GET /api/users/{username}/devices/statistics
func (h *UserHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	stats, err := h.users.Statistics(r.Context(), identity.Username, r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleReservationsCreated lists the user's own pending requests.
//
// GET /api/users/{username}/reservations/created
func (h *UserHandler) HandleReservationsCreated(w http.ResponseWriter, r *http.Request) {
	h.outgoing(w, r, h.users.ReservationsCreated)
}

// HandleReservationsInProgress lists the user's own active borrowings.
//
// GET /api/users/{username}/reservations/in-progress
func (h *UserHandler) HandleReservationsInProgress(w http.ResponseWriter, r *http.Request) {
	h.outgoing(w, r, h.users.ReservationsInProgress)
}

func (h *UserHandler) outgoing(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, requester, username string) ([]model.Reservation, error),
) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	reservations, err := list(r.Context(), identity.Username, r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservations)
}
