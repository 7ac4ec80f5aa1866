package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

// DeviceHandler serves the device catalogue endpoints.
type DeviceHandler struct {
	devices *service.DeviceService
	logger  *slog.Logger
}

func NewDeviceHandler(devices *service.DeviceService, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, logger: logger}
}

// deviceResponse decorates a device with isBookedToday, which is derived at
// read time and never stored.
type deviceResponse struct {
	*model.Device
	IsBookedToday bool `json:"isBookedToday"`
}

func newDeviceResponse(d *model.Device) deviceResponse {
	return deviceResponse{Device: d, IsBookedToday: d.IsBookedOn(model.Today())}
}

func newDeviceResponses(devices []model.Device) []deviceResponse {
	out := make([]deviceResponse, len(devices))
	for i := range devices {
		out[i] = newDeviceResponse(&devices[i])
	}
	return out
}

// deviceListResponse is the paged listing shape.
type deviceListResponse struct {
	Total   int              `json:"total"`
	Results []deviceResponse `json:"results"`
}

type devicePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleList returns one page of all devices.
//
// GET /api/devices?limit=20&offset=0
func (h *DeviceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	devices, total, err := h.devices.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing devices failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deviceListResponse{
		Total:   total,
		Results: newDeviceResponses(devices),
	})
}

// HandleGet returns one device with its owner and active reservations.
//
// GET /api/devices/{id}
func (h *DeviceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newDeviceResponse(device))
}

// HandleCreate registers a device owned by the authenticated user.
//
// POST /api/devices {"name": "...", "description": "..."}
func (h *DeviceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var payload devicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	device, err := h.devices.Register(r.Context(), identity.Username, payload.Name, payload.Description)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newDeviceResponse(device))
}

// HandleUpdate edits a device, owner only.
//
// PUT /api/devices/{id}
func (h *DeviceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var payload devicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	device, err := h.devices.Update(r.Context(), identity.Username, r.PathValue("id"), payload.Name, payload.Description)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newDeviceResponse(device))
}

// HandleDelete removes a device, owner only, refused while active
// reservations exist.
//
// DELETE /api/devices/{id}
func (h *DeviceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.devices.Delete(r.Context(), identity.Username, r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pagination parses limit/offset query parameters. Absent values fall back
// to the service defaults; junk is a validation error.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, apperror.ValidationFailed("limit", "limit must be a non-negative integer")
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}
