package service

import (
	"context"
	"log/slog"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

// ReservationService owns the reservation lifecycle: creation with collision
// detection, the status transitions, and the owner's incoming queues.
type ReservationService struct {
	reservations repository.ReservationRepository
	devices      repository.DeviceRepository
	users        repository.UserRepository
	logger       *slog.Logger
}

func NewReservationService(
	reservations repository.ReservationRepository,
	devices repository.DeviceRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		devices:      devices,
		users:        users,
		logger:       logger,
	}
}

// Create books a device for [start, end], both ends inclusive, on behalf of
// creatorUsername. The checks run in a fixed order so callers get collision
// errors before existence errors; the repository repeats the collision check
// inside the insert transaction to close the race between two creates.
func (s *ReservationService) Create(ctx context.Context, creatorUsername, deviceID string, start, end model.Date) (*model.Reservation, error) {
	if start.IsZero() {
		return nil, apperror.ValidationFailed("dateStart", "start date is required")
	}
	if end.IsZero() {
		return nil, apperror.ValidationFailed("dateEnd", "end date is required")
	}
	if end.Before(start) {
		return nil, apperror.ValidationFailed("dateEnd", "end date must not be before start date")
	}

	count, err := s.reservations.CountCollisions(ctx, start, end, deviceID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperror.ReservationCollision()
	}

	creator, err := s.users.GetUserByUsername(ctx, creatorUsername)
	if err != nil {
		return nil, err
	}

	device, err := s.devices.GetDeviceByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		DateStart: start,
		DateEnd:   end,
		DeviceID:  device.ID,
		UserID:    creator.ID,
	}
	if err := s.reservations.CreateReservation(ctx, reservation); err != nil {
		return nil, err
	}
	reservation.Device = device
	reservation.User = creator

	s.logger.Info("reservation created",
		"reservation_id", reservation.ID,
		"device_id", device.ID,
		"creator", creatorUsername,
		"date_start", start.String(),
		"date_end", end.String(),
	)
	return reservation, nil
}

// Approve hands the device over: CREATED → IN_PROGRESS, device owner only.
func (s *ReservationService) Approve(ctx context.Context, requester, id string) (*model.Reservation, error) {
	return s.transition(ctx, requester, id, model.ActionApprove)
}

// Finish takes the device back: IN_PROGRESS → FINISHED, device owner only.
func (s *ReservationService) Finish(ctx context.Context, requester, id string) (*model.Reservation, error) {
	return s.transition(ctx, requester, id, model.ActionFinish)
}

// Cancel withdraws a reservation that has not started: CREATED → CANCELLED.
// Both the device owner and the reservation creator may cancel.
func (s *ReservationService) Cancel(ctx context.Context, requester, id string) (*model.Reservation, error) {
	return s.transition(ctx, requester, id, model.ActionCancel)
}

func (s *ReservationService) transition(ctx context.Context, requester, id string, action model.Action) (*model.Reservation, error) {
	reservation, err := s.reservations.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.mayAct(reservation, requester, action) {
		return nil, apperror.Unauthorized("not allowed to change this reservation")
	}

	next, ok := reservation.Status.Next(action)
	if !ok {
		return nil, apperror.ReservationWrongStatus(string(reservation.Status))
	}

	previous := reservation.Status
	reservation.Status = next
	if err := s.reservations.UpdateReservationStatus(ctx, reservation); err != nil {
		return nil, err
	}

	s.logger.Info("reservation status changed",
		"reservation_id", reservation.ID,
		"from", string(previous),
		"to", string(next),
		"by", requester,
	)
	return reservation, nil
}

// mayAct enforces who can drive which transition. Approving and finishing
// is the owner's side of the handover; cancelling is open to the creator too.
func (s *ReservationService) mayAct(r *model.Reservation, requester string, action model.Action) bool {
	isOwner := r.Device != nil && r.Device.Owner != nil && r.Device.Owner.Username == requester
	if action == model.ActionCancel {
		isCreator := r.User != nil && r.User.Username == requester
		return isOwner || isCreator
	}
	return isOwner
}

// ListIncoming returns the reservations in the given status on devices owned
// by ownerUsername. Owners can only read their own queue.
func (s *ReservationService) ListIncoming(ctx context.Context, requester, ownerUsername string, status model.Status) ([]model.Reservation, error) {
	if requester != ownerUsername {
		return nil, apperror.Unauthorized("reservation queues are visible to the device owner only")
	}
	return s.reservations.ListIncomingForOwner(ctx, ownerUsername, status)
}
