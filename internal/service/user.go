package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

// Statistics is the per-owner device summary. Lent counts devices with at
// least one active reservation; Lent + Available always equals Count.
type Statistics struct {
	Count     int `json:"count"`
	Lent      int `json:"lent"`
	Available int `json:"available"`
}

// UserService answers the per-user read queries: profile, device listings,
// statistics and the outgoing reservation lists. Everything except the plain
// profile lookup is private to the user it concerns.
type UserService struct {
	users        repository.UserRepository
	reservations repository.ReservationRepository
	logger       *slog.Logger
}

func NewUserService(users repository.UserRepository, reservations repository.ReservationRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:        users,
		reservations: reservations,
		logger:       logger,
	}
}

// Get returns the stored user record.
func (s *UserService) Get(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetUserByUsername(ctx, username)
}

// Statistics summarizes a user's own devices. An unknown username is not an
// error here: a person who never owned anything has the zero summary.
func (s *UserService) Statistics(ctx context.Context, requester, username string) (*Statistics, error) {
	if requester != username {
		return nil, apperror.Unauthorized("statistics are visible to their owner only")
	}

	user, err := s.users.GetUserWithDevicesAndActiveReservations(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &Statistics{}, nil
		}
		return nil, err
	}

	stats := &Statistics{Count: len(user.Devices)}
	for _, d := range user.Devices {
		if d.HasActiveReservations() {
			stats.Lent++
		}
	}
	stats.Available = stats.Count - stats.Lent

	return stats, nil
}

// DevicesPaged returns one page of the user's own devices plus their total
// count. Owners rarely have more than a handful of devices, so the page is
// sliced in memory from the already-loaded set. An unknown username yields
// an empty page.
func (s *UserService) DevicesPaged(ctx context.Context, requester, username string, limit, offset int) ([]model.Device, int, error) {
	if requester != username {
		return nil, 0, apperror.Unauthorized("device listings are visible to their owner only")
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	user, err := s.users.GetUserWithDevicesAndActiveReservations(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return []model.Device{}, 0, nil
		}
		return nil, 0, err
	}

	total := len(user.Devices)
	if offset >= total {
		return []model.Device{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return user.Devices[offset:end], total, nil
}

// ReservationsCreated lists the user's own outgoing reservations still
// waiting for approval. An unknown username yields an empty list.
func (s *UserService) ReservationsCreated(ctx context.Context, requester, username string) ([]model.Reservation, error) {
	return s.outgoing(ctx, requester, username, model.StatusCreated)
}

// ReservationsInProgress lists the user's own outgoing reservations
// currently borrowed.
func (s *UserService) ReservationsInProgress(ctx context.Context, requester, username string) ([]model.Reservation, error) {
	return s.outgoing(ctx, requester, username, model.StatusInProgress)
}

func (s *UserService) outgoing(ctx context.Context, requester, username string, status model.Status) ([]model.Reservation, error) {
	if requester != username {
		return nil, apperror.Unauthorized("reservation listings are visible to their creator only")
	}
	return s.reservations.ListCreatedBy(ctx, username, status)
}
