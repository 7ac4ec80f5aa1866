package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

const (
	MaxDeviceNameLength        = 100
	MaxDeviceDescriptionLength = 1000
	DefaultListLimit           = 20
	MaxListLimit               = 100
)

// DeviceService handles the device catalogue: registration, edits, deletion
// and the shared listing.
type DeviceService struct {
	devices repository.DeviceRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

func NewDeviceService(devices repository.DeviceRepository, users repository.UserRepository, logger *slog.Logger) *DeviceService {
	return &DeviceService{
		devices: devices,
		users:   users,
		logger:  logger,
	}
}

// Register creates a device owned by ownerUsername.
func (s *DeviceService) Register(ctx context.Context, ownerUsername, name, description string) (*model.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "device name is required")
	}
	if len(name) > MaxDeviceNameLength {
		return nil, apperror.ValidationFailed("name", "device name is too long")
	}
	if len(description) > MaxDeviceDescriptionLength {
		return nil, apperror.ValidationFailed("description", "device description is too long")
	}

	owner, err := s.users.GetUserByUsername(ctx, ownerUsername)
	if err != nil {
		return nil, err
	}

	device := &model.Device{
		Name:        name,
		Description: description,
		OwnerID:     owner.ID,
	}
	if err := s.devices.CreateDevice(ctx, device); err != nil {
		return nil, err
	}
	device.Owner = owner

	s.logger.Info("device registered", "device_id", device.ID, "owner", ownerUsername)
	return device, nil
}

// Get returns the device with its owner and active reservations.
func (s *DeviceService) Get(ctx context.Context, id string) (*model.Device, error) {
	return s.devices.GetDeviceWithActiveReservations(ctx, id)
}

// Update edits a device's name and description. Only the owner may edit.
func (s *DeviceService) Update(ctx context.Context, requester, id, name, description string) (*model.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "device name is required")
	}
	if len(name) > MaxDeviceNameLength {
		return nil, apperror.ValidationFailed("name", "device name is too long")
	}
	if len(description) > MaxDeviceDescriptionLength {
		return nil, apperror.ValidationFailed("description", "device description is too long")
	}

	device, err := s.devices.GetDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device.Owner == nil || device.Owner.Username != requester {
		return nil, apperror.Unauthorized("only the device owner can edit it")
	}

	device.Name = name
	device.Description = description
	if err := s.devices.UpdateDevice(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

// Delete removes a device. Only the owner may delete, and never while the
// device still has active reservations. Terminal reservations are removed
// with the device.
func (s *DeviceService) Delete(ctx context.Context, requester, id string) error {
	device, err := s.devices.GetDeviceWithActiveReservations(ctx, id)
	if err != nil {
		return err
	}
	if device.Owner == nil || device.Owner.Username != requester {
		return apperror.Unauthorized("only the device owner can delete it")
	}
	if device.HasActiveReservations() {
		return apperror.DeviceWithActiveReservations(id)
	}

	if err := s.devices.DeleteDevice(ctx, id); err != nil {
		return err
	}

	s.logger.Info("device deleted", "device_id", id, "owner", requester)
	return nil
}

// List returns one page of all devices plus the total count.
func (s *DeviceService) List(ctx context.Context, limit, offset int) ([]model.Device, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.devices.ListDevices(ctx, repository.ListOptions{Limit: limit, Offset: offset})
}
