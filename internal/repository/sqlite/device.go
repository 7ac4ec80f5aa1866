package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/xid"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/model"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository"
)

// compile-time check that *DB implements repository.DeviceRepository
var _ repository.DeviceRepository = (*DB)(nil)

// CreateDevice inserts a new device. The service layer resolves the owner before
// calling this, so OwnerID is always a valid user ID here.
func (db *DB) CreateDevice(ctx context.Context, device *model.Device) error {
	device.ID = xid.New().String()
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO devices (id, name, description, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.Name,
		device.Description,
		device.OwnerID,
		device.CreatedAt,
		device.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting device %s: %w", device.Name, err)
	}

	return nil
}

// GetDeviceByID loads the device with its owner joined.
// Returns apperror.DeviceNotFound on miss.
func (db *DB) GetDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	var (
		d     model.Device
		owner model.User
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT d.id, d.name, d.description, d.owner_id, d.created_at, d.updated_at,
		        u.id, u.username, u.first_name, u.last_name, u.email, u.created_at, u.updated_at
		 FROM devices d
		 JOIN users u ON u.id = d.owner_id
		 WHERE d.id = ?`,
		id,
	).Scan(
		&d.ID, &d.Name, &d.Description, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt,
		&owner.ID, &owner.Username, &owner.FirstName, &owner.LastName, &owner.Email,
		&owner.CreatedAt, &owner.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.DeviceNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting device %s: %w", id, err)
	}

	d.Owner = &owner
	return &d, nil
}

// GetDeviceWithActiveReservations loads the device with owner and its active
// reservations joined.
func (db *DB) GetDeviceWithActiveReservations(ctx context.Context, id string) (*model.Device, error) {
	device, err := db.GetDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	devices := []model.Device{*device}
	if err := db.attachActiveReservations(ctx, devices); err != nil {
		return nil, err
	}

	return &devices[0], nil
}

// UpdateDevice persists name/description changes.
func (db *DB) UpdateDevice(ctx context.Context, device *model.Device) error {
	device.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE devices SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		device.Name,
		device.Description,
		device.UpdatedAt,
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating device %s: %w", device.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.DeviceNotFound(device.ID)
	}

	return nil
}

// DeleteDevice removes the device. The foreign-key cascade removes its remaining
// reservations in the same statement; the service has already refused the
// call if any of them were active.
func (db *DB) DeleteDevice(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting device %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.DeviceNotFound(id)
	}

	return nil
}

// ListDevices returns one page of devices in insertion order, owners and active
// reservations joined, plus the unfiltered total count.
func (db *DB) ListDevices(ctx context.Context, opts repository.ListOptions) ([]model.Device, int, error) {
	// LIMIT 0 would return nothing; a zero-value ListOptions means first page.
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting devices: %w", err)
	}

	query, args, err := db.sb.From(goqu.T("devices").As("d")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("d.owner_id")))).
		Select(
			goqu.I("d.id"), goqu.I("d.name"), goqu.I("d.description"), goqu.I("d.owner_id"),
			goqu.I("d.created_at"), goqu.I("d.updated_at"),
			goqu.I("u.id"), goqu.I("u.username"), goqu.I("u.first_name"), goqu.I("u.last_name"),
			goqu.I("u.email"), goqu.I("u.created_at"), goqu.I("u.updated_at"),
		).
		Order(goqu.I("d.created_at").Asc()).
		Limit(uint(opts.Limit)).
		Offset(uint(opts.Offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: building device list query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0, opts.Limit)
	for rows.Next() {
		var (
			d     model.Device
			owner model.User
		)
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Description, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt,
			&owner.ID, &owner.Username, &owner.FirstName, &owner.LastName, &owner.Email,
			&owner.CreatedAt, &owner.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning device row: %w", err)
		}
		d.Owner = &owner
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating devices: %w", err)
	}

	if err := db.attachActiveReservations(ctx, devices); err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}
