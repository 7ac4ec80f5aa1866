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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user with a generated ID. The username carries a
// UNIQUE constraint; a duplicate insert surfaces as a plain database error
// because the identity resolver only creates after a confirmed miss.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, first_name, last_name, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetUserByUsername returns apperror.UserNotFound on miss.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name, email, created_at, updated_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.UserNotFound(username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}

	return &u, nil
}

// UpdateUser overwrites the profile fields. Only the profile-refresh path calls
// this, so username/name/email are always written together.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, first_name = ?, last_name = ?, email = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Email,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.UserNotFound(user.Username)
	}

	return nil
}

// GetUserWithDevicesAndActiveReservations loads the user plus their owned
// devices, each carrying its active reservations. The statistics and
// per-user device listing derive everything (lent counts, isBookedToday)
// from this one shape.
func (db *DB) GetUserWithDevicesAndActiveReservations(ctx context.Context, username string) (*model.User, error) {
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at
		 FROM devices
		 WHERE owner_id = ?
		 ORDER BY created_at`,
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing devices for user %s: %w", username, err)
	}
	defer rows.Close()

	devices := []model.Device{}
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning device row: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating devices: %w", err)
	}

	if err := db.attachActiveReservations(ctx, devices); err != nil {
		return nil, err
	}

	user.Devices = devices
	return user, nil
}

// attachActiveReservations fills the Reservations slice of each device with
// its active (CREATED/IN_PROGRESS) reservations, in one query for the whole
// batch.
func (db *DB) attachActiveReservations(ctx context.Context, devices []model.Device) error {
	if len(devices) == 0 {
		return nil
	}

	ids := make([]string, len(devices))
	byID := make(map[string]*model.Device, len(devices))
	for i := range devices {
		ids[i] = devices[i].ID
		byID[devices[i].ID] = &devices[i]
	}

	query, args, err := db.sb.From("reservations").
		Select("id", "date_start", "date_end", "status", "device_id", "user_id", "created_at", "updated_at").
		Where(
			goqu.C("device_id").In(ids),
			goqu.C("status").In(activeStatusValues()),
		).
		Order(goqu.C("date_start").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building active reservations query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: loading active reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.DateStart, &r.DateEnd, &r.Status,
			&r.DeviceID, &r.UserID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning reservation row: %w", err)
		}
		if d, ok := byID[r.DeviceID]; ok {
			d.Reservations = append(d.Reservations, r)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating active reservations: %w", err)
	}

	return nil
}

// activeStatusValues returns the active statuses as plain strings for goqu
// IN clauses.
func activeStatusValues() []string {
	statuses := model.ActiveStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
