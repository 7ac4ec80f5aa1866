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

// compile-time check that *DB implements repository.ReservationRepository
var _ repository.ReservationRepository = (*DB)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx, so the collision count
// can run standalone and inside the create transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// collisionQuery builds the overlap count for active reservations on a
// device. Two inclusive ranges overlap iff
//
//	existing.date_start <= end AND existing.date_end >= start
//
// which matches model.RangesOverlap. Dates are "YYYY-MM-DD" text, so the
// column comparison is a plain lexicographic one.
func (db *DB) collisionQuery(start, end model.Date, deviceID string) (string, []any, error) {
	return db.sb.From("reservations").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("device_id").Eq(deviceID),
			goqu.C("status").In(activeStatusValues()),
			goqu.C("date_start").Lte(end.String()),
			goqu.C("date_end").Gte(start.String()),
		).
		Prepared(true).
		ToSQL()
}

func (db *DB) countCollisions(ctx context.Context, q querier, start, end model.Date, deviceID string) (int, error) {
	query, args, err := db.collisionQuery(start, end, deviceID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: building collision query: %w", err)
	}

	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: counting collisions for device %s: %w", deviceID, err)
	}
	return count, nil
}

// CountCollisions implements the collision detector query.
func (db *DB) CountCollisions(ctx context.Context, start, end model.Date, deviceID string) (int, error) {
	return db.countCollisions(ctx, db.conn, start, end, deviceID)
}

// CreateReservation inserts the reservation in CREATED status. The collision count is
// re-run inside the insert transaction: the service's pre-check keeps the
// documented error ordering, but only this re-check makes two concurrent
// creates for overlapping ranges safe: whichever transaction commits second
// sees the first one's row and fails with ReservationCollision.
func (db *DB) CreateReservation(ctx context.Context, reservation *model.Reservation) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning reservation transaction: %w", err)
	}
	defer tx.Rollback()

	count, err := db.countCollisions(ctx, tx, reservation.DateStart, reservation.DateEnd, reservation.DeviceID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.ReservationCollision()
	}

	reservation.ID = xid.New().String()
	reservation.Status = model.StatusCreated
	now := time.Now()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (id, date_start, date_end, status, device_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.DateStart,
		reservation.DateEnd,
		reservation.Status,
		reservation.DeviceID,
		reservation.UserID,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing reservation: %w", err)
	}

	return nil
}

// reservationColumns is the shared select list for queries that join the
// reservation with its device, the device owner and the creating user.
func reservationColumns() []any {
	return []any{
		goqu.I("r.id"), goqu.I("r.date_start"), goqu.I("r.date_end"), goqu.I("r.status"),
		goqu.I("r.device_id"), goqu.I("r.user_id"), goqu.I("r.created_at"), goqu.I("r.updated_at"),
		goqu.I("d.id"), goqu.I("d.name"), goqu.I("d.description"), goqu.I("d.owner_id"),
		goqu.I("d.created_at"), goqu.I("d.updated_at"),
		goqu.I("o.id"), goqu.I("o.username"), goqu.I("o.first_name"), goqu.I("o.last_name"),
		goqu.I("o.email"), goqu.I("o.created_at"), goqu.I("o.updated_at"),
		goqu.I("c.id"), goqu.I("c.username"), goqu.I("c.first_name"), goqu.I("c.last_name"),
		goqu.I("c.email"), goqu.I("c.created_at"), goqu.I("c.updated_at"),
	}
}

// joinedReservations is the base dataset: reservations r joined with
// devices d, owners o and creators c.
func (db *DB) joinedReservations() *goqu.SelectDataset {
	return db.sb.From(goqu.T("reservations").As("r")).
		Join(goqu.T("devices").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("r.device_id")))).
		Join(goqu.T("users").As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("d.owner_id")))).
		Join(goqu.T("users").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("r.user_id")))).
		Select(reservationColumns()...)
}

// scanJoinedReservation reads one row of the joined select list.
func scanJoinedReservation(scan func(...any) error) (*model.Reservation, error) {
	var (
		r       model.Reservation
		d       model.Device
		owner   model.User
		creator model.User
	)
	err := scan(
		&r.ID, &r.DateStart, &r.DateEnd, &r.Status, &r.DeviceID, &r.UserID, &r.CreatedAt, &r.UpdatedAt,
		&d.ID, &d.Name, &d.Description, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt,
		&owner.ID, &owner.Username, &owner.FirstName, &owner.LastName, &owner.Email,
		&owner.CreatedAt, &owner.UpdatedAt,
		&creator.ID, &creator.Username, &creator.FirstName, &creator.LastName, &creator.Email,
		&creator.CreatedAt, &creator.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Owner = &owner
	r.Device = &d
	r.User = &creator
	return &r, nil
}

// GetReservationByID loads a reservation with device, device owner and creator joined.
// Returns apperror.ReservationNotFound on miss.
func (db *DB) GetReservationByID(ctx context.Context, id string) (*model.Reservation, error) {
	query, args, err := db.joinedReservations().
		Where(goqu.I("r.id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building reservation query: %w", err)
	}

	row := db.conn.QueryRowContext(ctx, query, args...)
	reservation, err := scanJoinedReservation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.ReservationNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting reservation %s: %w", id, err)
	}

	return reservation, nil
}

// UpdateReservationStatus persists a status transition.
func (db *DB) UpdateReservationStatus(ctx context.Context, reservation *model.Reservation) error {
	reservation.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		reservation.Status,
		reservation.UpdatedAt,
		reservation.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating reservation %s: %w", reservation.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ReservationNotFound(reservation.ID)
	}

	return nil
}

// ListIncomingForOwner returns reservations in a given status on devices
// owned by ownerUsername, the owner's incoming queue.
func (db *DB) ListIncomingForOwner(ctx context.Context, ownerUsername string, status model.Status) ([]model.Reservation, error) {
	return db.listJoined(ctx, goqu.I("o.username").Eq(ownerUsername), status)
}

// ListCreatedBy returns reservations in a given status created by the user,
// the user's outgoing reservations.
func (db *DB) ListCreatedBy(ctx context.Context, username string, status model.Status) ([]model.Reservation, error) {
	return db.listJoined(ctx, goqu.I("c.username").Eq(username), status)
}

func (db *DB) listJoined(ctx context.Context, who goqu.Expression, status model.Status) ([]model.Reservation, error) {
	query, args, err := db.joinedReservations().
		Where(who, goqu.I("r.status").Eq(string(status))).
		Order(goqu.I("r.created_at").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building reservation list query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reservations: %w", err)
	}
	defer rows.Close()

	reservations := []model.Reservation{}
	for rows.Next() {
		r, err := scanJoinedReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning reservation row: %w", err)
		}
		reservations = append(reservations, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reservations: %w", err)
	}

	return reservations, nil
}
