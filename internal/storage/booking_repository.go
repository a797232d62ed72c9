package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bhanuc/aexy-availability/internal/model"
	"github.com/bhanuc/aexy-availability/libs/db"
)

// BookingRepository stores team bookings plus the idempotency keys guarding
// their creation.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

type IdempotencyRecord struct {
	TeamID          string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

// LockIdempotencyKey claims the key row under the transaction. The bool is
// true when a prior attempt already exists.
func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, teamID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, teamID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (team_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (team_id, idempotency_key) DO NOTHING
	`, teamID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, teamID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, teamID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := tx.QueryRow(ctx, `
		SELECT team_id::text, idempotency_key, COALESCE(booking_id::text, ''), COALESCE(status_code, 0), COALESCE(response_payload, '')
		FROM booking_idempotency_keys
		WHERE team_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, teamID, key).Scan(&rec.TeamID, &rec.IdempotencyKey, &rec.BookingID, &rec.StatusCode, &rec.ResponsePayload)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	return rec, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, teamID, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = NULLIF($3, '')::uuid,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE team_id = $1 AND idempotency_key = $2
	`, teamID, key, bookingID, statusCode, response)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO team_bookings
			(team_id, event_name, invitee_name, invitee_email, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.TeamID, b.EventName, b.InviteeName, b.InviteeEmail, b.StartTime, b.EndTime, b.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, teamID, bookingID string) (model.Booking, error) {
	var b model.Booking
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id::text, team_id::text, event_name, invitee_name, invitee_email,
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM team_bookings
		WHERE id = $1 AND team_id = $2
		FOR UPDATE
	`, bookingID, teamID).Scan(
		&b.ID,
		&b.TeamID,
		&b.EventName,
		&b.InviteeName,
		&b.InviteeEmail,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&cancelledAt,
		&b.CancelReason,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.CancelledAt = cancelledAt
	return b, nil
}

func (r *BookingRepository) CancelBooking(ctx context.Context, tx pgx.Tx, teamID, bookingID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE team_bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND team_id = $2
		RETURNING cancelled_at
	`, bookingID, teamID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListInRange returns booked (not cancelled) bookings overlapping
// [start, end), ordered by start time. Feeds the week-view composition.
func (r *BookingRepository) ListInRange(ctx context.Context, teamID string, start, end time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, team_id::text, event_name, invitee_name, invitee_email,
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM team_bookings
		WHERE team_id = $1
			AND status = 'booked'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
	`, teamID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *BookingRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, team_id::text, event_name, invitee_name, invitee_email,
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
		FROM team_bookings
		WHERE team_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var cancelledAt *time.Time
		if err := rows.Scan(
			&b.ID,
			&b.TeamID,
			&b.EventName,
			&b.InviteeName,
			&b.InviteeEmail,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&cancelledAt,
			&b.CancelReason,
			&b.CreatedAt,
		); err != nil {
			return nil, err
		}
		b.CancelledAt = cancelledAt
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
