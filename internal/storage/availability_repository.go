package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bhanuc/aexy-availability/libs/db"
)

// AvailabilityRepository owns the durable availability model: team profiles,
// members, recurring weekly windows, and absolute time-off intervals.
type AvailabilityRepository struct {
	pool *db.Pool
}

func NewAvailabilityRepository(pool *db.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// Begin opens a transaction so write paths can record outbox events
// atomically with the state change.
func (r *AvailabilityRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

type TeamProfile struct {
	TeamID   string
	Name     string
	Timezone string
}

func (r *AvailabilityRepository) GetOrCreateProfile(ctx context.Context, teamID string) (TeamProfile, error) {
	// Create a default profile if missing so a new team renders an empty
	// calendar instead of erroring.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_profiles (team_id)
		VALUES ($1)
		ON CONFLICT (team_id) DO NOTHING
	`, teamID)
	if err != nil {
		return TeamProfile{}, err
	}

	var p TeamProfile
	err = r.pool.QueryRow(ctx, `
		SELECT team_id::text, name, timezone
		FROM team_profiles
		WHERE team_id = $1
	`, teamID).Scan(&p.TeamID, &p.Name, &p.Timezone)
	return p, err
}

func (r *AvailabilityRepository) UpdateProfile(ctx context.Context, teamID, name, timezone string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_profiles (team_id, name, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id) DO UPDATE
		SET name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			updated_at = now()
	`, teamID, name, timezone)
	return err
}

type Member struct {
	ID          string
	TeamID      string
	DisplayName string
	Email       string
	SortOrder   int
	IsActive    bool
}

func (r *AvailabilityRepository) CreateMember(ctx context.Context, teamID, displayName, email string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (id, team_id, display_name, email, sort_order)
		VALUES ($1, $2, $3, $4,
			COALESCE((SELECT MAX(sort_order) + 1 FROM team_members WHERE team_id = $2), 0))
	`, id, teamID, displayName, email)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListMembers returns active members in display order. That order drives
// color assignment in the week view, so it must be stable.
func (r *AvailabilityRepository) ListMembers(ctx context.Context, teamID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, team_id::text, display_name, email, sort_order, is_active
		FROM team_members
		WHERE team_id = $1 AND is_active
		ORDER BY sort_order, id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.TeamID, &m.DisplayName, &m.Email, &m.SortOrder, &m.IsActive); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// GetMember returns the member only when it belongs to the team.
func (r *AvailabilityRepository) GetMember(ctx context.Context, teamID, memberID string) (Member, error) {
	var m Member
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, team_id::text, display_name, email, sort_order, is_active
		FROM team_members
		WHERE id = $1 AND team_id = $2
	`, memberID, teamID).Scan(&m.ID, &m.TeamID, &m.DisplayName, &m.Email, &m.SortOrder, &m.IsActive)
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

// WeeklyWindow is one recurring availability window: weekday is 0=Monday ..
// 6=Sunday, minutes are since midnight in the team's timezone.
type WeeklyWindow struct {
	Weekday     int
	StartMinute int
	EndMinute   int
}

func (r *AvailabilityRepository) ListWindows(ctx context.Context, memberID string) ([]WeeklyWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_minute, end_minute
		FROM member_windows
		WHERE member_id = $1
		ORDER BY weekday, start_minute
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeeklyWindow
	for rows.Next() {
		var w WeeklyWindow
		if err := rows.Scan(&w.Weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ReplaceWindows swaps a member's full weekly window set under the caller's
// transaction.
func (r *AvailabilityRepository) ReplaceWindows(ctx context.Context, tx pgx.Tx, memberID string, windows []WeeklyWindow) error {
	if _, err := tx.Exec(ctx, `DELETE FROM member_windows WHERE member_id = $1`, memberID); err != nil {
		return err
	}
	for _, w := range windows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO member_windows (member_id, weekday, start_minute, end_minute)
			VALUES ($1, $2, $3, $4)
		`, memberID, w.Weekday, w.StartMinute, w.EndMinute); err != nil {
			return err
		}
	}
	return nil
}

type TimeOff struct {
	ID        string
	MemberID  string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
	CreatedAt time.Time
}

func (r *AvailabilityRepository) CreateTimeOff(ctx context.Context, tx pgx.Tx, memberID string, start, end time.Time, reason string) (string, error) {
	id := uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO member_time_off (id, member_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, memberID, start, end, reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListTimeOff returns a member's blackout intervals overlapping [from, to).
func (r *AvailabilityRepository) ListTimeOff(ctx context.Context, memberID string, from, to time.Time, limit int) ([]TimeOff, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, member_id::text, start_time, end_time, COALESCE(reason, ''), created_at
		FROM member_time_off
		WHERE member_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time
		LIMIT $4
	`, memberID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeOff
	for rows.Next() {
		var t TimeOff
		if err := rows.Scan(&t.ID, &t.MemberID, &t.StartTime, &t.EndTime, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *AvailabilityRepository) DeleteTimeOff(ctx context.Context, tx pgx.Tx, memberID, timeOffID string) error {
	tag, err := tx.Exec(ctx, `
		DELETE FROM member_time_off
		WHERE id = $1 AND member_id = $2
	`, timeOffID, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
