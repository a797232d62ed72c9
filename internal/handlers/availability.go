// Package handlers exposes the availability and booking HTTP API. Every
// route is team-scoped via the X-Team-Id header.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bhanuc/aexy-availability/internal/availability"
	"github.com/bhanuc/aexy-availability/internal/cache"
	"github.com/bhanuc/aexy-availability/internal/outbox"
	"github.com/bhanuc/aexy-availability/internal/schedule"
	"github.com/bhanuc/aexy-availability/internal/storage"
)

type AvailabilityHandler struct {
	repo       *storage.AvailabilityRepository
	composer   *availability.Composer
	outboxRepo *outbox.Repository
	cache      *cache.WeekCache
	logger     *slog.Logger
}

func NewAvailabilityHandler(repo *storage.AvailabilityRepository, composer *availability.Composer, outboxRepo *outbox.Repository, weekCache *cache.WeekCache, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		repo:       repo,
		composer:   composer,
		outboxRepo: outboxRepo,
		cache:      weekCache,
		logger:     logger,
	}
}

func teamID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Team-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// resolveWeekStart parses the optional week_start query parameter and
// normalizes it to the Monday of its week in the team's location. Absent or
// blank means the current week.
func resolveWeekStart(raw string, now time.Time, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return schedule.MondayOf(now.In(loc)), true
	}
	d, err := time.ParseInLocation(schedule.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return schedule.MondayOf(d), true
}

// TeamAvailability serves GET /api/v1/team/availability: the raw weekly
// aggregate (per-member days, overlapping slots, bookings).
func (h *AvailabilityHandler) TeamAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	loc, err := h.composer.Location(ctx, team)
	if err != nil {
		h.logger.Error("resolve team location failed", "err", err, "team_id", team)
		http.Error(w, "failed to load team", http.StatusInternalServerError)
		return
	}
	weekStart, ok := resolveWeekStart(r.URL.Query().Get("week_start"), time.Now(), loc)
	if !ok {
		http.Error(w, "invalid week_start (want yyyy-MM-dd)", http.StatusBadRequest)
		return
	}

	av, err := h.composer.ComposeWeek(ctx, team, weekStart)
	if err != nil {
		h.logger.Error("compose week failed", "err", err, "team_id", team)
		http.Error(w, "failed to compose availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

// TeamWeek serves GET /api/v1/team/week: the fully rendered hourly grid for
// the requested week, the view model the calendar front end paints directly.
func (h *AvailabilityHandler) TeamWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	loc, err := h.composer.Location(ctx, team)
	if err != nil {
		h.logger.Error("resolve team location failed", "err", err, "team_id", team)
		http.Error(w, "failed to load team", http.StatusInternalServerError)
		return
	}
	weekStart, ok := resolveWeekStart(r.URL.Query().Get("week_start"), time.Now(), loc)
	if !ok {
		http.Error(w, "invalid week_start (want yyyy-MM-dd)", http.StatusBadRequest)
		return
	}

	av, err := h.composer.ComposeWeek(ctx, team, weekStart)
	if err != nil {
		h.logger.Error("compose week failed", "err", err, "team_id", team)
		http.Error(w, "failed to compose availability", http.StatusInternalServerError)
		return
	}

	view := schedule.NewWeekView(av, schedule.Options{
		Anchor:   weekStart,
		Location: loc,
		Logger:   h.logger,
	})
	writeJSON(w, http.StatusOK, view.Grid())
}

type profileResponse struct {
	TeamID   string `json:"team_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Profile serves GET and PUT /api/v1/team/profile.
func (h *AvailabilityHandler) Profile(w http.ResponseWriter, r *http.Request) {
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		p, err := h.repo.GetOrCreateProfile(ctx, team)
		if err != nil {
			http.Error(w, "failed to load profile", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{TeamID: p.TeamID, Name: p.Name, Timezone: p.Timezone})
	case http.MethodPut:
		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Timezone = strings.TrimSpace(req.Timezone)
		if req.Timezone == "" {
			req.Timezone = "UTC"
		}
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			http.Error(w, "invalid timezone", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdateProfile(ctx, team, req.Name, req.Timezone); err != nil {
			http.Error(w, "failed to update profile", http.StatusInternalServerError)
			return
		}
		h.cache.InvalidateTeam(ctx, team)
		writeJSON(w, http.StatusOK, profileResponse{TeamID: team, Name: req.Name, Timezone: req.Timezone})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type memberItem struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Color    string `json:"color"`
}

type createMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Members serves GET and POST /api/v1/team/members. The listed order drives
// palette assignment, so colors stay stable as long as the roster does.
func (h *AvailabilityHandler) Members(w http.ResponseWriter, r *http.Request) {
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		members, err := h.repo.ListMembers(ctx, team)
		if err != nil {
			http.Error(w, "failed to list members", http.StatusInternalServerError)
			return
		}
		items := make([]memberItem, 0, len(members))
		for i, m := range members {
			items = append(items, memberItem{
				MemberID: m.ID,
				Name:     m.DisplayName,
				Email:    m.Email,
				Color:    schedule.ColorFor(i),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": items})
	case http.MethodPost:
		var req createMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		id, err := h.repo.CreateMember(ctx, team, req.Name, req.Email)
		if err != nil {
			if storage.IsConflict(err) {
				http.Error(w, "member already exists", http.StatusConflict)
				return
			}
			http.Error(w, "failed to create member", http.StatusInternalServerError)
			return
		}
		h.cache.InvalidateTeam(ctx, team)
		writeJSON(w, http.StatusCreated, map[string]string{"member_id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type windowItem struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type replaceWindowsRequest struct {
	Windows []windowItem `json:"windows"`
}

// memberForTeam loads the member and enforces team ownership.
func (h *AvailabilityHandler) memberForTeam(ctx context.Context, w http.ResponseWriter, team, memberID string) (storage.Member, bool) {
	m, err := h.repo.GetMember(ctx, team, memberID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "member not found", http.StatusNotFound)
		} else {
			http.Error(w, "failed to load member", http.StatusInternalServerError)
		}
		return storage.Member{}, false
	}
	return m, true
}

// Windows serves GET and PUT /api/v1/members/windows?member_id=. Weekday 0
// is Monday; windows are half-open clock spans in the team's timezone.
func (h *AvailabilityHandler) Windows(w http.ResponseWriter, r *http.Request) {
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	memberID := strings.TrimSpace(r.URL.Query().Get("member_id"))
	if memberID == "" {
		http.Error(w, "member_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if _, ok := h.memberForTeam(ctx, w, team, memberID); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		windows, err := h.repo.ListWindows(ctx, memberID)
		if err != nil {
			http.Error(w, "failed to list windows", http.StatusInternalServerError)
			return
		}
		items := make([]windowItem, 0, len(windows))
		for _, win := range windows {
			items = append(items, windowItem{
				Weekday: win.Weekday,
				Start:   schedule.FormatClock(win.StartMinute),
				End:     schedule.FormatClock(win.EndMinute),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"windows": items})
	case http.MethodPut:
		var req replaceWindowsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		rows := make([]storage.WeeklyWindow, 0, len(req.Windows))
		for _, item := range req.Windows {
			if item.Weekday < 0 || item.Weekday > 6 {
				http.Error(w, "weekday out of range (0=Monday .. 6=Sunday)", http.StatusBadRequest)
				return
			}
			start, err := schedule.ParseClock(item.Start)
			if err != nil {
				http.Error(w, "invalid window start", http.StatusBadRequest)
				return
			}
			end, err := schedule.ParseClock(item.End)
			if err != nil {
				http.Error(w, "invalid window end", http.StatusBadRequest)
				return
			}
			if end <= start {
				http.Error(w, "window end must be after start", http.StatusBadRequest)
				return
			}
			rows = append(rows, storage.WeeklyWindow{Weekday: item.Weekday, StartMinute: start, EndMinute: end})
		}

		tx, err := h.repo.Begin(ctx)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := h.repo.ReplaceWindows(ctx, tx, memberID, rows); err != nil {
			http.Error(w, "failed to replace windows", http.StatusInternalServerError)
			return
		}
		if err := h.insertEvent(ctx, tx, outbox.EventMemberWindowsUpdated, "member", memberID, map[string]any{
			"team_id":   team,
			"member_id": memberID,
			"windows":   len(rows),
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(ctx); err != nil {
			http.Error(w, "failed to commit", http.StatusInternalServerError)
			return
		}
		h.cache.InvalidateTeam(ctx, team)
		writeJSON(w, http.StatusOK, map[string]int{"windows": len(rows)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type timeOffItem struct {
	TimeOffID string `json:"time_off_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

type createTimeOffRequest struct {
	MemberID  string `json:"member_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

type deleteTimeOffRequest struct {
	MemberID  string `json:"member_id"`
	TimeOffID string `json:"time_off_id"`
}

// TimeOff serves GET and POST /api/v1/members/timeoff. Intervals are
// absolute RFC 3339 instants, half-open.
func (h *AvailabilityHandler) TimeOff(w http.ResponseWriter, r *http.Request) {
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		memberID := strings.TrimSpace(r.URL.Query().Get("member_id"))
		if memberID == "" {
			http.Error(w, "member_id required", http.StatusBadRequest)
			return
		}
		if _, ok := h.memberForTeam(ctx, w, team, memberID); !ok {
			return
		}
		from, to, err := timeOffRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := h.repo.ListTimeOff(ctx, memberID, from, to, limit)
		if err != nil {
			http.Error(w, "failed to list time off", http.StatusInternalServerError)
			return
		}
		items := make([]timeOffItem, 0, len(entries))
		for _, t := range entries {
			items = append(items, timeOffItem{
				TimeOffID: t.ID,
				StartTime: t.StartTime.UTC().Format(time.RFC3339),
				EndTime:   t.EndTime.UTC().Format(time.RFC3339),
				Reason:    t.Reason,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"time_off": items})
	case http.MethodPost:
		var req createTimeOffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.MemberID = strings.TrimSpace(req.MemberID)
		if req.MemberID == "" {
			http.Error(w, "member_id required", http.StatusBadRequest)
			return
		}
		if _, ok := h.memberForTeam(ctx, w, team, req.MemberID); !ok {
			return
		}
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			http.Error(w, "invalid start_time", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			http.Error(w, "invalid end_time", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
			return
		}

		tx, err := h.repo.Begin(ctx)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback(ctx) }()

		id, err := h.repo.CreateTimeOff(ctx, tx, req.MemberID, start, end, strings.TrimSpace(req.Reason))
		if err != nil {
			http.Error(w, "failed to create time off", http.StatusInternalServerError)
			return
		}
		if err := h.insertEvent(ctx, tx, outbox.EventTimeOffCreated, "time_off", id, map[string]any{
			"team_id":     team,
			"member_id":   req.MemberID,
			"time_off_id": id,
			"start_time":  start.UTC().Format(time.RFC3339),
			"end_time":    end.UTC().Format(time.RFC3339),
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(ctx); err != nil {
			http.Error(w, "failed to commit", http.StatusInternalServerError)
			return
		}
		h.cache.InvalidateTeam(ctx, team)
		writeJSON(w, http.StatusCreated, map[string]string{"time_off_id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// DeleteTimeOff serves POST /api/v1/members/timeoff/delete.
func (h *AvailabilityHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	var req deleteTimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.MemberID = strings.TrimSpace(req.MemberID)
	req.TimeOffID = strings.TrimSpace(req.TimeOffID)
	if req.MemberID == "" || req.TimeOffID == "" {
		http.Error(w, "member_id and time_off_id required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if _, ok := h.memberForTeam(ctx, w, team, req.MemberID); !ok {
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.DeleteTimeOff(ctx, tx, req.MemberID, req.TimeOffID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "time off not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete time off", http.StatusInternalServerError)
		return
	}
	if err := h.insertEvent(ctx, tx, outbox.EventTimeOffDeleted, "time_off", req.TimeOffID, map[string]any{
		"team_id":     team,
		"member_id":   req.MemberID,
		"time_off_id": req.TimeOffID,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.cache.InvalidateTeam(ctx, team)
	writeJSON(w, http.StatusOK, map[string]string{"time_off_id": req.TimeOffID, "status": "deleted"})
}

func (h *AvailabilityHandler) insertEvent(ctx context.Context, tx pgx.Tx, eventType, aggregateType, aggregateID string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	})
}

var (
	errBadFrom = errors.New("invalid from (want RFC 3339)")
	errBadTo   = errors.New("invalid to (want RFC 3339)")
)

// timeOffRange reads the optional from/to query parameters, defaulting to a
// year around now.
func timeOffRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(1, 0, 0)
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errBadFrom
		}
		from = t
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errBadTo
		}
		to = t
	}
	return from, to, nil
}
