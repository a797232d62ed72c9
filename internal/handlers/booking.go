package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bhanuc/aexy-availability/internal/availability"
	"github.com/bhanuc/aexy-availability/internal/cache"
	"github.com/bhanuc/aexy-availability/internal/model"
	"github.com/bhanuc/aexy-availability/internal/outbox"
	"github.com/bhanuc/aexy-availability/internal/schedule"
	"github.com/bhanuc/aexy-availability/internal/storage"
)

const defaultBookingMinutes = 60

type BookingHandler struct {
	repo       *storage.BookingRepository
	composer   *availability.Composer
	outboxRepo *outbox.Repository
	cache      *cache.WeekCache
	logger     *slog.Logger
}

func NewBookingHandler(repo *storage.BookingRepository, composer *availability.Composer, outboxRepo *outbox.Repository, weekCache *cache.WeekCache, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		composer:   composer,
		outboxRepo: outboxRepo,
		cache:      weekCache,
		logger:     logger,
	}
}

type createBookingRequest struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	EventName       string `json:"event_name"`
	InviteeName     string `json:"invitee_name"`
	InviteeEmail    string `json:"invitee_email"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createBookingResponse struct {
	BookingID string `json:"booking_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type cancelBookingRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type cancelBookingResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type bookingItem struct {
	BookingID   string `json:"booking_id"`
	EventName   string `json:"event_name"`
	InviteeName string `json:"invitee_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// parseSlotRef resolves a grid slot reference (date "yyyy-MM-dd", time
// "HH:mm") to the instant the slot starts, in loc.
func parseSlotRef(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(schedule.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := schedule.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}

// slotWithinWindows reports whether the half-open minute span [start, end)
// fits inside one of the merged windows.
func slotWithinWindows(start, end int, windows []model.ClockWindow) bool {
	for _, win := range windows {
		ws, err := schedule.ParseClock(win.Start)
		if err != nil {
			continue
		}
		we, err := schedule.ParseClock(win.End)
		if err != nil {
			continue
		}
		if ws <= start && end <= we {
			return true
		}
	}
	return false
}

// Create serves POST /api/v1/team/book: book the slot a grid cell click
// refers to. The slot must lie inside the team's common availability for
// that day; an Idempotency-Key header makes retries safe.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.EventName = strings.TrimSpace(req.EventName)
	req.InviteeName = strings.TrimSpace(req.InviteeName)
	req.InviteeEmail = strings.TrimSpace(req.InviteeEmail)
	if req.EventName == "" || req.InviteeName == "" {
		http.Error(w, "event_name and invitee_name required", http.StatusBadRequest)
		return
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultBookingMinutes
	}
	if duration < 0 || duration > 24*60 {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	loc, err := h.composer.Location(ctx, team)
	if err != nil {
		h.logger.Error("resolve team location failed", "err", err, "team_id", team)
		http.Error(w, "failed to load team", http.StatusInternalServerError)
		return
	}
	start, err := parseSlotRef(req.Date, req.Time, loc)
	if err != nil {
		http.Error(w, "invalid slot reference (want date yyyy-MM-dd, time HH:mm)", http.StatusBadRequest)
		return
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	booking := &model.Booking{
		TeamID:       team,
		EventName:    req.EventName,
		InviteeName:  req.InviteeName,
		InviteeEmail: req.InviteeEmail,
		StartTime:    start,
		EndTime:      end,
		Status:       "booked",
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, team, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	// Bookings may only land where every member is free: the same rule
	// that highlights the cell in the grid.
	av, err := h.composer.ComposeWeek(ctx, team, schedule.MondayOf(start))
	if err != nil {
		http.Error(w, "failed to compose availability", http.StatusInternalServerError)
		return
	}
	dateKey := start.Format(schedule.DateLayout)
	startMin := start.Hour()*60 + start.Minute()
	var windows []model.ClockWindow
	for _, slot := range av.OverlappingSlots {
		if slot.Date == dateKey {
			windows = slot.Windows
			break
		}
	}
	if !slotWithinWindows(startMin, startMin+duration, windows) {
		if idempotencyKey != "" {
			if err := h.repo.FinalizeIdempotency(ctx, tx, team, idempotencyKey, "", http.StatusUnprocessableEntity, nil); err == nil {
				_ = tx.Commit(ctx)
			}
		}
		http.Error(w, "slot is outside the team's common availability", http.StatusUnprocessableEntity)
		return
	}

	id, err := h.repo.Create(ctx, tx, booking)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":    id,
		"team_id":       team,
		"event_name":    booking.EventName,
		"invitee_name":  booking.InviteeName,
		"invitee_email": booking.InviteeEmail,
		"start_time":    start.UTC().Format(time.RFC3339),
		"end_time":      end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "team_booking",
		AggregateID:   id,
		EventType:     outbox.EventBookingCreated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createBookingResponse{
		BookingID: id,
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, team, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateTeam(ctx, team)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// Cancel serves POST /api/v1/team/bookings/cancel.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.BookingID == "" {
		http.Error(w, "booking_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetBookingForUpdate(ctx, tx, team, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.Status == "cancelled" {
		resp := cancelBookingResponse{BookingID: booking.ID, Status: booking.Status}
		if booking.CancelledAt != nil {
			resp.CancelledAt = booking.CancelledAt.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	cancelledAt, err := h.repo.CancelBooking(ctx, tx, team, req.BookingID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":   req.BookingID,
		"team_id":      team,
		"reason":       req.Reason,
		"cancelled_at": cancelledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "team_booking",
		AggregateID:   req.BookingID,
		EventType:     outbox.EventBookingCancelled,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	h.cache.InvalidateTeam(ctx, team)

	writeJSON(w, http.StatusOK, cancelBookingResponse{
		BookingID:   req.BookingID,
		Status:      "cancelled",
		CancelledAt: cancelledAt.UTC().Format(time.RFC3339),
	})
}

// List serves GET /api/v1/team/bookings.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	team := teamID(r)
	if team == "" {
		http.Error(w, "missing X-Team-Id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bookings, err := h.repo.ListByTeam(r.Context(), team, limit)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := bookingItem{
			BookingID:   b.ID,
			EventName:   b.EventName,
			InviteeName: b.InviteeName,
			StartTime:   b.StartTime.UTC().Format(time.RFC3339),
			EndTime:     b.EndTime.UTC().Format(time.RFC3339),
			Status:      b.Status,
			CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if b.CancelledAt != nil {
			item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": items})
}
