// Package availability assembles the TeamAvailability aggregate for a week:
// per-member day availability resolved from recurring windows and time off,
// server-computed overlapping slots, and the week's bookings.
package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bhanuc/aexy-availability/internal/cache"
	"github.com/bhanuc/aexy-availability/internal/model"
	"github.com/bhanuc/aexy-availability/internal/schedule"
	"github.com/bhanuc/aexy-availability/internal/storage"
)

type Composer struct {
	avail    *storage.AvailabilityRepository
	bookings *storage.BookingRepository
	cache    *cache.WeekCache
	logger   *slog.Logger
}

func NewComposer(avail *storage.AvailabilityRepository, bookings *storage.BookingRepository, weekCache *cache.WeekCache, logger *slog.Logger) *Composer {
	return &Composer{
		avail:    avail,
		bookings: bookings,
		cache:    weekCache,
		logger:   logger,
	}
}

// Location resolves the team's IANA timezone, falling back to UTC on a bad
// stored value.
func (c *Composer) Location(ctx context.Context, teamID string) (*time.Location, error) {
	profile, err := c.avail.GetOrCreateProfile(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load team profile: %w", err)
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		c.logger.Warn("invalid team timezone; using UTC", "team_id", teamID, "timezone", profile.Timezone)
		return time.UTC, nil
	}
	return loc, nil
}

// ComposeWeek builds the aggregate for the 7 days starting at weekStart,
// which must be midnight in the team's location. Results are cached per
// (team, week) and invalidated by the write paths.
func (c *Composer) ComposeWeek(ctx context.Context, teamID string, weekStart time.Time) (model.TeamAvailability, error) {
	weekKey := weekStart.Format(schedule.DateLayout)
	if cached, ok := c.cache.Get(ctx, teamID, weekKey); ok {
		return cached, nil
	}

	weekEnd := weekStart.AddDate(0, 0, 7)

	members, err := c.avail.ListMembers(ctx, teamID)
	if err != nil {
		return model.TeamAvailability{}, fmt.Errorf("list members: %w", err)
	}

	av := model.TeamAvailability{}
	for _, m := range members {
		dayAvail, err := c.memberWeek(ctx, m, weekStart, weekEnd)
		if err != nil {
			return model.TeamAvailability{}, err
		}
		av.Members = append(av.Members, model.TeamMemberAvailability{
			UserID:       m.ID,
			User:         model.MemberInfo{Name: m.DisplayName, Email: m.Email},
			Availability: dayAvail,
		})
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		windows := schedule.CommonWindows(day, av.Members)
		if len(windows) == 0 {
			continue
		}
		av.OverlappingSlots = append(av.OverlappingSlots, model.OverlappingSlot{
			Date:    day.Format(schedule.DateLayout),
			Windows: windows,
		})
	}

	booked, err := c.bookings.ListInRange(ctx, teamID, weekStart, weekEnd)
	if err != nil {
		return model.TeamAvailability{}, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range booked {
		av.Bookings = append(av.Bookings, b.Brief())
	}

	av.Normalize()
	c.cache.Set(ctx, teamID, weekKey, av)
	return av, nil
}

// memberWeek renders one member's recurring windows and time off into
// per-date entries for [weekStart, weekEnd).
func (c *Composer) memberWeek(ctx context.Context, m storage.Member, weekStart, weekEnd time.Time) ([]model.DayAvailability, error) {
	weekly, err := c.avail.ListWindows(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list windows for %s: %w", m.ID, err)
	}
	byWeekday := make(map[int][]model.ClockWindow)
	for _, w := range weekly {
		if w.EndMinute <= w.StartMinute {
			continue
		}
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], model.ClockWindow{
			Start: schedule.FormatClock(w.StartMinute),
			End:   schedule.FormatClock(w.EndMinute),
		})
	}

	timeOff, err := c.avail.ListTimeOff(ctx, m.ID, weekStart, weekEnd, 0)
	if err != nil {
		return nil, fmt.Errorf("list time off for %s: %w", m.ID, err)
	}

	var days []model.DayAvailability
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		weekday := (int(day.Weekday()) + 6) % 7 // 0=Monday .. 6=Sunday
		windows := byWeekday[weekday]
		if len(windows) == 0 {
			// No recurring availability that weekday: no entry, the grid
			// renders nothing for this member rather than an empty row.
			continue
		}
		entry := model.DayAvailability{
			Date:    day.Format(schedule.DateLayout),
			Windows: windows,
		}
		dayEnd := day.AddDate(0, 0, 1)
		for _, t := range timeOff {
			if t.StartTime.Before(dayEnd) && t.EndTime.After(day) {
				entry.BusyTimes = append(entry.BusyTimes, model.BusyInterval{
					Start: t.StartTime,
					End:   t.EndTime,
				})
			}
		}
		days = append(days, entry)
	}
	return days, nil
}
