package schedule

import (
	"sort"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

// span is a half-open interval in minutes since midnight.
type span struct {
	start, end int
}

func (s span) valid() bool { return s.end > s.start }

// toSpans parses clock windows into sorted, merged spans.
func toSpans(windows []model.ClockWindow) []span {
	spans := make([]span, 0, len(windows))
	for _, w := range windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.End)
		if err != nil {
			continue
		}
		if s := (span{start, end}); s.valid() {
			spans = append(spans, s)
		}
	}
	return mergeSpans(spans)
}

// mergeSpans sorts and coalesces overlapping or adjacent spans.
func mergeSpans(spans []span) []span {
	if len(spans) <= 1 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// subtractSpans removes every cut interval from the free list.
func subtractSpans(free []span, cuts []span) []span {
	if len(cuts) == 0 {
		return free
	}
	cuts = mergeSpans(append([]span(nil), cuts...))
	var out []span
	for _, f := range free {
		rest := []span{f}
		for _, c := range cuts {
			var next []span
			for _, r := range rest {
				if c.end <= r.start || c.start >= r.end {
					next = append(next, r)
					continue
				}
				if left := (span{r.start, min(c.start, r.end)}); left.valid() {
					next = append(next, left)
				}
				if right := (span{max(c.end, r.start), r.end}); right.valid() {
					next = append(next, right)
				}
			}
			rest = next
		}
		out = append(out, rest...)
	}
	return out
}

// intersectSpans keeps only the minutes present in both sorted span lists.
func intersectSpans(a, b []span) []span {
	var out []span
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		s := span{max(a[i].start, b[j].start), min(a[i].end, b[j].end)}
		if s.valid() {
			out = append(out, s)
		}
		if a[i].end < b[j].end {
			i++
		} else {
			j++
		}
	}
	return out
}

// busySpansForDay clips absolute busy intervals to the given date, expressed
// in day's location, and returns them as minute spans.
func busySpansForDay(day time.Time, busy []model.BusyInterval) []span {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var spans []span
	for _, b := range busy {
		start := b.Start
		end := b.End
		if !end.After(start) {
			continue
		}
		if !end.After(dayStart) || !dayEnd.After(start) {
			// Entirely outside this date.
			continue
		}
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		s := span{
			start: start.In(day.Location()).Hour()*60 + start.In(day.Location()).Minute(),
			end:   end.In(day.Location()).Hour()*60 + end.In(day.Location()).Minute(),
		}
		if end.Equal(dayEnd) {
			s.end = 24 * 60
		}
		if s.valid() {
			spans = append(spans, s)
		}
	}
	return mergeSpans(spans)
}

// EffectiveFree returns a member's free spans on the given date: declared
// windows minus busy time.
func EffectiveFree(day time.Time, d model.DayAvailability) []span {
	return subtractSpans(toSpans(d.Windows), busySpansForDay(day, d.BusyTimes))
}

// CommonWindows computes the windows on the given date during which every
// member is simultaneously free, net of busy time. A member with no
// availability entry for the date, or no free minutes, collapses the result
// to nothing. An empty member list yields nothing rather than "all day".
func CommonWindows(day time.Time, members []model.TeamMemberAvailability) []model.ClockWindow {
	if len(members) == 0 {
		return nil
	}
	key := day.Format(DateLayout)
	var common []span
	for i, m := range members {
		entry, ok := dayEntry(m, key)
		if !ok {
			return nil
		}
		free := EffectiveFree(day, entry)
		if len(free) == 0 {
			return nil
		}
		if i == 0 {
			common = free
			continue
		}
		common = intersectSpans(common, free)
		if len(common) == 0 {
			return nil
		}
	}
	windows := make([]model.ClockWindow, 0, len(common))
	for _, s := range common {
		windows = append(windows, model.ClockWindow{Start: FormatClock(s.start), End: FormatClock(s.end)})
	}
	return windows
}

// dayEntry finds the first availability entry for the date key. First match
// wins on duplicates; index building logs them (see weekview.go).
func dayEntry(m model.TeamMemberAvailability, key string) (model.DayAvailability, bool) {
	for _, d := range m.Availability {
		if d.Date == key {
			return d, true
		}
	}
	return model.DayAvailability{}, false
}
