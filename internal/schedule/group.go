package schedule

import (
	"sort"
	"time"
)

// DayGroup is one calendar day's worth of sessions, sorted ascending by
// start time. Ties keep their relative input order.
type DayGroup struct {
	Label    string
	Sessions []Session
}

// Grouped is the output of one grouping pass. HasLive is a snapshot taken
// at grouping time, not a ticking flag; it refreshes only when grouping is
// recomputed.
type Grouped struct {
	Days    []DayGroup
	HasLive bool
}

// dayKeyFormat renders a calendar-day key: weekday + month + day. Two
// sessions share a bucket iff they fall on the same calendar day in loc.
const dayKeyFormat = "Mon Jan 2"

// DayLabel derives the day bucket label for t in the given location. The
// location is injected rather than read from the environment so grouping is
// deterministic across zones.
func DayLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayKeyFormat)
}

// Group buckets sessions by calendar day in loc, sorts each bucket by start
// time (stable), orders the buckets chronologically, and flags whether any
// session is live at now.
func Group(sessions []Session, now time.Time, loc *time.Location) Grouped {
	byLabel := make(map[string]int)
	var grouped Grouped

	for _, s := range sessions {
		label := DayLabel(s.SlotStart, loc)
		idx, ok := byLabel[label]
		if !ok {
			idx = len(grouped.Days)
			byLabel[label] = idx
			grouped.Days = append(grouped.Days, DayGroup{Label: label})
		}
		grouped.Days[idx].Sessions = append(grouped.Days[idx].Sessions, s)
		if s.Live(now) {
			grouped.HasLive = true
		}
	}

	sort.SliceStable(grouped.Days, func(i, j int) bool {
		return grouped.Days[i].Sessions[0].SlotStart.Before(grouped.Days[j].Sessions[0].SlotStart)
	})
	for i := range grouped.Days {
		sessions := grouped.Days[i].Sessions
		sort.SliceStable(sessions, func(a, b int) bool {
			return sessions[a].SlotStart.Before(sessions[b].SlotStart)
		})
	}

	return grouped
}
