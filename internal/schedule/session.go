// Package schedule implements the conference session data engine: the
// in-memory session store, the search index, the filter pipeline, the
// refresh diff, and day-bucketed grouping. Everything here is presentation
// agnostic; the TUI and CLI consume its outputs.
package schedule

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/asheshgoplani/conf-deck/internal/logging"
)

var engineLog = logging.ForComponent(logging.CompEngine)

// Speaker is one presenter of a session. Order within a session is
// meaningful and preserved from the source payload.
type Speaker struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Room is the location a session slot is assigned to.
type Room struct {
	Name string `json:"name"`
}

// Session is one scheduled talk or event. A session is immutable once
// installed; refreshes replace the whole list rather than patching fields.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Track       string    `json:"track,omitempty"`
	SlotStart   time.Time `json:"slot_start"`
	SlotEnd     time.Time `json:"slot_end"`
	SlotRoom    *Room     `json:"slot_room,omitempty"`
	Speakers    []Speaker `json:"speakers,omitempty"`

	// Optional resource links
	Presentation string `json:"presentation,omitempty"`
	Slides       string `json:"slides,omitempty"`
}

// RoomName returns the room name or "" when no room is assigned.
func (s *Session) RoomName() string {
	if s.SlotRoom == nil {
		return ""
	}
	return s.SlotRoom.Name
}

// Live reports whether the session's time slot contains now.
func (s *Session) Live(now time.Time) bool {
	return !s.SlotStart.After(now) && !s.SlotEnd.Before(now)
}

// Equal performs deep field-wise comparison against other. Speaker order is
// significant. This is deliberately structural, not serialized-text based,
// so key-order artifacts in a payload can never register as a change.
func (s *Session) Equal(other *Session) bool {
	if s.ID != other.ID ||
		s.Title != other.Title ||
		s.Description != other.Description ||
		s.Track != other.Track ||
		!s.SlotStart.Equal(other.SlotStart) ||
		!s.SlotEnd.Equal(other.SlotEnd) ||
		s.Presentation != other.Presentation ||
		s.Slides != other.Slides {
		return false
	}
	if (s.SlotRoom == nil) != (other.SlotRoom == nil) {
		return false
	}
	if s.SlotRoom != nil && s.SlotRoom.Name != other.SlotRoom.Name {
		return false
	}
	if len(s.Speakers) != len(other.Speakers) {
		return false
	}
	for i := range s.Speakers {
		if s.Speakers[i] != other.Speakers[i] {
			return false
		}
	}
	return true
}

// ParseSessions decodes a schedule payload. Sessions missing an ID or a
// start time are skipped with a warning rather than failing the whole
// payload; optional fields decode to their zero values.
func ParseSessions(data []byte) ([]Session, error) {
	var raw []Session
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schedule: parse payload: %w", err)
	}

	sessions := make([]Session, 0, len(raw))
	for _, s := range raw {
		if s.ID == "" || s.SlotStart.IsZero() {
			engineLog.Warn("session_skipped",
				slog.String("id", s.ID),
				slog.String("title", s.Title))
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
