package models

import (
	"errors"
	"strings"
	"time"
)

// Event represents a family calendar event as served by /event.php.
type Event struct {
	ID          ID        `json:"event_id"`
	Name        string    `json:"event_name"`
	StartTime   Timestamp `json:"start_time"`
	EndTime     Timestamp `json:"end_time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Privacy     string    `json:"privacy"`      // opaque, passed through
	RepeatRule  string    `json:"repeat_event"` // opaque, passed through
	OwnerID     ID        `json:"user"`
	Story       string    `json:"story,omitempty"`
}

// Privacy and repeat values offered by the event form.
const (
	PrivacyPublic  = "Not Private"
	PrivacyPrivate = "Private"

	RepeatNone = "No Repeat"
)

// Validate rejects records that cannot be keyed or placed on a timeline.
func (e Event) Validate() error {
	if e.ID.IsZero() {
		return errors.New("event without event_id")
	}
	if e.EndTime.IsZero() {
		return errors.New("event " + e.ID.String() + " without end_time")
	}
	return nil
}

// Key returns the primary key used for reconciliation.
func (e Event) Key() ID {
	return e.ID
}

// End returns the event end time.
func (e Event) End() time.Time {
	return e.EndTime.Time
}

// IsOngoing returns true if the event is happening at now
func (e Event) IsOngoing(now time.Time) bool {
	return !now.Before(e.StartTime.Time) && !now.After(e.EndTime.Time)
}

// StoryURL returns the story image URL, or "" when the event has none.
func (e Event) StoryURL(uploadsBase string) string {
	if strings.TrimSpace(e.Story) == "" {
		return ""
	}
	return JoinURL(uploadsBase, e.Story)
}

// JoinURL concatenates a base URL and a file name with exactly one slash.
func JoinURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(name, "/")
}
