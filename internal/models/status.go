package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is a presence value visible to family members.
type Status string

const (
	StatusChilling     Status = "Chilling"
	StatusOccupied     Status = "Occupied"
	StatusDoNotDisturb Status = "Do Not Disturb"
)

// Statuses lists the closed set of presence values.
var Statuses = []Status{StatusChilling, StatusOccupied, StatusDoNotDisturb}

// ParseStatus maps user input to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "chilling", "chill":
		return StatusChilling, nil
	case "occupied", "busy":
		return StatusOccupied, nil
	case "do not disturb", "dnd":
		return StatusDoNotDisturb, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// StatusState holds the manual status, the auto flag and the last derived
// status. Exactly one of them is effective at a time.
type StatusState struct {
	Manual  Status `json:"manual"`
	Auto    bool   `json:"auto"`
	Derived Status `json:"derived,omitempty"`
}

// Effective returns the status shown to family members.
func (s StatusState) Effective() Status {
	if s.Auto && s.Derived != "" {
		return s.Derived
	}
	if s.Manual == "" {
		return StatusChilling
	}
	return s.Manual
}

// DeriveStatus returns Occupied while any event is in progress at now and
// Chilling otherwise.
func DeriveStatus(events []Event, now time.Time) Status {
	for _, e := range events {
		if e.IsOngoing(now) {
			return StatusOccupied
		}
	}
	return StatusChilling
}
