package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a backend record identifier. The PHP backend emits ids either as JSON
// numbers or as numeric strings depending on the endpoint, so both decode.
type ID string

// Identity is the logged-in user's server-assigned identifier.
type Identity = ID

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the id as plain text.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// TimeLayout is the wall-clock format the backend uses for all timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp is a backend wall-clock time, interpreted in the local zone.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON parses TimeLayout, with RFC 3339 accepted as a fallback.
// Empty strings and null leave the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "0000-00-00 00:00:00" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes TimeLayout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Wire())
}

// Wire renders the timestamp in the backend layout.
func (t Timestamp) Wire() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.In(time.Local).Format(TimeLayout)
}
