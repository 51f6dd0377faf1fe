package models

import "errors"

// FamilyMember represents a user related to the current identity through a
// family group held server-side.
type FamilyMember struct {
	UserID ID     `json:"user_id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
}

// Validate requires the member id.
func (m FamilyMember) Validate() error {
	if m.UserID.IsZero() {
		return errors.New("family member without user_id")
	}
	return nil
}

// Key returns the member's user id.
func (m FamilyMember) Key() ID {
	return m.UserID
}

// IconURL builds the member's icon URL, or "" when no icon is set.
func (m FamilyMember) IconURL(uploadsBase string) string {
	if m.Icon == "" {
		return ""
	}
	return JoinURL(uploadsBase, m.Icon)
}

// DisplayName returns the best display name for the member
func (m FamilyMember) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return "#" + m.UserID.String()
}
