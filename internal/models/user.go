package models

import "errors"

// Profile is the user row served by GET /api.php.
type Profile struct {
	UserID    ID     `json:"user_id"`
	FirstName string `json:"first_name"`
	Status    Status `json:"status"`
	Icon      string `json:"icon,omitempty"`
}

// Validate requires a name to greet the user with.
func (p Profile) Validate() error {
	if p.FirstName == "" {
		return errors.New("profile without first_name")
	}
	return nil
}

// LoginResult is the body returned by /login.php and by signup.
type LoginResult struct {
	Status  string `json:"status"`
	UserID  ID     `json:"user_id"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the backend accepted the credentials.
func (r LoginResult) Succeeded() bool {
	return r.Status == "success" && !r.UserID.IsZero()
}

// Validate requires a status field.
func (r LoginResult) Validate() error {
	if r.Status == "" {
		return errors.New("login response without status")
	}
	return nil
}
