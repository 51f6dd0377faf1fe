package models

import "errors"

// Photo represents a gallery photo. The public URL is never stored: it is
// derived from the file name and the configured uploads base on every read.
type Photo struct {
	ID                ID        `json:"photo_id"`
	Filename          string    `json:"filename"`
	UploadDate        Timestamp `json:"upload_date"`
	UploaderID        ID        `json:"uploader"`
	AssociatedUserIDs []ID      `json:"users,omitempty"`
}

// Validate rejects photos that have no file to point at.
func (p Photo) Validate() error {
	if p.Filename == "" {
		return errors.New("photo without filename")
	}
	return nil
}

// Key returns the photo id, or the file name for rows that lack one.
func (p Photo) Key() string {
	if !p.ID.IsZero() {
		return p.ID.String()
	}
	return p.Filename
}

// DerivedURL builds the public URL of the photo.
func (p Photo) DerivedURL(uploadsBase string) string {
	return JoinURL(uploadsBase, p.Filename)
}

// PhotoLookup is one row of the /photo_users.php existence check.
type PhotoLookup struct {
	Photo string `json:"Photo"`
}

// PhotoMissing is the sentinel the backend returns when no photo is shared
// by exactly the queried users.
const PhotoMissing = "Does not exist"

// Exists reports whether the lookup found a photo.
func (l PhotoLookup) Exists() bool {
	return l.Photo != "" && l.Photo != PhotoMissing
}

// UploadResult is the body returned by /upload_photo_user.php.
type UploadResult struct {
	PhotoID  ID     `json:"photo_id"`
	Filename string `json:"filename,omitempty"`
}

// Validate requires the new photo id.
func (r UploadResult) Validate() error {
	if r.PhotoID.IsZero() {
		return errors.New("upload response without photo_id")
	}
	return nil
}
