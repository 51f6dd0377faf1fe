package backend

import (
	"errors"
	"net/http"
	"time"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
)

// Operation names, used for logging and metrics.
const (
	OpLogin        = "login"
	OpSignup       = "signup"
	OpUpdateStatus = "update_status"
	OpCreateEvent  = "create_event"
	OpUpdateEvent  = "update_event"
	OpDeleteEvent  = "delete_event"
	OpEventStory   = "event_story"
	OpUploadPhoto  = "upload_photo"
	OpReplacePhoto = "replace_photo"
	OpTagPhoto     = "tag_photo"
)

// methodOverride makes the PHP backend treat a multipart POST as a PUT.
const methodOverride = "_method"

// LoginSubmission posts credentials as JSON.
func LoginSubmission(email, password string) mutation.Submission {
	return mutation.Submission{
		Operation: OpLogin,
		Method:    http.MethodPost,
		Path:      PathLogin,
		Fields: []mutation.Field{
			{Name: "email", Value: email, Required: true, Validate: mutation.Email},
			{Name: "password", Value: password, Required: true},
		},
	}
}

// SignupSubmission creates an account, with an optional profile photo.
func SignupSubmission(firstName, email, password string, photo *mutation.Asset) mutation.Submission {
	return mutation.Submission{
		Operation: OpSignup,
		Method:    http.MethodPost,
		Path:      PathUsers,
		Fields: []mutation.Field{
			{Name: "first_name", Value: firstName, Required: true},
			{Name: "email", Value: email, Required: true, Validate: mutation.Email},
			{Name: "password", Value: password, Required: true},
		},
		Multipart: true,
		Asset:     photo,
	}
}

// DecodeLogin extracts the identity from a login or signup reply. A reply
// whose status is not "success" is a rejection carrying the server message.
func DecodeLogin(req mutation.Submission, resp *fetcher.Response) (models.Identity, error) {
	var result models.LoginResult
	if err := fetcher.Decode(fetcher.Request{Method: req.Method, Path: req.Path}, resp, &result); err != nil {
		return "", err
	}
	if !result.Succeeded() {
		msg := result.Message
		if msg == "" {
			msg = "Invalid email or password"
		}
		return "", mutation.Reject(msg)
	}
	return result.UserID, nil
}

// UpdateStatusSubmission sets the user's presence status.
func UpdateStatusSubmission(id models.Identity, status models.Status) mutation.Submission {
	return mutation.Submission{
		Operation: OpUpdateStatus,
		Method:    http.MethodPut,
		Path:      PathUsers,
		JSON: map[string]string{
			"user_id": id.String(),
			"status":  string(status),
		},
	}
}

// EventDraft is the create-event form.
type EventDraft struct {
	Name        string
	Start       models.Timestamp
	End         models.Timestamp
	Location    string
	Description string
	Privacy     string
	RepeatRule  string
	Photo       *mutation.Asset
}

// CreateEventSubmission posts a new event as multipart; the backend answers 201.
func CreateEventSubmission(owner models.Identity, d EventDraft) mutation.Submission {
	privacy := d.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	repeat := d.RepeatRule
	if repeat == "" {
		repeat = models.RepeatNone
	}
	return mutation.Submission{
		Operation: OpCreateEvent,
		Method:    http.MethodPost,
		Path:      PathEvents,
		Fields: []mutation.Field{
			{Name: "event_name", Value: d.Name, Required: true},
			{Name: "start_time", Value: d.Start.Wire(), Required: true},
			{Name: "end_time", Value: d.End.Wire(), Required: true, Validate: notBefore(d.Start)},
			{Name: "location", Value: d.Location, Required: true},
			{Name: "description", Value: d.Description},
		},
		Extra: map[string]string{
			"privacy":      privacy,
			"repeat_event": repeat,
			"user":         owner.String(),
		},
		Multipart:    true,
		Asset:        d.Photo,
		ExpectStatus: http.StatusCreated,
	}
}

// UpdateEventSubmission replaces an event with the full record as JSON.
func UpdateEventSubmission(e models.Event) mutation.Submission {
	return mutation.Submission{
		Operation: OpUpdateEvent,
		Method:    http.MethodPut,
		Path:      PathEvents,
		Fields: []mutation.Field{
			{Name: "event_name", Value: e.Name, Required: true},
			{Name: "start_time", Value: e.StartTime.Wire(), Required: true},
			{Name: "end_time", Value: e.EndTime.Wire(), Required: true, Validate: notBefore(e.StartTime)},
			{Name: "location", Value: e.Location, Required: true},
		},
		JSON: map[string]any{
			"event_id":     e.ID,
			"event_name":   e.Name,
			"start_time":   e.StartTime.Wire(),
			"end_time":     e.EndTime.Wire(),
			"location":     e.Location,
			"description":  e.Description,
			"privacy":      e.Privacy,
			"repeat_event": e.RepeatRule,
		},
	}
}

// DeleteEventSubmission deletes one event.
func DeleteEventSubmission(id models.ID) mutation.Submission {
	return mutation.Submission{
		Operation: OpDeleteEvent,
		Method:    http.MethodDelete,
		Path:      PathEvents,
		JSON:      map[string]models.ID{"event_id": id},
	}
}

// EventStorySubmission attaches a story image to an event.
func EventStorySubmission(eventID models.ID, story mutation.Asset) mutation.Submission {
	return mutation.Submission{
		Operation: OpEventStory,
		Method:    http.MethodPost,
		Path:      PathEventStory,
		Extra: map[string]string{
			methodOverride: http.MethodPut,
			"event_id":     eventID.String(),
		},
		Asset: &story,
	}
}

// UploadPhotoSubmission uploads a new gallery photo.
func UploadPhotoSubmission(uploader models.Identity, photo mutation.Asset) mutation.Submission {
	return mutation.Submission{
		Operation: OpUploadPhoto,
		Method:    http.MethodPost,
		Path:      PathPhotoUpload,
		Extra:     map[string]string{"uploader": uploader.String()},
		Asset:     &photo,
	}
}

// DecodeUpload extracts the new photo id from an upload reply.
func DecodeUpload(req mutation.Submission, resp *fetcher.Response) (models.UploadResult, error) {
	var result models.UploadResult
	err := fetcher.Decode(fetcher.Request{Method: req.Method, Path: req.Path}, resp, &result)
	return result, err
}

// ReplacePhotoSubmission swaps the image of an existing photo.
func ReplacePhotoSubmission(photoID models.ID, photo mutation.Asset) mutation.Submission {
	return mutation.Submission{
		Operation: OpReplacePhoto,
		Method:    http.MethodPost,
		Path:      PathPhotoUpdate,
		Extra: map[string]string{
			methodOverride: http.MethodPut,
			"photo_id":     photoID.String(),
		},
		Asset: &photo,
	}
}

// AssociatePhotoSubmission tags user in photo.
func AssociatePhotoSubmission(photoID, user models.ID) mutation.Submission {
	return mutation.Submission{
		Operation: OpTagPhoto,
		Method:    http.MethodPost,
		Path:      PathPhotoUsers,
		JSON: map[string]models.ID{
			"photo": photoID,
			"user":  user,
		},
	}
}

// notBefore rejects an end time earlier than start.
func notBefore(start models.Timestamp) func(string) error {
	return func(value string) error {
		end, err := time.ParseInLocation(models.TimeLayout, value, time.Local)
		if err != nil {
			return err
		}
		if !start.IsZero() && end.Before(start.Time) {
			return errors.New("must not be before start_time")
		}
		return nil
	}
}
