package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
)

// Backend endpoints, relative to the API base URL.
const (
	PathLogin       = "/login.php"
	PathUsers       = "/api.php"
	PathEvents      = "/event.php"
	PathEventStory  = "/update_event.php"
	PathPhotos      = "/photo.php"
	PathPhotoUpload = "/upload_photo_user.php"
	PathPhotoUpdate = "/update_photo.php"
	PathFamily      = "/family.php"
	PathPhotoUsers  = "/photo_users.php"
)

// Fetcher is the subset of *fetcher.Client used for reads.
type Fetcher interface {
	DoJSON(ctx context.Context, req fetcher.Request, out any) error
}

// Client provides typed reads against the InSync REST backend. Writes are
// described by the Submission builders in submissions.go.
type Client struct {
	fetcher Fetcher
	logger  *logrus.Logger
}

// NewClient creates a backend client.
func NewClient(f Fetcher, logger *logrus.Logger) *Client {
	return &Client{fetcher: f, logger: logger}
}

// Profile returns the profile row of user id.
func (c *Client) Profile(ctx context.Context, id models.Identity) (*models.Profile, error) {
	var rows []models.Profile
	err := c.fetcher.DoJSON(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   PathUsers,
		Query:  url.Values{"user_id": {id.String()}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListEvents returns every event visible to user id.
func (c *Client) ListEvents(ctx context.Context, id models.Identity) ([]models.Event, error) {
	var events []models.Event
	err := c.fetcher.DoJSON(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   PathEvents,
		Query:  url.Values{"user": {id.String()}},
	}, &events)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListPhotos returns the photos user id is tagged in or uploaded.
func (c *Client) ListPhotos(ctx context.Context, id models.Identity) ([]models.Photo, error) {
	var photos []models.Photo
	err := c.fetcher.DoJSON(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   PathPhotos,
		Query:  url.Values{"user_id": {id.String()}},
	}, &photos)
	if err != nil {
		return nil, err
	}
	return photos, nil
}

// ListFamily returns the family members of user id, including the user.
func (c *Client) ListFamily(ctx context.Context, id models.Identity) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	err := c.fetcher.DoJSON(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   PathFamily,
		Query:  url.Values{"user": {id.String()}},
	}, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// PhotoExists asks whether a photo shared by exactly userIDs already exists.
func (c *Client) PhotoExists(ctx context.Context, userIDs []models.ID) (bool, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	var rows []models.PhotoLookup
	err := c.fetcher.DoJSON(ctx, fetcher.Request{
		Method: http.MethodGet,
		Path:   PathPhotoUsers,
		Query:  url.Values{"users": {strings.Join(ids, ",")}},
	}, &rows)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Exists() {
			return true, nil
		}
	}
	return false, nil
}
