package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/pkg/logger"
)

func newTestBackend(t *testing.T, mux *http.ServeMux) (*Client, *fetcher.Client) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := fetcher.New(fetcher.Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil, logger.NewNop())
	return NewClient(f, logger.NewNop()), f
}

func TestClient_ListEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathEvents, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("user"))
		_, _ = io.WriteString(w, `[
			{"event_id":1,"event_name":"Picnic","start_time":"2026-10-20 10:00:00","end_time":"2026-10-20 12:00:00","location":"Park","privacy":"Private","repeat_event":"Weekly","user":"42"},
			{"event_id":"2","event_name":"Dinner","start_time":"2026-10-21 18:00:00","end_time":"2026-10-21 20:00:00","location":"Home","user":7}
		]`)
	})
	client, _ := newTestBackend(t, mux)

	events, err := client.ListEvents(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.ID("1"), events[0].ID)
	assert.Equal(t, "Weekly", events[0].RepeatRule)
	assert.Equal(t, models.ID("7"), events[1].OwnerID)
}

func TestClient_ListEventsRejectsMalformed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathEvents, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"event_name":"no id","end_time":"2026-10-20 12:00:00"}]`)
	})
	client, _ := newTestBackend(t, mux)

	_, err := client.ListEvents(context.Background(), "42")

	kind, _ := fetcher.KindOf(err)
	assert.Equal(t, fetcher.KindDecode, kind)
}

func TestClient_Profile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathUsers, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("user_id") {
		case "42":
			_, _ = io.WriteString(w, `[{"user_id":42,"first_name":"Jesse","status":"Occupied","icon":"jesse.png"}]`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	})
	client, _ := newTestBackend(t, mux)

	profile, err := client.Profile(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jesse", profile.FirstName)
	assert.Equal(t, models.StatusOccupied, profile.Status)

	missing, err := client.Profile(context.Background(), "9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_PhotosAndFamily(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathPhotos, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("user_id"))
		_, _ = io.WriteString(w, `[{"photo_id":3,"filename":"a.jpg","upload_date":"2026-10-01 09:00:00","uploader":42}]`)
	})
	mux.HandleFunc(PathFamily, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("user"))
		_, _ = io.WriteString(w, `[{"user_id":42,"name":"Jesse","icon":"j.png"},{"user_id":7,"name":"Sam","icon":""}]`)
	})
	client, _ := newTestBackend(t, mux)

	photos, err := client.ListPhotos(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "a.jpg", photos[0].Filename)

	family, err := client.ListFamily(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, family, 2)
}

func TestClient_PhotoExists(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "missing", body: `[{"Photo":"Does not exist"}]`, want: false},
		{name: "present", body: `[{"Photo":"family.jpg"}]`, want: true},
		{name: "empty", body: `[]`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc(PathPhotoUsers, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "42,7", r.URL.Query().Get("users"))
				_, _ = io.WriteString(w, tt.body)
			})
			client, _ := newTestBackend(t, mux)

			got, err := client.PhotoExists(context.Background(), []models.ID{"42", "7"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
