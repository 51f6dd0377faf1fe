package backend

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
)

func TestDecodeLogin(t *testing.T) {
	sub := LoginSubmission("a@b.co", "pw")

	tests := []struct {
		name       string
		body       string
		wantID     models.Identity
		wantReject string
		wantDecode bool
	}{
		{name: "success", body: `{"status":"success","user_id":42}`, wantID: "42"},
		{name: "failure with message", body: `{"status":"error","message":"Invalid password"}`, wantReject: "Invalid password"},
		{name: "failure without message", body: `{"status":"error"}`, wantReject: "Invalid email or password"},
		{name: "no status", body: `{"user_id":42}`, wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := DecodeLogin(sub, &fetcher.Response{Status: http.StatusOK, Body: []byte(tt.body)})

			switch {
			case tt.wantReject != "":
				var rejected *mutation.RejectedError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, tt.wantReject, rejected.Message)
			case tt.wantDecode:
				kind, _ := fetcher.KindOf(err)
				assert.Equal(t, fetcher.KindDecode, kind)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestCreateEventSubmission(t *testing.T) {
	start := models.NewTimestamp(time.Date(2026, 10, 20, 10, 0, 0, 0, time.Local))
	end := models.NewTimestamp(time.Date(2026, 10, 20, 12, 0, 0, 0, time.Local))

	sub := CreateEventSubmission("42", EventDraft{Name: "Picnic", Start: start, End: end, Location: "Park"})

	assert.Equal(t, http.StatusCreated, sub.ExpectStatus)
	assert.True(t, sub.Multipart)
	assert.Equal(t, "42", sub.Extra["user"])
	assert.Equal(t, models.PrivacyPublic, sub.Extra["privacy"])
	assert.Equal(t, models.RepeatNone, sub.Extra["repeat_event"])
	assert.NoError(t, mutation.ValidateFields(sub.Fields))

	for _, f := range sub.Fields {
		if f.Name == "start_time" {
			assert.Equal(t, "2026-10-20 10:00:00", f.Value)
		}
	}

	empty := CreateEventSubmission("42", EventDraft{})
	var verr *mutation.ValidationError
	require.ErrorAs(t, mutation.ValidateFields(empty.Fields), &verr)
	assert.Len(t, verr.Problems(), 4)
}

func TestPhotoReplaceUsesMethodOverride(t *testing.T) {
	sub := ReplacePhotoSubmission("9", mutation.Asset{URI: "new.png"})

	assert.Equal(t, http.MethodPost, sub.Method)
	assert.Equal(t, "PUT", sub.Extra["_method"])
	assert.Equal(t, "9", sub.Extra["photo_id"])

	story := EventStorySubmission("5", mutation.Asset{URI: "story.jpg"})
	assert.Equal(t, PathEventStory, story.Path)
	assert.Equal(t, "PUT", story.Extra["_method"])
	assert.Equal(t, "5", story.Extra["event_id"])
}
