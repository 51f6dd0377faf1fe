package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/pkg/logger"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (i item) Validate() error {
	if i.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil, logger.NewNop())
}

func TestDoJSON_QueryAndDecode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/event.php", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("user"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = io.WriteString(w, `[{"id":"1","name":"a"},{"id":"2","name":"b"}]`)
	})

	var items []item
	err := client.DoJSON(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/event.php",
		Query:  url.Values{"user": {"42"}},
	}, &items)

	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDo_StatusErrorCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Event name required"}`)
	})

	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/event.php"})

	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindHTTPStatus, kind)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, "Event name required", MessageOf(err))
}

func TestDo_ExpectStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Do(context.Background(), Request{
		Method:       http.MethodPost,
		Path:         "/event.php",
		Form:         map[string]string{"event_name": "x"},
		ExpectStatus: http.StatusCreated,
	})

	assert.True(t, IsStatus(err, http.StatusOK))
}

func TestDo_PlainTextMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Database unavailable")
	})

	_, err := client.Do(context.Background(), Request{Path: "/api.php"})
	assert.Equal(t, "Database unavailable", MessageOf(err))
}

func TestDoJSON_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>oops</html>"},
		{name: "wrong shape", body: `{"id":"1"}`},
		{name: "invalid item", body: `[{"id":"1"},{"name":"no id"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			var items []item
			err := client.DoJSON(context.Background(), Request{Path: "/photo.php"}, &items)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, KindDecode, kind)
		})
	}
}

func TestDoJSON_ValidatesSingleValue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"name":"nameless"}`)
	})

	var out item
	err := client.DoJSON(context.Background(), Request{Path: "/x"}, &out)
	kind, _ := KindOf(err)
	assert.Equal(t, KindDecode, kind)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := New(Options{BaseURL: base, Timeout: time.Second}, nil, logger.NewNop())
	_, err := client.Do(context.Background(), Request{Path: "/event.php"})

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestDo_TimeoutIsNetwork(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, logger.NewNop())
	_, err := client.Do(context.Background(), Request{Path: "/event.php"})

	kind, _ := KindOf(err)
	assert.Equal(t, KindNetwork, kind)
}

func TestDo_JSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"event_id":"7"}`, string(body))
	})

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodDelete,
		Path:   "/event.php",
		JSON:   map[string]string{"event_id": "7"},
	})
	require.NoError(t, err)
}

func TestDo_Multipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "PUT", r.FormValue("_method"))
		assert.Equal(t, "9", r.FormValue("photo_id"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "beach.JPG", header.Filename)
		assert.Equal(t, "image/jpg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "jpeg-bytes", string(data))
	})

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/update_photo.php",
		Form:   map[string]string{"_method": "PUT", "photo_id": "9"},
		Files: []File{{
			Field:       "photo",
			Name:        "beach.JPG",
			ContentType: "image/jpg",
			Reader:      strings.NewReader("jpeg-bytes"),
		}},
	})
	require.NoError(t, err)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "bad", serverMessage([]byte(`{"message":"bad"}`)))
	assert.Equal(t, "worse", serverMessage([]byte(`{"error":"worse"}`)))
	assert.Equal(t, "", serverMessage([]byte(`[1,2]`)))
	assert.Equal(t, "", serverMessage([]byte(`<html></html>`)))
	assert.Equal(t, "", serverMessage(nil))
}
