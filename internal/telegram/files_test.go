package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/pkg/logger"
)

type fileBot struct {
	fakeBot
	base string
}

func (b *fileBot) GetFileDirectURL(fileID string) (string, error) {
	return b.base + "/file/bot123:SECRET/photos/" + fileID + ".jpg", nil
}

func TestDownloader_Image(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "image-bytes:"+r.URL.Path)
	}))
	defer srv.Close()

	d := NewDownloader(time.Second, logger.NewNop())
	bot := &fileBot{base: srv.URL}

	asset, err := d.Image(context.Background(), bot, &tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "photos/large.jpg", asset.URI)
	assert.Equal(t, "image/jpg", asset.ContentType())

	rc, err := asset.Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "image-bytes:/file/bot123:SECRET/photos/large.jpg", string(data))

	doc, err := d.Image(context.Background(), bot, &tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "d1", FileName: "Family.PNG", MimeType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Family.PNG", doc.URI)
	assert.Equal(t, "image/png", doc.ContentType())
}

func TestDownloader_NoImage(t *testing.T) {
	d := NewDownloader(time.Second, logger.NewNop())

	_, err := d.Image(context.Background(), &fakeBot{}, &tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "d1", MimeType: "application/pdf"},
	})

	assert.ErrorIs(t, err, ErrNoImage)
}
