package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/mutation"
)

// ErrNoImage is returned when a message carries no photo or image document.
var ErrNoImage = errors.New("message has no image attached")

// maxImageSize bounds downloaded attachments.
const maxImageSize = 20 << 20

// Downloader fetches message attachments from Telegram's file API.
type Downloader struct {
	http   *resty.Client
	logger *logrus.Logger
}

// NewDownloader creates a downloader with the given request timeout.
func NewDownloader(timeout time.Duration, logger *logrus.Logger) *Downloader {
	return &Downloader{
		http:   resty.New().SetTimeout(timeout).SetRetryCount(0).SetLogger(logger),
		logger: logger,
	}
}

// Image downloads the image attached to message: the largest photo size,
// or an image document. The asset URI is the Telegram file path, or the
// document's own file name, so its extension survives.
func (d *Downloader) Image(ctx context.Context, bot BotAPI, message *tgbotapi.Message) (mutation.Asset, error) {
	fileID, name := imageRef(message)
	if fileID == "" {
		return mutation.Asset{}, ErrNoImage
	}

	direct, err := bot.GetFileDirectURL(fileID)
	if err != nil {
		return mutation.Asset{}, fmt.Errorf("failed to resolve file: %w", err)
	}
	if name == "" {
		name = filePath(direct)
	}

	resp, err := d.http.R().SetContext(ctx).Get(direct)
	if err != nil {
		// The direct URL embeds the bot token, so only the file id is logged.
		d.logger.WithField("file_id", fileID).Warn("Failed to download attachment")
		return mutation.Asset{}, fmt.Errorf("failed to download attachment %s", fileID)
	}
	if resp.IsError() {
		return mutation.Asset{}, fmt.Errorf("failed to download attachment %s: status %d", fileID, resp.StatusCode())
	}
	data := resp.Body()
	if len(data) > maxImageSize {
		return mutation.Asset{}, fmt.Errorf("attachment is larger than %d MB", maxImageSize>>20)
	}

	d.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"name":    name,
		"bytes":   len(data),
	}).Debug("Downloaded attachment")

	return mutation.Asset{
		URI: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}

func imageRef(message *tgbotapi.Message) (fileID, name string) {
	if n := len(message.Photo); n > 0 {
		return message.Photo[n-1].FileID, ""
	}
	if doc := message.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		return doc.FileID, doc.FileName
	}
	return "", ""
}

// filePath strips the scheme, host and bot token from a direct file URL.
func filePath(direct string) string {
	u, err := url.Parse(direct)
	if err != nil {
		return path.Base(direct)
	}
	p := u.Path
	if i := strings.Index(p, "/file/bot"); i >= 0 {
		rest := p[i+len("/file/bot"):]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j+1:]
		}
	}
	return path.Base(p)
}
