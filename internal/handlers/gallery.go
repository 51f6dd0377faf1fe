package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

// GalleryHandler lists the photos shared with the user.
type GalleryHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(svc *service.Service, logger *logrus.Logger) *GalleryHandler {
	return &GalleryHandler{svc: svc, logger: logger}
}

// Handle processes the /gallery command.
func (h *GalleryHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	photos, err := h.svc.EnsureSession(message.Chat.ID).Gallery(context.Background())
	if err != nil && photos == nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	var sb strings.Builder
	if err != nil {
		sb.WriteString(failureText(err) + "\n_Showing the last loaded photos._\n\n")
	}
	if len(photos) == 0 {
		sb.WriteString("🖼 *No photos yet!*\n\nSend a photo with the caption /upload to add one.")
		return send(bot, message.Chat.ID, sb.String())
	}

	sb.WriteString("🖼 *Gallery:*\n\n")
	for _, p := range photos {
		line := fmt.Sprintf("• *#%s* [%s](%s)", p.ID, esc(p.Filename), p.URL)
		if !p.UploadDate.IsZero() {
			line += " " + p.UploadDate.Format("02 Jan 2006")
		}
		sb.WriteString(line + "\n")
	}
	return send(bot, message.Chat.ID, sb.String())
}

// UploadHandler uploads the attached photo and tags family members.
type UploadHandler struct {
	svc        *service.Service
	downloader *telegram.Downloader
	logger     *logrus.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(svc *service.Service, downloader *telegram.Downloader, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{svc: svc, downloader: downloader, logger: logger}
}

// Handle processes the /upload caption. Arguments are member ids to tag.
func (h *UploadHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess := h.svc.EnsureSession(message.Chat.ID)
	if _, err := sess.Identity(ctx); err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	tagged := make([]models.ID, 0, len(args))
	for _, arg := range args {
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimPrefix(strings.TrimSpace(id), "#"); id != "" {
				tagged = append(tagged, models.ID(id))
			}
		}
	}

	asset, err := h.downloader.Image(ctx, bot, message)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	report, outcome, err := sess.UploadPhoto(ctx, asset, tagged)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to upload the photo."))
	}

	text := fmt.Sprintf("📸 *Photo uploaded!* (#%s)", report.PhotoID)
	if len(report.Tagged) > 0 {
		text += "\nTagged: " + joinIDs(report.Tagged)
	}
	if len(report.Failed) > 0 {
		text += "\n⚠️ Could not tag: " + joinIDs(report.Failed)
	}
	return send(bot, message.Chat.ID, text)
}

func joinIDs(ids []models.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + id.String()
	}
	return strings.Join(parts, ", ")
}

// ReplaceHandler replaces the image of an existing photo.
type ReplaceHandler struct {
	svc        *service.Service
	downloader *telegram.Downloader
	logger     *logrus.Logger
}

// NewReplaceHandler creates a new ReplaceHandler.
func NewReplaceHandler(svc *service.Service, downloader *telegram.Downloader, logger *logrus.Logger) *ReplaceHandler {
	return &ReplaceHandler{svc: svc, downloader: downloader, logger: logger}
}

// Handle processes the /replace caption.
func (h *ReplaceHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ Send a photo with the caption `/replace <photo id>`.")
	}

	ctx := context.Background()
	sess := h.svc.EnsureSession(message.Chat.ID)
	if _, err := sess.Identity(ctx); err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	asset, err := h.downloader.Image(ctx, bot, message)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	outcome, err := sess.ReplacePhoto(ctx, models.ID(strings.TrimPrefix(args[0], "#")), asset)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to replace the photo."))
	}
	return send(bot, message.Chat.ID, "🔁 Photo replaced!")
}
