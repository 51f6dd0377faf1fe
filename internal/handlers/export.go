package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/export"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

// ExportFileName is the name of the workbook sent by /export.
const ExportFileName = "insync-events.xlsx"

// ExportHandler sends the upcoming events as a spreadsheet.
type ExportHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(svc *service.Service, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// Handle processes the /export command.
func (h *ExportHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	events, err := h.svc.EnsureSession(message.Chat.ID).Events(context.Background())
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if len(events) == 0 {
		return send(bot, message.Chat.ID, "📅 No upcoming events to export.")
	}

	data, err := export.EventsWorkbook(events)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build events workbook")
		return send(bot, message.Chat.ID, "❌ Failed to build the spreadsheet.")
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{Name: ExportFileName, Bytes: data})
	doc.Caption = fmt.Sprintf("📅 %d upcoming events", len(events))
	if _, err := bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}
