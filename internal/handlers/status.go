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

// statusLabel renders the status the way the home screen shows it.
func statusLabel(s models.StatusState) string {
	if s.Auto {
		return fmt.Sprintf("Auto Status (%s)", s.Effective())
	}
	return string(s.Effective())
}

// StatusHandler handles /status [chilling|occupied|dnd|auto|manual]
type StatusHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.Service, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger}
}

const statusUsage = "*Usage:* `/status [chilling|occupied|dnd|auto|manual]`"

// Handle processes the /status command.
func (h *StatusHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	sess := h.svc.EnsureSession(message.Chat.ID)

	if len(args) == 0 {
		state, err := sess.LoadStatus(ctx)
		if err != nil {
			return send(bot, message.Chat.ID, failureText(err))
		}
		return send(bot, message.Chat.ID, fmt.Sprintf("🟢 Status: *%s*\n\n%s", esc(statusLabel(state)), statusUsage))
	}

	switch arg := strings.ToLower(strings.Join(args, " ")); arg {
	case "auto", "manual", "off":
		on := arg == "auto"
		status, outcome, err := sess.SetAutoStatus(ctx, on)
		if err != nil {
			return send(bot, message.Chat.ID, failureText(err))
		}
		if !outcome.OK() {
			return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to update your status."))
		}
		if on {
			return send(bot, message.Chat.ID, fmt.Sprintf("🔄 Auto status is on. You are *%s*.", esc(string(status))))
		}
		return send(bot, message.Chat.ID, fmt.Sprintf("✋ Auto status is off. You are *%s*.", esc(string(status))))
	}

	status, err := models.ParseStatus(strings.Join(args, " "))
	if err != nil {
		return send(bot, message.Chat.ID, "❌ "+esc(err.Error())+"\n\n"+statusUsage)
	}

	outcome, err := sess.SetStatus(ctx, status)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to update your status.")+
			fmt.Sprintf("\nStatus is back to *%s*.", esc(statusLabel(sess.Status()))))
	}
	return send(bot, message.Chat.ID, fmt.Sprintf("✅ Status set to *%s*.", esc(string(status))))
}
