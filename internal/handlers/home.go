package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

// HomeHandler handles /home: the profile, status and family icons.
type HomeHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(svc *service.Service, logger *logrus.Logger) *HomeHandler {
	return &HomeHandler{svc: svc, logger: logger}
}

// Handle processes the /home command.
func (h *HomeHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	sess := h.svc.EnsureSession(message.Chat.ID)
	view, err := sess.Home(context.Background())
	if err != nil && view.Profile == nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	var sb strings.Builder
	if err != nil {
		sb.WriteString(failureText(err) + "\n_Showing the last loaded data._\n\n")
	}
	if view.Profile != nil {
		sb.WriteString(fmt.Sprintf("🏠 *Hi %s!*\n", esc(view.Profile.FirstName)))
	} else {
		sb.WriteString("🏠 *Home*\n")
	}
	sb.WriteString(fmt.Sprintf("Status: *%s*", esc(statusLabel(sess.Status()))))

	if len(view.Family) > 0 {
		sb.WriteString("\n\n👨‍👩‍👧 *Family:*\n")
		for _, m := range view.Family {
			line := fmt.Sprintf("• %s (#%s)", esc(m.DisplayName()), m.UserID)
			if m.IconURL != "" {
				line += fmt.Sprintf(" [icon](%s)", m.IconURL)
			}
			sb.WriteString(line + "\n")
		}
	}

	return send(bot, message.Chat.ID, sb.String())
}
