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

// FamilyHandler handles /family: the members that can be tagged in photos.
type FamilyHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewFamilyHandler creates a new FamilyHandler.
func NewFamilyHandler(svc *service.Service, logger *logrus.Logger) *FamilyHandler {
	return &FamilyHandler{svc: svc, logger: logger}
}

// Handle processes the /family command.
func (h *FamilyHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	members, err := h.svc.EnsureSession(message.Chat.ID).Family(context.Background())
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if len(members) == 0 {
		return send(bot, message.Chat.ID, "👨‍👩‍👧 *No family members yet.*")
	}

	var sb strings.Builder
	sb.WriteString("👨‍👩‍👧 *Family members:*\n\n")
	for _, m := range members {
		sb.WriteString(fmt.Sprintf("• *#%s* %s\n", m.UserID, esc(m.DisplayName())))
	}
	sb.WriteString("\nTag them with `/upload <id> <id>` as a photo caption.")
	return send(bot, message.Chat.ID, sb.String())
}
