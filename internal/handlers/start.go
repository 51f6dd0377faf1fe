package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		logger: logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	welcomeText := `👋 *Welcome to InSync!*

I keep you in sync with your family: events, photos and everyone's status.

*Get started:*
• /login <email> <password> - Log into your account
• /signup <first name> <email> <password> - Create an account
• /help - Show all commands`

	if err := send(bot, message.Chat.ID, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent start message")
	return nil
}
