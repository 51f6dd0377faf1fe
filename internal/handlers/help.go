package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *InSync Help*

*Account:*
• /login <email> <password> - Log in
• /signup <first name> <email> <password> - Sign up (attach a photo to set your icon)
• /logout - Log out
• /home - Your profile and family

*Events:*
• /events - Upcoming events
• /newevent <name> | <start> | <end> | <location> [| description] - Draft an event
• /eventphoto - Attach a photo to the draft (as a photo caption)
• /confirm - Create the drafted event
• /cancel - Discard the draft
• /editevent <id> <field>=<value> [| ...] - Edit an event
• /delevent <id> - Delete an event
• /story <id> - Add a story photo to an event (as a photo caption)
• /export - Download upcoming events as a spreadsheet

*Gallery:*
• /gallery - Your photos
• /family - Family members you can tag
• /upload [member ids] - Upload a photo (as a photo caption)
• /replace <photo id> - Replace a photo (as a photo caption)

*Status:*
• /status - Show your status
• /status chilling | occupied | dnd - Set your status
• /status auto - Follow your events automatically

_Times use the format YYYY-MM-DD HH:MM_`

	if err := send(bot, message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")
	return nil
}
