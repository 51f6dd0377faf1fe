package telegram

import (
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger       *logrus.Logger
	handlers     map[string]CommandHandler
	descriptions map[string]string
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot BotAPI, message *tgbotapi.Message, args []string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:       logger,
		handlers:     make(map[string]CommandHandler),
		descriptions: make(map[string]string),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command, description string, handler CommandHandler) {
	r.handlers[command] = handler
	if description != "" {
		r.descriptions[command] = description
	}
	r.logger.Debugf("Registered command: %s", command)
}

// Commands lists the described commands in name order.
func (r *Router) Commands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(r.descriptions))
	for cmd, desc := range r.descriptions {
		out = append(out, tgbotapi.BotCommand{Command: cmd, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// HandleMessage handles incoming messages. Commands are read from the text,
// or from the caption of a photo or document.
func (r *Router) HandleMessage(bot BotAPI, message *tgbotapi.Message) {
	fields := logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
		"has_photo":  len(message.Photo) > 0 || message.Document != nil,
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}
	// Message text is never logged; /login carries a password.
	r.logger.WithFields(fields).Info("Received message")

	command, rawArgs, ok := ParseCommand(message)
	if !ok {
		return
	}
	args := strings.Fields(rawArgs)

	// Find and execute handler
	if handler, exists := r.handlers[command]; exists {
		if err := handler.Handle(bot, message, args); err != nil {
			r.logger.WithFields(fields).WithFields(logrus.Fields{
				"command": command,
				"error":   err,
			}).Error("Command handler failed")

			// Send error message to user
			errorMsg := tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again.")
			bot.Send(errorMsg)
		}
	} else {
		// Unknown command
		r.logger.WithFields(fields).WithField("command", command).Warn("Unknown command")

		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		bot.Send(unknownMsg)
	}
}

// ParseCommand extracts the command name and its raw argument string from
// a text message or from a media caption starting with "/".
func ParseCommand(message *tgbotapi.Message) (command, args string, ok bool) {
	if message.IsCommand() {
		return message.Command(), message.CommandArguments(), true
	}

	caption := strings.TrimSpace(message.Caption)
	if !strings.HasPrefix(caption, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(caption[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}
