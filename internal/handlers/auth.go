package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

// LoginHandler handles /login <email> <password>. The message is deleted
// before anything else so the password does not stay in the chat.
type LoginHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(svc *service.Service, logger *logrus.Logger) *LoginHandler {
	return &LoginHandler{svc: svc, logger: logger}
}

// Handle processes the /login command.
func (h *LoginHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	forgetMessage(bot, message, h.logger)

	if len(args) != 2 {
		return send(bot, message.Chat.ID, "❌ *Usage:* `/login <email> <password>`")
	}

	sess := h.svc.EnsureSession(message.Chat.ID)
	id, outcome := sess.Login(context.Background(), args[0], args[1])
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Login failed."))
	}

	h.logger.WithFields(logrus.Fields{"chat_id": message.Chat.ID, "user_id": id}).Info("User logged in")
	return send(bot, message.Chat.ID, "✅ Logged in! Use /home to see your family.")
}

// SignupHandler handles /signup <first name> <email> <password>. A photo
// sent with the command as caption becomes the profile icon.
type SignupHandler struct {
	svc        *service.Service
	downloader *telegram.Downloader
	logger     *logrus.Logger
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(svc *service.Service, downloader *telegram.Downloader, logger *logrus.Logger) *SignupHandler {
	return &SignupHandler{svc: svc, downloader: downloader, logger: logger}
}

// Handle processes the /signup command.
func (h *SignupHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	forgetMessage(bot, message, h.logger)

	if len(args) < 3 {
		return send(bot, message.Chat.ID, "❌ *Usage:* `/signup <first name> <email> <password>`")
	}
	password := args[len(args)-1]
	email := args[len(args)-2]
	firstName := strings.Join(args[:len(args)-2], " ")

	ctx := context.Background()

	var photo *mutation.Asset
	if len(message.Photo) > 0 || message.Document != nil {
		asset, err := h.downloader.Image(ctx, bot, message)
		if err != nil {
			return send(bot, message.Chat.ID, failureText(err))
		}
		photo = &asset
	}

	sess := h.svc.EnsureSession(message.Chat.ID)
	id, outcome := sess.Signup(ctx, firstName, email, password, photo)
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Sign up failed."))
	}

	h.logger.WithFields(logrus.Fields{"chat_id": message.Chat.ID, "user_id": id}).Info("User signed up")
	return send(bot, message.Chat.ID, fmt.Sprintf("🎉 Welcome to InSync, %s! You are logged in.", esc(firstName)))
}

// LogoutHandler handles /logout.
type LogoutHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLogoutHandler creates a new LogoutHandler.
func NewLogoutHandler(svc *service.Service, logger *logrus.Logger) *LogoutHandler {
	return &LogoutHandler{svc: svc, logger: logger}
}

// Handle processes the /logout command.
func (h *LogoutHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if err := h.svc.EnsureSession(message.Chat.ID).Logout(context.Background()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return send(bot, message.Chat.ID, "👋 Logged out.")
}

// forgetMessage deletes a message that carried credentials.
func forgetMessage(bot telegram.BotAPI, message *tgbotapi.Message, logger *logrus.Logger) {
	if _, err := bot.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
		logger.WithField("chat_id", message.Chat.ID).WithError(err).Warn("Failed to delete credentials message")
	}
}
