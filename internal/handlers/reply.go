package handlers

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

// send sends a Markdown message.
func send(bot telegram.BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// esc escapes user or server supplied text for Markdown.
func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// failureText turns an error from a screen refresh or a precondition into a
// chat reply.
func failureText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return "🔒 You are not logged in. Use `/login <email> <password>` first."
	case errors.Is(err, service.ErrNoDraft):
		return "❌ No event draft in progress. Start one with /newevent."
	case errors.Is(err, service.ErrEventNotFound):
		return "❌ Event not found. Use /events to see event IDs."
	case errors.Is(err, service.ErrPhotoExists):
		return "⚠️ A photo already exists for the selected family members."
	case errors.Is(err, telegram.ErrNoImage):
		return "❌ Please attach a photo and put the command in its caption."
	}

	kind, _ := fetcher.KindOf(err)
	switch kind {
	case fetcher.KindNetwork:
		return "📡 Could not reach InSync. Please try again later."
	case fetcher.KindHTTPStatus:
		if msg := fetcher.MessageOf(err); msg != "" {
			return "❌ " + esc(msg)
		}
		return "❌ InSync could not handle the request."
	case fetcher.KindDecode:
		return "❌ InSync sent an unexpected reply."
	}
	return "❌ Something went wrong. Please try again."
}

// outcomeText describes a failed submission.
func outcomeText(o mutation.Outcome, fallback string) string {
	switch o.Kind {
	case mutation.OutcomeValidation:
		var verr *mutation.ValidationError
		if errors.As(o.Err, &verr) {
			return "❌ Please fix the following:\n• " + esc(strings.Join(verr.Problems(), "\n• "))
		}
		return "❌ " + esc(o.Message)
	case mutation.OutcomeUnreachable:
		return "📡 Could not reach InSync. Nothing was changed, please try again."
	case mutation.OutcomeLocal:
		return "⚠️ InSync accepted the request but it could not be saved here. Please try again."
	}
	if o.Message != "" {
		return "❌ " + esc(o.Message)
	}
	return "❌ " + fallback
}
