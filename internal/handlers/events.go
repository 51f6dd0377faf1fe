package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
)

var whenLayouts = []string{"2006-01-02 15:04", models.TimeLayout, "2006-01-02"}

// parseWhen parses a date with an optional time in the local zone.
func parseWhen(s string) (models.Timestamp, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return models.NewTimestamp(t), nil
		}
	}
	return models.Timestamp{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD HH:MM", s)
}

// splitPipes splits the joined arguments on "|" and trims every part.
func splitPipes(args []string) []string {
	parts := strings.Split(strings.Join(args, " "), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func formatEvent(e models.Event, uploadsBase string) string {
	text := fmt.Sprintf("*#%s* - %s\n📆 %s → %s\n📍 %s",
		e.ID, esc(e.Name),
		e.StartTime.Format("Mon, 02 Jan 15:04"), e.EndTime.Format("Mon, 02 Jan 15:04"),
		esc(e.Location))
	if e.Description != "" {
		text += "\n📝 " + esc(e.Description)
	}
	if e.RepeatRule != "" && e.RepeatRule != models.RepeatNone {
		text += "\n🔁 " + esc(e.RepeatRule)
	}
	if url := e.StoryURL(uploadsBase); url != "" {
		text += fmt.Sprintf("\n📖 [story](%s)", url)
	}
	return text
}

// ---------------------------------------------------------------------------
// EventsHandler – /events
// ---------------------------------------------------------------------------

// EventsHandler lists upcoming events.
type EventsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(svc *service.Service, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{svc: svc, logger: logger}
}

// Handle processes the /events command.
func (h *EventsHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	events, err := h.svc.EnsureSession(message.Chat.ID).Events(context.Background())
	if err != nil && events == nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	var sb strings.Builder
	if err != nil {
		sb.WriteString(failureText(err) + "\n_Showing the last loaded events._\n\n")
	}
	if len(events) == 0 {
		sb.WriteString("📅 *No upcoming events!*\n\nDraft one with /newevent.")
		return send(bot, message.Chat.ID, sb.String())
	}

	sb.WriteString("📅 *Upcoming events:*\n\n")
	for _, e := range events {
		sb.WriteString(formatEvent(e, h.svc.UploadsBase()) + "\n\n")
	}
	return send(bot, message.Chat.ID, strings.TrimSpace(sb.String()))
}

// ---------------------------------------------------------------------------
// NewEventHandler – /newevent <name> | <start> | <end> | <location> [| ...]
// ---------------------------------------------------------------------------

// NewEventHandler opens an event draft.
type NewEventHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewNewEventHandler creates a new NewEventHandler.
func NewNewEventHandler(svc *service.Service, logger *logrus.Logger) *NewEventHandler {
	return &NewEventHandler{svc: svc, logger: logger}
}

const newEventUsage = "❌ *Usage:*\n`/newevent Picnic | 2026-10-20 10:00 | 2026-10-20 12:00 | City Park | Bring snacks`\n\n" +
	"Optional extra parts: `| Private` and `| Weekly`."

// Handle processes the /newevent command.
func (h *NewEventHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	parts := splitPipes(args)
	if len(parts) < 4 {
		return send(bot, message.Chat.ID, newEventUsage)
	}

	start, err := parseWhen(parts[1])
	if err != nil {
		return send(bot, message.Chat.ID, "❌ Start: "+esc(err.Error()))
	}
	end, err := parseWhen(parts[2])
	if err != nil {
		return send(bot, message.Chat.ID, "❌ End: "+esc(err.Error()))
	}

	draft := backend.EventDraft{
		Name:     parts[0],
		Start:    start,
		End:      end,
		Location: parts[3],
	}
	if len(parts) > 4 {
		draft.Description = parts[4]
	}
	if len(parts) > 5 {
		draft.Privacy = parts[5]
	}
	if len(parts) > 6 {
		draft.RepeatRule = parts[6]
	}

	h.svc.EnsureSession(message.Chat.ID).StartDraft(draft)

	text := fmt.Sprintf("📝 *Draft event*\n%s\n📆 %s → %s\n📍 %s\n\n"+
		"Send a photo with caption /eventphoto to add a picture, then /confirm to create it or /cancel to discard.",
		esc(draft.Name), start.Wire(), end.Wire(), esc(draft.Location))
	return send(bot, message.Chat.ID, text)
}

// ---------------------------------------------------------------------------
// EventPhotoHandler – /eventphoto (photo caption)
// ---------------------------------------------------------------------------

// EventPhotoHandler attaches a photo to the open draft.
type EventPhotoHandler struct {
	svc        *service.Service
	downloader *telegram.Downloader
	logger     *logrus.Logger
}

// NewEventPhotoHandler creates a new EventPhotoHandler.
func NewEventPhotoHandler(svc *service.Service, downloader *telegram.Downloader, logger *logrus.Logger) *EventPhotoHandler {
	return &EventPhotoHandler{svc: svc, downloader: downloader, logger: logger}
}

// Handle processes the /eventphoto caption.
func (h *EventPhotoHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	sess := h.svc.EnsureSession(message.Chat.ID)
	if _, ok := sess.Draft(); !ok {
		return send(bot, message.Chat.ID, failureText(service.ErrNoDraft))
	}

	asset, err := h.downloader.Image(context.Background(), bot, message)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if err := sess.AttachDraftPhoto(asset); err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	return send(bot, message.Chat.ID, "🖼 Photo attached. Send /confirm to create the event.")
}

// ---------------------------------------------------------------------------
// ConfirmHandler – /confirm, CancelHandler – /cancel
// ---------------------------------------------------------------------------

// ConfirmHandler submits the open draft.
type ConfirmHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewConfirmHandler creates a new ConfirmHandler.
func NewConfirmHandler(svc *service.Service, logger *logrus.Logger) *ConfirmHandler {
	return &ConfirmHandler{svc: svc, logger: logger}
}

// Handle processes the /confirm command.
func (h *ConfirmHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	outcome, err := h.svc.EnsureSession(message.Chat.ID).ConfirmDraft(context.Background())
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to create the event.")+
			"\n\nYour draft is kept; fix it with /newevent or try /confirm again.")
	}
	return send(bot, message.Chat.ID, "📅 *Event created!* See it with /events.")
}

// CancelHandler discards the open draft.
type CancelHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(svc *service.Service, logger *logrus.Logger) *CancelHandler {
	return &CancelHandler{svc: svc, logger: logger}
}

// Handle processes the /cancel command.
func (h *CancelHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if !h.svc.EnsureSession(message.Chat.ID).CancelDraft() {
		return send(bot, message.Chat.ID, "Nothing to cancel.")
	}
	return send(bot, message.Chat.ID, "🗑 Draft discarded.")
}

// ---------------------------------------------------------------------------
// EditEventHandler – /editevent <id> <field>=<value> [| ...]
// ---------------------------------------------------------------------------

// EditEventHandler changes fields of an existing event.
type EditEventHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewEditEventHandler creates a new EditEventHandler.
func NewEditEventHandler(svc *service.Service, logger *logrus.Logger) *EditEventHandler {
	return &EditEventHandler{svc: svc, logger: logger}
}

const editEventUsage = "❌ *Usage:* `/editevent <id> name=Dinner | start=2026-10-21 18:00 | location=Home`\n\n" +
	"Fields: name, start, end, location, description, privacy, repeat."

// parsePatch reads "field=value" assignments.
func parsePatch(parts []string) (service.EventPatch, error) {
	var patch service.EventPatch
	if len(parts) == 0 {
		return patch, errors.New("nothing to change")
	}
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return patch, fmt.Errorf("expected field=value, got %q", part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			patch.Name = &value
		case "location":
			patch.Location = &value
		case "description":
			patch.Description = &value
		case "privacy":
			patch.Privacy = &value
		case "repeat":
			patch.RepeatRule = &value
		case "start", "end":
			ts, err := parseWhen(value)
			if err != nil {
				return patch, err
			}
			if key == "start" {
				patch.Start = &ts
			} else {
				patch.End = &ts
			}
		default:
			return patch, fmt.Errorf("unknown field %q", key)
		}
	}
	return patch, nil
}

// Handle processes the /editevent command.
func (h *EditEventHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) < 2 {
		return send(bot, message.Chat.ID, editEventUsage)
	}

	patch, err := parsePatch(splitPipes(args[1:]))
	if err != nil {
		return send(bot, message.Chat.ID, "❌ "+esc(err.Error())+"\n\n"+editEventUsage)
	}

	edited, outcome, err := h.svc.EnsureSession(message.Chat.ID).EditEvent(context.Background(), models.ID(args[0]), patch)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to update the event."))
	}
	return send(bot, message.Chat.ID, "✏️ *Event updated!*\n\n"+formatEvent(edited, h.svc.UploadsBase()))
}

// ---------------------------------------------------------------------------
// DeleteEventHandler – /delevent <id>
// ---------------------------------------------------------------------------

// DeleteEventHandler deletes an event.
type DeleteEventHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewDeleteEventHandler creates a new DeleteEventHandler.
func NewDeleteEventHandler(svc *service.Service, logger *logrus.Logger) *DeleteEventHandler {
	return &DeleteEventHandler{svc: svc, logger: logger}
}

// Handle processes the /delevent command.
func (h *DeleteEventHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ *Usage:* `/delevent <id>`")
	}

	outcome, err := h.svc.EnsureSession(message.Chat.ID).DeleteEvent(context.Background(), models.ID(args[0]))
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to delete the event."))
	}

	h.logger.WithFields(logrus.Fields{"chat_id": message.Chat.ID, "event_id": args[0]}).Info("Event deleted")
	return send(bot, message.Chat.ID, fmt.Sprintf("🗑 Event *#%s* deleted.", esc(args[0])))
}

// ---------------------------------------------------------------------------
// StoryHandler – /story <id> (photo caption)
// ---------------------------------------------------------------------------

// StoryHandler attaches a story image to an event.
type StoryHandler struct {
	svc        *service.Service
	downloader *telegram.Downloader
	logger     *logrus.Logger
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(svc *service.Service, downloader *telegram.Downloader, logger *logrus.Logger) *StoryHandler {
	return &StoryHandler{svc: svc, downloader: downloader, logger: logger}
}

// Handle processes the /story caption.
func (h *StoryHandler) Handle(bot telegram.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ Send a photo with the caption `/story <event id>`.")
	}

	ctx := context.Background()
	asset, err := h.downloader.Image(ctx, bot, message)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}

	outcome, err := h.svc.EnsureSession(message.Chat.ID).UploadStory(ctx, models.ID(args[0]), asset)
	if err != nil {
		return send(bot, message.Chat.ID, failureText(err))
	}
	if !outcome.OK() {
		return send(bot, message.Chat.ID, outcomeText(outcome, "Failed to upload the story."))
	}
	return send(bot, message.Chat.ID, "📖 Story added!")
}
