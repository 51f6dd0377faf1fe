package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/reconcile"
)

var (
	// ErrNoDraft is returned by draft operations when no draft is open.
	ErrNoDraft = errors.New("no event draft in progress")
	// ErrEventNotFound is returned when an event id is not on the events screen.
	ErrEventNotFound = errors.New("event not found")
)

// DeleteEvent deletes an event and, once the server confirms, removes it
// from the rendered list without refetching.
func (s *Session) DeleteEvent(ctx context.Context, eventID models.ID) (mutation.Outcome, error) {
	if _, err := s.Identity(ctx); err != nil {
		return mutation.Outcome{}, err
	}

	events := s.views().events
	outcome := s.svc.submitter.Submit(ctx, backend.DeleteEventSubmission(eventID), func(*fetcher.Response) error {
		events.Update(func(list []models.Event) []models.Event {
			return reconcile.ApplyDelete(list, eventID, models.Event.Key)
		})
		return nil
	})
	return outcome, nil
}

// StartDraft opens a new event draft, replacing any previous one.
func (s *Session) StartDraft(d backend.EventDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = &d
}

// Draft returns a copy of the open draft.
func (s *Session) Draft() (backend.EventDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return backend.EventDraft{}, false
	}
	return *s.draft, true
}

// AttachDraftPhoto sets the image of the open draft.
func (s *Session) AttachDraftPhoto(photo mutation.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return ErrNoDraft
	}
	s.draft.Photo = &photo
	return nil
}

// CancelDraft discards the open draft. It reports whether one was open.
func (s *Session) CancelDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := s.draft != nil
	s.draft = nil
	return open
}

type draftForm struct {
	session *Session
	owner   models.Identity
	draft   backend.EventDraft
}

func (f *draftForm) Submission() mutation.Submission {
	return backend.CreateEventSubmission(f.owner, f.draft)
}

func (f *draftForm) Reset() {
	f.session.CancelDraft()
}

// ConfirmDraft submits the open draft. The draft is kept when submission fails.
func (s *Session) ConfirmDraft(ctx context.Context) (mutation.Outcome, error) {
	id, err := s.Identity(ctx)
	if err != nil {
		return mutation.Outcome{}, err
	}
	draft, ok := s.Draft()
	if !ok {
		return mutation.Outcome{}, ErrNoDraft
	}

	form := &draftForm{session: s, owner: id, draft: draft}
	outcome := s.svc.submitter.SubmitForm(ctx, form, nil)
	if outcome.OK() {
		s.views().events.Focus(id)
	}
	return outcome, nil
}

// EventPatch holds the fields an edit changes. Nil fields keep their value.
type EventPatch struct {
	Name        *string
	Start       *models.Timestamp
	End         *models.Timestamp
	Location    *string
	Description *string
	Privacy     *string
	RepeatRule  *string
}

// Apply returns e with the patch applied.
func (p EventPatch) Apply(e models.Event) models.Event {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Start != nil {
		e.StartTime = *p.Start
	}
	if p.End != nil {
		e.EndTime = *p.End
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Privacy != nil {
		e.Privacy = *p.Privacy
	}
	if p.RepeatRule != nil {
		e.RepeatRule = *p.RepeatRule
	}
	return e
}

// FindEvent returns an event from the rendered events list, refreshing the
// list first when nothing has been rendered yet.
func (s *Session) FindEvent(ctx context.Context, eventID models.ID) (models.Event, error) {
	events := s.views().events
	st := events.State()

	list := st.Value
	if !st.HasValue {
		var err error
		if list, err = s.Events(ctx); err != nil {
			return models.Event{}, err
		}
	}
	for _, e := range list {
		if e.ID == eventID {
			return e, nil
		}
	}
	return models.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
}

// EditEvent sends the full edited record and replaces it in the rendered list.
func (s *Session) EditEvent(ctx context.Context, eventID models.ID, patch EventPatch) (models.Event, mutation.Outcome, error) {
	if _, err := s.Identity(ctx); err != nil {
		return models.Event{}, mutation.Outcome{}, err
	}
	current, err := s.FindEvent(ctx, eventID)
	if err != nil {
		return models.Event{}, mutation.Outcome{}, err
	}

	edited := patch.Apply(current)
	events := s.views().events
	outcome := s.svc.submitter.Submit(ctx, backend.UpdateEventSubmission(edited), func(*fetcher.Response) error {
		now := s.svc.now()
		events.Update(func(list []models.Event) []models.Event {
			list = reconcile.ApplyUpsert(list, edited, models.Event.Key)
			return reconcile.FilterUpcoming(list, models.Event.End, now)
		})
		return nil
	})
	if !outcome.OK() {
		return current, outcome, nil
	}
	return edited, outcome, nil
}

// UploadStory attaches a story image to an event and refreshes the events.
func (s *Session) UploadStory(ctx context.Context, eventID models.ID, story mutation.Asset) (mutation.Outcome, error) {
	id, err := s.Identity(ctx)
	if err != nil {
		return mutation.Outcome{}, err
	}

	outcome := s.svc.submitter.Submit(ctx, backend.EventStorySubmission(eventID, story), nil)
	if outcome.OK() {
		s.views().events.Focus(id)
	}
	return outcome, nil
}
