package service

import (
	"context"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
)

// Status returns the session's status state.
func (s *Session) Status() models.StatusState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LoadStatus returns the status state, reading the profile from the server
// when this session has not seen it yet.
func (s *Session) LoadStatus(ctx context.Context) (models.StatusState, error) {
	if err := s.ensureStatus(ctx); err != nil {
		return s.Status(), err
	}
	return s.Status(), nil
}

// ensureStatus refreshes the home screen once so the status state starts
// from the server's value.
func (s *Session) ensureStatus(ctx context.Context) error {
	s.mu.Lock()
	known := s.statusKnown
	s.mu.Unlock()
	if known {
		return nil
	}
	_, err := s.Home(ctx)
	return err
}

// SetStatus sets a manual status and leaves auto mode. The new status is
// shown immediately and rolled back if the server does not accept it.
func (s *Session) SetStatus(ctx context.Context, status models.Status) (mutation.Outcome, error) {
	id, err := s.Identity(ctx)
	if err != nil {
		return mutation.Outcome{}, err
	}
	if err := s.ensureStatus(ctx); err != nil {
		return mutation.Classify(err), nil
	}

	s.mu.Lock()
	previous := s.status
	s.status = models.StatusState{Manual: status}
	s.mu.Unlock()

	home := s.views().home
	var previousProfile models.Status
	home.Update(func(v HomeView) HomeView {
		if v.Profile != nil {
			previousProfile = v.Profile.Status
		}
		return withProfileStatus(v, status)
	})

	outcome := s.svc.submitter.Submit(ctx, backend.UpdateStatusSubmission(id, status), nil)
	if !outcome.OK() {
		s.mu.Lock()
		s.status = previous
		s.mu.Unlock()
		home.Update(func(v HomeView) HomeView { return withProfileStatus(v, previousProfile) })
		s.logger.WithField("status", status).Warn("Status update rolled back")
	}
	return outcome, nil
}

// SetAutoStatus switches auto mode. Turning it on derives the status from
// the current events straight away.
func (s *Session) SetAutoStatus(ctx context.Context, on bool) (models.Status, mutation.Outcome, error) {
	if _, err := s.Identity(ctx); err != nil {
		return "", mutation.Outcome{}, err
	}
	if err := s.ensureStatus(ctx); err != nil {
		return s.Status().Effective(), mutation.Classify(err), nil
	}

	s.mu.Lock()
	s.status.Auto = on
	if !on {
		s.status.Derived = ""
	}
	effective := s.status.Effective()
	s.mu.Unlock()

	if !on {
		return effective, mutation.Outcome{Kind: mutation.OutcomeSuccess}, nil
	}

	status, _, outcome, err := s.syncAutoStatus(ctx)
	return status, outcome, err
}

// syncAutoStatus derives the status from upcoming events and pushes it when
// it differs from the last derived value. It reports whether it changed.
func (s *Session) syncAutoStatus(ctx context.Context) (models.Status, bool, mutation.Outcome, error) {
	id, err := s.Identity(ctx)
	if err != nil {
		return "", false, mutation.Outcome{}, err
	}
	events, err := s.Events(ctx)
	if err != nil {
		return s.Status().Effective(), false, mutation.Classify(err), nil
	}

	derived := models.DeriveStatus(events, s.svc.now())

	s.mu.Lock()
	if !s.status.Auto {
		effective := s.status.Effective()
		s.mu.Unlock()
		return effective, false, mutation.Outcome{Kind: mutation.OutcomeSuccess}, nil
	}
	if s.status.Derived == derived {
		s.mu.Unlock()
		return derived, false, mutation.Outcome{Kind: mutation.OutcomeSuccess}, nil
	}
	s.mu.Unlock()

	outcome := s.svc.submitter.Submit(ctx, backend.UpdateStatusSubmission(id, derived), nil)
	if !outcome.OK() {
		return s.Status().Effective(), false, outcome, nil
	}

	s.mu.Lock()
	s.status.Derived = derived
	s.mu.Unlock()
	s.views().home.Update(func(v HomeView) HomeView { return withProfileStatus(v, derived) })

	return derived, true, outcome, nil
}

func withProfileStatus(v HomeView, status models.Status) HomeView {
	if v.Profile == nil || status == "" {
		return v
	}
	p := *v.Profile
	p.Status = status
	v.Profile = &p
	return v
}
