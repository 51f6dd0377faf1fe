package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/identity"
	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/mutation"
)

// ErrNotAuthenticated is returned when no identity can be read for a chat.
var ErrNotAuthenticated = errors.New("not logged in")

// Session is the per-chat state: the persisted identity, one refresh
// controller per screen, the event draft and the status state.
type Session struct {
	chatID   int64
	svc      *Service
	identity *identity.Store
	logger   *logrus.Entry

	mu          sync.Mutex
	screens     *screens
	draft       *backend.EventDraft
	status      models.StatusState
	statusKnown bool // the server's status has been read
}

func newSession(svc *Service, chatID int64) *Session {
	return &Session{
		chatID:   chatID,
		svc:      svc,
		identity: svc.identityStore(chatID),
		logger:   svc.logger.WithField("chat_id", chatID),
	}
}

// ChatID returns the chat the session belongs to.
func (s *Session) ChatID() int64 {
	return s.chatID
}

// Identity reads the persisted identity. It is re-read on every call and
// never cached. Both an empty store and a storage failure yield
// ErrNotAuthenticated.
func (s *Session) Identity(ctx context.Context) (models.Identity, error) {
	id, err := s.identity.Load(ctx)
	if errors.Is(err, identity.ErrAbsent) {
		s.logger.Debug("No identity stored")
		return "", ErrNotAuthenticated
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to read identity")
		return "", fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return id, nil
}

// Login checks credentials and persists the returned identity.
func (s *Session) Login(ctx context.Context, email, password string) (models.Identity, mutation.Outcome) {
	return s.authenticate(ctx, backend.LoginSubmission(email, password))
}

// Signup creates an account and logs into it.
func (s *Session) Signup(ctx context.Context, firstName, email, password string, photo *mutation.Asset) (models.Identity, mutation.Outcome) {
	return s.authenticate(ctx, backend.SignupSubmission(firstName, email, password, photo))
}

func (s *Session) authenticate(ctx context.Context, sub mutation.Submission) (models.Identity, mutation.Outcome) {
	var id models.Identity
	outcome := s.svc.submitter.Submit(ctx, sub, func(resp *fetcher.Response) error {
		decoded, err := backend.DecodeLogin(sub, resp)
		if err != nil {
			return err
		}
		if err := s.identity.Save(ctx, decoded); err != nil {
			s.logger.WithError(err).WithField("user_id", decoded).Error("Failed to persist identity")
			return mutation.Local(fmt.Errorf("failed to persist identity: %w", err))
		}
		id = decoded
		return nil
	})
	if !outcome.OK() {
		return "", outcome
	}

	// A different account may have been active; nothing rendered for it survives.
	s.teardown()
	s.logger.WithField("user_id", id).Info("Logged in")
	return id, outcome
}

// Logout clears the persisted identity and tears down every screen.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.identity.Clear(ctx); err != nil {
		return err
	}
	s.teardown()
	s.logger.Info("Logged out")
	return nil
}

// teardown closes every screen controller and forgets per-user state.
func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screens != nil {
		s.screens.close()
		s.screens = nil
	}
	s.draft = nil
	s.status = models.StatusState{}
	s.statusKnown = false
}

// views returns the screen controllers, creating them when needed.
func (s *Session) views() *screens {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screens == nil {
		s.screens = newScreens(s)
	}
	return s.screens
}

// peek returns the screen controllers without creating them.
func (s *Session) peek() *screens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screens
}
