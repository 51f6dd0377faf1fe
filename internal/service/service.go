package service

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/identity"
	"github.com/Kerhoff/InSync/internal/metrics"
	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/repository"
)

// Service is the central application layer. It owns the backend client,
// durable storage and one Session per chat.
type Service struct {
	backend     *backend.Client
	submitter   *mutation.Submitter
	kv          repository.KeyValueStore
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	uploadsBase string
	now         func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

// New creates a new Service with all required dependencies.
func New(
	client *backend.Client,
	submitter *mutation.Submitter,
	kv repository.KeyValueStore,
	m *metrics.Metrics,
	logger *logrus.Logger,
	uploadsBase string,
) *Service {
	return &Service{
		backend:     client,
		submitter:   submitter,
		kv:          kv,
		metrics:     m,
		logger:      logger,
		uploadsBase: uploadsBase,
		now:         time.Now,
		sessions:    make(map[int64]*Session),
	}
}

// SetClock replaces the time source used for upcoming filters and status
// derivation.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// UploadsBase returns the base URL image file names are resolved against.
func (s *Service) UploadsBase() string {
	return s.uploadsBase
}

// EnsureSession returns the session for chatID, creating it on first use.
func (s *Service) EnsureSession(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess
	}

	sess := newSession(s, chatID)
	s.sessions[chatID] = sess
	s.metrics.SetSessions(len(s.sessions))
	s.logger.WithField("chat_id", chatID).Debug("Created session")
	return sess
}

// Lookup returns the session for chatID without creating one.
func (s *Service) Lookup(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// Sessions returns every live session ordered by chat id.
func (s *Service) Sessions() []*Session {
	s.mu.Lock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].chatID < out[j].chatID })
	return out
}

// Close tears down every session's screens.
func (s *Service) Close() {
	for _, sess := range s.Sessions() {
		sess.teardown()
	}
}

func (s *Service) identityStore(chatID int64) *identity.Store {
	return identity.NewStore(s.kv, "chat:"+strconv.FormatInt(chatID, 10), s.logger)
}
