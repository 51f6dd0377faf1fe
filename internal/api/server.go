package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/metrics"
	"github.com/Kerhoff/InSync/internal/service"
)

// Server exposes health, metrics and a read-only view of the chat sessions.
// It never triggers a backend request: every response is built from what
// the sessions already render.
type Server struct {
	svc     *service.Service
	metrics *metrics.Metrics
	logger  *logrus.Logger
	router  chi.Router
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, metrics: m, logger: logger, router: chi.NewRouter()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Route("/{chatID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Get("/events", s.handleGetEvents)
			r.Get("/photos", s.handleGetPhotos)
			r.Get("/status", s.handleGetStatus)
		})
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed":    time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// session resolves the {chatID} parameter. It writes the error response
// itself and returns nil when the session cannot be served.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *service.Session {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chat id")
		return nil
	}
	sess, ok := s.svc.Lookup(chatID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return sess
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.svc.Sessions()),
	})
}

type sessionSummary struct {
	ChatID int64  `json:"chat_id"`
	Status string `json:"status"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.svc.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{ChatID: sess.ChatID(), Status: string(sess.Status().Effective())})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		s.respondJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		s.respondJSON(w, http.StatusOK, sess.Snapshot().Events)
	}
}

func (s *Server) handleGetPhotos(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		s.respondJSON(w, http.StatusOK, sess.Snapshot().Photos)
	}
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	state := sess.Status()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"effective": state.Effective(),
		"auto":      state.Auto,
		"manual":    state.Manual,
	})
}
