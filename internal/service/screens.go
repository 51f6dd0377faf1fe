package service

import (
	"context"
	"time"

	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/reconcile"
	"github.com/Kerhoff/InSync/internal/refresh"
)

// Screen names, used in logs and metrics.
const (
	ScreenHome    = "home"
	ScreenEvents  = "events"
	ScreenGallery = "gallery"
	ScreenFamily  = "family"
)

// HomeView is the rendered home screen.
type HomeView struct {
	Profile *models.Profile `json:"profile"`
	Family  []MemberCard    `json:"family"`
}

// MemberCard is a family member with a resolved icon URL.
type MemberCard struct {
	models.FamilyMember
	IconURL string `json:"icon_url,omitempty"`
}

// GalleryPhoto is a photo with its derived public URL.
type GalleryPhoto struct {
	models.Photo
	URL string `json:"url"`
}

type screens struct {
	home    *refresh.Controller[models.Identity, HomeView]
	events  *refresh.Controller[models.Identity, []models.Event]
	gallery *refresh.Controller[models.Identity, []GalleryPhoto]
	family  *refresh.Controller[models.Identity, []models.FamilyMember]
}

func newScreens(s *Session) *screens {
	svc := s.svc
	return &screens{
		home:    refresh.New(ScreenHome, s.fetchHome, svc.metrics, svc.logger),
		events:  refresh.New(ScreenEvents, s.fetchEvents, svc.metrics, svc.logger),
		gallery: refresh.New(ScreenGallery, s.fetchGallery, svc.metrics, svc.logger),
		family:  refresh.New(ScreenFamily, s.fetchFamily, svc.metrics, svc.logger),
	}
}

func (sc *screens) close() {
	sc.home.Close()
	sc.events.Close()
	sc.gallery.Close()
	sc.family.Close()
}

// load gates a screen refresh on the persisted identity. Without one no
// request is made. On a failed refresh the previously rendered value for the
// same identity is returned alongside the error.
func load[T any](ctx context.Context, s *Session, c *refresh.Controller[models.Identity, T]) (T, error) {
	var zero T

	id, err := s.Identity(ctx)
	if err != nil {
		return zero, err
	}

	st, err := c.Wait(ctx, id)
	if err != nil {
		return zero, err
	}
	if st.Err != nil {
		s.logger.WithError(st.Err).WithField("user_id", id).Warn("Screen refresh failed")
		if st.HasValue && st.ValueKey == id {
			return st.Value, st.Err
		}
		return zero, st.Err
	}
	return st.Value, nil
}

// Home refreshes and returns the home screen.
func (s *Session) Home(ctx context.Context) (HomeView, error) {
	view, err := load(ctx, s, s.views().home)
	if err == nil && view.Profile != nil {
		s.mu.Lock()
		if view.Profile.Status.Valid() {
			s.status.Manual = view.Profile.Status
		}
		s.statusKnown = true
		s.mu.Unlock()
	}
	return view, err
}

// Events refreshes and returns the upcoming events.
func (s *Session) Events(ctx context.Context) ([]models.Event, error) {
	return load(ctx, s, s.views().events)
}

// Gallery refreshes and returns the photos.
func (s *Session) Gallery(ctx context.Context) ([]GalleryPhoto, error) {
	return load(ctx, s, s.views().gallery)
}

// Family refreshes and returns the other members of the user's family.
func (s *Session) Family(ctx context.Context) ([]models.FamilyMember, error) {
	return load(ctx, s, s.views().family)
}

func (s *Session) fetchHome(ctx context.Context, id models.Identity) (HomeView, error) {
	profile, err := s.svc.backend.Profile(ctx, id)
	if err != nil {
		return HomeView{}, err
	}
	members, err := s.svc.backend.ListFamily(ctx, id)
	if err != nil {
		return HomeView{}, err
	}

	view := HomeView{Profile: profile}
	for _, m := range reconcile.Dedupe(members, models.FamilyMember.Key) {
		view.Family = append(view.Family, MemberCard{
			FamilyMember: m,
			IconURL:      m.IconURL(s.svc.uploadsBase),
		})
	}
	return view, nil
}

func (s *Session) fetchEvents(ctx context.Context, id models.Identity) ([]models.Event, error) {
	events, err := s.svc.backend.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	events = reconcile.Dedupe(events, models.Event.Key)
	return reconcile.FilterUpcoming(events, models.Event.End, s.svc.now()), nil
}

func (s *Session) fetchGallery(ctx context.Context, id models.Identity) ([]GalleryPhoto, error) {
	photos, err := s.svc.backend.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	photos = reconcile.Dedupe(photos, models.Photo.Key)

	out := make([]GalleryPhoto, 0, len(photos))
	for _, p := range photos {
		out = append(out, GalleryPhoto{Photo: p, URL: p.DerivedURL(s.svc.uploadsBase)})
	}
	return out, nil
}

func (s *Session) fetchFamily(ctx context.Context, id models.Identity) ([]models.FamilyMember, error) {
	members, err := s.svc.backend.ListFamily(ctx, id)
	if err != nil {
		return nil, err
	}
	members = reconcile.Dedupe(members, models.FamilyMember.Key)
	return reconcile.Exclude(members, id, models.FamilyMember.Key), nil
}

// Snapshot is the rendered state of a session, read without refreshing.
type Snapshot struct {
	ChatID  int64              `json:"chat_id"`
	Events  []models.Event     `json:"events"`
	Photos  []GalleryPhoto     `json:"photos"`
	Status  models.StatusState `json:"status"`
	Updated time.Time          `json:"generated_at"`
}

// Snapshot returns what the session's screens currently render.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ChatID:  s.chatID,
		Events:  []models.Event{},
		Photos:  []GalleryPhoto{},
		Status:  s.Status(),
		Updated: s.svc.now(),
	}
	sc := s.peek()
	if sc == nil {
		return snap
	}
	if st := sc.events.State(); st.HasValue {
		snap.Events = st.Value
	}
	if st := sc.gallery.State(); st.HasValue {
		snap.Photos = st.Value
	}
	return snap
}
