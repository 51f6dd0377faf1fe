package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// StatusCallback is a function that sends a status notice to a chat.
type StatusCallback func(chatID int64, text string)

// StartAutoStatusScheduler re-derives the status of every session in auto
// mode on the given cron schedule and invokes the callback when one changes.
// It blocks until the context is cancelled, so it should be launched in a
// separate goroutine.
func (s *Service) StartAutoStatusScheduler(ctx context.Context, schedule string, callback StatusCallback) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.processAutoStatus(ctx, callback) }); err != nil {
		return fmt.Errorf("invalid auto status schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.WithField("schedule", schedule).Info("Auto status scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Auto status scheduler stopped")
	return nil
}

// processAutoStatus runs one pass over the sessions in auto mode.
func (s *Service) processAutoStatus(ctx context.Context, callback StatusCallback) {
	for _, sess := range s.Sessions() {
		if !sess.Status().Auto {
			continue
		}

		status, changed, outcome, err := sess.syncAutoStatus(ctx)
		if errors.Is(err, ErrNotAuthenticated) {
			continue
		}
		if err == nil && !outcome.OK() {
			err = outcome.Err
		}
		if err != nil {
			s.logger.WithField("chat_id", sess.chatID).WithError(err).Warn("Failed to update auto status")
			continue
		}
		if changed {
			callback(sess.chatID, fmt.Sprintf("\U0001F504 *Auto status*: you are now %s", status))
		}
	}
}
