package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/solrise/questforge/questforge/progression"
)

// Scheduler re-runs the daily assignment for the default user as each
// calendar day rolls over. The engine call is idempotent per day, so a
// spurious wake-up is harmless.
type Scheduler struct {
	engine *progression.Service
	userID int64
}

func New(engine *progression.Service, userID int64) *Scheduler {
	return &Scheduler{engine: engine, userID: userID}
}

// Run blocks until ctx is cancelled, waking shortly after each midnight UTC.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		wait := untilNextMidnight(time.Now().UTC())
		slog.Debug("Daily assignment scheduler sleeping",
			slog.Duration("until_next_run", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.engine.AssignDailyQuests(ctx, s.userID); err != nil {
			slog.Error("Scheduled daily assignment failed",
				slog.Int64("user_id", s.userID),
				slog.Any("error", err))
			continue
		}
		slog.Info("Scheduled daily assignment completed",
			slog.Int64("user_id", s.userID))
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	// A small offset keeps the run clear of the date boundary.
	return next.Sub(now) + 5*time.Second
}
