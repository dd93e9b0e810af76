// Package sweeper expires drafts that never reached confirmation within the
// hold window.
package sweeper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type draftExpirer interface {
	ExpireStale(ctx context.Context, olderThan, at time.Time) (int64, error)
}

type Service struct {
	drafts  draftExpirer
	window  time.Duration
	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(drafts draftExpirer, window time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		drafts:  drafts,
		window:  window,
		loggerf: loggerf,
		now:     time.Now,
	}
}

// Run performs one sweep. The expiry write is a guarded status transition,
// so a sweep that races a concurrent promotion simply loses: it can never
// overwrite a terminal state.
func (s *Service) Run(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := s.drafts.ExpireStale(ctx, now.Add(-s.window), now)
	if err != nil {
		s.loggerf("level=error msg=draft sweep failed err=%v", err)
		return 0, err
	}
	if n > 0 {
		s.loggerf("level=info msg=drafts expired count=%d window=%s", n, s.window)
	}
	return n, nil
}

// Schedule starts the fixed-interval sweep. The returned scheduler should be
// shut down on process exit.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			_, _ = s.Run(runCtx)
		}),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
