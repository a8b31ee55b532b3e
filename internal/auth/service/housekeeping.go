package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Purger drops expired entries from an in-process blacklist.
// *blacklist.Memory implements it; shared blacklists expire on their own.
type Purger interface {
	Purge() int
}

// HousekeepingService periodically deletes expired refresh tokens and purges
// the in-memory blacklist so neither grows without bound.
type HousekeepingService struct {
	Sessions *SessionService
	Purger   Purger // optional
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(sessions *SessionService, purger Purger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Sessions: sessions,
		Purger:   purger,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep. Each step is independent.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	n, err := s.Sessions.CleanupExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", slogx.Err(err))
	} else {
		s.Logger.Debug("deleted expired refresh tokens", "count", n)
	}

	purged := 0
	if s.Purger != nil {
		purged = s.Purger.Purge()
	}
	s.Logger.Info("housekeeping cleanup completed", "refresh_tokens_deleted", n, "blacklist_purged", purged)
}
