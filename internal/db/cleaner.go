package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper deletes sessions that expired at or before now.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartSessionCleaner deletes expired sessions every interval until ctx is
// done.
func StartSessionCleaner(
	ctx context.Context,
	sweeper SessionSweeper,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := sweeper.DeleteExpired(ctx, now)
				if err != nil {
					log.Error("failed to clean expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
