package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenPurger removes reset-token rows that are used or expired longer
// than retention ago, returning the number of rows removed.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// StartResetTokenCleaner purges redeemed and long-expired reset tokens
// on the given interval until ctx is cancelled.
func StartResetTokenCleaner(
	ctx context.Context,
	purger TokenPurger,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := purger.PurgeExpired(ctx, retention)
				if err != nil {
					log.Error("failed to purge reset tokens", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("purged reset tokens", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
