package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger deletes bookkeeping rows that are past their expiry
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenCleanup periodically removes consumed reset tokens that expired and
// can't be replayed anymore. It returns once ctx is cancelled
func TokenCleanup(ctx context.Context, t time.Duration, p Purger) {
	ticker := time.NewTicker(t)
	defer ticker.Stop()

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				zap.L().Error("Failed to cleanup used reset tokens", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up expired reset tokens", zap.Int64("count", n))
			}
		}
	}
}
