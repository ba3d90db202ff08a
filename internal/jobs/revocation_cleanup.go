package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger deletes expired revocation entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunRevocationCleanup performs one purge pass.
func RunRevocationCleanup(ctx context.Context, purger Purger, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	purged, err := purger.PurgeExpired(ctx)
	if err != nil {
		logger.Error("revoked token cleanup failed", zap.Error(err))
		return
	}
	logger.Info("revoked token cleanup finished", zap.Int64("purged", purged))
}

// StartRevocationCleanup schedules the purge at the top of every hour. The
// caller stops the returned scheduler on shutdown.
func StartRevocationCleanup(purger Purger, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("0 * * * *", func() {
		RunRevocationCleanup(context.Background(), purger, logger)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("revoked token cleanup scheduled", zap.String("schedule", "0 * * * *"))
	return c, nil
}
