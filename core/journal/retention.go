package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
)

// Retain purges entries older than keep right away and then every interval
// until ctx is done. A non-positive keep disables purging.
func Retain(ctx context.Context, j Journal, keep, every time.Duration) {
	if j == nil || keep <= 0 {
		return
	}
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		purgeOnce(ctx, j, time.Now().Add(-keep))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func purgeOnce(ctx context.Context, j Journal, before time.Time) {
	n, err := j.Purge(ctx, before)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn(ctx, "journal", "journal.purge",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if n > 0 {
		logger.Info(ctx, "journal", "journal.purge",
			slog.String("status", "ok"),
			slog.Int64("removed", n),
			slog.Time("before", before),
		)
	}
}
