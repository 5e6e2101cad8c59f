package sessions

import (
	"context"
	"log/slog"
	"time"

	"github.com/clkhoo5211/aphorism/internal/ports"
)

// RunJanitor prunes sessions idle for longer than ttl every interval until ctx
// is cancelled. It always returns nil so it can run inside an errgroup.
func RunJanitor(ctx context.Context, store ports.SessionStore, ttl, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			n, err := store.Prune(ctx, now.Add(-ttl))
			if err != nil {
				logger.WarnContext(ctx, "session prune failed", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "pruned idle sessions", "count", n)
			}
		}
	}
}
