package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often RunJanitor looks for expired sessions.
const DefaultSweepInterval = time.Minute

// RunJanitor sweeps expired sessions every interval until ctx is done.
// It sweeps once immediately on start.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session janitor started", "interval", interval, "ttl", m.ttl)

	m.sweepAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			m.sweepAndLog(ctx)
		}
	}
}

func (m *Manager) sweepAndLog(ctx context.Context) {
	start := time.Now()
	if removed := m.Sweep(); removed > 0 {
		slog.InfoContext(ctx, "expired sessions removed",
			"removed", removed,
			"remaining", m.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
