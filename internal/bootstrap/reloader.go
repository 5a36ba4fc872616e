package bootstrap

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// RunReloader reloads the dataset every dataset.reload_interval until ctx
// is cancelled. A failed reload keeps the previous snapshot and is retried
// on the next tick. It returns immediately when the interval is zero.
func (a *App) RunReloader(ctx context.Context, clock clockwork.Clock) {
	interval := a.Config.Dataset.ReloadInterval
	if interval <= 0 {
		a.Logger.Info("Periodic reload disabled")
		return
	}
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	a.Logger.Info("Periodic reload started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("Periodic reload stopped")
			return
		case <-ticker.Chan():
			reloadCtx, cancel := withTimeout(ctx, a.Config.Dataset.Timeout)
			res, err := a.Admin.Reload(reloadCtx)
			cancel()
			if err != nil {
				a.Logger.Error("Scheduled reload failed", zap.Error(err))
				continue
			}
			a.Logger.Info("Scheduled reload complete",
				zap.Uint64("generation", res.Generation),
				zap.Int("records", res.Records))
		}
	}
}
