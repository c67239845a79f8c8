package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartHealthMonitor pings db every interval until ctx is done and logs
// transitions between reachable and unreachable. Ingestion never reports
// persistence failures to the device, so this is where an outage surfaces.
func StartHealthMonitor(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		healthy := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := db.PingContext(ctx)
				if ctx.Err() != nil {
					return
				}
				switch {
				case err != nil && healthy:
					healthy = false
					log.Error("postgres unreachable", zap.Error(err))
				case err == nil && !healthy:
					healthy = true
					log.Info("postgres reachable again")
				}
			}
		}
	}()
}
