package main

import (
	"context"
	"time"

	"github.com/sellora/sellora-backend/internal/inventory"
	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/logger"
)

const defaultSweepInterval = time.Minute

// runExpirySweep periodically releases reservations whose hold has lapsed.
func runExpirySweep(ctx context.Context, cfg *config.Config, svc inventory.Service, logg *logger.Logger) {
	interval := cfg.Inventory.ExpirySweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := svc.ReleaseExpired(ctx)
			if err != nil {
				logg.Error(ctx, "expiry sweep failed", err)
				continue
			}
			if released > 0 {
				sweepCtx := logg.WithField(ctx, "released", released)
				logg.Info(sweepCtx, "expired reservations released")
			}
		}
	}
}
