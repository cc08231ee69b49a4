package cron

import (
	"context"
	"fmt"

	"tether/internal/storage"
	"tether/internal/store"
	"tether/pkg/logger"
)

// Sweep schedules. Rotation checks often because the log grows with
// every envelope; the ledger purge is cheap but rarely has work.
const (
	rotateSchedule = "*/5 * * * *"
	purgeSchedule  = "@hourly"
)

// RotationTask sweeps the event log size bound.
func RotationTask(eventLog *store.Log) Task {
	log := logger.Component("cron")
	return Task{
		Name:     "store-rotate",
		Schedule: rotateSchedule,
		Run: func(ctx context.Context) error {
			rotated, err := eventLog.MaybeRotate()
			if err != nil {
				return fmt.Errorf("rotate event log: %w", err)
			}
			if rotated {
				log.Info().Str("path", eventLog.Path()).Msg("Event log rotated")
			}
			return nil
		},
	}
}

// LedgerPurgeTask clears expired rows from the KV ledger.
func LedgerPurgeTask(db *storage.DB) Task {
	log := logger.Component("cron")
	return Task{
		Name:     "ledger-purge",
		Schedule: purgeSchedule,
		Run: func(ctx context.Context) error {
			n, err := db.KVCleanExpired()
			if err != nil {
				return fmt.Errorf("purge ledger: %w", err)
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("Expired ledger entries purged")
			}
			return nil
		},
	}
}
