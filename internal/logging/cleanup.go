package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"gorm.io/gorm"
)

// Purger drops rows that are past their useful life. The session store is one.
type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays and asks each purger to drop its own expired rows.
func StartCleanup(db *gorm.DB, retentionDays int, done chan struct{}, purgers ...Purger) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				RunCleanup(context.Background(), db, retentionDays, purgers...)
			case <-done:
				return
			}
		}
	}()
}

// RunCleanup performs one cleanup pass.
func RunCleanup(ctx context.Context, db *gorm.DB, retentionDays int, purgers ...Purger) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "cleanup", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}

	for _, p := range purgers {
		n, err := p.PurgeExpired(ctx, cutoff)
		if err != nil {
			slog.Error("session cleanup failed", "action", "cleanup", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("expired sessions purged", "deleted", n)
		}
	}
}
