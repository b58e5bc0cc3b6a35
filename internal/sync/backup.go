package sync

import (
	"context"
	"log/slog"
)

// NoopBackupStore satisfies BackupStore when no cloud backup target is
// configured. Sync ticks still run so cadence handling stays exercised.
type NoopBackupStore struct {
	logger *slog.Logger
}

// NewNoopBackupStore creates a no-op backup store
func NewNoopBackupStore(logger *slog.Logger) *NoopBackupStore {
	logger.Warn("⚠️ [BackupStore] No cloud backup target configured, syncs are no-ops")
	return &NoopBackupStore{logger: logger}
}

func (b *NoopBackupStore) SyncUserData(ctx context.Context, userID uint) error {
	b.logger.Debug("☁️ [BackupStore] Skipping backup, no target configured", "user_id", userID)
	return nil
}
