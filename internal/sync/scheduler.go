package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/repository"
	"github.com/invomate/backend-go/internal/worker"
)

// BackupStore pushes a user's invoice data to the cloud backup target.
// The Drive integration lives outside this service; this is its seam.
type BackupStore interface {
	SyncUserData(ctx context.Context, userID uint) error
}

// Scheduler runs periodic cloud-backup syncs. Each tick it walks active users
// and syncs those whose plan's auto-sync cadence has elapsed; manual-sync
// plans are skipped entirely.
type Scheduler struct {
	userRepo repository.UserRepository
	backup   BackupStore
	pool     *worker.Pool
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSync map[uint]time.Time
}

// NewScheduler creates a new auto-sync scheduler
func NewScheduler(
	userRepo repository.UserRepository,
	backup BackupStore,
	pool *worker.Pool,
	cfg *config.Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		userRepo: userRepo,
		backup:   backup,
		pool:     pool,
		interval: time.Duration(cfg.SyncTickInterval) * time.Second,
		logger:   logger,
		lastSync: make(map[uint]time.Time),
	}
}

// Start launches the scheduler loop on the worker pool
func (s *Scheduler) Start() {
	s.logger.Info("⏰ [SyncScheduler] Starting auto-sync scheduler", "tick_interval", s.interval)

	s.pool.Submit(func(ctx context.Context) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("🛑 [SyncScheduler] Scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	})
}

func (s *Scheduler) tick(ctx context.Context) {
	users, err := s.userRepo.ListActive()
	if err != nil {
		s.logger.Error("❌ [SyncScheduler] Failed to list active users", "error", err)
		return
	}

	now := time.Now()
	for _, user := range users {
		freq := user.GetPlanLimits().AutoSyncFrequency
		minutes := freq.SyncIntervalMinutes()
		if minutes == 0 {
			continue // manual sync only
		}

		if !s.due(user.ID, now, time.Duration(minutes)*time.Minute) {
			continue
		}

		userID := user.ID
		s.pool.SubmitWithTimeout(5*time.Minute, func(taskCtx context.Context) {
			if err := s.backup.SyncUserData(taskCtx, userID); err != nil {
				s.logger.Warn("⚠️ [SyncScheduler] Backup sync failed", "user_id", userID, "error", err)
				return
			}
			s.logger.Debug("☁️ [SyncScheduler] Backup sync completed", "user_id", userID)
		})
	}
}

// due marks the user as synced and reports whether the cadence had elapsed
func (s *Scheduler) due(userID uint, now time.Time, cadence time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastSync[userID]
	if ok && now.Sub(last) < cadence {
		return false
	}

	s.lastSync[userID] = now
	return true
}
