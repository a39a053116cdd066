package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/gofrs/flock"
)

// FileLock is an advisory, cross-process lock backed by flock(2).
type FileLock struct {
	fileLock   *flock.Flock
	lockPath   string
	owner      string
	acquiredAt time.Time
	mu         sync.RWMutex
}

type FileLockConfig struct {
	LockTimeout time.Duration
	LockRetry   time.Duration
}

func DefaultFileLockConfig() *FileLockConfig {
	lockTimeout, _ := config.DurationOrDefault(config.DefaultStoreLockTimeout, config.DefaultStoreLockTimeout)
	lockRetry, _ := config.DurationOrDefault(config.DefaultStoreLockRetry, config.DefaultStoreLockRetry)

	return &FileLockConfig{
		LockTimeout: lockTimeout,
		LockRetry:   lockRetry,
	}
}

// FileLockConfigFrom parses the store section, falling back to defaults for empty values.
func FileLockConfigFrom(cfg config.StoreConfig) (*FileLockConfig, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse store lock timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, fmt.Errorf("parse store lock retry: %w", err)
	}
	return &FileLockConfig{LockTimeout: lockTimeout, LockRetry: lockRetry}, nil
}

// AcquireFileLock blocks until lockPath is locked, cfg.LockTimeout elapses or ctx is done.
// owner only labels log lines.
func AcquireFileLock(ctx context.Context, owner, lockPath string, cfg *FileLockConfig) (*FileLock, error) {
	if cfg == nil {
		cfg = DefaultFileLockConfig()
	}

	lockCtx, cancel := context.WithTimeout(ctx, cfg.LockTimeout)
	defer cancel()

	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLockContext(lockCtx, cfg.LockRetry)
	if err != nil {
		if lockCtx.Err() != nil && ctx.Err() == nil {
			return nil, errors.Transient(fmt.Sprintf("%s is locked by another process (timeout after %v)", lockPath, cfg.LockTimeout))
		}
		return nil, fmt.Errorf("failed to attempt lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, errors.Transient(fmt.Sprintf("%s is locked by another process", lockPath))
	}

	fl := &FileLock{
		fileLock:   fileLock,
		lockPath:   lockPath,
		owner:      owner,
		acquiredAt: time.Now(),
	}
	slog.Debug("File lock acquired", "owner", owner, "path", lockPath)
	return fl, nil
}

func (fl *FileLock) Unlock() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.fileLock == nil {
		slog.Warn("FileLock already unlocked", "owner", fl.owner)
		return
	}

	if err := fl.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release file lock", "owner", fl.owner, "path", fl.lockPath, "error", err)
	} else {
		slog.Debug("File lock released",
			"owner", fl.owner,
			"held_duration_ms", time.Since(fl.acquiredAt).Milliseconds(),
		)
	}

	fl.fileLock = nil
}

func (fl *FileLock) IsLocked() bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.fileLock != nil
}

func (fl *FileLock) HeldDuration() time.Duration {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.fileLock == nil {
		return 0
	}
	return time.Since(fl.acquiredAt)
}

// CleanupStaleLock reports a lock file older than maxAge and removes it when force is set.
// A file whose lock is currently held is never removed.
func CleanupStaleLock(lockPath string, maxAge time.Duration, force bool) error {
	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	age := time.Since(info.ModTime())
	if age <= maxAge {
		return nil
	}

	slog.Warn("Found stale lock file", "path", lockPath, "age", age, "max_age", maxAge)
	if !force {
		slog.Info("Stale lock detected but not cleaning (use --force-clean-locks to remove)", "path", lockPath)
		return nil
	}

	probe := flock.New(lockPath)
	locked, err := probe.TryLock()
	if err != nil {
		return fmt.Errorf("probe lock %s: %w", lockPath, err)
	}
	if !locked {
		slog.Warn("Stale lock is still held, leaving it in place", "path", lockPath)
		return nil
	}
	defer probe.Unlock()

	if err := os.Remove(lockPath); err != nil {
		slog.Error("Failed to remove stale lock file", "path", lockPath, "error", err)
		return err
	}

	slog.Info("Stale lock file removed", "path", lockPath)
	return nil
}
