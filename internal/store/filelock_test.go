package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortLockConfig(timeout time.Duration) *FileLockConfig {
	return &FileLockConfig{
		LockTimeout: timeout,
		LockRetry:   10 * time.Millisecond,
	}
}

func TestAcquireFileLock(t *testing.T) {
	path := DaemonLockPath(t.TempDir())

	lock, err := AcquireFileLock(context.Background(), "daemon", path, nil)
	require.NoError(t, err)
	assert.True(t, lock.IsLocked())
	assert.GreaterOrEqual(t, lock.HeldDuration(), time.Duration(0))

	lock.Unlock()
	assert.False(t, lock.IsLocked())
	assert.Zero(t, lock.HeldDuration())

	// double unlock only logs
	lock.Unlock()
}

func TestAcquireFileLock_TimesOutWhileHeld(t *testing.T) {
	path := DaemonLockPath(t.TempDir())

	first, err := AcquireFileLock(context.Background(), "first", path, nil)
	require.NoError(t, err)
	defer first.Unlock()

	start := time.Now()
	_, err = AcquireFileLock(context.Background(), "second", path, shortLockConfig(100*time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTransient)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAcquireFileLock_WaitsForRelease(t *testing.T) {
	path := ChoiceLockPath(t.TempDir())

	first, err := AcquireFileLock(context.Background(), "first", path, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var secondErr error
	go func() {
		defer wg.Done()
		second, err := AcquireFileLock(context.Background(), "second", path, shortLockConfig(2*time.Second))
		secondErr = err
		if err == nil {
			second.Unlock()
		}
	}()

	time.Sleep(50 * time.Millisecond)
	first.Unlock()
	wg.Wait()

	assert.NoError(t, secondErr)
}

func TestFileLockConfigFrom(t *testing.T) {
	cfg, err := FileLockConfigFrom(config.StoreConfig{})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.LockRetry)

	_, err = FileLockConfigFrom(config.StoreConfig{LockTimeout: "never"})
	assert.Error(t, err)
}

func TestCleanupStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := DaemonLockPath(dir)

	require.NoError(t, CleanupStaleLock(path, time.Minute, true), "missing file is fine")

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, CleanupStaleLock(path, time.Minute, false))
	_, err := os.Stat(path)
	require.NoError(t, err, "warn-only mode keeps the file")

	require.NoError(t, CleanupStaleLock(path, time.Minute, true))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPaths(t *testing.T) {
	dir := "/var/lib/gymslot"
	assert.Equal(t, filepath.Join(dir, "choice.json"), ChoicePath(dir))
	assert.Equal(t, filepath.Join(dir, "choice.json.lock"), ChoiceLockPath(dir))
	assert.Equal(t, filepath.Join(dir, "daemon.lock"), DaemonLockPath(dir))

	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ResolveStateDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gymslot", "state"), got)
}
