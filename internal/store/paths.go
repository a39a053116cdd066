package store

import (
	"path/filepath"
	"strings"

	"github.com/harunnryd/gymslot/internal/config"
	"github.com/harunnryd/gymslot/internal/pathutil"
)

// ResolveStateDir expands the configured state directory, defaulting to ~/.gymslot/state.
func ResolveStateDir(stateDir string) (string, error) {
	if trimmed := strings.TrimSpace(stateDir); trimmed != "" {
		return pathutil.Expand(trimmed)
	}
	return filepath.Join(config.DefaultDir(), config.DefaultStateDirName), nil
}

// ChoicePath returns the persisted choice file.
func ChoicePath(stateDir string) string {
	return filepath.Join(stateDir, config.DefaultChoiceFileName)
}

// ChoiceLockPath guards reads and writes of the choice file across processes.
func ChoiceLockPath(stateDir string) string {
	return ChoicePath(stateDir) + ".lock"
}

// DaemonLockPath is held for the lifetime of a running daemon.
func DaemonLockPath(stateDir string) string {
	return filepath.Join(stateDir, "daemon.lock")
}

// RunLogPath records when each scheduled job last ran.
func RunLogPath(stateDir string) string {
	return filepath.Join(stateDir, "schedule.json")
}
