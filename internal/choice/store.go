// Package choice persists the single pending slot selection between the
// collection and execution triggers.
package choice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/harunnryd/gymslot/internal/errors"
	"github.com/harunnryd/gymslot/internal/store"

	"github.com/natefinch/atomic"
)

// Record is the on-disk form of a choice.
type Record struct {
	SlotID   string    `json:"slot_id"`
	ChosenAt time.Time `json:"chosen_at"`
}

// Store keeps at most one Record in a JSON file. Every call re-reads the file,
// so a separate process (or a restarted one) always sees the latest write.
type Store struct {
	dir     string
	path    string
	lockCfg *store.FileLockConfig
	now     func() time.Time
}

type Option func(*Store)

func WithLockConfig(cfg *store.FileLockConfig) Option {
	return func(s *Store) { s.lockCfg = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates the state directory if needed.
func NewStore(stateDir string, opts ...Option) (*Store, error) {
	dir, err := store.ResolveStateDir(stateDir)
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}

	s := &Store{
		dir:     dir,
		path:    store.ChoicePath(dir),
		lockCfg: store.DefaultFileLockConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Save overwrites any existing choice with slotID.
func (s *Store) Save(ctx context.Context, slotID string) error {
	return s.withLock(ctx, func() error {
		b, err := json.MarshalIndent(Record{SlotID: slotID, ChosenAt: s.now().UTC()}, "", "  ")
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
			return fmt.Errorf("write choice: %w", err)
		}
		slog.Debug("Choice saved", "slot_id", slotID, "path", s.path)
		return nil
	})
}

// Load returns the stored slot id. ok is false when nothing is stored.
func (s *Store) Load(ctx context.Context) (slotID string, ok bool, err error) {
	rec, ok, err := s.Record(ctx)
	if err != nil || !ok {
		return "", ok, err
	}
	return rec.SlotID, true, nil
}

// Record returns the full stored record, including when it was chosen.
// A file that exists but does not decode returns an error wrapping
// errors.ErrInvalidInput; lock and read failures do not.
func (s *Store) Record(ctx context.Context) (Record, bool, error) {
	var (
		rec Record
		ok  bool
	)
	err := s.withLock(ctx, func() error {
		content, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read choice: %w", err)
		}
		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}
		if err := json.Unmarshal(content, &rec); err != nil {
			return fmt.Errorf("decode choice %s: %w: %w", s.path, errors.ErrInvalidInput, err)
		}
		rec.SlotID = strings.TrimSpace(rec.SlotID)
		ok = rec.SlotID != ""
		return nil
	})
	return rec, ok, err
}

// Clear removes the stored choice. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove choice: %w", err)
		}
		slog.Debug("Choice cleared", "path", s.path)
		return nil
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	lock, err := store.AcquireFileLock(ctx, "choice", store.ChoiceLockPath(s.dir), s.lockCfg)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
