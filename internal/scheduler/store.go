package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	"github.com/robfig/cron/v3"
)

type RunStatus string

const (
	StatusRunning RunStatus = "RUNNING"
	StatusDone    RunStatus = "DONE"
	StatusFailed  RunStatus = "FAILED"
)

// JobState is the last known run of one job.
type JobState struct {
	Name         string    `json:"name"`
	Schedule     string    `json:"schedule"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	LastStarted  time.Time `json:"last_started"`
	LastFinished time.Time `json:"last_finished"`
	LastStatus   RunStatus `json:"last_status,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

type runLog struct {
	Jobs map[string]*JobState `json:"jobs"`
}

// Store persists job run state so a restarted daemon can tell what it missed.
type Store struct {
	path string
	data runLog
	mu   sync.RWMutex
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: runLog{Jobs: make(map[string]*JobState)},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return nil
	}
	if err := json.Unmarshal(content, &s.data); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	if s.data.Jobs == nil {
		s.data.Jobs = make(map[string]*JobState)
	}
	return nil
}

func (s *Store) save() error {
	// Internal save, lock held by caller
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(b))
}

func (s *Store) job(name, schedule string) *JobState {
	j, ok := s.data.Jobs[name]
	if !ok {
		j = &JobState{Name: name}
		s.data.Jobs[name] = j
	}
	if schedule != "" {
		j.Schedule = schedule
	}
	return j
}

// Begin marks a run as started.
func (s *Store) Begin(name, schedule, runID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.job(name, schedule)
	j.LastRunID = runID
	j.LastStarted = at
	j.LastFinished = time.Time{}
	j.LastStatus = StatusRunning
	j.LastError = ""
	return s.save()
}

// Finish closes the run started with runID.
func (s *Store) Finish(name, runID string, at time.Time, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.data.Jobs[name]
	if !ok || j.LastRunID != runID {
		return fmt.Errorf("run %s of job %s not found", runID, name)
	}

	j.LastFinished = at
	j.LastStatus = StatusDone
	if runErr != nil {
		j.LastStatus = StatusFailed
		j.LastError = runErr.Error()
	}
	return s.save()
}

func (s *Store) Get(name string) (JobState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.data.Jobs[name]
	if !ok {
		return JobState{}, false
	}
	return *j, true
}

// All returns every job sorted by name.
func (s *Store) All() []JobState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobState, 0, len(s.data.Jobs))
	for _, j := range s.data.Jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Missed reports the earliest fire time of sched after the job's last start
// that is already in the past. Jobs that never ran have nothing to miss.
func (s *Store) Missed(name string, sched cron.Schedule, now time.Time) (time.Time, bool) {
	j, ok := s.Get(name)
	if !ok || j.LastStarted.IsZero() {
		return time.Time{}, false
	}

	next := sched.Next(j.LastStarted.In(now.Location()))
	if next.IsZero() || !next.Before(now) {
		return time.Time{}, false
	}
	return next, true
}
