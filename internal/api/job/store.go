// Package job keeps a bounded in-memory log of generator and tracker runs.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/polyedge/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Run kinds.
const (
	KindGenerate = "generate"
	KindTrack    = "track"
)

// Job is one generator or tracker run.
type Job struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Trigger    string      `json:"trigger"`
	Status     Status      `json:"status"`
	Result     any         `json:"result,omitempty"`
	ErrorCode  string      `json:"error_code,omitempty"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// Store manages run records, evicting the oldest beyond maxSize.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a new job store.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Start records a running job and returns a copy of it.
func (s *Store) Start(kind, trigger string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: s.now().UTC(),
	}

	if len(s.order) >= s.maxSize {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return *job
}

// Finish completes a job with its result, or marks it failed when err is set.
func (s *Store) Finish(id string, result any, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.Errorf(core.ErrRunNotFound, "run %s", id)
	}

	finished := s.now().UTC()
	job.FinishedAt = &finished
	job.Result = result
	job.Status = StatusComplete
	if err != nil {
		job.Status = StatusFailed
		job.ErrorCode = core.ErrorCode(err)
		job.Error = err.Error()
	}
	return nil
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.Errorf(core.ErrRunNotFound, "run %s", id)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// List returns jobs newest first, optionally restricted to one kind.
func (s *Store) List(kind string) []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		job := s.jobs[s.order[i]]
		if kind != "" && job.Kind != kind {
			continue
		}
		result = append(result, *job)
	}
	return result
}
