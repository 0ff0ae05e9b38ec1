// Package memory provides in-memory implementations of the persistence
// ports, used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindweave-backend/application/ports"
	pkgerrors "mindweave-backend/pkg/errors"
)

const cleanupInterval = 5 * time.Minute

// JobStore keeps expansion job records in memory. Records are copied on
// every read and write so a running job goroutine and HTTP readers never
// share a struct.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*ports.ExpansionJob
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

// NewJobStore creates an in-memory job store. When ttl is positive a
// background goroutine removes terminal records older than ttl; call
// Close to stop it.
func NewJobStore(ttl time.Duration) *JobStore {
	store := &JobStore{
		jobs: make(map[string]*ports.ExpansionJob),
		ttl:  ttl,
		stop: make(chan struct{}),
	}

	if ttl > 0 {
		go store.cleanupRoutine()
	}

	return store
}

// Store saves a new job record
func (s *JobStore) Store(ctx context.Context, job *ports.ExpansionJob) error {
	if job == nil || job.ID == "" {
		return pkgerrors.NewValidation("invalid job record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyJob(job)
	s.jobs[job.ID] = copied
	return nil
}

// Get retrieves a copy of the job record by ID
func (s *JobStore) Get(ctx context.Context, jobID string) (*ports.ExpansionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("job not found: %s", jobID))
	}
	return copyJob(job), nil
}

// Update replaces an existing job record
func (s *JobStore) Update(ctx context.Context, job *ports.ExpansionJob) error {
	if job == nil || job.ID == "" {
		return pkgerrors.NewValidation("invalid job record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		return pkgerrors.NewNotFound(fmt.Sprintf("job not found: %s", job.ID))
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// Delete removes a job record
func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, jobID)
	return nil
}

// CleanupExpired removes terminal jobs older than the given duration.
// Jobs still running are never removed regardless of age.
func (s *JobStore) CleanupExpired(ctx context.Context, olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, job := range s.jobs {
		if !job.Status.IsTerminal() {
			continue
		}
		if now.Sub(job.UpdatedAt) > olderThan {
			delete(s.jobs, id)
		}
	}
	return nil
}

// Len returns the number of stored records
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Close stops the cleanup goroutine
func (s *JobStore) Close() {
	s.once.Do(func() {
		close(s.stop)
	})
}

func (s *JobStore) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired(context.Background(), s.ttl)
		case <-s.stop:
			return
		}
	}
}

// copyJob deep-copies a job record, including its result payload
func copyJob(job *ports.ExpansionJob) *ports.ExpansionJob {
	copied := *job
	copied.Options.FocusNodeIDs = copyStringSet(job.Options.FocusNodeIDs)
	copied.Options.ExcludeNodeIDs = copyStringSet(job.Options.ExcludeNodeIDs)
	if job.Result != nil {
		result := *job.Result
		copied.Result = &result
	}
	return &copied
}

func copyStringSet(set map[string]bool) map[string]bool {
	if set == nil {
		return nil
	}
	copied := make(map[string]bool, len(set))
	for k, v := range set {
		copied[k] = v
	}
	return copied
}

var _ ports.JobStore = (*JobStore)(nil)
