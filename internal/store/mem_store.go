// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// MemStore is an in-memory JobStore acceptable only under the explicit
// "ephemeral" configuration flag. Intended for tests and the fast-test
// operating mode.
type MemStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

// NewMemStore constructs an empty ephemeral JobStore.
func NewMemStore() interfaces.JobStore {
	return &MemStore{jobs: make(map[string]*models.Job)}
}

func (s *MemStore) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job store: id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job store: create %s: already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *MemStore) List(ctx context.Context, opts models.JobListOptions) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if opts.Status != "" && job.Status != opts.Status {
			continue
		}
		if opts.Type != "" && job.Type != opts.Type {
			continue
		}
		matched = append(matched, job.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*models.Job{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *MemStore) Update(ctx context.Context, id string, expectedStatus models.JobStatus, patch func(*models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	if current.Status.IsTerminal() {
		return nil, interfaces.ErrTerminalTransition
	}
	if current.Status != expectedStatus {
		return nil, fmt.Errorf("job store: update %s: expected status %q, found %q", id, expectedStatus, current.Status)
	}

	updated := current.Clone()
	patch(updated)

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("job store: update %s: %w", id, err)
	}

	s.jobs[id] = updated
	return updated.Clone(), nil
}

func (s *MemStore) GetStaleJobs(ctx context.Context, staleAfter time.Duration) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().UTC().Add(-staleAfter)
	var stale []*models.Job
	for _, job := range s.jobs {
		if job.Status != models.JobStatusRunning {
			continue
		}
		if job.LastHeartbeat == nil || job.LastHeartbeat.Before(threshold) {
			stale = append(stale, job.Clone())
		}
	}
	return stale, nil
}

func (s *MemStore) MarkRunningJobsAsPending(ctx context.Context, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, job := range s.jobs {
		if job.Status != models.JobStatusRunning {
			continue
		}
		updated := job.Clone()
		updated.Status = models.JobStatusQueued
		updated.StartedAt = nil
		s.jobs[id] = updated
		count++
	}
	return count, nil
}

func (s *MemStore) Close() error {
	return nil
}
