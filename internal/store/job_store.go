// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerJobStore implements interfaces.JobStore over Badger/BadgerHold.
// Writes are serialized through a single mutex, since the Job Store is
// shared across threads within a process; every mutation reads the
// current record, builds a new copy via Job.Clone, and writes the copy
// back rather than mutating a
// record another goroutine may be holding a reference to.
type BadgerJobStore struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewBadgerJobStore wraps an already-open BadgerDB as a JobStore.
func NewBadgerJobStore(db *BadgerDB, logger arbor.ILogger) interfaces.JobStore {
	return &BadgerJobStore{db: db, logger: logger}
}

func (s *BadgerJobStore) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job store: id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Store().Insert(job.ID, job); err != nil {
		return fmt.Errorf("job store: create %s: %w", job.ID, err)
	}
	return nil
}

func (s *BadgerJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Store().Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("job store: get %s: %w", id, err)
	}
	return &job, nil
}

func (s *BadgerJobStore) List(ctx context.Context, opts models.JobListOptions) ([]*models.Job, error) {
	query := badgerhold.Where("ID").Ne("")

	if opts.Status != "" {
		query = query.And("Status").Eq(opts.Status)
	}
	if opts.Type != "" {
		query = query.And("Type").Eq(opts.Type)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Skip(opts.Offset)
	}
	if opts.OrderBy != "" {
		query = query.SortBy(opts.OrderBy).Reverse()
	} else {
		query = query.SortBy("CreatedAt").Reverse()
	}

	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("job store: list: %w", err)
	}

	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		j := jobs[i]
		result[i] = &j
	}
	return result, nil
}

func (s *BadgerJobStore) Update(ctx context.Context, id string, expectedStatus models.JobStatus, patch func(*models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current models.Job
	if err := s.db.Store().Get(id, &current); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("job store: update %s: %w", id, err)
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

	if err := s.db.Store().Upsert(id, updated); err != nil {
		return nil, fmt.Errorf("job store: update %s: %w", id, err)
	}
	return updated, nil
}

func (s *BadgerJobStore) GetStaleJobs(ctx context.Context, staleAfter time.Duration) ([]*models.Job, error) {
	threshold := time.Now().UTC().Add(-staleAfter)

	var jobs []models.Job
	err := s.db.Store().Find(&jobs, badgerhold.Where("Status").Eq(models.JobStatusRunning).And("LastHeartbeat").Lt(threshold))
	if err != nil {
		return nil, fmt.Errorf("job store: stale jobs: %w", err)
	}

	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		j := jobs[i]
		result[i] = &j
	}
	return result, nil
}

func (s *BadgerJobStore) MarkRunningJobsAsPending(ctx context.Context, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, badgerhold.Where("Status").Eq(models.JobStatusRunning)); err != nil {
		return 0, fmt.Errorf("job store: mark running as pending: %w", err)
	}

	count := 0
	for _, job := range jobs {
		updated := job.Clone()
		updated.Status = models.JobStatusQueued
		updated.StartedAt = nil
		if err := s.db.Store().Upsert(updated.ID, updated); err == nil {
			count++
			s.logger.Info().Str("job_id", updated.ID).Str("reason", reason).Msg("requeued running job")
		} else {
			s.logger.Warn().Err(err).Str("job_id", updated.ID).Msg("failed to requeue running job")
		}
	}
	return count, nil
}

func (s *BadgerJobStore) Close() error {
	return nil // lifecycle owned by BadgerDB, shared with the queue
}
