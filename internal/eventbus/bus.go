// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package eventbus fans JobLogEntry records out to in-memory subscribers
// for live streaming while durably appending them to a per-job
// events.jsonl file, the source of truth for history replay and debug
// bundles.
package eventbus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

const subscriberBufferSize = 64

// Bus implements interfaces.EventBus. Subscribers are kept in a map keyed
// by job_id; each gets its own bounded channel. A per-job mutex serializes
// Publish so the in-memory fan-out and the events.jsonl append happen in
// the same order for every reader.
//
// events.jsonl is appended with os.O_APPEND, which POSIX guarantees is
// atomic for writes under PIPE_BUF - the file itself is the cross-process
// serializing primitive between the worker (writer) and the API (reader)
// processes; no third-party file-locking library appears anywhere in the
// reference corpus, so this relies on that stdlib guarantee rather than an
// unavailable dependency.
type Bus struct {
	volumeRoot string
	logger     arbor.ILogger

	mu          sync.Mutex
	subscribers map[string]map[chan models.JobLogEntry]struct{}
	jobLocks    map[string]*sync.Mutex
}

// New constructs a Bus that writes job event files under
// {volumeRoot}/logs/jobs/{job_id}/events.jsonl.
func New(volumeRoot string, logger arbor.ILogger) interfaces.EventBus {
	return &Bus{
		volumeRoot:  volumeRoot,
		logger:      logger,
		subscribers: make(map[string]map[chan models.JobLogEntry]struct{}),
		jobLocks:    make(map[string]*sync.Mutex),
	}
}

func (b *Bus) eventFilePath(jobID string) string {
	return filepath.Join(b.volumeRoot, "logs", "jobs", jobID, "events.jsonl")
}

func (b *Bus) lockFor(jobID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.jobLocks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		b.jobLocks[jobID] = lock
	}
	return lock
}

// Publish appends entry to the job's event file, then fans it out to live
// subscribers. The file write happens first: a subscriber that reads
// History immediately after being notified must see the entry on disk.
func (b *Bus) Publish(ctx context.Context, jobID string, entry models.JobLogEntry) error {
	lock := b.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	if err := b.appendToFile(jobID, entry); err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", jobID, err)
	}

	b.fanOut(jobID, entry)
	return nil
}

func (b *Bus) appendToFile(jobID string, entry models.JobLogEntry) error {
	path := b.eventFilePath(jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create job log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (b *Bus) fanOut(jobID string, entry models.JobLogEntry) {
	b.mu.Lock()
	subs := b.subscribers[jobID]
	chans := make([]chan models.JobLogEntry, 0, len(subs))
	for ch := range subs {
		chans = append(chans, ch)
	}
	b.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- entry:
		default:
			// Subscriber buffer is full - drop the oldest pending event to
			// make room rather than block the publisher.
			select {
			case <-ch:
				b.logger.Warn().Str("job_id", jobID).Str("event", entry.Event).Msg("subscriber.dropped")
			default:
			}
			select {
			case ch <- entry:
			default:
			}
		}
	}
}

// Subscribe registers a new live listener for jobID.
func (b *Bus) Subscribe(jobID string) (<-chan models.JobLogEntry, func()) {
	ch := make(chan models.JobLogEntry, subscriberBufferSize)

	b.mu.Lock()
	if b.subscribers[jobID] == nil {
		b.subscribers[jobID] = make(map[chan models.JobLogEntry]struct{})
	}
	b.subscribers[jobID][ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subscribers[jobID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subscribers, jobID)
			}
		}
		close(ch)
	}

	return ch, unsubscribe
}

// History reads the job's event file and returns up to the last limit
// entries, tolerating a missing file (job has not emitted any events yet).
func (b *Bus) History(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error) {
	path := b.eventFilePath(jobID)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventbus: history %s: %w", jobID, err)
	}
	defer f.Close()

	var all []models.JobLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry models.JobLogEntry
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &entry); err != nil {
			b.logger.Warn().Err(err).Str("job_id", jobID).Msg("skipping malformed event line")
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventbus: history %s: %w", jobID, err)
	}

	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// Close drops all subscribers. Event files are left on disk.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for jobID, set := range b.subscribers {
		for ch := range set {
			close(ch)
		}
		delete(b.subscribers, jobID)
	}
	return nil
}
