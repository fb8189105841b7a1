// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package queue implements the FIFO handoff of job Envelopes between the
// API and the Worker, with at-least-once delivery via visibility
// timeouts.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// message is the on-disk envelope record. Messages across every queue name
// share one badgerhold table; QueueName scopes Receive to one job type so
// delivery order is FIFO-per-type, though the executor may interleave
// types freely.
type message struct {
	ID           string          `json:"id" badgerhold:"key"`
	QueueName    string          `json:"queue_name" badgerhold:"index"`
	Envelope     models.Envelope `json:"envelope"`
	VisibleAt    time.Time       `json:"visible_at" badgerhold:"index"`
	ReceiveCount int             `json:"receive_count"`
}

// BadgerQueue implements interfaces.Queue over the same Badger/BadgerHold
// handle the Job Store uses.
type BadgerQueue struct {
	store             *badgerhold.Store
	visibilityTimeout time.Duration
	maxReceive        int
}

// NewBadgerQueue wraps an already-open badgerhold.Store as a Queue.
func NewBadgerQueue(hold *badgerhold.Store, visibilityTimeout time.Duration, maxReceive int) (interfaces.Queue, error) {
	if hold == nil {
		return nil, fmt.Errorf("queue: badgerhold store is required")
	}
	if visibilityTimeout <= 0 {
		visibilityTimeout = 60 * time.Second // recommended default
	}
	if maxReceive <= 0 {
		maxReceive = 5
	}
	return &BadgerQueue{store: hold, visibilityTimeout: visibilityTimeout, maxReceive: maxReceive}, nil
}

func (q *BadgerQueue) Enqueue(ctx context.Context, queueName string, env models.Envelope) error {
	now := time.Now().UTC()
	// Timestamp-prefixed id gives FIFO ordering for free under a SortBy("ID") query.
	id := fmt.Sprintf("%019d:%s", now.UnixNano(), uuid.New().String())

	msg := message{
		ID:        id,
		QueueName: queueName,
		Envelope:  env,
		VisibleAt: now,
	}
	if err := q.store.Insert(id, &msg); err != nil {
		return fmt.Errorf("queue: enqueue to %s: %w", queueName, err)
	}
	return nil
}

func (q *BadgerQueue) Receive(ctx context.Context, queueName string) (models.Envelope, func(ctx context.Context) error, error) {
	now := time.Now().UTC()

	var candidates []message
	err := q.store.Find(&candidates, badgerhold.Where("QueueName").Eq(queueName).
		And("VisibleAt").Le(now).
		And("ReceiveCount").Lt(q.maxReceive).
		SortBy("ID").
		Limit(1))
	if err != nil {
		return models.Envelope{}, nil, fmt.Errorf("queue: receive from %s: %w", queueName, err)
	}
	if len(candidates) == 0 {
		return models.Envelope{}, nil, interfaces.ErrNoMessage
	}

	found := candidates[0]
	found.ReceiveCount++
	found.VisibleAt = now.Add(q.visibilityTimeout)
	if err := q.store.Update(found.ID, &found); err != nil {
		return models.Envelope{}, nil, fmt.Errorf("queue: mark received %s: %w", found.ID, err)
	}

	messageID := found.ID
	deleteFn := func(ctx context.Context) error {
		if err := q.store.Delete(messageID, &message{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("queue: delete %s: %w", messageID, err)
		}
		return nil
	}

	return found.Envelope, deleteFn, nil
}

func (q *BadgerQueue) Extend(ctx context.Context, queueName, messageID string, duration time.Duration) error {
	var msg message
	if err := q.store.Get(messageID, &msg); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("queue: extend: message not found: %s", messageID)
		}
		return fmt.Errorf("queue: extend: %w", err)
	}
	msg.VisibleAt = time.Now().UTC().Add(duration)
	if err := q.store.Update(messageID, &msg); err != nil {
		return fmt.Errorf("queue: extend: %w", err)
	}
	return nil
}

func (q *BadgerQueue) Close() error {
	return nil // the badgerhold handle is owned by the Job Store
}
