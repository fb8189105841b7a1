// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/loraforge/internal/models"
)

// ErrNoMessage is returned by Receive when the queue is empty.
var ErrNoMessage = newStoreError("no message available")

// Queue is a FIFO of job Envelopes between API and worker, providing
// at-least-once delivery: a crashed worker leaves the envelope visible for
// redelivery after a visibility timeout.
type Queue interface {
	// Enqueue appends env to the named queue (see models.QueueName).
	Enqueue(ctx context.Context, queueName string, env models.Envelope) error
	// Receive dequeues the oldest visible envelope from queueName and hides
	// it for the configured visibility timeout. The returned delete func
	// must be called on successful processing to remove the message for
	// good; if it is never called, the envelope reappears after the
	// timeout elapses. Returns ErrNoMessage if nothing is available.
	Receive(ctx context.Context, queueName string) (models.Envelope, func(ctx context.Context) error, error)
	// Extend pushes back the visibility deadline for an in-flight message,
	// used by a long-running job to avoid redelivery mid-execution.
	Extend(ctx context.Context, queueName, messageID string, duration time.Duration) error
	Close() error
}
