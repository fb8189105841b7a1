package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	return New(t.TempDir(), common.GetLogger()).(*Bus)
}

func TestBus_PublishWritesEventFileAndHistory(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	entry := models.JobLogEntry{Timestamp: common.NowUnixMilli(), Level: models.LogLevelInfo, Service: "worker", JobID: "train-aaaaaaaaaaaa", Event: "job.started", Message: "started"}
	require.NoError(t, bus.Publish(ctx, "train-aaaaaaaaaaaa", entry))

	history, err := bus.History(ctx, "train-aaaaaaaaaaaa", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "job.started", history[0].Event)
}

func TestBus_HistoryMissingFileReturnsEmpty(t *testing.T) {
	bus := newTestBus(t)
	history, err := bus.History(context.Background(), "does-not-exist", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBus_HistoryRespectsLimit(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, "train-bbbbbbbbbbbb", models.JobLogEntry{
			Timestamp: common.NowUnixMilli(), Level: models.LogLevelInfo, Service: "worker",
			JobID: "train-bbbbbbbbbbbb", Event: "training.step", Message: "step", Step: i,
		}))
	}

	history, err := bus.History(ctx, "train-bbbbbbbbbbbb", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].Step)
	assert.Equal(t, 4, history[1].Step)
}

func TestBus_SubscribeReceivesLivePublish(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	ch, unsubscribe := bus.Subscribe("train-ccccccccccc1")
	defer unsubscribe()

	require.NoError(t, bus.Publish(ctx, "train-ccccccccccc1", models.JobLogEntry{
		Timestamp: common.NowUnixMilli(), Event: "job.started", JobID: "train-ccccccccccc1",
	}))

	select {
	case entry := <-ch:
		assert.Equal(t, "job.started", entry.Event)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestBus_SubscribeDropsOldestWhenFull(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	ch, unsubscribe := bus.Subscribe("train-ddddddddddd1")
	defer unsubscribe()

	for i := 0; i < subscriberBufferSize+10; i++ {
		require.NoError(t, bus.Publish(ctx, "train-ddddddddddd1", models.JobLogEntry{
			Timestamp: common.NowUnixMilli(), Event: "training.step", JobID: "train-ddddddddddd1", Step: i,
		}))
	}

	// Buffer never blocks the publisher, and the most recent event is
	// still retrievable even though the oldest events were dropped.
	var last models.JobLogEntry
	for {
		select {
		case entry := <-ch:
			last = entry
		default:
			assert.Equal(t, subscriberBufferSize+9, last.Step)
			return
		}
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := newTestBus(t)
	ch, unsubscribe := bus.Subscribe("train-eeeeeeeeeee1")
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}
