package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
)

func TestStreamWorker_ProcessBatch(t *testing.T) {
	stream := newFakeStream([]domain.StreamMessage{
		{ID: "1-0", Data: `{"spot_id":"ACB","lot_type":"C","available_count":12,"observed_at":"2026-03-01T08:00:00Z"}`},
		{ID: "2-0", Data: `{not json`},
		{ID: "3-0", Data: ""},
		{ID: "4-0", Data: `{"spot_id":"","available_count":1,"observed_at":"2026-03-01T08:00:00Z"}`},
		{ID: "5-0", Data: `{"spot_id":"ACM","available_count":3,"capacity":40,"observed_at":"2026-03-01T08:01:00Z"}`},
	})
	applier := &recordingApplier{}
	w := NewStreamWorker(stream, applier, "parkwhere-test", 10, zap.NewNop())

	n, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	batches := applier.Batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "ACB", batches[0][0].SpotID)
	assert.Equal(t, domain.LotTypeCar, batches[0][0].LotType)
	assert.Equal(t, 12, batches[0][0].AvailableCount)
	assert.Equal(t, "ACM", batches[0][1].SpotID)
	require.NotNil(t, batches[0][1].Capacity)
	assert.Equal(t, 40, *batches[0][1].Capacity)

	assert.ElementsMatch(t, []string{"1-0", "2-0", "3-0", "4-0", "5-0"}, stream.Acked())
}

func TestStreamWorker_ApplyFailureLeavesMessagesPending(t *testing.T) {
	stream := newFakeStream([]domain.StreamMessage{
		{ID: "1-0", Data: `{"spot_id":"ACB","available_count":12,"observed_at":"2026-03-01T08:00:00Z"}`},
		{ID: "2-0", Data: `garbage`},
	})
	applier := &recordingApplier{err: fmt.Errorf("store down")}
	w := NewStreamWorker(stream, applier, "parkwhere-test", 10, zap.NewNop())

	_, err := w.processBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"2-0"}, stream.Acked())
}

func TestStreamWorker_EmptyBatch(t *testing.T) {
	applier := &recordingApplier{}
	w := NewStreamWorker(newFakeStream(), applier, "parkwhere-test", 10, zap.NewNop())

	n, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, applier.Batches())
}

func TestStreamWorker_StartAndStop(t *testing.T) {
	stream := newFakeStream([]domain.StreamMessage{
		{ID: "1-0", Data: `{"spot_id":"ACB","available_count":1,"observed_at":"2026-03-01T08:00:00Z"}`},
	})
	applier := &recordingApplier{}
	w := NewStreamWorker(stream, applier, "parkwhere-test", 0, zap.NewNop())
	assert.Equal(t, DefaultBatchSize, w.batchSize)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	require.Eventually(t, func() bool { return len(applier.Batches()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "parkwhere-test", stream.group)

	require.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
