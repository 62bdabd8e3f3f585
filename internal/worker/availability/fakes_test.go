package availability

import (
	"context"
	"sync"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/usecase"
)

type fakeStream struct {
	mu       sync.Mutex
	group    string
	batches  [][]domain.StreamMessage
	acked    []string
	consumed chan struct{}
}

func newFakeStream(batches ...[]domain.StreamMessage) *fakeStream {
	return &fakeStream{batches: batches, consumed: make(chan struct{}, 64)}
}

func (f *fakeStream) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.group = group
	return nil
}

func (f *fakeStream) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	f.mu.Lock()
	var batch []domain.StreamMessage
	if len(f.batches) > 0 {
		batch = f.batches[0]
		f.batches = f.batches[1:]
	}
	f.mu.Unlock()

	select {
	case f.consumed <- struct{}{}:
	default:
	}
	if batch == nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	return batch, nil
}

func (f *fakeStream) AckMessages(ctx context.Context, stream, group string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return nil
}

func (f *fakeStream) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	return nil
}

func (f *fakeStream) Acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

type recordingApplier struct {
	mu      sync.Mutex
	batches [][]domain.AvailabilityUpdate
	err     error
}

func (a *recordingApplier) ApplyAvailability(ctx context.Context, updates []domain.AvailabilityUpdate) (usecase.AvailabilityResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batches = append(a.batches, updates)
	if a.err != nil {
		return usecase.AvailabilityResult{Received: len(updates)}, a.err
	}
	return usecase.AvailabilityResult{Received: len(updates), Applied: len(updates)}, nil
}

func (a *recordingApplier) Batches() [][]domain.AvailabilityUpdate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]domain.AvailabilityUpdate(nil), a.batches...)
}

type fakeFeed struct {
	mu      sync.Mutex
	calls   int
	updates []domain.AvailabilityUpdate
	err     error
}

func (f *fakeFeed) FetchAvailability(ctx context.Context) ([]domain.AvailabilityUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.updates, f.err
}

func (f *fakeFeed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
