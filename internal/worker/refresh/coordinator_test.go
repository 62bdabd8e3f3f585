package refresh

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/repository/memory"
)

// fakeIndex counts rebuilds; the first rebuild can be held open and any
// rebuild can be made to fail.
type fakeIndex struct {
	mu      sync.Mutex
	calls   int
	hold    chan struct{}
	started chan struct{}
	failFor map[int]bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{started: make(chan struct{}, 16), failFor: map[int]bool{}}
}

func (f *fakeIndex) Rebuild(ctx context.Context, snapshot iter.Seq2[domain.ParkingSpot, error]) (int, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	hold := f.hold
	fail := f.failFor[call]
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if call == 1 && hold != nil {
		<-hold
	}

	n := 0
	for _, err := range snapshot {
		if err != nil {
			return 0, err
		}
		n++
	}
	if fail {
		return 0, fmt.Errorf("rebuild %d failed", call)
	}
	return n, nil
}

func (f *fakeIndex) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func startCoordinator(t *testing.T, idx *fakeIndex, cfg Config) *Coordinator {
	t.Helper()

	store := memory.NewSpotRepository()
	require.NoError(t, store.Upsert(context.Background(), domain.ParkingSpot{
		ID: "A", Capacity: 1, AvailableCount: 1, Source: domain.SourceImported, Active: true,
	}))

	c := NewCoordinator(store, idx, cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		_ = c.Stop()
		<-done
	})
	return c
}

func TestCoordinator_StartupRebuild(t *testing.T) {
	idx := newFakeIndex()
	c := startCoordinator(t, idx, Config{Interval: time.Hour})

	require.Eventually(t, func() bool {
		s := c.Status()
		return s.State == domain.RefreshIdle && s.Rebuilds == 1
	}, time.Second, 5*time.Millisecond)

	s := c.Status()
	assert.Equal(t, domain.ReasonStartup, s.LastReason)
	assert.Equal(t, 1, s.IndexedSpots)
	assert.False(t, s.LastSuccessAt.IsZero())
}

func TestCoordinator_CoalescesTriggersDuringRebuild(t *testing.T) {
	idx := newFakeIndex()
	idx.hold = make(chan struct{})
	c := startCoordinator(t, idx, Config{Interval: time.Hour})

	<-idx.started
	assert.Equal(t, domain.RefreshRefreshing, c.Status().State)

	c.TriggerImport()
	c.TriggerManual()
	close(idx.hold)

	require.Eventually(t, func() bool { return idx.Calls() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return idx.Calls() > 2 }, 200*time.Millisecond, 10*time.Millisecond)

	require.Eventually(t, func() bool { return c.Status().State == domain.RefreshIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ReasonManual, c.Status().LastReason)
}

func TestCoordinator_ChangeThreshold(t *testing.T) {
	idx := newFakeIndex()
	c := startCoordinator(t, idx, Config{Interval: time.Hour, ChangeThreshold: 50})

	require.Eventually(t, func() bool { return idx.Calls() == 1 }, time.Second, 5*time.Millisecond)

	c.NoteAvailabilityChanges(30)
	assert.Never(t, func() bool { return idx.Calls() > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	c.NoteAvailabilityChanges(25)
	require.Eventually(t, func() bool { return idx.Calls() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return c.Status().LastReason == domain.ReasonAvailability }, time.Second, 5*time.Millisecond)

	c.NoteAvailabilityChanges(0)
	c.NoteAvailabilityChanges(-3)
	assert.Never(t, func() bool { return idx.Calls() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestCoordinator_TimerTick(t *testing.T) {
	idx := newFakeIndex()
	startCoordinator(t, idx, Config{Interval: 30 * time.Millisecond})

	require.Eventually(t, func() bool { return idx.Calls() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinator_ErrorThenRetryThenIdle(t *testing.T) {
	idx := newFakeIndex()
	idx.failFor[1] = true
	idx.failFor[2] = true

	c := NewCoordinator(memory.NewSpotRepository(), idx, Config{
		Interval:       time.Hour,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     40 * time.Millisecond,
	}, zap.NewNop())

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	var (
		mu     sync.Mutex
		states []domain.RefreshState
	)
	go func() {
		for s := range updates {
			mu.Lock()
			states = append(states, s.State)
			mu.Unlock()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Start(ctx) }()
	defer c.Stop()

	require.Eventually(t, func() bool {
		s := c.Status()
		return s.State == domain.RefreshIdle && s.Rebuilds == 3
	}, 2*time.Second, 5*time.Millisecond)

	s := c.Status()
	assert.Equal(t, domain.ReasonRetry, s.LastReason)
	assert.Empty(t, s.LastError)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) > 0 && states[len(states)-1] == domain.RefreshIdle
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Contains(t, states, domain.RefreshError)
	mu.Unlock()
}

func TestCoordinator_TriggerDuringErrorRebuildsImmediately(t *testing.T) {
	idx := newFakeIndex()
	idx.failFor[1] = true

	c := startCoordinator(t, idx, Config{
		Interval:       time.Hour,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	})

	require.Eventually(t, func() bool { return c.Status().State == domain.RefreshError }, time.Second, 5*time.Millisecond)
	assert.NotEmpty(t, c.Status().LastError)

	c.TriggerImport()
	require.Eventually(t, func() bool { return c.Status().State == domain.RefreshIdle }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, idx.Calls())
}

func TestCoordinator_SubscribeCancel(t *testing.T) {
	c := NewCoordinator(memory.NewSpotRepository(), newFakeIndex(), Config{}, zap.NewNop())

	ch, cancel := c.Subscribe()
	first := <-ch
	assert.Equal(t, domain.RefreshIdle, first.State)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}
