package tracker

import (
	"sync"
	"testing"
	"time"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTracker(t *testing.T) (*LocationTracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: base.Add(10 * time.Second)}
	tr := NewLocationTracker(Config{
		MaxAccuracyMeters:     100,
		FreshnessWindow:       2 * time.Minute,
		RetentionWindow:       10 * time.Minute,
		MinDisplacementMeters: 10,
	}, zap.NewNop(), WithClock(clock.Now))
	return tr, clock
}

func fixAt(sec int, lat, lon float64) domain.LocationFix {
	return domain.LocationFix{
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: 15,
		ObservedAt:     base.Add(time.Duration(sec) * time.Second),
	}
}

func TestLocationTracker_UnknownUntilFirstFix(t *testing.T) {
	tr, _ := newTracker(t)

	_, ok := tr.Current()
	assert.False(t, ok)
	assert.Equal(t, domain.FixUnknown, tr.Snapshot().State)
	assert.Nil(t, tr.Snapshot().Fix)
}

func TestLocationTracker_IgnoresOlderFix(t *testing.T) {
	tr, _ := newTracker(t)

	res, err := tr.Record(fixAt(5, 1.30, 103.80))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Outcome)

	res, err = tr.Record(fixAt(3, 1.31, 103.81))
	require.NoError(t, err)
	assert.Equal(t, OutcomeOutOfOrder, res.Outcome)

	res, err = tr.Record(fixAt(8, 1.32, 103.82))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Outcome)

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, fixAt(8, 1.32, 103.82), cur)
}

func TestLocationTracker_EqualTimestampIsAccepted(t *testing.T) {
	tr, _ := newTracker(t)

	_, err := tr.Record(fixAt(5, 1.30, 103.80))
	require.NoError(t, err)
	res, err := tr.Record(fixAt(5, 1.35, 103.80))
	require.NoError(t, err)

	assert.Equal(t, OutcomeAccepted, res.Outcome)
	cur, _ := tr.Current()
	assert.Equal(t, 1.35, cur.Latitude)
}

func TestLocationTracker_AccuracyTolerance(t *testing.T) {
	tests := []struct {
		name     string
		accuracy float64
		want     Outcome
	}{
		{"within tolerance", 30, OutcomeAccepted},
		{"at tolerance", 100, OutcomeAccepted},
		{"too coarse", 100.5, OutcomeInaccurate},
		{"negative", -1, OutcomeInaccurate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTracker(t)
			fix := fixAt(1, 1.3, 103.8)
			fix.AccuracyMeters = tt.accuracy

			res, err := tr.Record(fix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
		})
	}
}

func TestLocationTracker_RejectsMalformedFix(t *testing.T) {
	tr, _ := newTracker(t)

	_, err := tr.Record(domain.LocationFix{Latitude: 91, Longitude: 0, ObservedAt: base})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = tr.Record(domain.LocationFix{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, errors.ErrValidation)

	assert.Equal(t, domain.FixUnknown, tr.Snapshot().State)
}

func TestLocationTracker_FutureFixDropped(t *testing.T) {
	tr, _ := newTracker(t)

	res, err := tr.Record(fixAt(3600, 1.3, 103.8))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFuture, res.Outcome)
	assert.Equal(t, domain.FixUnknown, tr.Snapshot().State)
}

func TestLocationTracker_FreshnessAndRetention(t *testing.T) {
	tr, clock := newTracker(t)
	_, err := tr.Record(fixAt(10, 1.3, 103.8))
	require.NoError(t, err)

	assert.Equal(t, domain.FixFresh, tr.Snapshot().State)

	clock.Advance(2*time.Minute + time.Second)
	_, ok := tr.Current()
	assert.False(t, ok, "fix past the freshness window must read as unknown")
	snap := tr.Snapshot()
	assert.Equal(t, domain.FixStale, snap.State)
	require.NotNil(t, snap.Fix)
	assert.Equal(t, 1.3, snap.Fix.Latitude)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, domain.FixUnknown, tr.Snapshot().State)
	assert.Empty(t, tr.History())
}

func TestLocationTracker_Moved(t *testing.T) {
	tr, _ := newTracker(t)

	res, _ := tr.Record(fixAt(1, 1.300000, 103.8))
	assert.True(t, res.Moved, "first fix always counts as a move")

	// ~5.5 m north
	res, _ = tr.Record(fixAt(2, 1.300050, 103.8))
	assert.False(t, res.Moved)

	// ~55 m north
	res, _ = tr.Record(fixAt(3, 1.300550, 103.8))
	assert.True(t, res.Moved)
}

func TestLocationTracker_HistoryPrunedByRetention(t *testing.T) {
	tr, clock := newTracker(t)

	_, _ = tr.Record(fixAt(1, 1.30, 103.8))
	clock.Advance(9 * time.Minute)
	_, _ = tr.Record(fixAt(9*60, 1.31, 103.8))
	clock.Advance(2 * time.Minute)
	_, _ = tr.Record(fixAt(11*60, 1.32, 103.8))

	hist := tr.History()
	require.Len(t, hist, 2)
	assert.Equal(t, 1.31, hist[0].Latitude)
	assert.Equal(t, 1.32, hist[1].Latitude)
}

func TestLocationTracker_ConcurrentWritersKeepNewest(t *testing.T) {
	tr, clock := newTracker(t)
	clock.Advance(time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = tr.Record(fixAt(i, 1.3+float64(w)*0.001, 103.8))
			}
		}(w)
	}
	wg.Wait()

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, base.Add(49*time.Second), cur.ObservedAt)
}
