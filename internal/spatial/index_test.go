package spatial

import (
	"context"
	"fmt"
	"iter"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spot(id string, lat, lon float64) domain.ParkingSpot {
	return domain.ParkingSpot{ID: id, Latitude: lat, Longitude: lon, Capacity: 10, AvailableCount: 5, Active: true}
}

func seqOf(spots ...domain.ParkingSpot) iter.Seq2[domain.ParkingSpot, error] {
	return func(yield func(domain.ParkingSpot, error) bool) {
		for _, s := range spots {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func ids(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.SpotID
	}
	return out
}

func TestIndex_QueryOrdersByDistance(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	_, err := idx.Rebuild(context.Background(), seqOf(
		spot("far", 1.3100, 103.8500),
		spot("near", 1.3001, 103.8500),
		spot("mid", 1.3040, 103.8500),
		spot("out", 1.4000, 103.8500),
	))
	require.NoError(t, err)

	got := idx.Query(1.3000, 103.8500, 2000, 0)
	assert.Equal(t, []string{"near", "mid", "far"}, ids(got))

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceMeters, got[i].DistanceMeters)
	}

	limited := idx.Query(1.3000, 103.8500, 2000, 2)
	assert.Equal(t, []string{"near", "mid"}, ids(limited))
}

func TestIndex_EqualDistanceTieBreaksOnID(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	idx.Upsert(spot("b", 0, 0))
	idx.Upsert(spot("a", 0, 0))

	assert.Equal(t, []string{"a", "b"}, ids(idx.Query(0, 0, 10, 0)))
}

func TestIndex_InactiveSpotsAreNotIndexed(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	inactive := spot("gone", 0, 0)
	inactive.Active = false

	n, err := idx.Rebuild(context.Background(), seqOf(spot("here", 0, 0), inactive))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"here"}, ids(idx.Query(0, 0, 100, 0)))

	deactivated := spot("here", 0, 0)
	deactivated.Active = false
	idx.Upsert(deactivated)
	assert.Empty(t, idx.Query(0, 0, 100, 0))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_AntimeridianAndPoles(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	idx.Upsert(spot("east", 0, 179.9995))
	idx.Upsert(spot("west", 0, -179.9995))
	idx.Upsert(spot("pole-a", 89.9999, 0))
	idx.Upsert(spot("pole-b", 89.9999, 180))

	t.Run("radius spanning the antimeridian", func(t *testing.T) {
		got := idx.Query(0, -179.9995, 200, 0)
		assert.Equal(t, []string{"west", "east"}, ids(got))
		assert.InDelta(t, 111.2, got[1].DistanceMeters, 0.5)
	})

	t.Run("radius around the pole", func(t *testing.T) {
		got := idx.Query(90, 0, 50, 0)
		assert.ElementsMatch(t, []string{"pole-a", "pole-b"}, ids(got))
	})
}

func TestIndex_IncrementalMoveBetweenCells(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	idx.Upsert(spot("mobile", 1.30, 103.85))
	idx.Upsert(spot("anchor", 1.30, 103.85))

	idx.Upsert(spot("mobile", 1.45, 103.70))

	assert.Equal(t, []string{"anchor"}, ids(idx.Query(1.30, 103.85, 500, 0)))
	assert.Equal(t, []string{"mobile"}, ids(idx.Query(1.45, 103.70, 500, 0)))
	assert.Equal(t, 2, idx.Len())

	idx.Remove("mobile")
	idx.Remove("unknown")
	assert.Empty(t, idx.Query(1.45, 103.70, 500, 0))
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_RebuildFailureKeepsCurrentGeneration(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	_, err := idx.Rebuild(context.Background(), seqOf(spot("kept", 0, 0)))
	require.NoError(t, err)

	failing := func(yield func(domain.ParkingSpot, error) bool) {
		if !yield(spot("new", 0, 0), nil) {
			return
		}
		yield(domain.ParkingSpot{}, fmt.Errorf("store went away"))
	}

	_, err = idx.Rebuild(context.Background(), failing)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexBuild)
	assert.Equal(t, []string{"kept"}, ids(idx.Query(0, 0, 10, 0)))

	bad := spot("bad", 95, 0)
	_, err = idx.Rebuild(context.Background(), seqOf(bad))
	assert.ErrorIs(t, err, errors.ErrIndexBuild)
}

func TestIndex_RebuildKeepsChangesMadeDuringBuild(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)
	idx.Upsert(spot("C", 0, 0.0002))

	snapshot := func(yield func(domain.ParkingSpot, error) bool) {
		if !yield(spot("A", 0, 0), nil) {
			return
		}
		if !yield(spot("C", 0, 0.0002), nil) {
			return
		}
		// writes landing on the live index while the new grid is built
		idx.Upsert(spot("B", 0, 0.0001))
		idx.Remove("C")
		idx.Upsert(spot("D", 0, 0.0003))
		idx.Upsert(spot("D", 10, 10))
	}

	n, err := idx.Rebuild(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"A", "B"}, ids(idx.Query(0, 0, 100, 0)))
	assert.Equal(t, []string{"D"}, ids(idx.Query(10, 10, 100, 0)))

	idx.mu.RLock()
	assert.False(t, idx.recording)
	assert.Nil(t, idx.journal)
	idx.mu.RUnlock()
}

func TestIndex_FailedRebuildStopsJournal(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)

	failing := func(yield func(domain.ParkingSpot, error) bool) {
		idx.Upsert(spot("live", 0, 0))
		yield(domain.ParkingSpot{}, fmt.Errorf("store went away"))
	}
	_, err := idx.Rebuild(context.Background(), failing)
	require.ErrorIs(t, err, errors.ErrIndexBuild)

	assert.Equal(t, []string{"live"}, ids(idx.Query(0, 0, 10, 0)))
	idx.mu.RLock()
	assert.False(t, idx.recording)
	assert.Empty(t, idx.journal)
	idx.mu.RUnlock()
}

func TestIndex_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := NewIndex(DefaultCellLevel)

	var all []domain.ParkingSpot
	for i := 0; i < 2000; i++ {
		s := spot(fmt.Sprintf("s%04d", i), 1.20+rng.Float64()*0.25, 103.60+rng.Float64()*0.40)
		all = append(all, s)
	}
	_, err := idx.Rebuild(context.Background(), seqOf(all...))
	require.NoError(t, err)

	for q := 0; q < 50; q++ {
		lat := 1.20 + rng.Float64()*0.25
		lon := 103.60 + rng.Float64()*0.40
		radius := 100 + rng.Float64()*5000

		want := []string{}
		for _, s := range all {
			if utils.HaversineMeters(lat, lon, s.Latitude, s.Longitude) <= radius {
				want = append(want, s.ID)
			}
		}
		got := ids(idx.Query(lat, lon, radius, 0))
		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, "query %d at (%f,%f) r=%f", q, lat, lon, radius)
	}
}

func TestIndex_ReadersNeverSeePartialRebuild(t *testing.T) {
	idx := NewIndex(DefaultCellLevel)

	gen := func(n int) []domain.ParkingSpot {
		out := make([]domain.ParkingSpot, n)
		for i := range out {
			out[i] = spot(fmt.Sprintf("g%d-%d", n, i), 0.0001*float64(i%10), 0.0001*float64(i/10))
		}
		return out
	}
	small, large := gen(100), gen(300)
	_, err := idx.Rebuild(context.Background(), seqOf(small...))
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	sizes := make(chan int, 10000)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					select {
					case sizes <- len(idx.Query(0, 0, 100000, 0)):
					default:
					}
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		next := small
		if i%2 == 0 {
			next = large
		}
		_, err := idx.Rebuild(ctx, seqOf(next...))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
	close(sizes)

	for n := range sizes {
		assert.Contains(t, []int{100, 300}, n)
	}
}
