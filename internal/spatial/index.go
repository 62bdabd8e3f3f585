package spatial

import (
	"context"
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
)

const (
	// DefaultCellLevel gives cells of roughly 1 km², a good fit for city car parks.
	DefaultCellLevel = 13

	// coveringCells bounds the coarse filter; larger caps get coarser cells.
	coveringCells = 12
)

// Candidate - an indexed spot with its exact distance from the query point
type Candidate struct {
	SpotID         string
	Latitude       float64
	Longitude      float64
	DistanceMeters float64
}

type entry struct {
	id   string
	lat  float64
	lon  float64
	cell s2.CellID
}

// grid is one consistent generation of the index. It is only mutated under
// the Index write lock, or before it is published by Rebuild.
type grid struct {
	cells map[s2.CellID]map[string]entry
	byID  map[string]entry
	// sorted ids of non-empty cells, for range scans under coarser covering cells
	order []s2.CellID
}

func newGrid() *grid {
	return &grid{
		cells: make(map[s2.CellID]map[string]entry),
		byID:  make(map[string]entry),
	}
}

// Index answers nearest/radius queries over active parking spots. Spots are
// bucketed by S2 cell at a fixed level; a query covers the search cap with
// cells (coarse filter) and ranks the bucket contents by haversine distance
// (fine filter).
type Index struct {
	mu    sync.RWMutex
	level int
	g     *grid

	// rebuildMu admits one Rebuild at a time. While it runs, incremental
	// changes also go to journal and are replayed onto the new grid.
	rebuildMu sync.Mutex
	recording bool
	journal   []change
}

// change is one incremental write made while a rebuild was running
type change struct {
	e      entry
	remove bool
}

func NewIndex(level int) *Index {
	if level <= 0 || level > s2.MaxLevel {
		level = DefaultCellLevel
	}
	return &Index{level: level, g: newGrid()}
}

// Level returns the S2 level used for buckets.
func (idx *Index) Level() int {
	return idx.level
}

// Len returns the number of indexed (active) spots.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.g.byID)
}

// Rebuild replaces the whole index with the active spots of snapshot. The new
// generation is built without holding the lock and swapped in at the end, so
// concurrent queries see either the old or the new index, never a mix.
// Upserts and removals made during the build are replayed onto the new
// generation before the swap. On error the current index is kept.
func (idx *Index) Rebuild(ctx context.Context, snapshot iter.Seq2[domain.ParkingSpot, error]) (int, error) {
	idx.rebuildMu.Lock()
	defer idx.rebuildMu.Unlock()

	idx.mu.Lock()
	idx.recording = true
	idx.journal = nil
	idx.mu.Unlock()
	defer idx.stopRecording()

	next := newGrid()

	for spot, err := range snapshot {
		if err != nil {
			return 0, errors.ErrIndexBuild.Wrap(err)
		}
		if err := ctx.Err(); err != nil {
			return 0, errors.ErrIndexBuild.Wrap(err)
		}
		if !spot.Active {
			continue
		}
		if !utils.ValidateCoordinates(spot.Latitude, spot.Longitude) {
			return 0, errors.ErrIndexBuild.Wrap(
				fmt.Errorf("spot %q has invalid coordinates (%f, %f)", spot.ID, spot.Latitude, spot.Longitude))
		}
		next.put(idx.entryFor(spot))
	}
	sort.Slice(next.order, func(i, j int) bool { return next.order[i] < next.order[j] })

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, ch := range idx.journal {
		next.apply(ch)
	}
	idx.g = next
	idx.recording = false
	idx.journal = nil

	return len(next.byID), nil
}

func (idx *Index) stopRecording() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.recording = false
	idx.journal = nil
}

// Upsert indexes an active spot, moving it between cells if its location
// changed. Inactive spots are removed.
func (idx *Index) Upsert(spot domain.ParkingSpot) {
	if !spot.Active || !utils.ValidateCoordinates(spot.Latitude, spot.Longitude) {
		idx.Remove(spot.ID)
		return
	}
	e := idx.entryFor(spot)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.record(change{e: e})
	idx.g.apply(change{e: e})
}

// Remove drops a spot from the index; unknown ids are ignored.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ch := change{e: entry{id: id}, remove: true}
	idx.record(ch)
	idx.g.apply(ch)
}

// record keeps ch for the running rebuild; callers hold the write lock.
func (idx *Index) record(ch change) {
	if idx.recording {
		idx.journal = append(idx.journal, ch)
	}
}

// Query returns indexed spots within radiusMeters of (lat, lon) ordered by
// distance, ties by id. limit <= 0 means no limit.
func (idx *Index) Query(lat, lon, radiusMeters float64, limit int) []Candidate {
	if !utils.ValidateCoordinates(lat, lon) || !(radiusMeters >= 0) {
		return nil
	}

	covering := idx.cover(lat, lon, radiusMeters)

	idx.mu.RLock()
	var out []Candidate
	for _, c := range covering {
		idx.g.scan(c, func(e entry) {
			d := utils.HaversineMeters(lat, lon, e.lat, e.lon)
			if d <= radiusMeters {
				out = append(out, Candidate{SpotID: e.id, Latitude: e.lat, Longitude: e.lon, DistanceMeters: d})
			}
		})
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].SpotID < out[j].SpotID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (idx *Index) cover(lat, lon, radiusMeters float64) s2.CellUnion {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	angle := radiusMeters / utils.EarthRadiusMeters

	var region s2.Cap
	if angle >= math.Pi {
		region = s2.FullCap()
	} else {
		region = s2.CapFromCenterAngle(center, s1.Angle(angle))
	}

	coverer := &s2.RegionCoverer{
		MinLevel: 0,
		MaxLevel: idx.level,
		LevelMod: 1,
		MaxCells: coveringCells,
	}
	return coverer.Covering(region)
}

func (idx *Index) entryFor(spot domain.ParkingSpot) entry {
	ll := s2.LatLngFromDegrees(spot.Latitude, spot.Longitude)
	return entry{
		id:   spot.ID,
		lat:  spot.Latitude,
		lon:  spot.Longitude,
		cell: s2.CellIDFromLatLng(ll).Parent(idx.level),
	}
}

// apply performs one incremental change on a grid whose order is sorted.
func (g *grid) apply(ch change) {
	if old, ok := g.byID[ch.e.id]; ok {
		g.delete(old, true)
	}
	if !ch.remove {
		g.putSorted(ch.e)
	}
}

// put adds e without keeping order sorted; callers sort once at the end.
func (g *grid) put(e entry) {
	if old, ok := g.byID[e.id]; ok {
		g.delete(old, false)
	}
	bucket, ok := g.cells[e.cell]
	if !ok {
		bucket = make(map[string]entry)
		g.cells[e.cell] = bucket
		g.order = append(g.order, e.cell)
	}
	bucket[e.id] = e
	g.byID[e.id] = e
}

func (g *grid) putSorted(e entry) {
	bucket, ok := g.cells[e.cell]
	if !ok {
		bucket = make(map[string]entry)
		g.cells[e.cell] = bucket
		i := sort.Search(len(g.order), func(i int) bool { return g.order[i] >= e.cell })
		g.order = append(g.order, 0)
		copy(g.order[i+1:], g.order[i:])
		g.order[i] = e.cell
	}
	bucket[e.id] = e
	g.byID[e.id] = e
}

func (g *grid) delete(e entry, sorted bool) {
	delete(g.byID, e.id)
	bucket := g.cells[e.cell]
	delete(bucket, e.id)
	if len(bucket) > 0 {
		return
	}
	delete(g.cells, e.cell)

	if sorted {
		i := sort.Search(len(g.order), func(i int) bool { return g.order[i] >= e.cell })
		if i < len(g.order) && g.order[i] == e.cell {
			g.order = append(g.order[:i], g.order[i+1:]...)
		}
		return
	}
	for i, c := range g.order {
		if c == e.cell {
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}

// scan visits every entry stored in a bucket contained in covering cell c.
func (g *grid) scan(c s2.CellID, visit func(entry)) {
	lo, hi := c.RangeMin(), c.RangeMax()
	i := sort.Search(len(g.order), func(i int) bool { return g.order[i] >= lo })
	for ; i < len(g.order) && g.order[i] <= hi; i++ {
		for _, e := range g.cells[g.order[i]] {
			visit(e)
		}
	}
}
