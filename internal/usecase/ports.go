package usecase

import (
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/spatial"
)

// SpotIndex - spatial lookup over active spots (implemented by spatial.Index)
type SpotIndex interface {
	Query(lat, lon, radiusMeters float64, limit int) []spatial.Candidate
	Upsert(spot domain.ParkingSpot)
	Remove(id string)
	Len() int
}

// noopIndex stands in when no process-local index is kept
type noopIndex struct{}

func (noopIndex) Query(float64, float64, float64, int) []spatial.Candidate { return nil }
func (noopIndex) Upsert(domain.ParkingSpot)                                {}
func (noopIndex) Remove(string)                                            {}
func (noopIndex) Len() int                                                 { return 0 }

// LocationSource - current device position (implemented by tracker.LocationTracker)
type LocationSource interface {
	Current() (domain.LocationFix, bool)
	Snapshot() domain.TrackedLocation
}

// RefreshTrigger - hooks into the index refresh coordinator
type RefreshTrigger interface {
	TriggerImport()
	NoteAvailabilityChanges(n int)
}

type noopTrigger struct{}

func (noopTrigger) TriggerImport()              {}
func (noopTrigger) NoteAvailabilityChanges(int) {}

// RefreshStatusSource - read side of the refresh coordinator
type RefreshStatusSource interface {
	Status() domain.RefreshStatus
}
