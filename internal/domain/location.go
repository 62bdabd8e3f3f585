package domain

import "time"

// LocationFix - one reported device position
type LocationFix struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_m"`
	ObservedAt     time.Time `json:"observed_at"`
}

// FixState - how much a tracked position can be trusted
type FixState string

const (
	FixUnknown FixState = "unknown"
	FixFresh   FixState = "fresh"
	FixStale   FixState = "stale"
)

// TrackedLocation is the tracker's view of the device position. Fix is nil
// when State is FixUnknown and no fix was ever retained.
type TrackedLocation struct {
	State FixState     `json:"state"`
	Fix   *LocationFix `json:"fix,omitempty"`
}
