package domain

import "time"

// Stream names shared with the availability publishers
const (
	StreamParkingAvailability = "stream:parking:availability"
)

// AvailabilityEvent - pushed availability change, JSON in the "data" field
type AvailabilityEvent struct {
	SpotID         string    `json:"spot_id"`
	LotType        string    `json:"lot_type,omitempty"`
	AvailableCount int       `json:"available_count"`
	Capacity       *int      `json:"capacity,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}

// ToUpdate converts the wire event to the domain update.
func (e AvailabilityEvent) ToUpdate() AvailabilityUpdate {
	return AvailabilityUpdate{
		SpotID:         e.SpotID,
		LotType:        LotType(e.LotType),
		AvailableCount: e.AvailableCount,
		Capacity:       e.Capacity,
		ObservedAt:     e.ObservedAt,
	}
}

// StreamMessage - message read from a Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
