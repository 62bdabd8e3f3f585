package domain

import "time"

// LotType - vehicle class a car park counts lots for
type LotType string

const (
	LotTypeCar        LotType = "C"
	LotTypeMotorcycle LotType = "Y"
	LotTypeHeavy      LotType = "H"
)

// Normalize maps the empty lot type to car lots.
func (t LotType) Normalize() LotType {
	if t == "" {
		return LotTypeCar
	}
	return t
}

// SpotSource - where the current record values came from
type SpotSource string

const (
	SourceImported SpotSource = "imported"
	SourceLive     SpotSource = "live"
)

// ParkingSpot - a single parking location record
type ParkingSpot struct {
	ID             string     `json:"id" db:"id" validate:"required,max=64"`
	Latitude       float64    `json:"latitude" db:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64    `json:"longitude" db:"longitude" validate:"gte=-180,lte=180"`
	Capacity       int        `json:"capacity" db:"capacity" validate:"gte=0"`
	AvailableCount int        `json:"available_count" db:"available_count" validate:"gte=0,ltefield=Capacity"`
	LotType        LotType    `json:"lot_type" db:"lot_type" validate:"omitempty,oneof=C Y H"`
	Address        string     `json:"address,omitempty" db:"address" validate:"max=512"`
	Source         SpotSource `json:"source" db:"source" validate:"oneof=imported live"`
	Active         bool       `json:"active" db:"active"`
	LastUpdatedAt  time.Time  `json:"last_updated_at" db:"last_updated_at"`
}

// Eligible reports whether the spot can be offered to a driver.
func (s ParkingSpot) Eligible() bool {
	return s.Active && s.AvailableCount > 0
}

// AvailabilityUpdate - one availability observation from a live feed
type AvailabilityUpdate struct {
	SpotID         string    `json:"spot_id"`
	LotType        LotType   `json:"lot_type,omitempty"`
	AvailableCount int       `json:"available_count"`
	Capacity       *int      `json:"capacity,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}
