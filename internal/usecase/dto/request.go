package dto

import "time"

// NearbyRequest - ranked search around the tracked position
type NearbyRequest struct {
	Limit       int     `query:"limit" json:"limit" validate:"omitempty,min=1"`
	MaxDistance float64 `query:"max_distance" json:"max_distance" validate:"omitempty,gt=0"` // meters
	LotType     string  `query:"lot_type" json:"lot_type" validate:"omitempty,oneof=C Y H"`
}

// ScanRequest - search around an explicit point, ineligible spots included
type ScanRequest struct {
	Lat         *float64 `query:"lat" json:"lat" validate:"required,gte=-90,lte=90"`
	Lon         *float64 `query:"lon" json:"lon" validate:"required,gte=-180,lte=180"`
	Limit       int      `query:"limit" json:"limit" validate:"omitempty,min=1"`
	MaxDistance float64  `query:"max_distance" json:"max_distance" validate:"omitempty,gt=0"`
	LotType     string   `query:"lot_type" json:"lot_type" validate:"omitempty,oneof=C Y H"`
}

// LocationRequest - device position report; observed_at defaults to now
type LocationRequest struct {
	Lat        *float64   `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon        *float64   `json:"lon" validate:"required,gte=-180,lte=180"`
	Accuracy   float64    `json:"accuracy_m" validate:"gte=0"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// UpsertSpotRequest - full replacement of one parking spot
type UpsertSpotRequest struct {
	Lat            *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon            *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Capacity       int      `json:"capacity" validate:"gte=0"`
	AvailableCount int      `json:"available_count" validate:"gte=0"`
	LotType        string   `json:"lot_type,omitempty" validate:"omitempty,oneof=C Y H"`
	Address        string   `json:"address,omitempty" validate:"max=512"`
	Active         *bool    `json:"active,omitempty"`
}

// AvailabilityPatchRequest - manual availability correction
type AvailabilityPatchRequest struct {
	AvailableCount *int `json:"available_count" validate:"required,gte=0"`
	Capacity       *int `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}
