package validator

import (
	"math"
	"testing"
	"time"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpot() domain.ParkingSpot {
	return domain.ParkingSpot{
		ID:             "ACB",
		Latitude:       1.3007,
		Longitude:      103.8546,
		Capacity:       10,
		AvailableCount: 4,
		LotType:        domain.LotTypeCar,
		Source:         domain.SourceImported,
		Active:         true,
		LastUpdatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateSpot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *domain.ParkingSpot)
		reason string
	}{
		{"valid", func(s *domain.ParkingSpot) {}, ""},
		{"available exceeds capacity", func(s *domain.ParkingSpot) { s.AvailableCount = 5; s.Capacity = 2 }, "available_exceeds_capacity"},
		{"negative capacity", func(s *domain.ParkingSpot) { s.Capacity = -1; s.AvailableCount = -2 }, "capacity_negative"},
		{"negative available", func(s *domain.ParkingSpot) { s.AvailableCount = -1 }, "available_count_negative"},
		{"latitude out of range", func(s *domain.ParkingSpot) { s.Latitude = 90.5 }, "latitude_out_of_range"},
		{"longitude out of range", func(s *domain.ParkingSpot) { s.Longitude = -180.01 }, "longitude_out_of_range"},
		{"latitude NaN", func(s *domain.ParkingSpot) { s.Latitude = math.NaN() }, "latitude_out_of_range"},
		{"missing id", func(s *domain.ParkingSpot) { s.ID = "" }, "id_required"},
		{"unknown lot type", func(s *domain.ParkingSpot) { s.LotType = "Z" }, "lot_type_unknown"},
		{"boundary coordinates", func(s *domain.ParkingSpot) { s.Latitude = -90; s.Longitude = 180 }, ""},
		{"empty car park", func(s *domain.ParkingSpot) { s.Capacity = 0; s.AvailableCount = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spot := validSpot()
			tt.mutate(&spot)

			err := ValidateSpot(spot)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
			assert.Contains(t, errors.Reasons(err), tt.reason)
		})
	}
}

func TestValidate_RequestDTO(t *testing.T) {
	type req struct {
		Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	}

	assert.NoError(t, Validate(&req{Lat: 10}))

	err := Validate(&req{Lat: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidRequest)
}
