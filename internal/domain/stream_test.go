package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAvailabilityEvent_ToUpdate(t *testing.T) {
	capacity := 40
	observed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		event    AvailabilityEvent
		expected AvailabilityUpdate
	}{
		{
			name:  "with capacity",
			event: AvailabilityEvent{SpotID: "HE12", LotType: "C", AvailableCount: 12, Capacity: &capacity, ObservedAt: observed},
			expected: AvailabilityUpdate{
				SpotID: "HE12", LotType: LotTypeCar, AvailableCount: 12, Capacity: &capacity, ObservedAt: observed,
			},
		},
		{
			name:     "without lot type or capacity",
			event:    AvailabilityEvent{SpotID: "BM29", AvailableCount: 0, ObservedAt: observed},
			expected: AvailabilityUpdate{SpotID: "BM29", AvailableCount: 0, ObservedAt: observed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.ToUpdate())
		})
	}
}

func TestLotType_Normalize(t *testing.T) {
	assert.Equal(t, LotTypeCar, LotType("").Normalize())
	assert.Equal(t, LotTypeMotorcycle, LotTypeMotorcycle.Normalize())
}

func TestParkingSpot_Eligible(t *testing.T) {
	assert.True(t, ParkingSpot{Active: true, AvailableCount: 1}.Eligible())
	assert.False(t, ParkingSpot{Active: true, AvailableCount: 0}.Eligible())
	assert.False(t, ParkingSpot{Active: false, AvailableCount: 5}.Eligible())
}

func TestImportBatch_Immutable(t *testing.T) {
	rows := []RowOutcome{
		{Row: RawRow{Line: 2, ID: "A"}, Accepted: true},
		{Row: RawRow{Line: 3, ID: "B"}, Accepted: false, Reason: "available_exceeds_capacity"},
	}
	batch := NewImportBatch(uuid.New(), time.Now(), rows, true)

	rows[0].Accepted = false
	got := batch.Rows()
	got[1].Reason = "changed"

	assert.Equal(t, 1, batch.AcceptedCount())
	assert.Equal(t, 1, batch.RejectedCount())
	assert.Equal(t, "available_exceeds_capacity", batch.Rejected()[0].Reason)
	assert.Equal(t, "B", batch.Rejected()[0].Row.ID)
}
