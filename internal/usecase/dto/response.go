package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/tracker"
	"github.com/parkwhere/internal/usecase"
)

// NearbySpot - one ranked result with its resolved record
type NearbySpot struct {
	Rank           int                 `json:"rank,omitempty"`
	SpotID         string              `json:"spot_id"`
	DistanceMeters float64             `json:"distance_m"`
	Eligible       bool                `json:"eligible"`
	Spot           *domain.ParkingSpot `json:"spot,omitempty"`
}

// NearbyResponse - ranked search result
type NearbyResponse struct {
	Origin  *domain.Point `json:"origin,omitempty"`
	Results []NearbySpot  `json:"results"`
}

// LocationResponse - tracker verdict plus the resulting position state
type LocationResponse struct {
	Outcome  tracker.Outcome        `json:"outcome"`
	Moved    bool                   `json:"moved"`
	Location domain.TrackedLocation `json:"location"`
}

// ImportResponse - summary of one committed or failed import batch
type ImportResponse struct {
	BatchID   uuid.UUID           `json:"batch_id"`
	CreatedAt time.Time           `json:"created_at"`
	Committed bool                `json:"committed"`
	Accepted  int                 `json:"accepted"`
	Rejected  int                 `json:"rejected"`
	Rows      []domain.RowOutcome `json:"rejected_rows,omitempty"`
}

// ImportAcceptedResponse - reply to an asynchronous import
type ImportAcceptedResponse struct {
	BatchID uuid.UUID `json:"batch_id"`
	Status  string    `json:"status"`
	Rows    int       `json:"rows"`
}

// ImportStatusResponse - state of an asynchronous import
type ImportStatusResponse struct {
	BatchID uuid.UUID       `json:"batch_id"`
	Status  string          `json:"status"`
	Rows    int             `json:"rows"`
	Error   string          `json:"error,omitempty"`
	Result  *ImportResponse `json:"result,omitempty"`
}

// NewImportStatusResponse builds the response from a tracked import job.
func NewImportStatusResponse(job usecase.ImportJob) ImportStatusResponse {
	resp := ImportStatusResponse{
		BatchID: job.ID,
		Status:  string(job.Status),
		Rows:    job.Rows,
	}
	if job.Err != nil {
		resp.Error = job.Err.Error()
	}
	if job.Batch != nil {
		result := NewImportResponse(*job.Batch)
		resp.Result = &result
	}
	return resp
}

// NewImportResponse builds the response from an import batch.
func NewImportResponse(b domain.ImportBatch) ImportResponse {
	return ImportResponse{
		BatchID:   b.ID,
		CreatedAt: b.CreatedAt,
		Committed: b.Committed,
		Accepted:  b.AcceptedCount(),
		Rejected:  b.RejectedCount(),
		Rows:      b.Rejected(),
	}
}
