package domain

import "time"

// RefreshState - state of the index refresh state machine
type RefreshState string

const (
	RefreshIdle       RefreshState = "idle"
	RefreshRefreshing RefreshState = "refreshing"
	RefreshError      RefreshState = "error"
)

// RefreshReason - what asked for a rebuild
type RefreshReason string

const (
	ReasonStartup      RefreshReason = "startup"
	ReasonImport       RefreshReason = "import"
	ReasonAvailability RefreshReason = "availability"
	ReasonTimer        RefreshReason = "timer"
	ReasonRetry        RefreshReason = "retry"
	ReasonManual       RefreshReason = "manual"
)

// RefreshStatus - snapshot published to subscribers
type RefreshStatus struct {
	State         RefreshState  `json:"state"`
	LastReason    RefreshReason `json:"last_reason,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastSuccessAt time.Time     `json:"last_success_at,omitempty"`
	Rebuilds      int64         `json:"rebuilds"`
	IndexedSpots  int           `json:"indexed_spots"`
}
