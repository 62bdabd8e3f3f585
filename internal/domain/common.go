package domain

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// CatalogStats - counts reported by the stats endpoint
type CatalogStats struct {
	IndexedSpots int           `json:"indexed_spots"`
	Location     FixState      `json:"location_state"`
	Refresh      RefreshStatus `json:"refresh"`
}
