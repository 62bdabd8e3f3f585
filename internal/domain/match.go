package domain

// MatchResult - one ranked parking candidate. SpotID is a weak reference,
// resolve it through the record store.
type MatchResult struct {
	SpotID         string  `json:"spot_id"`
	DistanceMeters float64 `json:"distance_m"`
	Rank           int     `json:"rank"`
	Eligible       bool    `json:"eligible"`
}
