package dto

// DetectRequest payload for POST predictions. Pointers distinguish a missing
// coordinate from a legitimate zero.
type DetectRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}
