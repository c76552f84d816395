package dto

// LocationRequest describes PUT /api/partners/location. Pointers tell a
// missing coordinate apart from zero.
type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}
