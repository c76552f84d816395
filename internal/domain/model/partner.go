package model

import "time"

const (
	// MaxActiveOrders bounds how many undelivered orders a partner may carry.
	MaxActiveOrders = 3
	// DefaultAverageDeliveryTime is used for partners that have no history yet.
	DefaultAverageDeliveryTime = 30
	// MinAverageDeliveryTime is the lower bound accepted for the ETA model.
	MinAverageDeliveryTime = 5
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are inside the WGS84 ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// DeliveryPartner is the dispatch profile of a delivery-role user.
type DeliveryPartner struct {
	UserID              int64
	Name                string
	Email               string
	Active              bool
	IsAvailable         bool
	CurrentOrders       []int64
	Location            Location
	LocationUpdatedAt   *time.Time
	AverageDeliveryTime int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasCapacity reports whether one more order fits.
func (p *DeliveryPartner) HasCapacity() bool {
	return len(p.CurrentOrders) < MaxActiveOrders
}

// Carries reports whether the order is already in the partner's queue.
func (p *DeliveryPartner) Carries(orderID int64) bool {
	for _, id := range p.CurrentOrders {
		if id == orderID {
			return true
		}
	}
	return false
}

// DeliveryMinutes returns the average delivery time clamped to the supported minimum.
func (p *DeliveryPartner) DeliveryMinutes() int {
	if p.AverageDeliveryTime < MinAverageDeliveryTime {
		return MinAverageDeliveryTime
	}
	return p.AverageDeliveryTime
}

// PartnerFilter narrows partner listings.
type PartnerFilter struct {
	AvailableOnly bool
}
